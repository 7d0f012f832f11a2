package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"neoinspect/internal/model/inspection"

	"github.com/go-redis/redis/v8"
)

// 状态镜像键前缀
const statusKeyPrefix = "neoinspect:status:"

// StatusMirror 任务状态Redis镜像
// 供不触达本进程的外部看板轮询，只写不读，写失败不影响调度
type StatusMirror struct {
	client *redis.Client
}

// NewStatusMirror 创建状态镜像实例
func NewStatusMirror(client *redis.Client) *StatusMirror {
	return &StatusMirror{
		client: client,
	}
}

// WriteStatus 写入单个任务类型的状态快照
func (m *StatusMirror) WriteStatus(ctx context.Context, status *inspection.TaskStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal task status: %w", err)
	}

	key := statusKeyPrefix + string(status.TaskType)
	if err := m.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write status mirror: %w", err)
	}

	return nil
}

// ReadStatus 读取单个任务类型的状态快照，不存在时返回nil
func (m *StatusMirror) ReadStatus(ctx context.Context, taskType inspection.TaskType) (*inspection.TaskStatus, error) {
	key := statusKeyPrefix + string(taskType)
	data, err := m.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read status mirror: %w", err)
	}

	var status inspection.TaskStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task status: %w", err)
	}

	return &status, nil
}
