/**
 * 服务:任务状态注册表
 * @author: sun977
 * @date: 2025.11.09
 * @description: 维护各任务类型的状态快照，版本号单调递增
 */
package inspection

import (
	"context"
	"sync"
	"time"

	model "neoinspect/internal/model/inspection"
	"neoinspect/internal/pkg/logger"
)

// StatusMirrorWriter 状态镜像写入接口
// 镜像写入是尽力而为的，失败只记日志，不影响状态注册表本身
type StatusMirrorWriter interface {
	WriteStatus(ctx context.Context, status *model.TaskStatus) error
}

// StatusRegistry 任务状态注册表
// 每种已知任务类型一条记录，状态写入时版本号加一
type StatusRegistry struct {
	mu       sync.RWMutex
	statuses map[model.TaskType]*model.TaskStatus
	mirror   StatusMirrorWriter
}

// NewStatusRegistry 创建状态注册表，所有任务类型初始为IDLE
func NewStatusRegistry(mirror StatusMirrorWriter) *StatusRegistry {
	statuses := make(map[model.TaskType]*model.TaskStatus, len(model.AllTaskTypes()))
	for _, taskType := range model.AllTaskTypes() {
		statuses[taskType] = &model.TaskStatus{
			TaskType: taskType,
			State:    model.StateIdle,
			Revision: 0,
		}
	}

	return &StatusRegistry{
		statuses: statuses,
		mirror:   mirror,
	}
}

// SetState 更新指定任务类型的状态并递增版本号
// 未知任务类型不入注册表，调用方应先校验
func (r *StatusRegistry) SetState(taskType model.TaskType, state model.TaskState) (model.TaskStatus, bool) {
	r.mu.Lock()
	status, ok := r.statuses[taskType]
	if !ok {
		r.mu.Unlock()
		return model.TaskStatus{}, false
	}

	status.State = state
	status.Revision++
	snapshot := *status
	r.mu.Unlock()

	r.writeMirror(&snapshot)

	return snapshot, true
}

// Get 读取指定任务类型的状态快照
func (r *StatusRegistry) Get(taskType model.TaskType) (model.TaskStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[taskType]
	if !ok {
		return model.TaskStatus{}, false
	}
	return *status, true
}

// Snapshot 读取全部任务类型的状态快照，顺序固定
func (r *StatusRegistry) Snapshot() []model.TaskStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshots := make([]model.TaskStatus, 0, len(r.statuses))
	for _, taskType := range model.AllTaskTypes() {
		if status, ok := r.statuses[taskType]; ok {
			snapshots = append(snapshots, *status)
		}
	}
	return snapshots
}

// writeMirror 写入状态镜像
func (r *StatusRegistry) writeMirror(status *model.TaskStatus) {
	if r.mirror == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.mirror.WriteStatus(ctx, status); err != nil {
		logger.LogError(err, "status_registry", "write_mirror", map[string]interface{}{
			"task_type": string(status.TaskType),
		})
	}
}
