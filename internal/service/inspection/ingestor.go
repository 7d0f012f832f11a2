/**
 * 服务:请求接入器
 * @author: sun977
 * @date: 2025.11.09
 * @description: 入站消息的解析与分发，工单更新走上下文存储，任务启动入队
 */
package inspection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	model "neoinspect/internal/model/inspection"
	"neoinspect/internal/pkg/logger"
)

// RequestIngestor 请求接入器
// 作为MQ消费回调挂在入站队列上，消息解析失败不影响已生效的状态
type RequestIngestor struct {
	queue  *TaskQueue
	orders *OrderContextStore
}

// NewRequestIngestor 创建请求接入器
func NewRequestIngestor(queue *TaskQueue, orders *OrderContextStore) *RequestIngestor {
	return &RequestIngestor{
		queue:  queue,
		orders: orders,
	}
}

// HandleOrderUpdate 处理工单上下文更新消息
// 畸形工单返回错误，原工单保持生效
func (i *RequestIngestor) HandleOrderUpdate(ctx context.Context, body []byte) error {
	if err := i.orders.Replace(ctx, body); err != nil {
		logger.LogTaskOperation("order_update", "", "", "failed", err.Error(), nil)
		return err
	}

	logger.LogTaskOperation("order_update", "", i.orders.OrderNo(), "success",
		"order context replaced", nil)
	return nil
}

// taskStartMessage 任务启动消息结构
type taskStartMessage struct {
	AITask string `json:"AI_TASK"`
}

// HandleTaskStart 处理任务启动消息
// 未知任务类型同样入队，由调度器判定后回传ERROR结果
func (i *RequestIngestor) HandleTaskStart(ctx context.Context, body []byte) error {
	var msg taskStartMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("failed to parse task start message: %w", err)
	}

	taskType := strings.TrimSpace(msg.AITask)
	if taskType == "" {
		return fmt.Errorf("task start message missing AI_TASK field")
	}

	i.queue.Push(&model.TaskRequest{
		TaskType:   taskType,
		Payload:    body,
		EnqueuedAt: time.Now(),
	})

	logger.LogTaskOperation("enqueue", taskType, i.orders.OrderNo(), "success",
		fmt.Sprintf("task enqueued, queue length %d", i.queue.Len()), nil)
	return nil
}
