/**
 * 服务:任务队列
 * @author: sun977
 * @date: 2025.11.09
 * @description: 无上界FIFO任务队列，入队永不阻塞，出队阻塞等待
 */
package inspection

import (
	"context"
	"sync"

	model "neoinspect/internal/model/inspection"
)

// TaskQueue 无上界FIFO任务队列
// 入队方是MQ消费协程，不允许被慢消费方阻塞，队列长度只受内存限制
type TaskQueue struct {
	mu     sync.Mutex
	items  []*model.TaskRequest
	signal chan struct{}
}

// NewTaskQueue 创建任务队列
// initialCapacity 只影响底层切片的预分配，不构成队列上界
func NewTaskQueue(initialCapacity int) *TaskQueue {
	if initialCapacity <= 0 {
		initialCapacity = 16
	}
	return &TaskQueue{
		items:  make([]*model.TaskRequest, 0, initialCapacity),
		signal: make(chan struct{}, 1),
	}
}

// Push 入队，永不阻塞
func (q *TaskQueue) Push(req *model.TaskRequest) {
	q.mu.Lock()
	q.items = append(q.items, req)
	q.mu.Unlock()

	// 唤醒等待中的消费方，信号通道带缓冲，满时丢弃
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop 出队，队列为空时阻塞等待，ctx取消时返回ctx错误
func (q *TaskQueue) Pop(ctx context.Context) (*model.TaskRequest, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			req := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return req, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.signal:
			// 被唤醒后重新检查队列，信号与元素并非一一对应
		}
	}
}

// Len 返回当前队列长度
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
