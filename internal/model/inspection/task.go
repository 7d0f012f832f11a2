/**
 * 模型:检测任务
 * @author: sun977
 * @date: 2025.11.08
 * @description: 检测任务类型、任务状态、任务请求的数据模型
 * @func: TaskType/TaskState/TaskStatus/TaskRequest定义
 */
package inspection

import (
	"encoding/json"
	"time"
)

// TaskType 检测任务类型
// 对应产线上的五个检测工位
type TaskType string

const (
	TaskCase    TaskType = "CASE"    // 盒体检测
	TaskBox     TaskType = "BOX"     // 箱体检测
	TaskCover   TaskType = "COVER"   // 盖板检测
	TaskFolding TaskType = "FOLDING" // 折叠检测
	TaskFinal   TaskType = "FINAL"   // 终检
)

// AllTaskTypes 返回全部已知任务类型，顺序固定
func AllTaskTypes() []TaskType {
	return []TaskType{TaskCase, TaskBox, TaskCover, TaskFolding, TaskFinal}
}

// IsValid 判断是否为已知任务类型
func (t TaskType) IsValid() bool {
	switch t {
	case TaskCase, TaskBox, TaskCover, TaskFolding, TaskFinal:
		return true
	}
	return false
}

// TaskState 任务状态机状态
type TaskState string

const (
	StateIdle      TaskState = "IDLE"      // 空闲
	StateRunning   TaskState = "RUNNING"   // 执行中
	StateCompleted TaskState = "COMPLETED" // 已完成
	StateError     TaskState = "ERROR"     // 出错
)

// TaskStatus 单个任务类型的状态快照
// Revision 随每次状态写入单调递增，消费方据此识别过期快照
type TaskStatus struct {
	TaskType TaskType  `json:"task_type"` // 任务类型
	State    TaskState `json:"status"`    // 当前状态
	Revision uint64    `json:"index"`     // 状态版本号
}

// TaskRequest 入队的任务请求
// TaskType 保留消息中的原始值，未知类型同样入队，由调度器判定后置为ERROR
type TaskRequest struct {
	TaskType   string          `json:"task_type"`   // 原始任务类型
	Payload    json.RawMessage `json:"payload"`     // 消息原文，供分析器使用
	EnqueuedAt time.Time       `json:"enqueued_at"` // 入队时间
}
