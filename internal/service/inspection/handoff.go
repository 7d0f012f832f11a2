/**
 * 服务:工序交接槽
 * @author: sun977
 * @date: 2025.11.09
 * @description: FOLDING工序产生、FINAL工序消费的单值交接槽
 */
package inspection

import "sync"

// HandoffSlot 单值交接槽
// FOLDING任务写入、FINAL任务取走，取走后槽位清空
// 新值覆盖旧值，FINAL始终看到最近一次FOLDING的输出
type HandoffSlot struct {
	mu    sync.Mutex
	value interface{}
	set   bool
}

// NewHandoffSlot 创建交接槽
func NewHandoffSlot() *HandoffSlot {
	return &HandoffSlot{}
}

// Put 写入交接值，覆盖已有值
func (s *HandoffSlot) Put(value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.set = true
}

// Take 取走交接值并清空槽位
func (s *HandoffSlot) Take() (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		return nil, false
	}
	value := s.value
	s.value = nil
	s.set = false
	return value, true
}

// Peek 查看交接值，不清空槽位
func (s *HandoffSlot) Peek() (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.set
}
