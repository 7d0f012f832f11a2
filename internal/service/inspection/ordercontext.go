/**
 * 服务:工单上下文存储
 * @author: sun977
 * @date: 2025.11.09
 * @description: 当前生效工单上下文的内存存储与持久化，整体替换语义
 */
package inspection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	model "neoinspect/internal/model/inspection"
	"neoinspect/internal/pkg/logger"
	"neoinspect/internal/repo/sqldb"

	"github.com/sirupsen/logrus"
)

// OrderContextStore 工单上下文存储
// 同一时刻只有一份生效工单，替换是原子的：要么整体生效，要么保持原样
type OrderContextStore struct {
	mu      sync.RWMutex
	current model.OrderContext
	repo    sqldb.OrderContextRepository
}

// NewOrderContextStore 创建工单上下文存储
func NewOrderContextStore(repo sqldb.OrderContextRepository) *OrderContextStore {
	return &OrderContextStore{
		repo: repo,
	}
}

// Restore 启动时从持久化存储恢复最后一次生效的工单
func (s *OrderContextStore) Restore(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	record, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load order context: %w", err)
	}
	if record == nil {
		return nil
	}

	var order model.OrderContext
	if err := json.Unmarshal([]byte(record.Payload), &order); err != nil {
		// 持久化记录损坏时从空工单启动，不阻断服务
		logger.LogError(err, "order_context", "restore", map[string]interface{}{
			"order_no": record.OrderNo,
		})
		return nil
	}

	s.mu.Lock()
	s.current = order
	s.mu.Unlock()

	logger.LogSystemEvent("order_context", "restore",
		fmt.Sprintf("restored order context %s", order.OrderNo()),
		logrus.InfoLevel, nil)

	return nil
}

// Replace 整体替换当前工单上下文
// 解析失败或缺少必填字段时返回ErrMalformedOrderContext，原工单保持生效
func (s *OrderContextStore) Replace(ctx context.Context, payload []byte) error {
	var order model.OrderContext
	if err := json.Unmarshal(payload, &order); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOrderContext, err)
	}

	if err := order.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedOrderContext, err)
	}

	// 先持久化再切换内存，持久化失败时原工单保持生效
	if s.repo != nil {
		record := &model.OrderContextRecord{
			OrderNo: order.OrderNo(),
			Payload: string(payload),
		}
		if err := s.repo.Replace(ctx, record); err != nil {
			return fmt.Errorf("failed to persist order context: %w", err)
		}
	}

	s.mu.Lock()
	s.current = order
	s.mu.Unlock()

	return nil
}

// Current 返回当前工单上下文的快照，无生效工单时返回nil
func (s *OrderContextStore) Current() model.OrderContext {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// OrderNo 返回当前工单号，无生效工单时返回空串
func (s *OrderContextStore) OrderNo() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.OrderNo()
}
