package sqldb

import (
	"context"
	"errors"

	"neoinspect/internal/model/inspection"

	"gorm.io/gorm"
)

// OrderContextRepository 工单上下文仓库接口
// 单行表，整体替换语义
type OrderContextRepository interface {
	Replace(ctx context.Context, record *inspection.OrderContextRecord) error
	Load(ctx context.Context) (*inspection.OrderContextRecord, error)
}

type orderContextRepository struct {
	db *gorm.DB
}

func NewOrderContextRepository(db *gorm.DB) OrderContextRepository {
	return &orderContextRepository{
		db: db,
	}
}

// Replace 整体替换当前工单上下文
// 事务内先清空再插入，保证读方看到的要么是旧工单要么是新工单
func (r *orderContextRepository) Replace(ctx context.Context, record *inspection.OrderContextRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&inspection.OrderContextRecord{}).Error; err != nil {
			return err
		}
		return tx.Create(record).Error
	})
}

// Load 读取当前生效的工单上下文，无记录时返回nil
func (r *orderContextRepository) Load(ctx context.Context) (*inspection.OrderContextRecord, error) {
	var record inspection.OrderContextRecord
	err := r.db.WithContext(ctx).Order("id desc").First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
