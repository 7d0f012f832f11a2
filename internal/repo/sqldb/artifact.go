package sqldb

import (
	"context"
	"errors"

	"neoinspect/internal/model/inspection"

	"gorm.io/gorm"
)

// ArtifactRepository 产物台账仓库接口
type ArtifactRepository interface {
	CreateRecord(ctx context.Context, record *inspection.ArtifactRecord) error
	TrimToLimit(ctx context.Context, taskType string, limit int) error
	ListByType(ctx context.Context, taskType string, limit int) ([]*inspection.ArtifactRecord, error)
	LatestByType(ctx context.Context, taskType string) (*inspection.ArtifactRecord, error)
	ListAll(ctx context.Context, limit int) (map[string][]*inspection.ArtifactRecord, error)
}

type artifactRepository struct {
	db *gorm.DB
}

func NewArtifactRepository(db *gorm.DB) ArtifactRepository {
	return &artifactRepository{
		db: db,
	}
}

// CreateRecord 插入一条产物记录
func (r *artifactRepository) CreateRecord(ctx context.Context, record *inspection.ArtifactRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// TrimToLimit 裁剪指定任务类型的记录，只保留最新的limit条
func (r *artifactRepository) TrimToLimit(ctx context.Context, taskType string, limit int) error {
	var keepIDs []uint64
	err := r.db.WithContext(ctx).Model(&inspection.ArtifactRecord{}).
		Where("task_type = ?", taskType).
		Order("recorded_at desc, id desc").
		Limit(limit).
		Pluck("id", &keepIDs).Error
	if err != nil {
		return err
	}

	if len(keepIDs) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Where("task_type = ? AND id NOT IN ?", taskType, keepIDs).
		Delete(&inspection.ArtifactRecord{}).Error
}

// ListByType 按任务类型查询产物记录，新记录在前
func (r *artifactRepository) ListByType(ctx context.Context, taskType string, limit int) ([]*inspection.ArtifactRecord, error) {
	var records []*inspection.ArtifactRecord
	err := r.db.WithContext(ctx).
		Where("task_type = ?", taskType).
		Order("recorded_at desc, id desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// LatestByType 查询指定任务类型的最新一条产物记录
func (r *artifactRepository) LatestByType(ctx context.Context, taskType string) (*inspection.ArtifactRecord, error) {
	var record inspection.ArtifactRecord
	err := r.db.WithContext(ctx).
		Where("task_type = ?", taskType).
		Order("recorded_at desc, id desc").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// ListAll 查询全部任务类型的产物记录，按任务类型分组，新记录在前
func (r *artifactRepository) ListAll(ctx context.Context, limit int) (map[string][]*inspection.ArtifactRecord, error) {
	var records []*inspection.ArtifactRecord
	err := r.db.WithContext(ctx).
		Order("recorded_at desc, id desc").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*inspection.ArtifactRecord)
	for _, record := range records {
		if limit > 0 && len(grouped[record.TaskType]) >= limit {
			continue
		}
		grouped[record.TaskType] = append(grouped[record.TaskType], record)
	}
	return grouped, nil
}
