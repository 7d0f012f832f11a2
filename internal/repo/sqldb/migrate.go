package sqldb

import (
	"fmt"

	"neoinspect/internal/model/inspection"

	"gorm.io/gorm"
)

// AutoMigrate 初始化数据表结构
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&inspection.ArtifactRecord{},
		&inspection.OrderContextRecord{},
	); err != nil {
		return fmt.Errorf("failed to migrate database schema: %w", err)
	}
	return nil
}
