/**
 * 服务:产物台账
 * @author: sun977
 * @date: 2025.11.09
 * @description: 检测产物文件的台账，每种任务类型保留最近若干条，新记录在前
 */
package inspection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	model "neoinspect/internal/model/inspection"
	"neoinspect/internal/pkg/logger"
	"neoinspect/internal/repo/sqldb"

	"github.com/sirupsen/logrus"
)

// ArtifactLedger 产物台账
// 内存中按任务类型维护新在前的记录列表，写入同时落库，重启后从库恢复
type ArtifactLedger struct {
	mu       sync.Mutex
	limit    int
	mediaDir string
	entries  map[model.TaskType][]*model.ArtifactRecord
	repo     sqldb.ArtifactRepository
}

// NewArtifactLedger 创建产物台账
func NewArtifactLedger(repo sqldb.ArtifactRepository, limit int, mediaDir string) *ArtifactLedger {
	if limit <= 0 {
		limit = 4
	}
	return &ArtifactLedger{
		limit:    limit,
		mediaDir: mediaDir,
		entries:  make(map[model.TaskType][]*model.ArtifactRecord),
		repo:     repo,
	}
}

// Restore 启动时从持久化存储恢复台账
// 未知任务类型的历史记录直接丢弃
func (l *ArtifactLedger) Restore(ctx context.Context) error {
	if l.repo == nil {
		return nil
	}

	grouped, err := l.repo.ListAll(ctx, l.limit)
	if err != nil {
		return fmt.Errorf("failed to load artifact ledger: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for taskTypeStr, records := range grouped {
		taskType := model.TaskType(taskTypeStr)
		if !taskType.IsValid() {
			logger.LogSystemEvent("artifact_ledger", "drop_unknown_type",
				fmt.Sprintf("dropped %d records of unknown task type %s", len(records), taskTypeStr),
				logrus.WarnLevel, nil)
			continue
		}
		if len(records) > l.limit {
			records = records[:l.limit]
		}
		l.entries[taskType] = records
	}

	return nil
}

// Record 记录一条产物
// relPath 为相对媒体目录的路径，文件不存在时返回ErrArtifactNotFound，台账不变
func (l *ArtifactLedger) Record(ctx context.Context, taskType model.TaskType, orderNo, relPath, verdict, details string) (*model.ArtifactRecord, error) {
	fullPath := filepath.Join(l.mediaDir, relPath)
	if _, err := os.Stat(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtifactNotFound, relPath)
		}
		return nil, fmt.Errorf("failed to stat artifact file: %w", err)
	}

	record := &model.ArtifactRecord{
		TaskType:   string(taskType),
		OrderNo:    orderNo,
		FilePath:   relPath,
		Verdict:    verdict,
		Details:    details,
		RecordedAt: time.Now(),
	}

	if l.repo != nil {
		if err := l.repo.CreateRecord(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist artifact record: %w", err)
		}
		if err := l.repo.TrimToLimit(ctx, string(taskType), l.limit); err != nil {
			// 裁剪失败不影响本次记录，下次写入时重试
			logger.LogError(err, "artifact_ledger", "trim", map[string]interface{}{
				"task_type": string(taskType),
			})
		}
	}

	l.mu.Lock()
	records := append([]*model.ArtifactRecord{record}, l.entries[taskType]...)
	if len(records) > l.limit {
		records = records[:l.limit]
	}
	l.entries[taskType] = records
	l.mu.Unlock()

	return record, nil
}

// Latest 返回指定任务类型的最新产物记录
func (l *ArtifactLedger) Latest(taskType model.TaskType) (*model.ArtifactRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.entries[taskType]
	if len(records) == 0 {
		return nil, false
	}
	return records[0], true
}

// ListByType 返回指定任务类型的全部台账记录，新记录在前
func (l *ArtifactLedger) ListByType(taskType model.TaskType) []*model.ArtifactRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := l.entries[taskType]
	copied := make([]*model.ArtifactRecord, len(records))
	copy(copied, records)
	return copied
}

// LatestAll 返回每种任务类型的最新产物记录
func (l *ArtifactLedger) LatestAll() map[model.TaskType]*model.ArtifactRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	latest := make(map[model.TaskType]*model.ArtifactRecord)
	for taskType, records := range l.entries {
		if len(records) > 0 {
			latest[taskType] = records[0]
		}
	}
	return latest
}

// ListAll 返回全部任务类型的台账记录，新记录在前
func (l *ArtifactLedger) ListAll() map[model.TaskType][]*model.ArtifactRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	all := make(map[model.TaskType][]*model.ArtifactRecord, len(l.entries))
	for taskType, records := range l.entries {
		copied := make([]*model.ArtifactRecord, len(records))
		copy(copied, records)
		all[taskType] = copied
	}
	return all
}

// MediaDir 返回媒体目录根路径
func (l *ArtifactLedger) MediaDir() string {
	return l.mediaDir
}

// ResolvePath 将相对路径解析为媒体目录下的绝对路径
func (l *ArtifactLedger) ResolvePath(relPath string) string {
	return filepath.Join(l.mediaDir, relPath)
}
