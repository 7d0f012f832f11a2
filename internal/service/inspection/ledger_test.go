package inspection

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	model "neoinspect/internal/model/inspection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArtifactFile 在媒体目录下写一个占位产物文件
func writeArtifactFile(t *testing.T, mediaDir, relPath string) {
	t.Helper()
	fullPath := filepath.Join(mediaDir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte("frame"), 0644))
}

func TestLedgerRecordAndLatest(t *testing.T) {
	mediaDir := t.TempDir()
	ledger := NewArtifactLedger(&fakeArtifactRepo{}, 4, mediaDir)

	writeArtifactFile(t, mediaDir, "CASE/frame_1.jpg")

	record, err := ledger.Record(context.Background(), model.TaskCase, "ORD-001", "CASE/frame_1.jpg", "OK", "all checks passed")
	require.NoError(t, err)
	assert.Equal(t, "CASE/frame_1.jpg", record.FilePath)
	assert.Equal(t, "all checks passed", record.Details)

	latest, ok := ledger.Latest(model.TaskCase)
	require.True(t, ok)
	assert.Equal(t, "CASE/frame_1.jpg", latest.FilePath)
}

func TestLedgerMissingFileRejected(t *testing.T) {
	mediaDir := t.TempDir()
	repo := &fakeArtifactRepo{}
	ledger := NewArtifactLedger(repo, 4, mediaDir)

	_, err := ledger.Record(context.Background(), model.TaskCase, "ORD-001", "CASE/missing.jpg", "OK", "")
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	// 台账与持久化存储都不变
	_, ok := ledger.Latest(model.TaskCase)
	assert.False(t, ok)
	assert.Equal(t, 0, repo.count())
}

func TestLedgerBoundNewestFirst(t *testing.T) {
	mediaDir := t.TempDir()
	repo := &fakeArtifactRepo{}
	ledger := NewArtifactLedger(repo, 4, mediaDir)

	for i := 1; i <= 6; i++ {
		relPath := fmt.Sprintf("BOX/frame_%d.jpg", i)
		writeArtifactFile(t, mediaDir, relPath)
		_, err := ledger.Record(context.Background(), model.TaskBox, "ORD-001", relPath, "OK", "")
		require.NoError(t, err)
	}

	records := ledger.ListByType(model.TaskBox)
	require.Len(t, records, 4)

	// 新记录在前，最旧的两条被挤出
	assert.Equal(t, "BOX/frame_6.jpg", records[0].FilePath)
	assert.Equal(t, "BOX/frame_5.jpg", records[1].FilePath)
	assert.Equal(t, "BOX/frame_4.jpg", records[2].FilePath)
	assert.Equal(t, "BOX/frame_3.jpg", records[3].FilePath)

	// 持久化存储同样被裁剪
	assert.Equal(t, 4, repo.count())
}

func TestLedgerPerTypeIsolation(t *testing.T) {
	mediaDir := t.TempDir()
	ledger := NewArtifactLedger(&fakeArtifactRepo{}, 4, mediaDir)

	writeArtifactFile(t, mediaDir, "CASE/a.jpg")
	writeArtifactFile(t, mediaDir, "COVER/b.jpg")

	_, err := ledger.Record(context.Background(), model.TaskCase, "ORD-001", "CASE/a.jpg", "OK", "")
	require.NoError(t, err)
	_, err = ledger.Record(context.Background(), model.TaskCover, "ORD-001", "COVER/b.jpg", "NG", "")
	require.NoError(t, err)

	assert.Len(t, ledger.ListByType(model.TaskCase), 1)
	assert.Len(t, ledger.ListByType(model.TaskCover), 1)

	latest := ledger.LatestAll()
	assert.Len(t, latest, 2)
	assert.Equal(t, "CASE/a.jpg", latest[model.TaskCase].FilePath)
}

func TestLedgerRestore(t *testing.T) {
	repo := &fakeArtifactRepo{}
	now := time.Now()

	for i := 1; i <= 3; i++ {
		require.NoError(t, repo.CreateRecord(context.Background(), &model.ArtifactRecord{
			TaskType:   "FINAL",
			OrderNo:    "ORD-001",
			FilePath:   fmt.Sprintf("FINAL/f%d.jpg", i),
			Verdict:    "OK",
			RecordedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}
	// 历史库中残留的未知任务类型
	require.NoError(t, repo.CreateRecord(context.Background(), &model.ArtifactRecord{
		TaskType: "SHIP", FilePath: "SHIP/x.jpg", RecordedAt: now,
	}))

	ledger := NewArtifactLedger(repo, 4, t.TempDir())
	require.NoError(t, ledger.Restore(context.Background()))

	records := ledger.ListByType(model.TaskFinal)
	require.Len(t, records, 3)
	assert.Equal(t, "FINAL/f3.jpg", records[0].FilePath)

	// 未知任务类型被丢弃
	assert.Empty(t, ledger.ListByType(model.TaskType("SHIP")))
	all := ledger.ListAll()
	_, exists := all[model.TaskType("SHIP")]
	assert.False(t, exists)
}

func TestLedgerResolvePath(t *testing.T) {
	ledger := NewArtifactLedger(nil, 4, "/data/media")
	assert.Equal(t, filepath.Join("/data/media", "CASE/a.jpg"), ledger.ResolvePath("CASE/a.jpg"))
}
