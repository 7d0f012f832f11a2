package inspection

import (
	"context"
	"sync"
	"testing"

	model "neoinspect/internal/model/inspection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusRegistryInitialState(t *testing.T) {
	registry := NewStatusRegistry(nil)

	snapshots := registry.Snapshot()
	require.Len(t, snapshots, len(model.AllTaskTypes()))

	for _, status := range snapshots {
		assert.Equal(t, model.StateIdle, status.State)
		assert.Equal(t, uint64(0), status.Revision)
	}
}

func TestStatusRegistrySetState(t *testing.T) {
	registry := NewStatusRegistry(nil)

	status, ok := registry.SetState(model.TaskCase, model.StateRunning)
	require.True(t, ok)
	assert.Equal(t, model.StateRunning, status.State)
	assert.Equal(t, uint64(1), status.Revision)

	status, ok = registry.SetState(model.TaskCase, model.StateCompleted)
	require.True(t, ok)
	assert.Equal(t, model.StateCompleted, status.State)
	assert.Equal(t, uint64(2), status.Revision)

	// 其他任务类型的版本号不受影响
	other, ok := registry.Get(model.TaskBox)
	require.True(t, ok)
	assert.Equal(t, uint64(0), other.Revision)
}

func TestStatusRegistryUnknownType(t *testing.T) {
	registry := NewStatusRegistry(nil)

	_, ok := registry.SetState(model.TaskType("SHIP"), model.StateRunning)
	assert.False(t, ok)

	_, ok = registry.Get(model.TaskType("SHIP"))
	assert.False(t, ok)
}

func TestStatusRegistryRevisionMonotonic(t *testing.T) {
	registry := NewStatusRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			registry.SetState(model.TaskFolding, model.StateRunning)
			registry.SetState(model.TaskFolding, model.StateCompleted)
		}()
	}
	wg.Wait()

	status, ok := registry.Get(model.TaskFolding)
	require.True(t, ok)
	assert.Equal(t, uint64(100), status.Revision)
}

// mirrorRecorder 状态镜像写入的测试替身
type mirrorRecorder struct {
	mu       sync.Mutex
	statuses []*model.TaskStatus
	err      error
}

func (m *mirrorRecorder) WriteStatus(ctx context.Context, status *model.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.statuses = append(m.statuses, status)
	return nil
}

func TestStatusRegistryMirror(t *testing.T) {
	mirror := &mirrorRecorder{}
	registry := NewStatusRegistry(mirror)

	registry.SetState(model.TaskCover, model.StateRunning)

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	require.Len(t, mirror.statuses, 1)
	assert.Equal(t, model.TaskCover, mirror.statuses[0].TaskType)
	assert.Equal(t, model.StateRunning, mirror.statuses[0].State)
}

func TestStatusRegistryMirrorFailureDoesNotBlock(t *testing.T) {
	mirror := &mirrorRecorder{err: assert.AnError}
	registry := NewStatusRegistry(mirror)

	status, ok := registry.SetState(model.TaskFinal, model.StateRunning)
	require.True(t, ok)
	assert.Equal(t, uint64(1), status.Revision)
}
