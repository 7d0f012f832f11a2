package inspection

import (
	"context"
	"testing"
	"time"

	model "neoinspect/internal/model/inspection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeatBeatsAllTaskTypes(t *testing.T) {
	sink := newFakeSink()
	reporter := NewHeartbeatReporter(sink, time.Hour, 0)

	reporter.beatAll(context.Background())

	tasks := sink.heartbeatTasks()
	require.Len(t, tasks, len(model.AllTaskTypes()))
	for i, taskType := range model.AllTaskTypes() {
		assert.Equal(t, string(taskType), tasks[i])
	}

	// 每条心跳携带PING标记和时间戳
	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, hb := range sink.heartbeats {
		assert.True(t, hb.Ping)
		assert.NotEmpty(t, hb.Time)
	}
}

func TestHeartbeatFailureIsolation(t *testing.T) {
	sink := newFakeSink()
	// CASE的心跳失败，其余任务类型不受影响
	sink.heartbeatErr["CASE"] = assert.AnError

	reporter := NewHeartbeatReporter(sink, time.Hour, 0)
	reporter.beatAll(context.Background())

	tasks := sink.heartbeatTasks()
	assert.Len(t, tasks, len(model.AllTaskTypes())-1)
	assert.NotContains(t, tasks, "CASE")
	assert.Contains(t, tasks, "BOX")
	assert.Contains(t, tasks, "FINAL")
}

func TestHeartbeatPeriodicReporting(t *testing.T) {
	sink := newFakeSink()
	reporter := NewHeartbeatReporter(sink, 20*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	reporter.Start(ctx)

	// 启动立即一轮，随后按周期上报
	expected := 3 * len(model.AllTaskTypes())
	require.Eventually(t, func() bool {
		sink.mu.Lock()
		defer sink.mu.Unlock()
		return len(sink.heartbeats) >= expected
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	reporter.Wait()
}

func TestHeartbeatStopOnContextCancel(t *testing.T) {
	sink := newFakeSink()
	reporter := NewHeartbeatReporter(sink, 10*time.Millisecond, 0)

	ctx, cancel := context.WithCancel(context.Background())
	reporter.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		reporter.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat reporter did not stop")
	}
}

func TestHeartbeatDefaultInterval(t *testing.T) {
	reporter := NewHeartbeatReporter(newFakeSink(), 0, 0)
	assert.Equal(t, 60*time.Second, reporter.interval)
}
