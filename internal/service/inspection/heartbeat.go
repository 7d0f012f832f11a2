/**
 * 服务:心跳上报器
 * @author: sun977
 * @date: 2025.11.09
 * @description: 固定间隔向产线侧上报各任务类型的心跳，单条失败不影响其余
 */
package inspection

import (
	"context"
	"sync"
	"time"

	model "neoinspect/internal/model/inspection"
	"neoinspect/internal/pkg/client"
	"neoinspect/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// HeartbeatReporter 心跳上报器
// 每个周期为每种任务类型各发一条心跳，产线侧据此判断对应工位的AI服务在线
type HeartbeatReporter struct {
	sink     client.SinkClient
	interval time.Duration
	timeout  time.Duration

	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewHeartbeatReporter 创建心跳上报器
func NewHeartbeatReporter(sink client.SinkClient, interval, timeout time.Duration) *HeartbeatReporter {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &HeartbeatReporter{
		sink:     sink,
		interval: interval,
		timeout:  timeout,
	}
}

// Start 启动心跳协程，ctx取消后退出
func (h *HeartbeatReporter) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()

	h.wg.Add(1)
	go h.run(ctx)
}

// Wait 等待心跳协程退出
func (h *HeartbeatReporter) Wait() {
	h.wg.Wait()
}

// run 心跳主循环
func (h *HeartbeatReporter) run(ctx context.Context) {
	defer h.wg.Done()

	logger.LogSystemEvent("heartbeat", "start", "heartbeat reporter started", logrus.InfoLevel,
		map[string]interface{}{"interval": h.interval.String()})

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// 启动后立即上报一轮，让产线侧尽快感知服务在线
	h.beatAll(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.LogSystemEvent("heartbeat", "stop", "heartbeat reporter stopped", logrus.InfoLevel, nil)
			return
		case <-ticker.C:
			h.beatAll(ctx)
		}
	}
}

// beatAll 为每种任务类型上报一条心跳
// 单条上报失败只记日志，继续处理剩余任务类型
func (h *HeartbeatReporter) beatAll(ctx context.Context) {
	for _, taskType := range model.AllTaskTypes() {
		record := &model.HeartbeatRecord{
			AITask: string(taskType),
			Time:   logger.NowFormatted(),
			Ping:   true,
		}

		bctx := ctx
		if h.timeout > 0 {
			var cancel context.CancelFunc
			bctx, cancel = context.WithTimeout(ctx, h.timeout)
			if err := h.sink.SendHeartbeat(bctx, record); err != nil {
				logger.LogError(err, "heartbeat", "send", map[string]interface{}{
					"task_type": string(taskType),
				})
			}
			cancel()
			continue
		}

		if err := h.sink.SendHeartbeat(bctx, record); err != nil {
			logger.LogError(err, "heartbeat", "send", map[string]interface{}{
				"task_type": string(taskType),
			})
		}
	}
}
