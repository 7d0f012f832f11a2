/**
 * 服务:任务调度器
 * @author: sun977
 * @date: 2025.11.09
 * @description: 单飞任务调度器，串行消费任务队列，持全局执行许可调用分析器
 */
package inspection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	model "neoinspect/internal/model/inspection"
	"neoinspect/internal/pkg/client"
	"neoinspect/internal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Dispatcher 单飞任务调度器
// 单个工作协程消费队列，处理期间持有全局执行许可，保证分析器串行执行
type Dispatcher struct {
	queue    *TaskQueue
	registry *StatusRegistry
	orders   *OrderContextStore
	ledger   *ArtifactLedger
	handoff  *HandoffSlot
	analyzer TaskAnalyzer
	sink     client.SinkClient

	// 全局执行许可，processOne全程持有，异常路径由defer释放
	permit sync.Mutex

	analyzerTimeout time.Duration

	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// DispatcherOptions 调度器依赖项
type DispatcherOptions struct {
	Queue           *TaskQueue
	Registry        *StatusRegistry
	Orders          *OrderContextStore
	Ledger          *ArtifactLedger
	Handoff         *HandoffSlot
	Analyzer        TaskAnalyzer
	Sink            client.SinkClient
	AnalyzerTimeout time.Duration // 单次分析超时，0表示不限制
}

// NewDispatcher 创建任务调度器
func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	return &Dispatcher{
		queue:           opts.Queue,
		registry:        opts.Registry,
		orders:          opts.Orders,
		ledger:          opts.Ledger,
		handoff:         opts.Handoff,
		analyzer:        opts.Analyzer,
		sink:            opts.Sink,
		analyzerTimeout: opts.AnalyzerTimeout,
	}
}

// Start 启动调度工作协程，ctx取消后协程退出
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx)
}

// Wait 等待调度协程退出
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// run 调度主循环
func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	logger.LogSystemEvent("dispatcher", "start", "dispatcher worker started", logrus.InfoLevel, nil)

	for {
		req, err := d.queue.Pop(ctx)
		if err != nil {
			logger.LogSystemEvent("dispatcher", "stop", "dispatcher worker stopped", logrus.InfoLevel, nil)
			return
		}
		d.processOne(ctx, req)
	}
}

// processOne 处理单个任务请求
// 全程持有全局执行许可，defer保证任何路径下许可都被释放
func (d *Dispatcher) processOne(ctx context.Context, req *model.TaskRequest) {
	d.permit.Lock()
	defer d.permit.Unlock()

	taskType := model.TaskType(req.TaskType)

	// 无工单上下文时回传UNKNOWN，产线侧接口约定
	orderNo := d.orders.OrderNo()
	if orderNo == "" {
		orderNo = "UNKNOWN"
	}

	// 未知任务类型：不进状态注册表，直接回传ERROR结果
	if !taskType.IsValid() {
		err := fmt.Errorf("%w: %s", ErrUnknownTaskType, req.TaskType)
		logger.LogError(err, "dispatcher", "dispatch", map[string]interface{}{
			"task_type": req.TaskType,
		})
		d.publishResult(ctx, &model.TaskResult{
			Name:       req.TaskType,
			Result:     string(model.ResultError),
			OrderNo:    orderNo,
			Confidence: "0%",
			Details:    "Unknown task",
		})
		return
	}

	d.registry.SetState(taskType, model.StateRunning)
	logger.LogTaskOperation("dispatch", string(taskType), orderNo, "success", "task dispatched", nil)

	input := &AnalysisInput{
		TaskType: taskType,
		Order:    d.orders.Current(),
		Payload:  req.Payload,
	}

	// FINAL工序消费FOLDING的交接数据
	if taskType == model.TaskFinal {
		if value, ok := d.handoff.Take(); ok {
			input.Handoff = value
		}
	}

	outcome := d.runAnalyzer(ctx, input)

	// FOLDING工序产生交接数据
	if taskType == model.TaskFolding && outcome.Handoff != nil {
		d.handoff.Put(outcome.Handoff)
	}

	// 产物入台账
	if outcome.ArtifactPath != "" {
		if _, err := d.ledger.Record(ctx, taskType, orderNo, outcome.ArtifactPath, string(outcome.Status), outcome.Details); err != nil {
			logger.LogError(err, "dispatcher", "record_artifact", map[string]interface{}{
				"task_type":     string(taskType),
				"artifact_path": outcome.ArtifactPath,
			})
		}
	}

	// 状态落定，只有OK记为COMPLETED，NG和ERROR都落ERROR
	if outcome.Status == model.ResultOK {
		d.registry.SetState(taskType, model.StateCompleted)
	} else {
		d.registry.SetState(taskType, model.StateError)
	}

	// 结果回传
	d.publishResult(ctx, &model.TaskResult{
		Name:       string(taskType),
		Result:     string(outcome.Status),
		OrderNo:    orderNo,
		Confidence: outcome.Confidence,
		Details:    outcome.Details,
	})

	// NG产物上传，供人工复核
	if outcome.Status == model.ResultNG && outcome.ArtifactPath != "" {
		d.uploadArtifact(ctx, taskType, orderNo, outcome.ArtifactPath, outcome.Details)
	}

	logger.LogTaskOperation("complete", string(taskType), orderNo, "success",
		fmt.Sprintf("task finished with result %s", outcome.Status), nil)
}

// runAnalyzer 调用分析器并兜底异常
// 分析器panic或报错都收敛为ERROR结果，不中断调度循环
func (d *Dispatcher) runAnalyzer(ctx context.Context, input *AnalysisInput) (outcome *model.AnalysisOutcome) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", ErrAnalyzerFailure, r)
			logger.LogError(err, "dispatcher", "analyze", map[string]interface{}{
				"task_type": string(input.TaskType),
			})
			outcome = &model.AnalysisOutcome{
				Status:     model.ResultError,
				Confidence: "0%",
				Details:    fmt.Sprintf("analyzer panic: %v", r),
			}
		}
	}()

	actx := ctx
	if d.analyzerTimeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(ctx, d.analyzerTimeout)
		defer cancel()
	}

	result, err := d.analyzer.Analyze(actx, input)
	if err != nil {
		wrapped := err
		if !errors.Is(err, ErrAnalyzerFailure) {
			wrapped = fmt.Errorf("%w: %v", ErrAnalyzerFailure, err)
		}
		logger.LogError(wrapped, "dispatcher", "analyze", map[string]interface{}{
			"task_type": string(input.TaskType),
		})
		return &model.AnalysisOutcome{
			Status:     model.ResultError,
			Confidence: "0%",
			Details:    err.Error(),
		}
	}

	if result == nil {
		return &model.AnalysisOutcome{
			Status:     model.ResultError,
			Confidence: "0%",
			Details:    "analyzer returned no outcome",
		}
	}

	return result
}

// publishResult 回传任务结果
// 外发失败只记日志，任务状态不回滚
func (d *Dispatcher) publishResult(ctx context.Context, result *model.TaskResult) {
	if err := d.sink.PublishResult(ctx, result); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrSinkDeliveryFailure, err)
		logger.LogError(wrapped, "dispatcher", "publish_result", map[string]interface{}{
			"task_type": result.Name,
			"order_no":  result.OrderNo,
		})
	}
}

// uploadArtifact NG产物上传
// QC_CODE字段携带分析详情，复核侧据此定位缺陷
func (d *Dispatcher) uploadArtifact(ctx context.Context, taskType model.TaskType, orderNo, relPath, details string) {
	fullPath := d.ledger.ResolvePath(relPath)
	if err := d.sink.UploadArtifact(ctx, fullPath, string(taskType), orderNo, details); err != nil {
		wrapped := fmt.Errorf("%w: %v", ErrSinkDeliveryFailure, err)
		logger.LogError(wrapped, "dispatcher", "upload_artifact", map[string]interface{}{
			"task_type":     string(taskType),
			"artifact_path": relPath,
		})
	}
}
