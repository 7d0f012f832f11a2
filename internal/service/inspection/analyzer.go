/**
 * 服务:分析器接口
 * @author: sun977
 * @date: 2025.11.09
 * @description: 检测分析器的抽象接口，具体算法实现在analyzer包
 */
package inspection

import (
	"context"
	"encoding/json"

	model "neoinspect/internal/model/inspection"
)

// AnalysisInput 单次分析的输入
type AnalysisInput struct {
	TaskType model.TaskType     // 任务类型
	Order    model.OrderContext // 当前生效的工单上下文快照
	Payload  json.RawMessage    // 任务启动消息原文
	Handoff  interface{}        // FINAL任务时携带FOLDING的交接数据，其余为nil
}

// TaskAnalyzer 检测分析器接口
// 实现方对单次调用负责，调度器保证同一时刻只有一次调用在执行
type TaskAnalyzer interface {
	Analyze(ctx context.Context, input *AnalysisInput) (*model.AnalysisOutcome, error)
}
