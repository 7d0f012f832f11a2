/**
 * 模型:分析结果与外发报文
 * @author: sun977
 * @date: 2025.11.08
 * @description: 分析器输出、结果下发报文、心跳报文的数据模型
 * @func: AnalysisOutcome/TaskResult/HeartbeatRecord定义
 */
package inspection

// ResultStatus 分析结果判定
type ResultStatus string

const (
	ResultOK    ResultStatus = "OK"    // 合格
	ResultNG    ResultStatus = "NG"    // 不合格
	ResultError ResultStatus = "ERROR" // 分析出错
)

// AnalysisOutcome 单次分析的输出
type AnalysisOutcome struct {
	Status       ResultStatus // 判定结果
	Confidence   string       // 置信度，百分比字符串，如"95%"
	Details      string       // 详细信息
	ArtifactPath string       // 产物文件相对路径，空表示本次无产物
	Handoff      interface{}  // FOLDING任务产生、FINAL任务消费的交接数据，其余任务为nil
}

// TaskResult 任务结果下发报文(POST到Node-RED)
// 字段名与产线侧既有接口保持一致
type TaskResult struct {
	Name       string `json:"NAME"`       // 任务类型
	Result     string `json:"RESULT"`     // 判定结果
	OrderNo    string `json:"ORDER_NO"`   // 工单号
	Confidence string `json:"CONFIDENCE"` // 置信度，百分比字符串
	Details    string `json:"DETAILS"`    // 详细信息
}

// HeartbeatRecord 心跳上报报文
// 每种任务类型独立一条，携带上报时刻的时间戳
type HeartbeatRecord struct {
	AITask string `json:"AI_TASK"` // 任务类型
	Time   string `json:"TIME"`    // 上报时间
	Ping   bool   `json:"PING"`    // 心跳标记，恒为true
}
