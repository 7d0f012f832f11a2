/**
 * 服务:错误定义
 * @author: sun977
 * @date: 2025.11.09
 * @description: 检测协调服务的哨兵错误，调用方使用errors.Is判定错误类别
 */
package inspection

import "errors"

var (
	// ErrMalformedOrderContext 畸形工单上下文，缺少必填字段或JSON解析失败
	ErrMalformedOrderContext = errors.New("malformed order context")

	// ErrArtifactNotFound 产物文件在磁盘上不存在
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrUnknownTaskType 未知任务类型
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrAnalyzerFailure 分析器执行失败
	ErrAnalyzerFailure = errors.New("analyzer failure")

	// ErrSinkDeliveryFailure 结果外发失败
	ErrSinkDeliveryFailure = errors.New("sink delivery failure")
)
