/**
 * 模型:响应模型
 * @author: sun977
 * @date: 2025.11.08
 * @description: 状态查看API的响应数据模型
 * @func: 各种Response结构体定义
 */
package model

// APIResponse 通用API响应结构
type APIResponse struct {
	Code    int         `json:"code,omitempty"` // 响应状态码，可选
	Status  string      `json:"status"`         // 响应状态："success" 或 "error"
	Message string      `json:"message"`        // 响应消息
	Data    interface{} `json:"data,omitempty"` // 响应数据，可选
	Error   string      `json:"error,omitempty"` // 错误信息，可选
}

// NewSuccessResponse 构造成功响应
func NewSuccessResponse(message string, data interface{}) *APIResponse {
	return &APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse 构造失败响应
func NewErrorResponse(code int, message string, err string) *APIResponse {
	return &APIResponse{
		Code:    code,
		Status:  "error",
		Message: message,
		Error:   err,
	}
}
