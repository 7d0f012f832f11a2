/**
 * 处理器:任务状态查看
 * @author: sun977
 * @date: 2025.11.10
 * @description: 任务状态与工单上下文的只读查询接口
 * @func: GetAllStatus/GetStatusByType/GetOrderContext
 */
package inspection

import (
	"net/http"
	"strings"

	"neoinspect/internal/model"
	inspectionModel "neoinspect/internal/model/inspection"
	"neoinspect/internal/service/inspection"

	"github.com/gin-gonic/gin"
)

// StatusHandler 任务状态查询处理器
type StatusHandler struct {
	registry *inspection.StatusRegistry
	queue    *inspection.TaskQueue
	orders   *inspection.OrderContextStore
}

// NewStatusHandler 创建任务状态查询处理器
func NewStatusHandler(registry *inspection.StatusRegistry, queue *inspection.TaskQueue, orders *inspection.OrderContextStore) *StatusHandler {
	return &StatusHandler{
		registry: registry,
		queue:    queue,
		orders:   orders,
	}
}

// GetAllStatus 查询全部任务类型的状态
// GET /api/v1/status
func (h *StatusHandler) GetAllStatus(c *gin.Context) {
	c.JSON(http.StatusOK, model.NewSuccessResponse("ok", gin.H{
		"statuses":     h.registry.Snapshot(),
		"queue_length": h.queue.Len(),
		"order_no":     h.orders.OrderNo(),
	}))
}

// GetStatusByType 查询单个任务类型的状态
// GET /api/v1/status/:task_type
func (h *StatusHandler) GetStatusByType(c *gin.Context) {
	taskType := inspectionModel.TaskType(strings.ToUpper(c.Param("task_type")))

	status, ok := h.registry.Get(taskType)
	if !ok {
		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound,
			"unknown task type", string(taskType)))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse("ok", status))
}

// GetOrderContext 查询当前生效的工单上下文
// GET /api/v1/order
func (h *StatusHandler) GetOrderContext(c *gin.Context) {
	order := h.orders.Current()
	if order == nil {
		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound,
			"no active order context", ""))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse("ok", order))
}
