/**
 * 处理器:产物台账查看
 * @author: sun977
 * @date: 2025.11.10
 * @description: 产物台账的只读查询接口与产物文件服务
 * @func: GetLastFiles/GetAllFiles/GetFilesByType/ServeMedia
 */
package inspection

import (
	"net/http"
	"path/filepath"
	"strings"

	"neoinspect/internal/model"
	inspectionModel "neoinspect/internal/model/inspection"
	"neoinspect/internal/pkg/logger"
	"neoinspect/internal/service/inspection"

	"github.com/gin-gonic/gin"
)

// ArtifactHandler 产物台账查询处理器
type ArtifactHandler struct {
	ledger *inspection.ArtifactLedger
}

// NewArtifactHandler 创建产物台账查询处理器
func NewArtifactHandler(ledger *inspection.ArtifactLedger) *ArtifactHandler {
	return &ArtifactHandler{
		ledger: ledger,
	}
}

// toView 台账记录转API视图
func toView(record *inspectionModel.ArtifactRecord) *inspectionModel.ArtifactView {
	return &inspectionModel.ArtifactView{
		TaskType:   record.TaskType,
		OrderNo:    record.OrderNo,
		FilePath:   record.FilePath,
		Verdict:    record.Verdict,
		Details:    record.Details,
		RecordedAt: logger.FormatTimestamp(record.RecordedAt),
	}
}

// GetLastFiles 查询每种任务类型的最新产物
// GET /api/last_files
func (h *ArtifactHandler) GetLastFiles(c *gin.Context) {
	latest := h.ledger.LatestAll()

	views := make(map[string]*inspectionModel.ArtifactView, len(latest))
	for taskType, record := range latest {
		views[string(taskType)] = toView(record)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse("ok", views))
}

// GetAllFiles 查询全部任务类型的产物台账
// GET /api/all_files
func (h *ArtifactHandler) GetAllFiles(c *gin.Context) {
	all := h.ledger.ListAll()

	views := make(map[string][]*inspectionModel.ArtifactView, len(all))
	for taskType, records := range all {
		list := make([]*inspectionModel.ArtifactView, 0, len(records))
		for _, record := range records {
			list = append(list, toView(record))
		}
		views[string(taskType)] = list
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse("ok", views))
}

// GetFilesByType 查询指定任务类型的产物台账
// GET /api/files/:task_type
func (h *ArtifactHandler) GetFilesByType(c *gin.Context) {
	taskType := inspectionModel.TaskType(strings.ToUpper(c.Param("task_type")))
	if !taskType.IsValid() {
		c.JSON(http.StatusNotFound, model.NewErrorResponse(http.StatusNotFound,
			"unknown task type", string(taskType)))
		return
	}

	records := h.ledger.ListByType(taskType)
	views := make([]*inspectionModel.ArtifactView, 0, len(records))
	for _, record := range records {
		views = append(views, toView(record))
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse("ok", views))
}

// ServeMedia 产物文件服务
// GET /media/*filepath
func (h *ArtifactHandler) ServeMedia(c *gin.Context) {
	relPath := strings.TrimPrefix(c.Param("filepath"), "/")

	// 拒绝越出媒体目录的路径
	cleaned := filepath.Clean(relPath)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse(http.StatusBadRequest,
			"invalid media path", relPath))
		return
	}

	c.File(h.ledger.ResolvePath(cleaned))
}
