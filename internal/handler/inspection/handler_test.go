package inspection

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"neoinspect/internal/model"
	inspectionModel "neoinspect/internal/model/inspection"
	"neoinspect/internal/service/inspection"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memArtifactRepo 内存产物仓库，处理器测试用
type memArtifactRepo struct {
	nextID  uint64
	records []*inspectionModel.ArtifactRecord
}

func (r *memArtifactRepo) CreateRecord(ctx context.Context, record *inspectionModel.ArtifactRecord) error {
	r.nextID++
	record.ID = r.nextID
	r.records = append(r.records, record)
	return nil
}

func (r *memArtifactRepo) TrimToLimit(ctx context.Context, taskType string, limit int) error {
	return nil
}

func (r *memArtifactRepo) ListByType(ctx context.Context, taskType string, limit int) ([]*inspectionModel.ArtifactRecord, error) {
	var result []*inspectionModel.ArtifactRecord
	for i := len(r.records) - 1; i >= 0; i-- {
		if string(r.records[i].TaskType) == taskType && len(result) < limit {
			result = append(result, r.records[i])
		}
	}
	return result, nil
}

func (r *memArtifactRepo) LatestByType(ctx context.Context, taskType string) (*inspectionModel.ArtifactRecord, error) {
	records, _ := r.ListByType(ctx, taskType, 1)
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (r *memArtifactRepo) ListAll(ctx context.Context, limit int) (map[string][]*inspectionModel.ArtifactRecord, error) {
	result := make(map[string][]*inspectionModel.ArtifactRecord)
	for i := len(r.records) - 1; i >= 0; i-- {
		taskType := string(r.records[i].TaskType)
		if len(result[taskType]) < limit {
			result[taskType] = append(result[taskType], r.records[i])
		}
	}
	return result, nil
}

// memOrderRepo 内存工单仓库，处理器测试用
type memOrderRepo struct {
	record *inspectionModel.OrderContextRecord
}

func (r *memOrderRepo) Replace(ctx context.Context, record *inspectionModel.OrderContextRecord) error {
	r.record = record
	return nil
}

func (r *memOrderRepo) Load(ctx context.Context) (*inspectionModel.OrderContextRecord, error) {
	return r.record, nil
}

type handlerFixture struct {
	registry *inspection.StatusRegistry
	queue    *inspection.TaskQueue
	orders   *inspection.OrderContextStore
	ledger   *inspection.ArtifactLedger
	mediaDir string
	engine   *gin.Engine
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mediaDir := t.TempDir()
	f := &handlerFixture{
		registry: inspection.NewStatusRegistry(nil),
		queue:    inspection.NewTaskQueue(16),
		orders:   inspection.NewOrderContextStore(&memOrderRepo{}),
		ledger:   inspection.NewArtifactLedger(&memArtifactRepo{}, 4, mediaDir),
		mediaDir: mediaDir,
	}

	statusHandler := NewStatusHandler(f.registry, f.queue, f.orders)
	artifactHandler := NewArtifactHandler(f.ledger)

	engine := gin.New()
	engine.GET("/api/v1/status", statusHandler.GetAllStatus)
	engine.GET("/api/v1/status/:task_type", statusHandler.GetStatusByType)
	engine.GET("/api/v1/order", statusHandler.GetOrderContext)
	engine.GET("/api/last_files", artifactHandler.GetLastFiles)
	engine.GET("/api/all_files", artifactHandler.GetAllFiles)
	engine.GET("/api/files/:task_type", artifactHandler.GetFilesByType)
	engine.GET("/media/*filepath", artifactHandler.ServeMedia)
	f.engine = engine

	return f
}

func (f *handlerFixture) get(t *testing.T, path string) (*httptest.ResponseRecorder, *model.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var resp model.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		return w, nil
	}
	return w, &resp
}

func (f *handlerFixture) recordArtifact(t *testing.T, taskType inspectionModel.TaskType, orderNo, relPath, verdict string) {
	t.Helper()
	fullPath := filepath.Join(f.mediaDir, relPath)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
	require.NoError(t, os.WriteFile(fullPath, []byte("frame"), 0644))
	_, err := f.ledger.Record(context.Background(), taskType, orderNo, relPath, verdict, "")
	require.NoError(t, err)
}

func TestGetAllStatus(t *testing.T) {
	f := newHandlerFixture(t)
	f.registry.SetState(inspectionModel.TaskCase, inspectionModel.StateRunning)
	f.queue.Push(&inspectionModel.TaskRequest{TaskType: "BOX", EnqueuedAt: time.Now()})

	w, resp := f.get(t, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp)
	assert.Equal(t, "success", resp.Status)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), data["queue_length"])

	statuses, ok := data["statuses"].([]interface{})
	require.True(t, ok)
	assert.Len(t, statuses, len(inspectionModel.AllTaskTypes()))

	first, ok := statuses[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "CASE", first["task_type"])
	assert.Equal(t, "RUNNING", first["status"])
	assert.Equal(t, float64(1), first["index"])
}

func TestGetStatusByType(t *testing.T) {
	f := newHandlerFixture(t)
	f.registry.SetState(inspectionModel.TaskFinal, inspectionModel.StateCompleted)

	// 路径参数大小写不敏感
	w, resp := f.get(t, "/api/v1/status/final")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "FINAL", data["task_type"])
	assert.Equal(t, "COMPLETED", data["status"])
}

func TestGetStatusByTypeUnknown(t *testing.T) {
	f := newHandlerFixture(t)

	w, resp := f.get(t, "/api/v1/status/ship")
	assert.Equal(t, http.StatusNotFound, w.Code)
	require.NotNil(t, resp)
	assert.Equal(t, "error", resp.Status)
}

func TestGetOrderContext(t *testing.T) {
	f := newHandlerFixture(t)

	w, _ := f.get(t, "/api/v1/order")
	assert.Equal(t, http.StatusNotFound, w.Code)

	payload := `{"ORDER_NO":"ORD-001","ITEM_CD":"ITEM-01","ITEM_NM":"carton A","ITEM_CLASS":"A","BOM":"BOM-01","RECIPE":"RECIPE-01"}`
	require.NoError(t, f.orders.Replace(context.Background(), []byte(payload)))

	w, resp := f.get(t, "/api/v1/order")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ORD-001", data["ORDER_NO"])
}

func TestGetLastFiles(t *testing.T) {
	f := newHandlerFixture(t)
	f.recordArtifact(t, inspectionModel.TaskCase, "ORD-001", "CASE/frame_1.jpg", "OK")
	f.recordArtifact(t, inspectionModel.TaskCase, "ORD-001", "CASE/frame_2.jpg", "NG")
	f.recordArtifact(t, inspectionModel.TaskBox, "ORD-001", "BOX/frame_1.jpg", "OK")

	w, resp := f.get(t, "/api/last_files")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)

	caseView, ok := data["CASE"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "CASE/frame_2.jpg", caseView["file_path"])
	assert.Equal(t, "NG", caseView["verdict"])
}

func TestGetFilesByType(t *testing.T) {
	f := newHandlerFixture(t)
	f.recordArtifact(t, inspectionModel.TaskCover, "ORD-001", "COVER/frame_1.jpg", "OK")
	f.recordArtifact(t, inspectionModel.TaskCover, "ORD-002", "COVER/frame_2.jpg", "OK")

	w, resp := f.get(t, "/api/files/cover")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp)

	views, ok := resp.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, views, 2)

	newest, ok := views[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "COVER/frame_2.jpg", newest["file_path"])
	assert.Equal(t, "ORD-002", newest["order_no"])
}

func TestGetFilesByTypeUnknown(t *testing.T) {
	f := newHandlerFixture(t)

	w, _ := f.get(t, "/api/files/ship")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAllFiles(t *testing.T) {
	f := newHandlerFixture(t)
	f.recordArtifact(t, inspectionModel.TaskFolding, "ORD-001", "FOLDING/frame_1.jpg", "OK")

	w, resp := f.get(t, "/api/all_files")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	views, ok := data["FOLDING"].([]interface{})
	require.True(t, ok)
	assert.Len(t, views, 1)
}

func TestServeMedia(t *testing.T) {
	f := newHandlerFixture(t)
	f.recordArtifact(t, inspectionModel.TaskCase, "ORD-001", "CASE/frame_1.jpg", "OK")

	w, _ := f.get(t, "/media/CASE/frame_1.jpg")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "frame", w.Body.String())
}

func TestServeMediaRejectsTraversal(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/media/a/b.jpg", nil)
	req.URL.Path = "/media/../../etc/passwd"
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.NotEqual(t, http.StatusOK, w.Code)
}
