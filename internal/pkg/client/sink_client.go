/**
 * 外发HTTP客户端
 * @author: sun977
 * @date: 2025.11.09
 * @description: 向产线侧回传任务结果、上传NG产物、上报心跳的HTTP客户端
 */
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"neoinspect/internal/config"
	"neoinspect/internal/model/inspection"
	"neoinspect/internal/pkg/logger"
)

// ArtifactKind 按扩展名归类产物文件，上传日志用
func ArtifactKind(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".jpg", ".jpeg", ".png", ".bmp":
		return "IMAGE"
	case ".mp4", ".avi", ".mkv":
		return "VIDEO"
	default:
		return "FILE"
	}
}

// SinkClient 外发通道客户端接口
type SinkClient interface {
	// PublishResult 下发任务结果到Node-RED
	PublishResult(ctx context.Context, result *inspection.TaskResult) error

	// UploadArtifact NG产物上传，供人工复核
	UploadArtifact(ctx context.Context, filePath, taskType, orderNo, qcCode string) error

	// SendHeartbeat 上报单条心跳
	SendHeartbeat(ctx context.Context, record *inspection.HeartbeatRecord) error
}

// sinkClient 外发通道客户端实现
type sinkClient struct {
	client            *http.Client
	resultEndpoint    string
	uploadEndpoint    string
	heartbeatEndpoint string
	userAgent         string
}

// NewSinkClient 创建外发通道客户端实例
func NewSinkClient(sinkCfg *config.ResultSinkConfig, hbCfg *config.HeartbeatConfig) SinkClient {
	timeout := sinkCfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &sinkClient{
		client: &http.Client{
			Timeout: timeout,
		},
		resultEndpoint:    sinkCfg.ResultEndpoint,
		uploadEndpoint:    sinkCfg.UploadEndpoint,
		heartbeatEndpoint: hbCfg.Endpoint,
		userAgent:         "NeoInspect/1.0",
	}
}

// PublishResult 下发任务结果到Node-RED
func (c *sinkClient) PublishResult(ctx context.Context, result *inspection.TaskResult) error {
	if err := c.postJSON(ctx, c.resultEndpoint, result); err != nil {
		return fmt.Errorf("publish result request: %w", err)
	}
	return nil
}

// SendHeartbeat 上报单条心跳
func (c *sinkClient) SendHeartbeat(ctx context.Context, record *inspection.HeartbeatRecord) error {
	if err := c.postJSON(ctx, c.heartbeatEndpoint, record); err != nil {
		return fmt.Errorf("send heartbeat request: %w", err)
	}
	return nil
}

// UploadArtifact NG产物上传
// multipart表单，字段名与产线侧既有接口保持一致
func (c *sinkClient) UploadArtifact(ctx context.Context, filePath, taskType, orderNo, qcCode string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open artifact file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy artifact content: %w", err)
	}

	fields := map[string]string{
		"AI_TASK":  taskType,
		"ORDER_NO": orderNo,
		"QC_CODE":  qcCode,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("write form field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadEndpoint, &buf)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload artifact request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	logger.LogTaskOperation("upload", taskType, orderNo, "success",
		fmt.Sprintf("%s artifact uploaded: %s", ArtifactKind(filePath), filepath.Base(filePath)), nil)

	return nil
}

// postJSON 执行JSON POST请求
func (c *sinkClient) postJSON(ctx context.Context, url string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal request data: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	// 响应体内容当前不关心，读完丢弃以复用连接
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
