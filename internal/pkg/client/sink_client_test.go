package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"neoinspect/internal/config"
	"neoinspect/internal/model/inspection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSinkClient(resultURL, uploadURL, hbURL string) SinkClient {
	return NewSinkClient(
		&config.ResultSinkConfig{
			ResultEndpoint: resultURL,
			UploadEndpoint: uploadURL,
			Timeout:        5 * time.Second,
		},
		&config.HeartbeatConfig{
			Endpoint: hbURL,
		},
	)
}

func TestPublishResult(t *testing.T) {
	var received inspection.TaskResult

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestSinkClient(server.URL, server.URL, server.URL)

	err := c.PublishResult(context.Background(), &inspection.TaskResult{
		Name:       "CASE",
		Result:     "OK",
		OrderNo:    "ORD-001",
		Confidence: "97%",
		Details:    "all checks passed",
	})
	require.NoError(t, err)

	assert.Equal(t, "CASE", received.Name)
	assert.Equal(t, "OK", received.Result)
	assert.Equal(t, "ORD-001", received.OrderNo)
	assert.Equal(t, "97%", received.Confidence)
}

func TestPublishResultServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sink unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestSinkClient(server.URL, server.URL, server.URL)

	err := c.PublishResult(context.Background(), &inspection.TaskResult{Name: "BOX", Result: "NG"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestSendHeartbeat(t *testing.T) {
	var received inspection.HeartbeatRecord

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestSinkClient(server.URL, server.URL, server.URL)

	err := c.SendHeartbeat(context.Background(), &inspection.HeartbeatRecord{
		AITask: "FOLDING",
		Time:   "2025-11-09 10:00:00.000",
		Ping:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, "FOLDING", received.AITask)
	assert.True(t, received.Ping)
}

func TestUploadArtifact(t *testing.T) {
	dir := t.TempDir()
	artifactPath := filepath.Join(dir, "frame_001.jpg")
	require.NoError(t, os.WriteFile(artifactPath, []byte("fake-jpeg-bytes"), 0644))

	var gotTaskType, gotOrderNo, gotQCCode, gotFilename string
	var gotContent []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotTaskType = r.FormValue("AI_TASK")
		gotOrderNo = r.FormValue("ORDER_NO")
		gotQCCode = r.FormValue("QC_CODE")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotContent, err = io.ReadAll(file)
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestSinkClient(server.URL, server.URL, server.URL)

	err := c.UploadArtifact(context.Background(), artifactPath, "CASE", "ORD-001", "QC-42")
	require.NoError(t, err)

	assert.Equal(t, "CASE", gotTaskType)
	assert.Equal(t, "ORD-001", gotOrderNo)
	assert.Equal(t, "QC-42", gotQCCode)
	assert.Equal(t, "frame_001.jpg", gotFilename)
	assert.Equal(t, []byte("fake-jpeg-bytes"), gotContent)
}

func TestArtifactKind(t *testing.T) {
	assert.Equal(t, "IMAGE", ArtifactKind("CASE/frame_001.jpg"))
	assert.Equal(t, "IMAGE", ArtifactKind("cover.PNG"))
	assert.Equal(t, "VIDEO", ArtifactKind("FINAL/run.mp4"))
	assert.Equal(t, "FILE", ArtifactKind("report.csv"))
	assert.Equal(t, "FILE", ArtifactKind("noextension"))
}

func TestUploadArtifactMissingFile(t *testing.T) {
	c := newTestSinkClient("http://127.0.0.1:0", "http://127.0.0.1:0", "http://127.0.0.1:0")

	err := c.UploadArtifact(context.Background(), "/nonexistent/frame.jpg", "CASE", "ORD-001", "QC-1")
	assert.Error(t, err)
}
