/**
 * 服务:模拟分析器
 * @author: sun977
 * @date: 2025.11.10
 * @description: 无相机环境下的模拟分析器，产出占位产物文件与模拟判定结果
 */
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	model "neoinspect/internal/model/inspection"
	"neoinspect/internal/service/inspection"
)

// SimulationAnalyzer 模拟分析器
// 联调和验收环境使用，写占位产物文件并返回模拟判定
type SimulationAnalyzer struct {
	mediaDir string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulationAnalyzer 创建模拟分析器
func NewSimulationAnalyzer(mediaDir string) *SimulationAnalyzer {
	return &SimulationAnalyzer{
		mediaDir: mediaDir,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// simulationDirectives 任务启动消息中可携带的模拟指令
type simulationDirectives struct {
	ForceResult string `json:"FORCE_RESULT"` // 强制判定结果，联调用
}

// Analyze 执行一次模拟分析
func (a *SimulationAnalyzer) Analyze(ctx context.Context, input *inspection.AnalysisInput) (*model.AnalysisOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if input.Order == nil {
		return nil, fmt.Errorf("no active order context")
	}

	// 写占位产物文件
	relPath, err := a.writeArtifact(input.TaskType, input.Order.OrderNo())
	if err != nil {
		return nil, fmt.Errorf("failed to write artifact: %w", err)
	}

	outcome := &model.AnalysisOutcome{
		Status:       model.ResultOK,
		Confidence:   a.randomConfidence(),
		Details:      fmt.Sprintf("simulated %s inspection", input.TaskType),
		ArtifactPath: relPath,
	}

	// 任务启动消息可强制指定判定结果
	var directives simulationDirectives
	if len(input.Payload) > 0 {
		_ = json.Unmarshal(input.Payload, &directives)
	}
	switch directives.ForceResult {
	case string(model.ResultNG):
		outcome.Status = model.ResultNG
		outcome.Details = "simulated defect detected"
	case string(model.ResultError):
		return nil, fmt.Errorf("forced analyzer error")
	}

	switch input.TaskType {
	case model.TaskFolding:
		// 折叠工序测量值交接给终检
		outcome.Handoff = map[string]interface{}{
			"fold_width": a.randomFoldWidth(),
		}
	case model.TaskFinal:
		if input.Handoff == nil {
			outcome.Status = model.ResultNG
			outcome.Details = "missing folding measurement"
		} else {
			outcome.Details = fmt.Sprintf("final inspection with folding measurement %v", input.Handoff)
		}
	}

	return outcome, nil
}

// writeArtifact 写占位产物文件，返回相对媒体目录的路径
func (a *SimulationAnalyzer) writeArtifact(taskType model.TaskType, orderNo string) (string, error) {
	dir := filepath.Join(a.mediaDir, string(taskType))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("%s_%d.jpg", orderNo, time.Now().UnixNano())
	relPath := filepath.Join(string(taskType), filename)

	content := fmt.Sprintf("simulated frame for %s order %s", taskType, orderNo)
	if err := os.WriteFile(filepath.Join(a.mediaDir, relPath), []byte(content), 0644); err != nil {
		return "", err
	}

	return relPath, nil
}

// randomConfidence 生成90%到99%之间的模拟置信度，百分比字符串
func (a *SimulationAnalyzer) randomConfidence() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("%.1f%%", 90.0+a.rng.Float64()*9.0)
}

// randomFoldWidth 生成模拟折叠宽度测量值
func (a *SimulationAnalyzer) randomFoldWidth() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return 10.0 + a.rng.Float64()*0.5
}
