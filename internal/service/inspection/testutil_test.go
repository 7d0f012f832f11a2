package inspection

import (
	"context"
	"sort"
	"sync"

	model "neoinspect/internal/model/inspection"
)

// fakeSink 外发通道的测试替身
type fakeSink struct {
	mu         sync.Mutex
	results    []*model.TaskResult
	uploads    []uploadCall
	heartbeats []*model.HeartbeatRecord

	publishErr   error
	uploadErr    error
	heartbeatErr map[string]error // 按任务类型注入心跳失败
}

type uploadCall struct {
	filePath string
	taskType string
	orderNo  string
	qcCode   string
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		heartbeatErr: make(map[string]error),
	}
}

func (s *fakeSink) PublishResult(ctx context.Context, result *model.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishErr != nil {
		return s.publishErr
	}
	s.results = append(s.results, result)
	return nil
}

func (s *fakeSink) UploadArtifact(ctx context.Context, filePath, taskType, orderNo, qcCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return s.uploadErr
	}
	s.uploads = append(s.uploads, uploadCall{filePath: filePath, taskType: taskType, orderNo: orderNo, qcCode: qcCode})
	return nil
}

func (s *fakeSink) SendHeartbeat(ctx context.Context, record *model.HeartbeatRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.heartbeatErr[record.AITask]; err != nil {
		return err
	}
	s.heartbeats = append(s.heartbeats, record)
	return nil
}

func (s *fakeSink) resultCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func (s *fakeSink) lastResult() *model.TaskResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return nil
	}
	return s.results[len(s.results)-1]
}

func (s *fakeSink) heartbeatTasks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]string, 0, len(s.heartbeats))
	for _, hb := range s.heartbeats {
		tasks = append(tasks, hb.AITask)
	}
	return tasks
}

// fakeAnalyzer 分析器的测试替身
type fakeAnalyzer struct {
	mu     sync.Mutex
	calls  []*AnalysisInput
	fn     func(ctx context.Context, input *AnalysisInput) (*model.AnalysisOutcome, error)
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, input *AnalysisInput) (*model.AnalysisOutcome, error) {
	a.mu.Lock()
	a.calls = append(a.calls, input)
	a.mu.Unlock()

	if a.fn != nil {
		return a.fn(ctx, input)
	}
	return &model.AnalysisOutcome{Status: model.ResultOK, Confidence: "95%", Details: "ok"}, nil
}

func (a *fakeAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func (a *fakeAnalyzer) lastCall() *AnalysisInput {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.calls) == 0 {
		return nil
	}
	return a.calls[len(a.calls)-1]
}

// fakeOrderRepo 工单上下文仓库的测试替身
type fakeOrderRepo struct {
	mu         sync.Mutex
	record     *model.OrderContextRecord
	replaceErr error
	loadErr    error
}

func (r *fakeOrderRepo) Replace(ctx context.Context, record *model.OrderContextRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.record = record
	return nil
}

func (r *fakeOrderRepo) Load(ctx context.Context) (*model.OrderContextRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.record, nil
}

// fakeArtifactRepo 产物台账仓库的测试替身
type fakeArtifactRepo struct {
	mu        sync.Mutex
	records   []*model.ArtifactRecord
	nextID    uint64
	createErr error
}

func (r *fakeArtifactRepo) CreateRecord(ctx context.Context, record *model.ArtifactRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	record.ID = r.nextID
	r.records = append(r.records, record)
	return nil
}

func (r *fakeArtifactRepo) TrimToLimit(ctx context.Context, taskType string, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var typed []*model.ArtifactRecord
	for _, record := range r.records {
		if record.TaskType == taskType {
			typed = append(typed, record)
		}
	}
	if len(typed) <= limit {
		return nil
	}

	sort.Slice(typed, func(i, j int) bool { return typed[i].ID > typed[j].ID })
	drop := make(map[uint64]bool)
	for _, record := range typed[limit:] {
		drop[record.ID] = true
	}

	kept := r.records[:0]
	for _, record := range r.records {
		if !drop[record.ID] {
			kept = append(kept, record)
		}
	}
	r.records = kept
	return nil
}

func (r *fakeArtifactRepo) ListByType(ctx context.Context, taskType string, limit int) ([]*model.ArtifactRecord, error) {
	grouped, err := r.ListAll(ctx, limit)
	if err != nil {
		return nil, err
	}
	return grouped[taskType], nil
}

func (r *fakeArtifactRepo) LatestByType(ctx context.Context, taskType string) (*model.ArtifactRecord, error) {
	records, err := r.ListByType(ctx, taskType, 1)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

func (r *fakeArtifactRepo) ListAll(ctx context.Context, limit int) (map[string][]*model.ArtifactRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]*model.ArtifactRecord, len(r.records))
	copy(sorted, r.records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID > sorted[j].ID })

	grouped := make(map[string][]*model.ArtifactRecord)
	for _, record := range sorted {
		if limit > 0 && len(grouped[record.TaskType]) >= limit {
			continue
		}
		grouped[record.TaskType] = append(grouped[record.TaskType], record)
	}
	return grouped, nil
}

func (r *fakeArtifactRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
