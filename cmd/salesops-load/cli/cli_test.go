package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddha-avenue/salesops/internal/ingest"
	"github.com/siddha-avenue/salesops/internal/targets"
	"github.com/siddha-avenue/salesops/jobs"
)

type stubSalesLoader struct {
	result ingest.Result
	err    error
	path   string
	sheet  string
}

func (s *stubSalesLoader) LoadFile(_ context.Context, path, sheet string) (ingest.Result, error) {
	s.path, s.sheet = path, sheet
	return s.result, s.err
}

func TestSalesCommandPrintsSummary(t *testing.T) {
	loader := &stubSalesLoader{result: ingest.Result{
		Source:   "march.xlsx",
		Batches:  []uuid.UUID{uuid.New(), uuid.New()},
		Rows:     7000,
		Inserted: 7000,
	}}
	var stdout, stderr bytes.Buffer
	code := NewLoadCLI(loader, nil).SalesCommand(context.Background(), LoadOptions{
		Path:   " /data/march.xlsx ",
		Sheet:  "Sales",
		Stdout: &stdout,
		Stderr: &stderr,
	})
	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "/data/march.xlsx", loader.path)
	assert.Equal(t, "Sales", loader.sheet)
	assert.Equal(t, "loaded 7000 rows from march.xlsx in 2 batches\n", stdout.String())
}

func TestSalesCommandJSONOutput(t *testing.T) {
	loader := &stubSalesLoader{result: ingest.Result{Source: "a.csv", Rows: 3, Inserted: 3}}
	var stdout bytes.Buffer
	code := NewLoadCLI(loader, nil).SalesCommand(context.Background(), LoadOptions{
		Path:       "a.csv",
		JSONOutput: true,
		Stdout:     &stdout,
		Stderr:     &bytes.Buffer{},
	})
	require.Equal(t, 0, code)

	var decoded ingest.Result
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Equal(t, int64(3), decoded.Inserted)
}

func TestSalesCommandFailures(t *testing.T) {
	var stderr bytes.Buffer
	code := NewLoadCLI(&stubSalesLoader{}, nil).SalesCommand(context.Background(), LoadOptions{Stdout: &bytes.Buffer{}, Stderr: &stderr})
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "file path is required")

	stderr.Reset()
	loader := &stubSalesLoader{result: ingest.Result{Inserted: 5000}, err: errors.New("connection reset")}
	code = NewLoadCLI(loader, nil).SalesCommand(context.Background(), LoadOptions{Path: "big.csv", Stdout: &bytes.Buffer{}, Stderr: &stderr})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "connection reset")
	assert.Contains(t, stderr.String(), "5000 rows were stored before the failure")

	stderr.Reset()
	code = NewLoadCLI(nil, nil).SalesCommand(context.Background(), LoadOptions{Path: "a.csv", Stdout: &bytes.Buffer{}, Stderr: &stderr})
	assert.Equal(t, 1, code)
}

func TestTargetsCommandStoresSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"name,role,dimension,dimension_value,value,effective_date\n"+
			"Kumar,ZSM,channel,PC,1000,03/01/2024\n"+
			"Kumar,ZSM,channel,SES,400,03/01/2024\n"), 0o600))

	repo := targets.NewMemoryRepository()
	svc := targets.NewService(repo, nil, nil)

	var stdout, stderr bytes.Buffer
	code := NewLoadCLI(nil, svc).TargetsCommand(context.Background(), LoadOptions{Path: path, Stdout: &stdout, Stderr: &stderr})
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "stored 2 targets in batch ")
}

func TestTargetsCommandRejectsBadSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "targets.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,role,value\nKumar,ZSM,10\n"), 0o600))

	var stderr bytes.Buffer
	svc := targets.NewService(targets.NewMemoryRepository(), nil, nil)
	code := NewLoadCLI(nil, svc).TargetsCommand(context.Background(), LoadOptions{Path: path, Stdout: &bytes.Buffer{}, Stderr: &stderr})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "dimension_value")
}

type fakeEnqueuer struct {
	tasks  []*asynq.Task
	closed bool
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error {
	f.closed = true
	return nil
}

type fakeInspector struct {
	info      *asynq.QueueInfo
	err       error
	scheduled []*asynq.TaskInfo
	closed    bool
}

func (f *fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func (f *fakeInspector) ListScheduledTasks(string, ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return f.scheduled, f.err
}

func (f *fakeInspector) Close() error {
	f.closed = true
	return nil
}

func TestJobsTrigger(t *testing.T) {
	enq := &fakeEnqueuer{}
	c := NewJobsCLIWith(enq, &fakeInspector{})

	info, err := c.Trigger(context.Background(), "warmup")
	require.NoError(t, err)
	assert.Equal(t, jobs.TaskReportWarmup, info.Type)

	_, err = c.Trigger(context.Background(), jobs.TaskReportCacheBump)
	require.NoError(t, err)
	require.Len(t, enq.tasks, 2)
	assert.Equal(t, jobs.TaskReportCacheBump, enq.tasks[1].Type())

	var payload jobs.CacheBumpPayload
	require.NoError(t, json.Unmarshal(enq.tasks[1].Payload(), &payload))
	assert.Equal(t, "manual", payload.Reason)

	_, err = c.Trigger(context.Background(), "report:rebuild_all")
	require.Error(t, err)
}

func TestJobsInspectQueue(t *testing.T) {
	insp := &fakeInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 3, Active: 1, Retry: 2, Archived: 4}}
	enq := &fakeEnqueuer{}
	c := NewJobsCLIWith(enq, insp)

	stats, err := c.InspectQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Queue: jobs.QueueDefault, Pending: 3, Active: 1, Retry: 2, Archived: 4}, stats)

	insp.err = errors.New("redis down")
	_, err = c.InspectQueue(context.Background())
	require.Error(t, err)

	require.NoError(t, c.Close())
	assert.True(t, insp.closed)
	assert.True(t, enq.closed)
}

func TestJobsCLIWithoutHandles(t *testing.T) {
	c := NewJobsCLIWith(nil, nil)
	_, err := c.Trigger(context.Background(), "warmup")
	require.Error(t, err)
	_, err = c.InspectQueue(context.Background())
	require.Error(t, err)
	_, err = c.ListScheduled(context.Background(), 0)
	require.Error(t, err)
	require.NoError(t, c.Close())
}
