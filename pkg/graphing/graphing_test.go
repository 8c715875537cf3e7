package graphing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PipelineMonitor/pkg/exporting"
)

func testRecords() []exporting.Record {
	return []exporting.Record{
		{
			"timestamp":       "2024-01-01T00:00:02Z",
			"pipeline_id":     "b",
			"pipeline_status": "failed",
			"rows":            float64(7),
		},
		{
			"timestamp":       "2024-01-01T00:00:00.5Z",
			"pipeline_id":     "a",
			"pipeline_status": "running",
			"machine_stats":   `{"used_memory":"3.500 GB"}`,
		},
		{
			"timestamp":       "2024-01-01T00:00:01Z",
			"pipeline_id":     "a",
			"pipeline_status": "completed",
			"rows":            int64(10),
		},
		{"timestamp": "not a time"},
		{"timestamp": "2024-01-01T00:00:03Z"},
	}
}

func TestNewReport(t *testing.T) {
	r := NewReport("test", testRecords())
	require.Len(t, r.Points, 4)
	assert.Equal(t, "a", r.Points[0].PipelineID)
	assert.Equal(t, "b", r.Points[2].PipelineID)
	assert.Equal(t, unknownPipeline, r.Points[3].PipelineID)

	require.NotNil(t, r.Points[0].UsedMemory)
	assert.Equal(t, 3.5, *r.Points[0].UsedMemory)
	assert.Equal(t, "GB", r.Points[0].MemoryUnit)
	require.NotNil(t, r.Points[2].Rows)
	assert.Equal(t, int64(7), *r.Points[2].Rows)

	assert.Equal(t, []string{"a", "b", unknownPipeline}, r.Pipelines())
	assert.Equal(t, map[string]int{"running": 1, "completed": 1, "failed": 1, "unset": 1}, r.StatusCounts())

	s := r.Summary()
	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 3, s.Pipelines)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, "2.5s", s.Span)
}

func TestRender(t *testing.T) {
	out := filepath.Join(t.TempDir(), "reports", "report.html")
	require.NoError(t, NewReport("Pipeline metrics", testRecords()).Render(out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "Rows per pipeline")
	assert.Contains(t, html, "Records by status")
	assert.Contains(t, html, "Host used memory")
	assert.Contains(t, html, `<div class="summary">`)
}

func TestRenderEmpty(t *testing.T) {
	err := NewReport("empty", nil).Render(filepath.Join(t.TempDir(), "r.html"))
	assert.Error(t, err)
}

func TestGenerateFromFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "metrics.jsonl")
	w, err := exporting.NewExporter(in, "")
	require.NoError(t, err)
	for _, rec := range testRecords() {
		require.NoError(t, w.Write(rec))
	}
	require.NoError(t, w.Close())

	out := filepath.Join(dir, "report.html")
	require.NoError(t, GenerateFromFile(in, out))
	assert.FileExists(t, out)

	assert.Error(t, GenerateFromFile(filepath.Join(dir, "missing.jsonl"), out))
}
