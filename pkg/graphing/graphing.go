// Package graphing renders an HTML report from stored metric records.
package graphing

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"PipelineMonitor/pkg/collecting"
	"PipelineMonitor/pkg/exporting"
	"PipelineMonitor/pkg/metrics"
	"PipelineMonitor/pkg/utils"
)

const unknownPipeline = "unknown"

// Point is one record placed on the time axis.
type Point struct {
	Time       time.Time
	PipelineID string
	Status     string
	Rows       *int64
	UsedMemory *float64 // From machine_stats, in the unit stored there
	MemoryUnit string
}

// Report holds the records of a sink file ordered by timestamp.
type Report struct {
	Title  string
	Points []Point
}

// NewReport orders records by timestamp. Records without a parsable
// timestamp are skipped.
func NewReport(title string, records []exporting.Record) *Report {
	r := &Report{Title: title}
	for _, rec := range records {
		p, ok := pointFromRecord(rec)
		if !ok {
			continue
		}
		r.Points = append(r.Points, p)
	}
	sort.SliceStable(r.Points, func(i, j int) bool {
		return r.Points[i].Time.Before(r.Points[j].Time)
	})
	return r
}

func pointFromRecord(rec exporting.Record) (Point, bool) {
	ts, _ := rec[metrics.FieldTimestamp].(string)
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return Point{}, false
	}
	p := Point{
		Time:       t,
		PipelineID: utils.ToString(rec[metrics.FieldPipelineID]),
		Status:     utils.ToString(rec[metrics.FieldPipelineStatus]),
	}
	if p.PipelineID == "" {
		p.PipelineID = unknownPipeline
	}
	if rows, ok := utils.ToInt64Ok(rec[metrics.FieldRows]); ok {
		p.Rows = &rows
	}
	if stats, ok := rec[metrics.FieldMachineStats].(string); ok {
		p.UsedMemory, p.MemoryUnit = parseStat(stats, collecting.KeyUsedMemory)
	}
	return p, true
}

// parseStat reads a "12.345 GB" value out of a machine_stats message.
func parseStat(message, key string) (*float64, string) {
	var summary map[string]string
	if err := json.Unmarshal([]byte(message), &summary); err != nil {
		return nil, ""
	}
	fields := strings.Fields(summary[key])
	if len(fields) == 0 {
		return nil, ""
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, ""
	}
	unit := ""
	if len(fields) > 1 {
		unit = fields[1]
	}
	return &v, unit
}

// Pipelines returns the distinct pipeline ids, sorted.
func (r *Report) Pipelines() []string {
	ids := lo.Uniq(lo.Map(r.Points, func(p Point, _ int) string { return p.PipelineID }))
	sort.Strings(ids)
	return ids
}

// StatusCounts counts records per pipeline_status. Records without a
// status are counted as "unset".
func (r *Report) StatusCounts() map[string]int {
	return lo.CountValuesBy(r.Points, func(p Point) string {
		if p.Status == "" {
			return "unset"
		}
		return p.Status
	})
}

// Summary is shown above the charts.
type Summary struct {
	Title     string
	Records   int
	Pipelines int
	Failed    int
	First     string
	Last      string
	Span      string
}

// Summary returns the headline numbers of the report.
func (r *Report) Summary() Summary {
	s := Summary{
		Title:     r.Title,
		Records:   len(r.Points),
		Pipelines: len(r.Pipelines()),
		Failed:    r.StatusCounts()[metrics.StatusFailed],
	}
	if len(r.Points) > 0 {
		s.First = r.Points[0].Time.Format(time.RFC3339)
		s.Last = r.Points[len(r.Points)-1].Time.Format(time.RFC3339)
	}
	if d := duration(r); d > 0 {
		s.Span = d.String()
	}
	return s
}

// Render writes the HTML report to path, creating its directory.
func (r *Report) Render(path string) error {
	if len(r.Points) == 0 {
		return errors.New("no records with a timestamp to graph")
	}

	page := components.NewPage()
	page.PageTitle = r.Title
	page.AddCharts(createRowsChart(r), createStatusChart(r))
	if mem := createMemoryChart(r); mem != nil {
		page.AddCharts(mem)
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return errors.Wrap(err, "render charts")
	}

	summary, err := renderSummary(r.Summary())
	if err != nil {
		return err
	}
	html := strings.Replace(buf.String(), "<body>", "<body>\n"+summary, 1)
	html = strings.Replace(html, "</head>", summaryCSS+"</head>", 1)

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create report directory")
		}
	}
	return errors.Wrap(os.WriteFile(path, []byte(html), 0o644), "write report")
}

// GenerateFromFile loads a sink file and renders its report to outputPath.
func GenerateFromFile(inputPath, outputPath string) error {
	records, err := exporting.LoadRecords(inputPath)
	if err != nil {
		return errors.Wrap(err, "load records")
	}
	title := "Pipeline metrics - " + filepath.Base(inputPath)
	return NewReport(title, records).Render(outputPath)
}
