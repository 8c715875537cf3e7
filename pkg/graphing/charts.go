package graphing

import (
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const timeLabel = "01-02 15:04:05"

func timeLabels(points []Point) []string {
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Time.Format(timeLabel)
	}
	return labels
}

// createRowsChart plots rows per pipeline over time. Each pipeline is a
// series; records of other pipelines leave gaps.
func createRowsChart(r *Report) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Rows per pipeline"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: 100}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "400px"}),
	)

	line.SetXAxis(timeLabels(r.Points))
	for _, id := range r.Pipelines() {
		data := make([]opts.LineData, len(r.Points))
		for i, p := range r.Points {
			if p.PipelineID == id && p.Rows != nil {
				data[i] = opts.LineData{Value: *p.Rows}
			} else {
				data[i] = opts.LineData{Value: "-"}
			}
		}
		line.AddSeries(id, data,
			charts.WithLineChartOpts(opts.LineChart{ConnectNulls: opts.Bool(true), ShowSymbol: opts.Bool(true)}),
		)
	}
	return line
}

// createStatusChart shows how many records carry each pipeline_status.
func createStatusChart(r *Report) *charts.Bar {
	counts := r.StatusCounts()
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Strings(statuses)

	data := make([]opts.BarData, len(statuses))
	for i, s := range statuses {
		data[i] = opts.BarData{Value: counts[s]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Records by status"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "300px"}),
	)
	bar.SetXAxis(statuses).AddSeries("records", data)
	return bar
}

// createMemoryChart plots used host memory from machine_stats. It returns
// nil when no record carries it.
func createMemoryChart(r *Report) *charts.Line {
	var labels []string
	var data []opts.LineData
	unit := ""
	for _, p := range r.Points {
		if p.UsedMemory == nil {
			continue
		}
		labels = append(labels, p.Time.Format(timeLabel))
		data = append(data, opts.LineData{Value: *p.UsedMemory})
		unit = p.MemoryUnit
	}
	if len(data) == 0 {
		return nil
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Host used memory", Subtitle: unit}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", AxisLabel: &opts.AxisLabel{Rotate: 45}}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "300px"}),
	)
	line.SetXAxis(labels).AddSeries(unit, data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)
	line.SetSeriesOptions(charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(0.2)}))
	return line
}

// duration formats the span between the first and last point.
func duration(r *Report) time.Duration {
	if len(r.Points) < 2 {
		return 0
	}
	return r.Points[len(r.Points)-1].Time.Sub(r.Points[0].Time)
}
