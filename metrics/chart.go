package metrics

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/metricmail-ai/metricmail"
)

// MovingAverageWindow is the trailing window used for trend lines.
const MovingAverageWindow = 7

// chartColumns are rendered as trend charts when present, in order.
var chartColumns = []string{"Revenue", "Sales", "Customer_Count"}

// TrendChart renders a PNG line chart for the column with a dashed
// moving-average overlay.
func (c *Calculator) TrendChart(col, title string) ([]byte, error) {
	if !c.ds.Has(col) {
		return nil, fmt.Errorf("column %q not in dataset", col)
	}

	dates, vals := pairedFinite(c.ds.Dates, c.ds.Column(col))
	if len(vals) < 2 {
		return nil, fmt.Errorf("column %q has fewer than two values to chart", col)
	}
	ma := trailingMean(vals, MovingAverageWindow)

	graph := chart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    col,
				XValues: dates,
				YValues: vals,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex("2E86C1"),
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    fmt.Sprintf("%s (%d-period MA)", col, MovingAverageWindow),
				XValues: dates,
				YValues: ma,
				Style: chart.Style{
					StrokeColor:     drawing.ColorFromHex("E67E22"),
					StrokeWidth:     2,
					StrokeDashArray: []float64{5, 5},
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.LegendThin(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", col, err)
	}
	return buf.Bytes(), nil
}

// Charts renders one trend chart per present metric column.
func (c *Calculator) Charts() ([]metricmail.Chart, error) {
	var charts []metricmail.Chart
	for _, col := range chartColumns {
		if !c.ds.Has(col) {
			continue
		}
		title := strings.ReplaceAll(col, "_", " ") + " Trend"
		png, err := c.TrendChart(col, title)
		if err != nil {
			return nil, err
		}
		charts = append(charts, metricmail.Chart{
			Column: col,
			Title:  title,
			PNG:    png,
		})
	}
	return charts, nil
}

// pairedFinite drops rows whose value is NaN, keeping dates aligned.
func pairedFinite(dates []time.Time, vals []float64) ([]time.Time, []float64) {
	outDates := make([]time.Time, 0, len(vals))
	outVals := make([]float64, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		outDates = append(outDates, dates[i])
		outVals = append(outVals, v)
	}
	return outDates, outVals
}

func trailingMean(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sum := 0.0
		for _, v := range vals[start : i+1] {
			sum += v
		}
		out[i] = sum / float64(i+1-start)
	}
	return out
}
