// Package report draws statistics charts for the admin panel.
package report

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"kinobot/internal/models"
)

// ErrNoData is returned when every counter is zero
var ErrNoData = errors.New("nothing to chart")

const maxLabel = 12

// TopChart renders stats as a PNG bar chart
func TopChart(title string, stats []models.ContentStat) ([]byte, error) {
	var (
		bars []chart.Value
		top  float64
	)
	for _, s := range stats {
		if s.Count <= 0 {
			continue
		}
		bars = append(bars, chart.Value{Value: float64(s.Count), Label: shortLabel(s.Name)})
		top = max(top, float64(s.Count))
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	graph := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Height:     400,
		Width:      120 + 110*len(bars),
		BarWidth:   60,
		Bars:       bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buffer.Bytes(), nil
}

func shortLabel(name string) string {
	r := []rune(name)
	if len(r) <= maxLabel {
		return name
	}
	return string(r[:maxLabel-1]) + "…"
}
