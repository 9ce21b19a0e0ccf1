// Package chart renders dashboard series to SVG with go-chart.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"task-dashboard/domain/dashboard"
)

// ErrNoData is returned when there is nothing to draw. Callers show a placeholder.
var ErrNoData = errors.New("no data to chart")

const (
	defaultWidth  = 560
	defaultHeight = 400
	barWidth      = 40
	barSpacing    = 24
	ganttRowPx    = 28
	ganttBarPx    = 14
)

// Pie draws the share of each label, e.g. tasks per status.
func Pie(w io.Writer, title string, counts []dashboard.Count) error {
	if len(counts) == 0 {
		return ErrNoData
	}
	values := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s %.1f%%", c.Label, c.Share*100),
			Value: float64(c.Count),
		})
	}
	pie := chart.PieChart{
		Title:  title,
		Width:  defaultWidth,
		Height: defaultHeight,
		Values: values,
	}
	return pie.Render(chart.SVG, w)
}

// Bars draws one vertical bar per label, e.g. tasks per owner.
func Bars(w io.Writer, title string, counts []dashboard.Count) error {
	if len(counts) == 0 {
		return ErrNoData
	}
	maxCount := 0
	bars := make([]chart.Value, 0, len(counts))
	for _, c := range counts {
		bars = append(bars, chart.Value{Label: c.Label, Value: float64(c.Count)})
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	top := maxCount + 1
	width := defaultWidth
	if need := 160 + len(counts)*(barWidth+barSpacing); need > width {
		width = need
	}
	bc := chart.BarChart{
		Title:      title,
		Background: chart.Style{Padding: chart.Box{Top: 40}},
		Width:      width,
		Height:     defaultHeight,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Bars:       bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(top)},
			Ticks: countTicks(top),
		},
	}
	return bc.Render(chart.SVG, w)
}

// countTicks returns integer ticks from 0 to top with at most ~10 steps.
func countTicks(top int) []chart.Tick {
	step := int(math.Ceil(float64(top) / 10))
	if step < 1 {
		step = 1
	}
	var ticks []chart.Tick
	for v := 0; v <= top; v += step {
		ticks = append(ticks, chart.Tick{Value: float64(v), Label: fmt.Sprintf("%d", v)})
	}
	if ticks[len(ticks)-1].Value != float64(top) {
		ticks = append(ticks, chart.Tick{Value: float64(top), Label: fmt.Sprintf("%d", top)})
	}
	return ticks
}

// Gantt draws one horizontal bar per interval, coloured by owner. Each bar covers
// whole days, from the start of the first day to the end of the last.
func Gantt(w io.Writer, title string, intervals []dashboard.Interval) error {
	if len(intervals) == 0 {
		return ErrNoData
	}
	owners := ownerIndex(intervals)
	minX, maxX := intervals[0].Start, intervals[0].End
	series := make([]chart.Series, 0, len(intervals))
	ticks := make([]chart.Tick, 0, len(intervals))
	for i, iv := range intervals {
		end := iv.End.Add(24 * time.Hour)
		if iv.Start.Before(minX) {
			minX = iv.Start
		}
		if end.After(maxX) {
			maxX = end
		}
		y := float64(i)
		series = append(series, chart.TimeSeries{
			Name:    iv.Owner,
			XValues: []time.Time{iv.Start, end},
			YValues: []float64{y, y},
			Style: chart.Style{
				StrokeColor: chart.GetDefaultColor(owners[iv.Owner]),
				StrokeWidth: ganttBarPx,
			},
		})
		ticks = append(ticks, chart.Tick{Value: y, Label: iv.Task})
	}
	// pad one day on each side so single-day charts still have a range
	minX = minX.Add(-24 * time.Hour)
	maxX = maxX.Add(24 * time.Hour)

	height := 120 + len(intervals)*ganttRowPx
	if height < 240 {
		height = 240
	}
	ch := chart.Chart{
		Title:      title,
		Width:      2 * defaultWidth,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 180, Bottom: 20}},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeDateValueFormatter,
			Range:          &chart.ContinuousRange{Min: chart.TimeToFloat64(minX), Max: chart.TimeToFloat64(maxX)},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: -1, Max: float64(len(intervals))},
			Ticks: ticks,
		},
		Series: series,
	}
	return ch.Render(chart.SVG, w)
}

// OwnerColors maps each owner in intervals to the CSS colour of their timeline bars.
func OwnerColors(intervals []dashboard.Interval) map[string]string {
	out := map[string]string{}
	for owner, i := range ownerIndex(intervals) {
		out[owner] = chart.GetDefaultColor(i).String()
	}
	return out
}

func ownerIndex(intervals []dashboard.Interval) map[string]int {
	idx := map[string]int{}
	for _, iv := range intervals {
		if _, ok := idx[iv.Owner]; !ok {
			idx[iv.Owner] = len(idx)
		}
	}
	return idx
}
