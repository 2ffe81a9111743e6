// Package report renders scan activity from the record store as a
// self-contained HTML page: an accuracy-over-time chart plus summary
// statistics.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/touchstone/internal/store"
)

// Stats summarises a set of scan events.
type Stats struct {
	Count        int     `json:"count"`
	Matches      int     `json:"matches"`
	MatchRate    float64 `json:"match_rate"`
	MeanAccuracy float64 `json:"mean_accuracy"`
	StdDev       float64 `json:"stddev_accuracy"`
}

// Summarize computes match rate and accuracy statistics. Accuracy moments
// cover matched scans only; misses carry a sentinel -1 score.
func Summarize(events []store.ScanEvent) Stats {
	s := Stats{Count: len(events)}

	var accuracies []float64
	for _, e := range events {
		if e.Matched {
			s.Matches++
			accuracies = append(accuracies, float64(e.Accuracy))
		}
	}
	if s.Count > 0 {
		s.MatchRate = float64(s.Matches) / float64(s.Count)
	}
	if len(accuracies) > 0 {
		s.MeanAccuracy = stat.Mean(accuracies, nil)
	}
	if len(accuracies) > 1 {
		s.StdDev = stat.StdDev(accuracies, nil)
	}
	return s
}

// Render writes the HTML report for the given events, oldest first on the
// x axis.
func Render(w io.Writer, events []store.ScanEvent) error {
	s := Summarize(events)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Scan accuracy",
			Subtitle: fmt.Sprintf("%d scans, %d matches (%.0f%%), mean accuracy %.1f ± %.1f",
				s.Count, s.Matches, s.MatchRate*100, s.MeanAccuracy, s.StdDev),
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "accuracy"}),
	)

	// Events arrive most recent first; plot them oldest first.
	labels := make([]string, 0, len(events))
	values := make([]opts.LineData, 0, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		labels = append(labels, e.CreatedAt.Format("01-02 15:04:05"))
		accuracy := e.Accuracy
		if !e.Matched {
			accuracy = 0
		}
		values = append(values, opts.LineData{Value: accuracy})
	}
	line.SetXAxis(labels).AddSeries("accuracy", values)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(line)
	return page.Render(w)
}
