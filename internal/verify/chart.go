package verify

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderLabelChart writes the label histogram as a standalone HTML bar chart.
// The chart is an operator convenience; failures here degrade to a report
// warning rather than affecting the verdict.
func RenderLabelChart(labels []LabelCount, path string) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Label distribution",
			Subtitle: fmt.Sprintf("%d distinct labels", len(labels)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	names := make([]string, 0, len(labels))
	data := make([]opts.BarData, 0, len(labels))
	for _, lc := range labels {
		names = append(names, lc.Label)
		data = append(data, opts.BarData{Value: lc.Count})
	}
	bar.SetXAxis(names).AddSeries("objects", data)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := bar.Render(f); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
