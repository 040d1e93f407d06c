package verify

import (
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BoxStats summarises bounding-box geometry across all inspected objects.
// Only computed in full-statistics mode, where every matched file is parsed.
type BoxStats struct {
	Count      int
	MeanArea   float64
	StdDevArea float64
	// Aspect ratio (width/height) quantiles across all boxes.
	AspectP25    float64
	AspectMedian float64
	AspectP75    float64
}

func computeBoxStats(areas, aspects []float64) *BoxStats {
	s := &BoxStats{Count: len(areas)}
	if len(areas) == 0 {
		return s
	}

	s.MeanArea, s.StdDevArea = stat.MeanStdDev(areas, nil)
	if math.IsNaN(s.StdDevArea) {
		s.StdDevArea = 0 // single sample
	}

	sorted := append([]float64(nil), aspects...)
	sort.Float64s(sorted)
	s.AspectP25 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	s.AspectMedian = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.AspectP75 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	return s
}

// Render prints the statistics block of the report.
func (s *BoxStats) Render(w io.Writer) {
	fmt.Fprintln(w, "Box geometry:")
	fmt.Fprintf(w, "  boxes:        %d\n", s.Count)
	if s.Count == 0 {
		return
	}
	fmt.Fprintf(w, "  area:         mean %.1f px², stddev %.1f\n", s.MeanArea, s.StdDevArea)
	fmt.Fprintf(w, "  aspect ratio: p25 %.2f, median %.2f, p75 %.2f\n",
		s.AspectP25, s.AspectMedian, s.AspectP75)
}
