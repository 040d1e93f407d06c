// Package verify cross-validates an images directory against a Pascal VOC
// annotations directory: basename reconciliation, sampled structural
// inspection of the XML files, a label histogram, and a folded pass/fail
// verdict. Every check runs regardless of earlier failures; a failing check
// marks the run failed but never aborts the remaining checks.
package verify

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/banshee-data/annotate/internal/voc"
)

// imageExtensions are the recognised image file suffixes, matched
// case-insensitively.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// DefaultSampleSize is how many matched XML files get deep inspection when no
// explicit sample size is configured.
const DefaultSampleSize = 10

// Options configures one verification run.
type Options struct {
	ImagesDir      string
	AnnotationsDir string
	SampleSize     int      // matched XMLs to inspect; DefaultSampleSize when zero
	MinMatched     int      // below this, pairing is a warning (zero disables)
	ExpectedLabels []string // when set, labels outside this list are flagged
	FullStats      bool     // inspect every matched file and compute box statistics
	Strict         bool     // promote geometry/decode warnings to failures
	ChartPath      string
}

// Status is the outcome of a single check.
type Status int

const (
	StatusPass Status = iota
	StatusWarn
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "OK"
	case StatusWarn:
		return "WARN"
	default:
		return "FAIL"
	}
}

// Check is one independent verification outcome. The final verdict is a fold
// over these values; no check mutates shared failure state.
type Check struct {
	Name   string
	Status Status
	Detail string
}

// LabelCount is one histogram entry.
type LabelCount struct {
	Label string
	Count int
}

// Report is the full result of a verification run.
type Report struct {
	ImagesDir      string
	AnnotationsDir string

	ImageCount int
	XMLCount   int

	Matched    []string // basenames present on both sides, sorted
	OnlyImages []string // images without an annotation
	OnlyXMLs   []string // annotations without an image

	Inspected   int // XML files deeply inspected
	ParseErrors int
	ObjectTotal int
	Labels      []LabelCount // sorted by descending count

	Stats *BoxStats // non-nil in full-statistics mode

	Checks []Check
}

// Success reports whether the run passed: no check failed.
func (r *Report) Success() bool {
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			return false
		}
	}
	return true
}

// LabelHistogram returns the histogram as a map, for persistence.
func (r *Report) LabelHistogram() map[string]int {
	m := make(map[string]int, len(r.Labels))
	for _, lc := range r.Labels {
		m[lc.Label] = lc.Count
	}
	return m
}

// Run executes the verification. The only error return is a missing input
// directory, which is a fatal precondition: no partial checking is attempted.
func Run(opts Options) (*Report, error) {
	if info, err := os.Stat(opts.ImagesDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("images directory not found: %s", opts.ImagesDir)
	}
	if info, err := os.Stat(opts.AnnotationsDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("annotations directory not found: %s", opts.AnnotationsDir)
	}

	report := &Report{
		ImagesDir:      opts.ImagesDir,
		AnnotationsDir: opts.AnnotationsDir,
	}

	images, err := listByExtension(opts.ImagesDir, isImageFile)
	if err != nil {
		return nil, err
	}
	xmls, err := listByExtension(opts.AnnotationsDir, func(name string) bool {
		return strings.EqualFold(filepath.Ext(name), ".xml")
	})
	if err != nil {
		return nil, err
	}
	report.ImageCount = len(images)
	report.XMLCount = len(xmls)

	report.Matched, report.OnlyImages, report.OnlyXMLs = reconcile(images, xmls)

	report.Checks = append(report.Checks, pairingCheck(report, opts.MinMatched))
	report.Checks = append(report.Checks, unmatchedCheck("images without annotation", report.OnlyImages))
	report.Checks = append(report.Checks, unmatchedCheck("annotations without image", report.OnlyXMLs))

	ins := inspect(opts, report.Matched, xmls, images)
	report.Inspected = ins.inspected
	report.ParseErrors = ins.parseErrors
	report.ObjectTotal = ins.objectTotal
	report.Labels = sortedHistogram(ins.labels)
	report.Checks = append(report.Checks, ins.checks...)

	if len(opts.ExpectedLabels) > 0 {
		report.Checks = append(report.Checks, vocabularyCheck(report.Labels, opts.ExpectedLabels))
	}

	if opts.FullStats {
		report.Stats = computeBoxStats(ins.areas, ins.aspects)
	}

	if opts.ChartPath != "" {
		if err := RenderLabelChart(report.Labels, opts.ChartPath); err != nil {
			report.Checks = append(report.Checks, Check{
				Name:   "label chart",
				Status: StatusWarn,
				Detail: err.Error(),
			})
		} else {
			report.Checks = append(report.Checks, Check{
				Name:   "label chart",
				Status: StatusPass,
				Detail: fmt.Sprintf("written to %s", opts.ChartPath),
			})
		}
	}

	return report, nil
}

func isImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// listByExtension returns basename → filename for every regular file in dir
// accepted by keep.
func listByExtension(dir string, keep func(string) bool) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	out := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !keep(e.Name()) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		out[base] = e.Name()
	}
	return out, nil
}

// reconcile splits the two basename sets into matched pairs and the two
// one-sided remainders, each sorted.
func reconcile(images, xmls map[string]string) (matched, onlyImages, onlyXMLs []string) {
	for base := range images {
		if _, ok := xmls[base]; ok {
			matched = append(matched, base)
		} else {
			onlyImages = append(onlyImages, base)
		}
	}
	for base := range xmls {
		if _, ok := images[base]; !ok {
			onlyXMLs = append(onlyXMLs, base)
		}
	}
	sort.Strings(matched)
	sort.Strings(onlyImages)
	sort.Strings(onlyXMLs)
	return matched, onlyImages, onlyXMLs
}

func pairingCheck(r *Report, minMatched int) Check {
	switch {
	case len(r.Matched) == 0:
		return Check{Name: "pairing", Status: StatusFail, Detail: "no matching image/annotation pairs"}
	case minMatched > 0 && len(r.Matched) < minMatched:
		return Check{
			Name:   "pairing",
			Status: StatusWarn,
			Detail: fmt.Sprintf("%d matched pairs, below the configured minimum of %d", len(r.Matched), minMatched),
		}
	default:
		return Check{Name: "pairing", Status: StatusPass, Detail: fmt.Sprintf("%d matched pairs", len(r.Matched))}
	}
}

func unmatchedCheck(name string, missing []string) Check {
	if len(missing) == 0 {
		return Check{Name: name, Status: StatusPass, Detail: "none"}
	}
	return Check{
		Name:   name,
		Status: StatusWarn,
		Detail: fmt.Sprintf("%d (%s)", len(missing), preview(missing, 3)),
	}
}

// preview renders the first n entries of a list plus an ellipsis.
func preview(items []string, n int) string {
	if len(items) <= n {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:n], ", ") + ", ..."
}

// inspection aggregates the sampled deep checks.
type inspection struct {
	inspected   int
	parseErrors int
	objectTotal int
	labels      map[string]int
	areas       []float64
	aspects     []float64
	checks      []Check
}

// inspect parses a bounded prefix of the matched XML files (all of them in
// full-statistics mode) and accumulates the histogram, geometry findings and
// the image cross-checks.
func inspect(opts Options, matched []string, xmls, images map[string]string) inspection {
	ins := inspection{labels: make(map[string]int)}

	sample := matched
	if !opts.FullStats {
		n := opts.SampleSize
		if n <= 0 {
			n = DefaultSampleSize
		}
		if len(sample) > n {
			sample = sample[:n]
		}
	}
	ins.inspected = len(sample)

	warnStatus := StatusWarn
	if opts.Strict {
		warnStatus = StatusFail
	}

	var parseFailed []string
	var badRefs []string
	var geomIssues []string
	var decodeIssues []string

	for _, base := range sample {
		xmlPath := filepath.Join(opts.AnnotationsDir, xmls[base])
		parsed, err := voc.ParseFile(xmlPath)
		if err != nil {
			ins.parseErrors++
			parseFailed = append(parseFailed, base)
			continue
		}

		for _, obj := range parsed.Objects {
			ins.objectTotal++
			ins.labels[obj.Label]++
			if obj.Box == nil {
				geomIssues = append(geomIssues, fmt.Sprintf("%s: unreadable bndbox", base))
				continue
			}
			box := *obj.Box
			if box.Empty() {
				geomIssues = append(geomIssues, fmt.Sprintf("%s: zero-area box for %q", base, obj.Label))
			} else if parsed.Width > 0 && parsed.Height > 0 && !box.Inside(parsed.Width, parsed.Height) {
				geomIssues = append(geomIssues, fmt.Sprintf("%s: box outside declared %dx%d", base, parsed.Width, parsed.Height))
			}
			ins.areas = append(ins.areas, float64(box.Area()))
			ins.aspects = append(ins.aspects, box.AspectRatio())
		}

		// Filename conventions vary, so a dangling reference is a warning.
		if parsed.Filename != "" {
			if _, err := os.Stat(filepath.Join(opts.ImagesDir, parsed.Filename)); err != nil {
				badRefs = append(badRefs, fmt.Sprintf("%s references %s", base, parsed.Filename))
			}
		}

		if imgName, ok := images[base]; ok {
			w, h, err := probeImage(filepath.Join(opts.ImagesDir, imgName))
			if err != nil {
				decodeIssues = append(decodeIssues, fmt.Sprintf("%s: %v", imgName, err))
			} else if parsed.Width > 0 && parsed.Height > 0 && (w != parsed.Width || h != parsed.Height) {
				geomIssues = append(geomIssues, fmt.Sprintf("%s: declared %dx%d but image is %dx%d",
					base, parsed.Width, parsed.Height, w, h))
			}
		}
	}

	if ins.parseErrors > 0 {
		ins.checks = append(ins.checks, Check{
			Name:   "annotation sample",
			Status: StatusFail,
			Detail: fmt.Sprintf("%d of %d files failed to parse (%s)", ins.parseErrors, ins.inspected, preview(parseFailed, 3)),
		})
	} else {
		ins.checks = append(ins.checks, Check{
			Name:   "annotation sample",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d files, %d objects", ins.inspected, ins.objectTotal),
		})
	}

	ins.checks = append(ins.checks, listCheck("image references", badRefs, StatusWarn))
	ins.checks = append(ins.checks, listCheck("bbox geometry", geomIssues, warnStatus))
	ins.checks = append(ins.checks, listCheck("image decode", decodeIssues, warnStatus))

	return ins
}

func listCheck(name string, issues []string, bad Status) Check {
	if len(issues) == 0 {
		return Check{Name: name, Status: StatusPass, Detail: "ok"}
	}
	return Check{
		Name:   name,
		Status: bad,
		Detail: fmt.Sprintf("%d issues (%s)", len(issues), preview(issues, 2)),
	}
}

// vocabularyCheck flags labels seen in the annotations that are not in the
// expected list. The core enforces no vocabulary itself; this is an opt-in
// warning for pipelines trained on a fixed class list.
func vocabularyCheck(histogram []LabelCount, expected []string) Check {
	known := make(map[string]bool, len(expected))
	for _, l := range expected {
		known[l] = true
	}
	var unexpected []string
	for _, lc := range histogram {
		if !known[lc.Label] {
			unexpected = append(unexpected, lc.Label)
		}
	}
	if len(unexpected) == 0 {
		return Check{Name: "label vocabulary", Status: StatusPass, Detail: "all labels expected"}
	}
	sort.Strings(unexpected)
	return Check{
		Name:   "label vocabulary",
		Status: StatusWarn,
		Detail: fmt.Sprintf("%d unexpected labels (%s)", len(unexpected), preview(unexpected, 3)),
	}
}

func sortedHistogram(labels map[string]int) []LabelCount {
	out := make([]LabelCount, 0, len(labels))
	for label, count := range labels {
		out = append(out, LabelCount{Label: label, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Render writes the human-readable report. All counts are printed even when
// the run ultimately fails.
func (r *Report) Render(w io.Writer) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Dataset Verification")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Images dir:       %s\n", r.ImagesDir)
	fmt.Fprintf(w, "Annotations dir:  %s\n", r.AnnotationsDir)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Found %d image files\n", r.ImageCount)
	fmt.Fprintf(w, "Found %d annotation XML files\n", r.XMLCount)
	fmt.Fprintf(w, "Matching pairs:      %d\n", len(r.Matched))
	fmt.Fprintf(w, "Images without XML:  %d\n", len(r.OnlyImages))
	fmt.Fprintf(w, "XMLs without images: %d\n", len(r.OnlyXMLs))
	fmt.Fprintln(w)

	for _, c := range r.Checks {
		fmt.Fprintf(w, "[%s] %s: %s\n", c.Status, c.Name, c.Detail)
	}
	fmt.Fprintln(w)

	if len(r.Labels) > 0 {
		fmt.Fprintln(w, "Label summary:")
		for _, lc := range r.Labels {
			fmt.Fprintf(w, "  %-20s %5d objects\n", lc.Label, lc.Count)
		}
		fmt.Fprintf(w, "Total unique labels: %d\n", len(r.Labels))
		fmt.Fprintf(w, "Total objects:       %d\n", r.ObjectTotal)
	} else {
		fmt.Fprintln(w, "[WARN] no labels found in inspected annotations")
	}

	if r.Stats != nil {
		fmt.Fprintln(w)
		r.Stats.Render(w)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	if r.Success() {
		fmt.Fprintf(w, "[OK] dataset looks good: %d usable pairs\n", len(r.Matched))
	} else {
		fmt.Fprintln(w, "[FAIL] dataset has blocking issues (see above)")
	}
	fmt.Fprintln(w, rule)
}
