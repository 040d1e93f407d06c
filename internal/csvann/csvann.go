// Package csvann parses tab-delimited bounding-box annotation exports into
// the canonical dataset model. The expected schema is a header row naming
// label_name, bbox_x, bbox_y, bbox_width, bbox_height, image_name,
// image_width and image_height; column order is free.
package csvann

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/annotate/internal/annotation"
)

// requiredColumns must all be present in the header row for the file to be
// interpretable at all.
var requiredColumns = []string{
	"label_name",
	"bbox_x",
	"bbox_y",
	"bbox_width",
	"bbox_height",
	"image_name",
	"image_width",
	"image_height",
}

// SkippedRecord describes one record dropped during parsing. Skips are
// ordinary values, not errors: a malformed row never aborts the file.
type SkippedRecord struct {
	Line  int    // 1-based line number in the input
	Field string // offending column, empty when the whole row was unusable
	Err   string
}

func (s SkippedRecord) String() string {
	if s.Field == "" {
		return fmt.Sprintf("line %d: %s", s.Line, s.Err)
	}
	return fmt.Sprintf("line %d: field %s: %s", s.Line, s.Field, s.Err)
}

// Result summarises one parse pass.
type Result struct {
	Records       int             // rows successfully converted to objects
	Images        int             // distinct images touched by this pass
	Skipped       []SkippedRecord // per-row skip diagnostics
	SizeConflicts []string        // images whose rows disagreed on width/height
}

// row is one CSV record with its fields coerced. Coercion happens exactly
// once, here, instead of string-keyed lookups scattered through the code.
type row struct {
	Label       string
	X, Y        int
	W, H        int
	ImageName   string
	ImageWidth  int
	ImageHeight int
}

// Parse reads tab-delimited records from r into ds and returns parse
// statistics. Rows with an empty image_name, or a repeated header row
// embedded mid-file, are skipped silently; rows with a field that fails
// integer coercion are skipped with a diagnostic. The only error returns are
// a missing/incomplete header and transport-level read failures.
func Parse(r io.Reader, ds *annotation.Dataset) (*Result, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.FieldsPerRecord = -1 // tolerate ragged rows; they surface as skips

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("header is missing required column %q", name)
		}
	}

	res := &Result{}
	touched := make(map[string]bool)
	conflicted := make(map[string]bool)

	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{Line: line, Err: err.Error()})
			continue
		}

		field := func(name string) string {
			i := cols[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		imageName := field("image_name")
		// Exports sometimes contain the header repeated mid-file; drop those
		// rows along with blank ones.
		if imageName == "" || strings.HasPrefix(imageName, "image_name") {
			continue
		}

		rw, badField, err := coerceRow(field, imageName)
		if err != nil {
			res.Skipped = append(res.Skipped, SkippedRecord{Line: line, Field: badField, Err: err.Error()})
			continue
		}

		a := ds.GetOrCreate(rw.ImageName)
		if a.Width != 0 && (a.Width != rw.ImageWidth || a.Height != rw.ImageHeight) {
			// Last write still wins, but the disagreement is surfaced once
			// per image so the verifier can warn about it.
			key := annotation.Basename(rw.ImageName)
			if !conflicted[key] {
				conflicted[key] = true
				res.SizeConflicts = append(res.SizeConflicts, key)
			}
		}
		a.Width = rw.ImageWidth
		a.Height = rw.ImageHeight
		a.Objects = append(a.Objects, annotation.Object{
			Label: rw.Label,
			Box: annotation.BoundingBox{
				XMin: rw.X,
				YMin: rw.Y,
				XMax: rw.X + rw.W,
				YMax: rw.Y + rw.H,
			},
		})

		res.Records++
		touched[annotation.Basename(rw.ImageName)] = true
	}

	res.Images = len(touched)
	return res, nil
}

// ParseFile opens path and parses it with Parse.
func ParseFile(path string, ds *annotation.Dataset) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()
	return Parse(f, ds)
}

func coerceRow(field func(string) string, imageName string) (row, string, error) {
	rw := row{
		Label:     field("label_name"),
		ImageName: imageName,
	}

	intFields := []struct {
		name string
		dst  *int
	}{
		{"bbox_x", &rw.X},
		{"bbox_y", &rw.Y},
		{"bbox_width", &rw.W},
		{"bbox_height", &rw.H},
		{"image_width", &rw.ImageWidth},
		{"image_height", &rw.ImageHeight},
	}
	for _, f := range intFields {
		v, err := strconv.Atoi(field(f.name))
		if err != nil {
			return row{}, f.name, fmt.Errorf("not an integer: %q", field(f.name))
		}
		*f.dst = v
	}
	return rw, "", nil
}
