// Package obb parses YOLO oriented-bounding-box label files. Each non-empty
// line describes one object as eight corner coordinates followed by a class
// name and an integer difficulty flag:
//
//	x1 y1 x2 y2 x3 y3 x4 y4 class_name difficulty
//
// The rotated quadrilateral is collapsed to its enclosing axis-aligned box.
package obb

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/banshee-data/annotate/internal/annotation"
)

// FileResult holds the outcome of parsing one label file.
type FileResult struct {
	Objects []annotation.Object
	Skipped int // malformed lines dropped
}

// ParseLine parses a single label line. The second return is false for
// malformed lines: fewer than ten tokens, corner tokens that are not floats,
// or a difficulty token that is not an integer. Malformed lines are expected
// input and never produce an error.
func ParseLine(line string) (annotation.Object, bool) {
	parts := strings.Fields(line)
	if len(parts) < 10 {
		return annotation.Object{}, false
	}

	var xs, ys [4]float64
	for i := 0; i < 4; i++ {
		x, err := strconv.ParseFloat(parts[2*i], 64)
		if err != nil {
			return annotation.Object{}, false
		}
		y, err := strconv.ParseFloat(parts[2*i+1], 64)
		if err != nil {
			return annotation.Object{}, false
		}
		xs[i], ys[i] = x, y
	}

	difficulty, err := strconv.Atoi(parts[9])
	if err != nil {
		return annotation.Object{}, false
	}

	return annotation.Object{
		Label:     parts[8],
		Box:       annotation.BoxFromCorners(xs, ys),
		Difficult: difficulty,
	}, true
}

// ParseFile parses every line of the label file at path. Malformed lines are
// counted and skipped; the only error return is failing to read the file. A
// result with zero objects is valid here — callers treat such files as
// skipped at the file level.
func ParseFile(path string) (*FileResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label file: %w", err)
	}
	defer f.Close()

	res := &FileResult{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		obj, ok := ParseLine(line)
		if !ok {
			res.Skipped++
			continue
		}
		res.Objects = append(res.Objects, obj)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}
	return res, nil
}
