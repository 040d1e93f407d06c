package verify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// maxConfigSize bounds the options file read.
const maxConfigSize = 1 << 20

// FileOptions is the on-disk form of Options. All fields are pointers so a
// partial config file is safe: fields omitted from the JSON keep whatever the
// flags already set.
type FileOptions struct {
	ImagesDir      *string   `json:"images_dir,omitempty"`
	AnnotationsDir *string   `json:"annotations_dir,omitempty"`
	SampleSize     *int      `json:"sample_size,omitempty"`
	MinMatched     *int      `json:"min_matched,omitempty"`
	ExpectedLabels *[]string `json:"expected_labels,omitempty"`
	FullStats      *bool     `json:"full_stats,omitempty"`
	Strict         *bool     `json:"strict,omitempty"`
	ChartPath      *string   `json:"chart_path,omitempty"`
}

// LoadFileOptions reads a JSON options file. The path must have a .json
// extension; anything else is rejected before reading.
func LoadFileOptions(path string) (*FileOptions, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var fo FileOptions
	if err := json.Unmarshal(data, &fo); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &fo, nil
}

// Apply overlays the file values onto opts. File values win over whatever is
// already set; nil fields leave opts untouched.
func (fo *FileOptions) Apply(opts *Options) {
	if fo.ImagesDir != nil {
		opts.ImagesDir = *fo.ImagesDir
	}
	if fo.AnnotationsDir != nil {
		opts.AnnotationsDir = *fo.AnnotationsDir
	}
	if fo.SampleSize != nil {
		opts.SampleSize = *fo.SampleSize
	}
	if fo.MinMatched != nil {
		opts.MinMatched = *fo.MinMatched
	}
	if fo.ExpectedLabels != nil {
		opts.ExpectedLabels = *fo.ExpectedLabels
	}
	if fo.FullStats != nil {
		opts.FullStats = *fo.FullStats
	}
	if fo.Strict != nil {
		opts.Strict = *fo.Strict
	}
	if fo.ChartPath != nil {
		opts.ChartPath = *fo.ChartPath
	}
}
