// Package convert orchestrates the batch conversions: CSV exports to Pascal
// VOC files, and YOLO-OBB dataset trees to the images/annotations layout the
// training pipeline consumes. Runs are idempotent at the file level — the
// same inputs regenerate byte-identical outputs under the same names.
package convert

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/annotate/internal/annotation"
	"github.com/banshee-data/annotate/internal/csvann"
	"github.com/banshee-data/annotate/internal/voc"
)

// CSVRun summarises one CSV-to-VOC conversion.
type CSVRun struct {
	Parse         *csvann.Result
	Written       int
	WriteFailures []string

	// Pairing summary, only populated when an images directory was supplied.
	Matched       int
	MissingImages []string // XMLs whose image is absent
	MissingXMLs   []string // images that got no XML
}

// CSVToVOC reads a tab-delimited annotation export and writes one VOC XML
// file per image into outDir. Write failures are collected per file and
// never stop the batch. When imagesDir exists, the output is reconciled
// against it the way a post-conversion sanity pass would.
func CSVToVOC(csvPath, outDir, imagesDir string) (*CSVRun, error) {
	ds := annotation.NewDataset()
	parseRes, err := csvann.ParseFile(csvPath, ds)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	run := &CSVRun{Parse: parseRes}
	for _, base := range ds.Basenames() {
		a := ds.Get(base)
		path := filepath.Join(outDir, base+".xml")
		if err := voc.WriteFile(path, a, "images", ""); err != nil {
			log.Printf("[WARN] %v", err)
			run.WriteFailures = append(run.WriteFailures, base)
			continue
		}
		run.Written++
	}

	if imagesDir != "" {
		if info, err := os.Stat(imagesDir); err == nil && info.IsDir() {
			run.reconcile(outDir, imagesDir)
		}
	}
	return run, nil
}

// reconcile compares the written XML basenames against the image basenames.
// This mirrors the validator's pairing check but stays lightweight; a full
// structural verification is a separate run.
func (run *CSVRun) reconcile(outDir, imagesDir string) {
	imageBases := make(map[string]bool)
	if entries, err := os.ReadDir(imagesDir); err == nil {
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) == "" {
				continue
			}
			imageBases[annotation.Basename(e.Name())] = true
		}
	}
	xmlBases, _ := filepath.Glob(filepath.Join(outDir, "*.xml"))
	written := make(map[string]bool)
	for _, p := range xmlBases {
		written[annotation.Basename(p)] = true
	}

	for base := range written {
		if imageBases[base] {
			run.Matched++
		} else {
			run.MissingImages = append(run.MissingImages, base)
		}
	}
	for base := range imageBases {
		if !written[base] {
			run.MissingXMLs = append(run.MissingXMLs, base)
		}
	}
}
