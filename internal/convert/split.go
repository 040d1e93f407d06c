package convert

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/annotate/internal/annotation"
	"github.com/banshee-data/annotate/internal/obb"
	"github.com/banshee-data/annotate/internal/voc"
)

// splitNames are the dataset partitions probed under the source root. A
// missing split is expected (many exports carry no test set) and skipped
// without complaint.
var splitNames = []string{"train", "test", "valid"}

// imageProbeOrder is the fixed extension search order when pairing a label
// file with its image; the first hit wins.
var imageProbeOrder = []string{".jpg", ".png", ".jpeg"}

// SplitResult tallies one split.
type SplitResult struct {
	Split     string
	Converted int
	Skipped   int
}

// SplitRun tallies the whole conversion.
type SplitRun struct {
	Splits    []SplitResult
	Converted int
	Skipped   int
}

// SplitDataset converts a YOLO-OBB dataset tree rooted at src
// (src/{train,test,valid}/{labelTxt,images}) into the flat
// dstImages/<split> and dstAnn/<split> layout, writing one VOC XML per label
// file and copying its image alongside. Label files with no matching image
// or no valid objects are counted as skipped; per-file write failures are
// logged, counted as skipped and never stop the batch. width and height are
// the declared image size recorded in the XML — the images themselves are
// never decoded.
func SplitDataset(src, dstImages, dstAnn string, width, height int) (*SplitRun, error) {
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("source directory not found: %s", src)
	}

	run := &SplitRun{}
	for _, split := range splitNames {
		res, err := convertSplit(src, split, dstImages, dstAnn, width, height)
		if err != nil {
			return nil, err
		}
		run.Splits = append(run.Splits, res)
		run.Converted += res.Converted
		run.Skipped += res.Skipped
	}
	return run, nil
}

func convertSplit(src, split, dstImages, dstAnn string, width, height int) (SplitResult, error) {
	res := SplitResult{Split: split}

	labelDir := filepath.Join(src, split, "labelTxt")
	imageDir := filepath.Join(src, split, "images")
	if info, err := os.Stat(labelDir); err != nil || !info.IsDir() {
		log.Printf("[SKIP] %s not found", labelDir)
		return res, nil
	}

	labelFiles, err := filepath.Glob(filepath.Join(labelDir, "*.txt"))
	if err != nil {
		return res, fmt.Errorf("failed to list %s: %w", labelDir, err)
	}

	dstImgSplit := filepath.Join(dstImages, split)
	dstAnnSplit := filepath.Join(dstAnn, split)
	for _, dir := range []string{dstImgSplit, dstAnnSplit} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			// Every write in this split would fail; count them and move on
			// to the next split.
			log.Printf("[WARN] failed to create %s: %v", dir, err)
			res.Skipped += len(labelFiles)
			return res, nil
		}
	}

	for _, labelFile := range labelFiles {
		base := annotation.Basename(labelFile)

		imagePath := findImage(imageDir, base)
		if imagePath == "" {
			log.Printf("[WARN] no image found for %s", filepath.Base(labelFile))
			res.Skipped++
			continue
		}

		parsed, err := obb.ParseFile(labelFile)
		if err != nil {
			log.Printf("[WARN] %v", err)
			res.Skipped++
			continue
		}
		if len(parsed.Objects) == 0 {
			log.Printf("[WARN] no valid objects in %s", filepath.Base(labelFile))
			res.Skipped++
			continue
		}

		imageName := filepath.Base(imagePath)
		if err := copyFile(imagePath, filepath.Join(dstImgSplit, imageName)); err != nil {
			log.Printf("[WARN] failed to copy %s: %v", imageName, err)
			res.Skipped++
			continue
		}

		a := &annotation.Annotation{
			ImageName: imageName,
			Width:     width,
			Height:    height,
			Objects:   parsed.Objects,
		}
		xmlPath := filepath.Join(dstAnnSplit, base+".xml")
		if err := voc.WriteFile(xmlPath, a, "images", filepath.Join(dstImgSplit, imageName)); err != nil {
			log.Printf("[WARN] %v", err)
			res.Skipped++
			continue
		}

		res.Converted++
	}
	return res, nil
}

// findImage probes the fixed extension order for a same-basename image and
// returns the first hit, or empty when none exists.
func findImage(imageDir, base string) string {
	for _, ext := range imageProbeOrder {
		candidate := filepath.Join(imageDir, base+ext)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
