package convert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/annotate/internal/verify"
	"github.com/banshee-data/annotate/internal/voc"
)

const csvHeader = "label_name\tbbox_x\tbbox_y\tbbox_width\tbbox_height\timage_name\timage_width\timage_height\n"

func TestCSVToVOC(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "annotations.csv")
	outDir := filepath.Join(dir, "annotations")
	imagesDir := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(imagesDir, 0o755))

	// Three rows for img1, one for img2; only img1 has an image on disk.
	content := csvHeader +
		"cat\t10\t10\t50\t50\timg1.jpg\t640\t480\n" +
		"cat\t100\t100\t20\t20\timg1.jpg\t640\t480\n" +
		"cat\t200\t200\t30\t30\timg1.jpg\t640\t480\n" +
		"dog\t5\t5\t10\t10\timg2.jpg\t640\t480\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "img1.jpg"), []byte("jpegdata"), 0o644))

	run, err := CSVToVOC(csvPath, outDir, imagesDir)
	require.NoError(t, err)

	assert.Equal(t, 4, run.Parse.Records)
	assert.Equal(t, 2, run.Parse.Images)
	assert.Equal(t, 2, run.Written)
	assert.Empty(t, run.WriteFailures)
	assert.Equal(t, 1, run.Matched)
	assert.Equal(t, []string{"img2"}, run.MissingImages)
	assert.Empty(t, run.MissingXMLs)

	parsed, err := voc.ParseFile(filepath.Join(outDir, "img1.xml"))
	require.NoError(t, err)
	assert.Equal(t, "img1.jpg", parsed.Filename)
	require.Len(t, parsed.Objects, 3)
	assert.Equal(t, "cat", parsed.Objects[0].Label)
	// Round-trip law: (x, y, w, h) written then read back is exactly xyxy.
	require.NotNil(t, parsed.Objects[0].Box)
	assert.Equal(t, 10, parsed.Objects[0].Box.XMin)
	assert.Equal(t, 10, parsed.Objects[0].Box.YMin)
	assert.Equal(t, 60, parsed.Objects[0].Box.XMax)
	assert.Equal(t, 60, parsed.Objects[0].Box.YMax)
}

func TestCSVToVOCMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := CSVToVOC(filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out"), "")
	require.Error(t, err)
}

// writeSplitFixture lays out src/<split>/{labelTxt,images} with two label
// files: one pairable and valid, one with no image.
func writeSplitFixture(t *testing.T, src, split string) {
	t.Helper()
	labelDir := filepath.Join(src, split, "labelTxt")
	imageDir := filepath.Join(src, split, "images")
	require.NoError(t, os.MkdirAll(labelDir, 0o755))
	require.NoError(t, os.MkdirAll(imageDir, 0o755))

	valid := "10 10 60 10 60 60 10 60 car 0\n5 5 15 5 15 25 5 25 ped 1\n"
	require.NoError(t, os.WriteFile(filepath.Join(labelDir, "frame1.txt"), []byte(valid), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(imageDir, "frame1.png"), []byte("pngdata"), 0o644))

	require.NoError(t, os.WriteFile(filepath.Join(labelDir, "orphan.txt"), []byte(valid), 0o644))
}

func TestSplitDataset(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "yolo")
	dstImages := filepath.Join(dir, "data", "images")
	dstAnn := filepath.Join(dir, "data", "annotations")

	writeSplitFixture(t, src, "train")
	writeSplitFixture(t, src, "valid")
	// A label file whose every line is malformed: parsed but zero objects.
	emptyLabels := filepath.Join(src, "train", "labelTxt", "empty.txt")
	require.NoError(t, os.WriteFile(emptyLabels, []byte("junk line\nanother\n"), 0o644))
	// No test split at all: expected, not an error.

	run, err := SplitDataset(src, dstImages, dstAnn, 640, 480)
	require.NoError(t, err)

	require.Len(t, run.Splits, 3)
	assert.Equal(t, SplitResult{Split: "train", Converted: 1, Skipped: 2}, run.Splits[0])
	assert.Equal(t, SplitResult{Split: "test"}, run.Splits[1])
	assert.Equal(t, SplitResult{Split: "valid", Converted: 1, Skipped: 1}, run.Splits[2])
	assert.Equal(t, 2, run.Converted)
	assert.Equal(t, 3, run.Skipped)

	// Image copied under its original name, XML written next to it.
	copied, err := os.ReadFile(filepath.Join(dstImages, "train", "frame1.png"))
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(copied))

	parsed, err := voc.ParseFile(filepath.Join(dstAnn, "train", "frame1.xml"))
	require.NoError(t, err)
	assert.Equal(t, "frame1.png", parsed.Filename)
	assert.Equal(t, 640, parsed.Width)
	assert.Equal(t, 480, parsed.Height)
	require.Len(t, parsed.Objects, 2)
	assert.Equal(t, "car", parsed.Objects[0].Label)
}

func TestSplitDatasetIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "yolo")
	dstImages := filepath.Join(dir, "images")
	dstAnn := filepath.Join(dir, "annotations")
	writeSplitFixture(t, src, "train")

	first, err := SplitDataset(src, dstImages, dstAnn, 640, 480)
	require.NoError(t, err)
	firstXML, err := os.ReadFile(filepath.Join(dstAnn, "train", "frame1.xml"))
	require.NoError(t, err)

	second, err := SplitDataset(src, dstImages, dstAnn, 640, 480)
	require.NoError(t, err)
	secondXML, err := os.ReadFile(filepath.Join(dstAnn, "train", "frame1.xml"))
	require.NoError(t, err)

	assert.Equal(t, first, second, "counts must be stable across re-runs")
	assert.Equal(t, firstXML, secondXML, "outputs must regenerate identically")
}

func TestSplitDatasetMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := SplitDataset(filepath.Join(dir, "nope"), dir, dir, 640, 480)
	require.Error(t, err)
}

// End-to-end: CSV conversion feeding the validator, mirroring the shape of a
// real dataset-preparation session.
func TestCSVToVOCThenVerify(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "export.csv")
	outDir := filepath.Join(dir, "annotations")
	imagesDir := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(imagesDir, 0o755))

	content := csvHeader +
		"cat\t10\t10\t50\t50\timg1.jpg\t640\t480\n" +
		"dog\t5\t5\t10\t10\timg2.jpg\t640\t480\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(imagesDir, "img1.jpg"), []byte("notdecodable"), 0o644))

	_, err := CSVToVOC(csvPath, outDir, imagesDir)
	require.NoError(t, err)

	report, err := verify.Run(verify.Options{ImagesDir: imagesDir, AnnotationsDir: outDir})
	require.NoError(t, err)

	assert.Len(t, report.Matched, 1)
	assert.Empty(t, report.OnlyImages)
	assert.Equal(t, []string{"img2"}, report.OnlyXMLs)
	assert.Equal(t, 0, report.ParseErrors)
	assert.Equal(t, map[string]int{"cat": 1}, report.LabelHistogram())
}
