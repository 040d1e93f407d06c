package csvann

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/annotate/internal/annotation"
)

const header = "label_name\tbbox_x\tbbox_y\tbbox_width\tbbox_height\timage_name\timage_width\timage_height\n"

func TestParse(t *testing.T) {
	t.Run("groups rows by image", func(t *testing.T) {
		input := header +
			"cat\t10\t10\t50\t50\timg1.jpg\t640\t480\n" +
			"cat\t100\t100\t20\t20\timg1.jpg\t640\t480\n" +
			"dog\t5\t5\t10\t10\timg2.jpg\t640\t480\n"

		ds := annotation.NewDataset()
		res, err := Parse(strings.NewReader(input), ds)
		require.NoError(t, err)

		assert.Equal(t, 3, res.Records)
		assert.Equal(t, 2, res.Images)
		assert.Empty(t, res.Skipped)
		assert.Empty(t, res.SizeConflicts)

		a := ds.Get("img1")
		require.NotNil(t, a)
		require.Len(t, a.Objects, 2)
		assert.Equal(t, 640, a.Width)
		assert.Equal(t, 480, a.Height)
		// (x, y, w, h) becomes (xmin, ymin, xmax, ymax).
		assert.Equal(t, annotation.BoundingBox{XMin: 10, YMin: 10, XMax: 60, YMax: 60}, a.Objects[0].Box)
		assert.Equal(t, "cat", a.Objects[0].Label)
	})

	t.Run("skips malformed rows without aborting", func(t *testing.T) {
		input := header +
			"cat\t10\t10\t50\t50\timg1.jpg\t640\t480\n" +
			"cat\tnotanumber\t10\t50\t50\timg1.jpg\t640\t480\n" +
			"cat\t20\t20\t30\t30\timg1.jpg\t640\t480\n"

		ds := annotation.NewDataset()
		res, err := Parse(strings.NewReader(input), ds)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Records)
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, 3, res.Skipped[0].Line)
		assert.Equal(t, "bbox_x", res.Skipped[0].Field)
		require.NotNil(t, ds.Get("img1"))
		assert.Len(t, ds.Get("img1").Objects, 2)
	})

	t.Run("ignores blank and repeated header rows", func(t *testing.T) {
		input := header +
			"cat\t10\t10\t50\t50\timg1.jpg\t640\t480\n" +
			header +
			"cat\t1\t1\t2\t2\t\t640\t480\n" +
			"dog\t5\t5\t10\t10\timg2.jpg\t640\t480\n"

		ds := annotation.NewDataset()
		res, err := Parse(strings.NewReader(input), ds)
		require.NoError(t, err)

		assert.Equal(t, 2, res.Records)
		assert.Equal(t, 2, res.Images)
		assert.Empty(t, res.Skipped)
	})

	t.Run("reports image size disagreement", func(t *testing.T) {
		input := header +
			"cat\t10\t10\t50\t50\timg1.jpg\t640\t480\n" +
			"cat\t20\t20\t30\t30\timg1.jpg\t1280\t960\n"

		ds := annotation.NewDataset()
		res, err := Parse(strings.NewReader(input), ds)
		require.NoError(t, err)

		assert.Equal(t, []string{"img1"}, res.SizeConflicts)
		// Last write wins for the stored size.
		assert.Equal(t, 1280, ds.Get("img1").Width)
		assert.Equal(t, 960, ds.Get("img1").Height)
	})

	t.Run("rejects missing header columns", func(t *testing.T) {
		ds := annotation.NewDataset()
		_, err := Parse(strings.NewReader("label_name\tbbox_x\n"), ds)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required column")
	})

	t.Run("accepts reordered columns", func(t *testing.T) {
		input := "image_name\tlabel_name\tbbox_x\tbbox_y\tbbox_width\tbbox_height\timage_width\timage_height\n" +
			"img9.png\tbird\t1\t2\t3\t4\t100\t200\n"

		ds := annotation.NewDataset()
		res, err := Parse(strings.NewReader(input), ds)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Records)

		a := ds.Get("img9")
		require.NotNil(t, a)
		assert.Equal(t, annotation.BoundingBox{XMin: 1, YMin: 2, XMax: 4, YMax: 6}, a.Objects[0].Box)
	})
}
