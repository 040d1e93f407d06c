package obb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/annotate/internal/annotation"
)

func TestParseLine(t *testing.T) {
	t.Run("valid line", func(t *testing.T) {
		obj, ok := ParseLine("10.0 20.0 110.0 20.0 110.0 70.0 10.0 70.0 plane 0")
		require.True(t, ok)
		assert.Equal(t, "plane", obj.Label)
		assert.Equal(t, 0, obj.Difficult)
		assert.Equal(t, annotation.BoundingBox{XMin: 10, YMin: 20, XMax: 110, YMax: 70}, obj.Box)
	})

	t.Run("rotated corners collapse to enclosing box", func(t *testing.T) {
		obj, ok := ParseLine("50 30 70 50 50 70 30 50 ship 1")
		require.True(t, ok)
		assert.Equal(t, 1, obj.Difficult)
		assert.Equal(t, annotation.BoundingBox{XMin: 30, YMin: 30, XMax: 70, YMax: 70}, obj.Box)
	})

	t.Run("malformed lines", func(t *testing.T) {
		for name, line := range map[string]string{
			"too few tokens":     "1 2 3 4 5 6 7 plane 0",
			"non-float corner":   "a 2 3 4 5 6 7 8 plane 0",
			"non-int difficulty": "1 2 3 4 5 6 7 8 plane hard",
			"empty":              "",
		} {
			_, ok := ParseLine(line)
			assert.False(t, ok, "expected %s to be rejected", name)
		}
	})
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame_0001.txt")
	content := "10 10 60 10 60 60 10 60 car 0\n" +
		"\n" +
		"bad line with not enough tokens\n" +
		"5 5 15 5 15 25 5 25 ped 1\n" +
		"x y z w 1 2 3 4 car 0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res, err := ParseFile(path)
	require.NoError(t, err)

	// N lines with M malformed yields exactly N-M objects.
	assert.Len(t, res.Objects, 2)
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, "car", res.Objects[0].Label)
	assert.Equal(t, "ped", res.Objects[1].Label)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
