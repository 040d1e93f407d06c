// Package annotation holds the canonical in-memory representation of
// object-detection annotations. Every format parser produces these types and
// every writer consumes them; nothing here touches the filesystem or decodes
// pixel data.
package annotation

// BoundingBox is an axis-aligned box in image pixel coordinates.
// Boxes produced by BoxFromCorners always satisfy XMin <= XMax and
// YMin <= YMax. Values are not clipped to the image bounds; callers that care
// (the verifier) flag out-of-range coordinates instead.
type BoundingBox struct {
	XMin int
	YMin int
	XMax int
	YMax int
}

// BoxFromCorners returns the minimal axis-aligned box enclosing the four
// corner points of a (possibly rotated) quadrilateral. Coordinates truncate
// toward zero, matching the integer coercion applied everywhere else in the
// pipeline. Degenerate corner sets yield a zero-area box rather than an error.
func BoxFromCorners(xs, ys [4]float64) BoundingBox {
	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := 1; i < 4; i++ {
		if xs[i] < minX {
			minX = xs[i]
		}
		if xs[i] > maxX {
			maxX = xs[i]
		}
		if ys[i] < minY {
			minY = ys[i]
		}
		if ys[i] > maxY {
			maxY = ys[i]
		}
	}
	return BoundingBox{
		XMin: int(minX),
		YMin: int(minY),
		XMax: int(maxX),
		YMax: int(maxY),
	}
}

// Canonical returns the box with its coordinate pairs reordered so that
// XMin <= XMax and YMin <= YMax.
func (b BoundingBox) Canonical() BoundingBox {
	if b.XMin > b.XMax {
		b.XMin, b.XMax = b.XMax, b.XMin
	}
	if b.YMin > b.YMax {
		b.YMin, b.YMax = b.YMax, b.YMin
	}
	return b
}

// Area returns the box area in square pixels. Inverted boxes report zero.
func (b BoundingBox) Area() int {
	w := b.XMax - b.XMin
	h := b.YMax - b.YMin
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// AspectRatio returns width/height, or zero for boxes with no height.
func (b BoundingBox) AspectRatio() float64 {
	h := b.YMax - b.YMin
	if h == 0 {
		return 0
	}
	return float64(b.XMax-b.XMin) / float64(h)
}

// Empty reports whether the box encloses no pixels.
func (b BoundingBox) Empty() bool {
	return b.XMax <= b.XMin || b.YMax <= b.YMin
}

// Inside reports whether the box lies entirely within a width x height image.
func (b BoundingBox) Inside(width, height int) bool {
	return b.XMin >= 0 && b.YMin >= 0 && b.XMax <= width && b.YMax <= height
}

// Object is one labelled box within an image. Labels are free-form and
// case-sensitive; no vocabulary is enforced here. Difficult carries the VOC
// 0/1 difficulty flag.
type Object struct {
	Label     string
	Box       BoundingBox
	Difficult int
}
