package annotation

import (
	"path/filepath"
	"sort"
	"strings"
)

// Annotation is everything known about one image: its declared size and the
// ordered objects annotated on it. Width and height come from the input
// records (or a caller-supplied default for synthetic conversions); the image
// file itself is never decoded to measure them.
type Annotation struct {
	ImageName string
	Width     int
	Height    int
	Objects   []Object
}

// Basename is the image filename with its extension removed. It is the join
// key between images and annotation files throughout the toolkit.
func Basename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Dataset maps image basenames to their accumulated annotations. A Dataset is
// local to a single conversion or verification run; it is populated by one
// parser pass, optionally consumed by one writer pass, and then discarded.
type Dataset struct {
	byImage map[string]*Annotation
}

// NewDataset returns an empty Dataset.
func NewDataset() *Dataset {
	return &Dataset{byImage: make(map[string]*Annotation)}
}

// GetOrCreate returns the Annotation for imageName, creating an empty one on
// first sight. Repeated records for the same image accumulate objects on the
// same Annotation rather than overwriting it.
func (d *Dataset) GetOrCreate(imageName string) *Annotation {
	key := Basename(imageName)
	if a, ok := d.byImage[key]; ok {
		return a
	}
	a := &Annotation{ImageName: imageName}
	d.byImage[key] = a
	return a
}

// Get returns the Annotation for a basename, or nil when absent.
func (d *Dataset) Get(basename string) *Annotation {
	return d.byImage[basename]
}

// Len returns the number of distinct images in the dataset.
func (d *Dataset) Len() int {
	return len(d.byImage)
}

// Basenames returns the image basenames in sorted order so that writer passes
// and reports are deterministic across runs.
func (d *Dataset) Basenames() []string {
	keys := make([]string, 0, len(d.byImage))
	for k := range d.byImage {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
