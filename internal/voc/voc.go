// Package voc reads and writes Pascal VOC XML annotation documents.
//
// The writer emits the fixed document shape used by detection training
// pipelines: folder, filename, optional path, source/database, size with a
// constant depth of 3, segmented fixed at 0, and one object element per
// bounding box. The reader is deliberately tolerant: a bndbox whose numerals
// do not coerce is represented as an absent box, while a structurally broken
// document is a distinct parse error so the verifier can count the two cases
// separately.
package voc

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"

	"github.com/banshee-data/annotate/internal/annotation"
)

// Document is a complete VOC annotation file.
type Document struct {
	XMLName   xml.Name `xml:"annotation"`
	Folder    string   `xml:"folder"`
	Filename  string   `xml:"filename"`
	Path      string   `xml:"path,omitempty"`
	Source    Source   `xml:"source"`
	Size      Size     `xml:"size"`
	Segmented int      `xml:"segmented"`
	Objects   []Obj    `xml:"object"`
}

// Source identifies the database the annotation came from.
type Source struct {
	Database string `xml:"database"`
}

// Size is the declared image geometry. Depth is always 3.
type Size struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

// Obj is one annotated object.
type Obj struct {
	Name      string `xml:"name"`
	Pose      string `xml:"pose"`
	Truncated int    `xml:"truncated"`
	Difficult int    `xml:"difficult"`
	BndBox    BndBox `xml:"bndbox"`
}

// BndBox is an axis-aligned box. All four values render as decimal text.
type BndBox struct {
	XMin int `xml:"xmin"`
	YMin int `xml:"ymin"`
	XMax int `xml:"xmax"`
	YMax int `xml:"ymax"`
}

// FromAnnotation builds a Document from a canonical annotation. folder names
// the images directory recorded in the document; path is optional and left
// out when empty.
func FromAnnotation(a *annotation.Annotation, folder, path string) *Document {
	doc := &Document{
		Folder:   folder,
		Filename: a.ImageName,
		Path:     path,
		Source:   Source{Database: "Unknown"},
		Size: Size{
			Width:  a.Width,
			Height: a.Height,
			Depth:  3,
		},
		Segmented: 0,
	}
	for _, obj := range a.Objects {
		doc.Objects = append(doc.Objects, Obj{
			Name:      obj.Label,
			Pose:      "Unspecified",
			Truncated: 0,
			Difficult: obj.Difficult,
			BndBox: BndBox{
				XMin: obj.Box.XMin,
				YMin: obj.Box.YMin,
				XMax: obj.Box.XMax,
				YMax: obj.Box.YMax,
			},
		})
	}
	return doc
}

// Marshal renders the document pretty-indented with an XML declaration.
func (d *Document) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal annotation: %w", err)
	}
	out := make([]byte, 0, len(xml.Header)+len(body)+1)
	out = append(out, xml.Header...)
	out = append(out, body...)
	out = append(out, '\n')
	return out, nil
}

// WriteFile serialises one annotation to path. The document is marshalled
// fully in memory first so a marshalling problem never leaves a truncated
// file behind; a failure writes nothing for that annotation and the caller
// moves on to the next one.
func WriteFile(path string, a *annotation.Annotation, folder, imagePath string) error {
	data, err := FromAnnotation(a, folder, imagePath).Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ParsedObject is one object read back from an annotation file. Box is nil
// when the bndbox was missing or its numerals failed coercion.
type ParsedObject struct {
	Label string
	Box   *annotation.BoundingBox
}

// Parsed is the tolerant read of one annotation file. Width and Height are
// zero when the size element was absent or uncoercible.
type Parsed struct {
	Filename string
	Width    int
	Height   int
	Objects  []ParsedObject
}

// rawDocument decodes all numerals as text so one bad value degrades to a
// missing field instead of failing the whole document.
type rawDocument struct {
	XMLName  xml.Name `xml:"annotation"`
	Filename string   `xml:"filename"`
	Size     struct {
		Width  string `xml:"width"`
		Height string `xml:"height"`
	} `xml:"size"`
	Objects []struct {
		Name   string `xml:"name"`
		BndBox *struct {
			XMin string `xml:"xmin"`
			YMin string `xml:"ymin"`
			XMax string `xml:"xmax"`
			YMax string `xml:"ymax"`
		} `xml:"bndbox"`
	} `xml:"object"`
}

// ParseFile reads the object list and referenced filename from a VOC XML
// file. A structurally unparsable document returns an error; documents that
// parse but carry unusable bndbox fields succeed with those boxes absent.
func ParseFile(path string) (*Parsed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open annotation: %w", err)
	}
	defer f.Close()

	var raw rawDocument
	if err := xml.NewDecoder(f).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	parsed := &Parsed{Filename: raw.Filename}
	if w, err := strconv.Atoi(raw.Size.Width); err == nil {
		parsed.Width = w
	}
	if h, err := strconv.Atoi(raw.Size.Height); err == nil {
		parsed.Height = h
	}
	for _, obj := range raw.Objects {
		po := ParsedObject{Label: obj.Name}
		if obj.BndBox != nil {
			if box, ok := coerceBox(obj.BndBox.XMin, obj.BndBox.YMin, obj.BndBox.XMax, obj.BndBox.YMax); ok {
				po.Box = &box
			}
		}
		parsed.Objects = append(parsed.Objects, po)
	}
	return parsed, nil
}

func coerceBox(xmin, ymin, xmax, ymax string) (annotation.BoundingBox, bool) {
	vals := [4]int{}
	for i, s := range [4]string{xmin, ymin, xmax, ymax} {
		v, err := strconv.Atoi(s)
		if err != nil {
			return annotation.BoundingBox{}, false
		}
		vals[i] = v
	}
	return annotation.BoundingBox{XMin: vals[0], YMin: vals[1], XMax: vals[2], YMax: vals[3]}, true
}
