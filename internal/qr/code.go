// Package qr finds and decodes QR codes in raster images.
package qr

import (
	"fmt"
	"math"
	"strings"
)

// Point is a detector result point in image coordinates.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Polygon is the outline reported for a code, in detector order.
type Polygon []Point

// String renders the polygon as "[Point(x=1, y=2), ...]".
func (p Polygon) String() string {
	parts := make([]string, len(p))
	for i, pt := range p {
		parts[i] = fmt.Sprintf("Point(x=%d, y=%d)", int(math.Round(pt.X)), int(math.Round(pt.Y)))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Rect is the axis-aligned bounding box of a polygon.
type Rect struct {
	Left   int `json:"left" yaml:"left"`
	Top    int `json:"top" yaml:"top"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// String renders the rectangle as "Rect(left=.., top=.., width=.., height=..)".
func (r Rect) String() string {
	return fmt.Sprintf("Rect(left=%d, top=%d, width=%d, height=%d)", r.Left, r.Top, r.Width, r.Height)
}

// IsZero reports whether no bounds are known.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Bounds returns the bounding box of the polygon, or a zero Rect when empty.
func (p Polygon) Bounds() Rect {
	if len(p) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range p {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	left, top := int(math.Floor(minX)), int(math.Floor(minY))
	return Rect{
		Left:   left,
		Top:    top,
		Width:  int(math.Ceil(maxX)) - left,
		Height: int(math.Ceil(maxY)) - top,
	}
}

// Code is one decoded symbol.
type Code struct {
	// Text is the payload as decoded by the reader's charset detection
	Text string `json:"text" yaml:"text"`
	// Raw is the payload bytes: byte-mode segments when the symbol carried
	// any, otherwise Text
	Raw []byte `json:"-" yaml:"-"`
	// Format is the symbology, e.g. QR_CODE
	Format string `json:"type" yaml:"type"`
	// Polygon holds the detector's result points
	Polygon Polygon `json:"polygon,omitempty" yaml:"polygon,omitempty"`
	// Rect is the bounding box of Polygon
	Rect Rect `json:"rect" yaml:"rect"`
	// Orientation is UP, RIGHT, DOWN or LEFT when the reader reports it
	Orientation string `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	// ECLevel is the error correction level (L, M, Q, H) when known
	ECLevel string `json:"ec_level,omitempty" yaml:"ec_level,omitempty"`
	// Source names the image the code came from
	Source string `json:"source" yaml:"source"`
}

// orientationName maps the reader's clockwise rotation in degrees onto a
// compass-style name.
func orientationName(degrees int) string {
	switch ((degrees % 360) + 360) % 360 {
	case 0:
		return "UP"
	case 90:
		return "RIGHT"
	case 180:
		return "DOWN"
	case 270:
		return "LEFT"
	default:
		return ""
	}
}
