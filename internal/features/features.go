// Package features turns decoded QR payloads into azul feature values.
package features

import (
	"regexp"
	"unicode/utf8"

	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/qr"
)

// Feature names
const (
	DataRaw     = "qr_code_data_raw"
	Type        = "qr_code_type"
	Rect        = "qr_code_rect"
	Polygon     = "qr_code_polygon"
	Quality     = "qr_code_quality"
	Orientation = "qr_code_orientation"
	URI         = "qr_code_uri"
	Email       = "qr_code_email"
)

// Value types as the azul host names them
const (
	TypeString = "string"
	TypeURI    = "uri"
)

// ChildAction is the relationship recorded for binary payloads.
const ChildAction = "extracted_qr_code"

// truncationMarker replaces the tail of over-long values.
const truncationMarker = "..."

// Definition describes one feature the plugin can emit.
type Definition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type" yaml:"type"`
}

// Definitions lists every feature, in the order the plugin registers them.
var Definitions = []Definition{
	{DataRaw, "The raw data from the qr code, including formatting", TypeString},
	{Type, "The type, if provided", TypeString},
	{Rect, "The rectangle bounds of the qr code", TypeString},
	{Polygon, "The polygon bounds of the qr code", TypeString},
	{Quality, "The quality of the qr code", TypeString},
	{Orientation, "The orientation of the qr code", TypeString},
	{URI, "URI's found within the qr code", TypeURI},
	{Email, "Email addresses found within the qr code", TypeString},
}

var (
	uriPattern   = regexp.MustCompile(`\S+://\S+`)
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)
)

// Child is a payload that could not be treated as text.
type Child struct {
	Relationship map[string]string `json:"relationship" yaml:"relationship"`
	Data         []byte            `json:"data" yaml:"data"`
	Source       string            `json:"source" yaml:"source"`
}

// Extraction accumulates everything learned from a file's codes.
type Extraction struct {
	Features *Set
	Children []Child
	// Texts holds full payloads whose feature value was truncated
	Texts []string
}

// Extractor derives feature values from codes.
type Extractor struct {
	maxValueLength int
}

// NewExtractor creates an extractor truncating values above maxValueLength bytes.
func NewExtractor(maxValueLength int) *Extractor {
	return &Extractor{maxValueLength: maxValueLength}
}

// NewExtraction returns an empty accumulator.
func NewExtraction() *Extraction {
	return &Extraction{Features: NewSet()}
}

// Add records the features of one code into ex.
func (e *Extractor) Add(ex *Extraction, code qr.Code) {
	if !utf8.Valid(code.Raw) {
		ex.Children = append(ex.Children, Child{
			Relationship: map[string]string{"action": ChildAction},
			Data:         code.Raw,
			Source:       code.Source,
		})
		return
	}
	text := string(code.Raw)

	for _, uri := range uriPattern.FindAllString(text, -1) {
		ex.Features.Add(URI, uri)
	}
	for _, addr := range emailPattern.FindAllString(text, -1) {
		ex.Features.Add(Email, addr)
	}

	if len(code.Raw) > e.maxValueLength {
		ex.Texts = append(ex.Texts, text)
		ex.Features.Add(DataRaw, truncate(text, e.maxValueLength-len(truncationMarker))+truncationMarker)
	} else {
		ex.Features.Add(DataRaw, text)
	}

	if code.Format != "" {
		ex.Features.Add(Type, code.Format)
	}
	if !code.Rect.IsZero() {
		ex.Features.Add(Rect, code.Rect.String())
	}
	if len(code.Polygon) > 0 {
		ex.Features.Add(Polygon, code.Polygon.String())
	}
	if code.Orientation != "" {
		ex.Features.Add(Orientation, code.Orientation)
	}
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
