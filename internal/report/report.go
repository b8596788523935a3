// Package report renders scan results for humans (text) and machines (json, yaml).
package report

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v2"

	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/features"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/qr"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/scan"
)

// Output formats
const (
	Text = "text"
	JSON = "json"
	YAML = "yaml"
)

// ErrUnknownFormat indicates an output format other than text, json or yaml
var ErrUnknownFormat = errors.New("unknown output format")

// File is the report for one input file.
type File struct {
	Path            string        `json:"path" yaml:"path"`
	FileFormat      string        `json:"file_format,omitempty" yaml:"file_format,omitempty"`
	State           string        `json:"state,omitempty" yaml:"state,omitempty"`
	Message         string        `json:"message,omitempty" yaml:"message,omitempty"`
	ImagesProcessed int           `json:"images_processed" yaml:"images_processed"`
	Codes           []qr.Code     `json:"codes,omitempty" yaml:"codes,omitempty"`
	Features        *features.Set `json:"features,omitempty" yaml:"features,omitempty"`
	Children        []Child       `json:"children,omitempty" yaml:"children,omitempty"`
	Texts           []string      `json:"texts,omitempty" yaml:"texts,omitempty"`
	Artifacts       []string      `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Error           string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// Child summarises a binary payload without printing its bytes.
type Child struct {
	Relationship map[string]string `json:"relationship" yaml:"relationship"`
	Source       string            `json:"source" yaml:"source"`
	Size         int               `json:"size" yaml:"size"`
	SHA256       string            `json:"sha256" yaml:"sha256"`
}

// FromResult builds the report for a scan. res may be nil when the scan
// failed before the file was read, in which case only path and err are kept.
func FromResult(path string, res *scan.Result, err error) File {
	f := File{Path: path}
	if err != nil {
		f.Error = err.Error()
	}
	if res == nil {
		return f
	}

	f.FileFormat = res.FileFormat
	f.State = string(res.State)
	f.Message = res.Message
	f.ImagesProcessed = res.ImagesProcessed
	f.Codes = res.Codes
	f.Features = res.Features
	f.Texts = res.Texts
	for _, c := range res.Children {
		sum := sha256.Sum256(c.Data)
		f.Children = append(f.Children, Child{
			Relationship: c.Relationship,
			Source:       c.Source,
			Size:         len(c.Data),
			SHA256:       hex.EncodeToString(sum[:]),
		})
	}
	return f
}

// Write renders files to w in the given format.
func Write(w io.Writer, format string, files []File) error {
	switch format {
	case Text:
		return writeText(w, files)
	case JSON:
		return writeJSON(w, files)
	case YAML:
		return writeYAML(w, files)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func writeJSON(w io.Writer, files []File) error {
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(files, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func writeYAML(w io.Writer, files []File) error {
	data, err := yaml.Marshal(files)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func writeText(w io.Writer, files []File) error {
	for i, f := range files {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, header(f)); err != nil {
			return err
		}
		if f.Features == nil || f.Features.Len() == 0 {
			continue
		}

		table := uitable.New()
		table.MaxColWidth = 100
		table.Wrap = true
		table.AddRow("FEATURE", "VALUE")
		for _, name := range f.Features.Names() {
			for _, v := range f.Features.Values(name) {
				table.AddRow(name, v)
			}
		}
		for _, c := range f.Children {
			table.AddRow("child", fmt.Sprintf("%d bytes sha256:%s", c.Size, c.SHA256))
		}
		for _, a := range f.Artifacts {
			table.AddRow("artifact", a)
		}
		if _, err := fmt.Fprintln(w, table); err != nil {
			return err
		}
	}
	return nil
}

func header(f File) string {
	if f.State == "" {
		return fmt.Sprintf("%s: %s", f.Path, f.Error)
	}
	s := fmt.Sprintf("%s [%s] %s, %d image(s), %d code(s)",
		f.Path, f.FileFormat, f.State, f.ImagesProcessed, len(f.Codes))
	if f.Message != "" {
		s += ": " + f.Message
	}
	return s
}
