package extract

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/jhillyerd/enmime"
	"github.com/klauspost/compress/zip"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/filetype"
)

var (
	// ErrBadArchive indicates an office file that is not a readable zip
	ErrBadArchive = errors.New("bad zip file")
	// ErrBadPDF indicates a corrupt or unparseable PDF
	ErrBadPDF = errors.New("the file is corrupted or not a valid PDF")
	// ErrEncryptedPDF indicates a password protected PDF
	ErrEncryptedPDF = errors.New("the file is password-protected")
	// ErrBadEmail indicates data that could not be parsed as MIME
	ErrBadEmail = errors.New("not a valid email message")

	// errCollectorFull aborts pdfcpu's image walk once the collector is full
	errCollectorFull = errors.New("collector full")
)

// mediaPrefixes are the archive directories office formats store embedded
// images in. Images pasted elsewhere (e.g. only referenced from a sheet)
// are not found.
var mediaPrefixes = []string{"word/media/", "ppt/media/", "xl/media/", "media/"}

func init() {
	// pdfcpu otherwise writes a config file into the user's config dir
	api.DisableConfigDir()
}

// Extractor walks container formats. Errors for individual entries are
// logged and skipped; only errors that make the whole container unreadable
// are returned.
type Extractor struct {
	logger *zap.Logger
}

// New creates an extractor logging to logger.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Image offers data itself as a single source.
func (e *Extractor) Image(data []byte, origin string, c *Collector) {
	c.Add(Source{Name: origin + "image", Data: data})
}

// Office offers every file under the office media directories of the zip in data.
func (e *Extractor) Office(data []byte, origin string, c *Collector) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadArchive, err)
	}

	for _, f := range zr.File {
		if !isMediaEntry(f.Name) || f.FileInfo().IsDir() {
			continue
		}
		if c.Full() {
			c.Reject()
			return nil
		}
		content, err := readZipEntry(f)
		if err != nil {
			e.logger.Warn("skipping unreadable archive entry",
				zap.String("entry", f.Name), zap.Error(err))
			continue
		}
		c.Add(Source{Name: origin + f.Name, Data: content})
	}
	return nil
}

// pdfImage is an image read from a page, held until the page is complete.
type pdfImage struct {
	objNr int
	name  string
	data  []byte
}

// PDF offers every image XObject of the PDF in data, page by page and in
// object number order within a page. An object shown on several pages is
// offered once, for the first page it appears on.
func (e *Extractor) PDF(data []byte, origin string, c *Collector) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	var (
		page    = -1
		pending []pdfImage
		seen    = make(map[int]bool)
	)
	flush := func() error {
		slices.SortFunc(pending, func(a, b pdfImage) int { return cmp.Compare(a.objNr, b.objNr) })
		for _, img := range pending {
			if c.Full() {
				c.Reject()
				return errCollectorFull
			}
			c.Add(Source{Name: img.name, Data: img.data})
		}
		pending = pending[:0]
		return nil
	}

	// pdfcpu walks a page's images in map order
	digest := func(img model.Image, _ bool, _ int) error {
		if img.PageNr != page {
			if err := flush(); err != nil {
				return err
			}
			page = img.PageNr
		}
		if seen[img.ObjNr] {
			return nil
		}
		seen[img.ObjNr] = true

		content, err := io.ReadAll(img)
		if err != nil {
			e.logger.Warn("skipping unreadable pdf image",
				zap.Int("page", img.PageNr), zap.Int("obj", img.ObjNr), zap.Error(err))
			return nil
		}
		pending = append(pending, pdfImage{
			objNr: img.ObjNr,
			name:  fmt.Sprintf("%spage%d/obj%d.%s", origin, img.PageNr, img.ObjNr, img.FileType),
			data:  content,
		})
		return nil
	}

	err := api.ExtractImages(bytes.NewReader(data), nil, digest, conf)
	if err == nil {
		err = flush()
	}
	switch {
	case err == nil, errors.Is(err, errCollectorFull):
		return nil
	case isEncryptionError(err):
		return fmt.Errorf("%w: %v", ErrEncryptedPDF, err)
	default:
		return fmt.Errorf("%w: %v", ErrBadPDF, err)
	}
}

// Email offers image parts of a MIME message and expands office and PDF
// attachments one level deep.
func (e *Extractor) Email(data []byte, origin string, c *Collector) error {
	env, err := enmime.ReadEnvelope(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadEmail, err)
	}

	parts := make([]*enmime.Part, 0, len(env.Inlines)+len(env.Attachments)+len(env.OtherParts))
	parts = append(parts, env.Inlines...)
	parts = append(parts, env.Attachments...)
	parts = append(parts, env.OtherParts...)

	for i, part := range parts {
		if len(part.Content) == 0 {
			continue
		}
		name := part.FileName
		if name == "" {
			name = fmt.Sprintf("part%d", i)
		}
		partOrigin := origin + name + "/"

		format := filetype.Detect(part.Content)
		switch {
		case filetype.IsImage(format):
			if !c.Add(Source{Name: origin + name, Data: part.Content}) {
				return nil
			}
		case filetype.IsOffice(format):
			if err := e.Office(part.Content, partOrigin, c); err != nil {
				e.logger.Warn("skipping attachment", zap.String("attachment", name), zap.Error(err))
			}
		case filetype.IsPDF(format):
			if err := e.PDF(part.Content, partOrigin, c); err != nil {
				e.logger.Warn("skipping attachment", zap.String("attachment", name), zap.Error(err))
			}
		default:
			e.logger.Debug("ignoring attachment",
				zap.String("attachment", name), zap.String("format", format))
		}
	}
	return nil
}

func isMediaEntry(name string) bool {
	for _, prefix := range mediaPrefixes {
		if strings.HasPrefix(name, prefix) && name != prefix {
			return true
		}
	}
	return false
}

func readZipEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isEncryptionError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}
