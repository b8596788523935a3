// Package scan routes an input file to the right extractor, decodes every
// extracted image and turns the codes found into feature values.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/extract"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/features"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/filetype"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/qr"
)

var (
	// ErrNotFound indicates the input path does not exist or is not a file
	ErrNotFound = errors.New("file not found")
	// ErrTooLarge indicates the input exceeds Config.MaxFileSize
	ErrTooLarge = errors.New("file too large")
	// ErrNoCodes indicates the file was processed but held no QR code
	ErrNoCodes = errors.New("no qr code found")
	// ErrUnsupported indicates no extractor could process the file
	ErrUnsupported = errors.New("unable to process file type")

	// ErrInvalidMaxImages indicates MaxImages must be positive
	ErrInvalidMaxImages = errors.New("max images must be positive")
	// ErrInvalidWorkers indicates Workers must be positive
	ErrInvalidWorkers = errors.New("workers must be positive")
	// ErrInvalidMaxValueLength indicates MaxValueLength leaves no room for a truncated value
	ErrInvalidMaxValueLength = errors.New("max value length must exceed 3")
	// ErrInvalidMaxFileSize indicates MaxFileSize must be positive
	ErrInvalidMaxFileSize = errors.New("max file size must be positive")
)

// State is the outcome reported for a scanned file.
type State string

const (
	// StateCompleted means every candidate image was processed
	StateCompleted State = "completed"
	// StateCompletedWithErrors means the image cap was hit
	StateCompletedWithErrors State = "completed_with_errors"
	// StateOptOut means the file type could not be processed
	StateOptOut State = "opt_out"
)

// Config holds scanner configuration.
// All values come from the application config file.
type Config struct {
	// FileType forces an azul file format, empty to sniff content (from config: file_type)
	FileType string
	// MaxImages caps images processed per file (from config: max_images)
	MaxImages int
	// Workers is the number of images decoded concurrently (from config: workers)
	Workers int
	// MaxValueLength is the truncation limit for feature values (from config: max_value_length)
	MaxValueLength int
	// MaxFileSize is the largest input read, in bytes (from config: max_file_size)
	MaxFileSize int64
}

// DefaultConfig mirrors the defaults of the config file.
func DefaultConfig() Config {
	return Config{
		MaxImages:      100,
		Workers:        4,
		MaxValueLength: 4000,
		MaxFileSize:    50 << 20,
	}
}

// Result is everything learned from one input file.
type Result struct {
	Path       string
	FileFormat string
	State      State
	Message    string
	// ImagesProcessed counts images that opened and were searched,
	// whether or not they held a code
	ImagesProcessed int
	Codes           []qr.Code
	Features        *features.Set
	Children        []features.Child
	// Texts holds full payloads whose feature value was truncated
	Texts []string
}

// Payloads returns the decoded text of every code, in discovery order.
func (r *Result) Payloads() []string {
	out := make([]string, 0, len(r.Codes))
	for _, c := range r.Codes {
		out = append(out, c.Text)
	}
	return out
}

// Scanner scans files for QR codes.
type Scanner struct {
	config    Config
	fs        afero.Fs
	logger    *zap.Logger
	extractor *extract.Extractor
	features  *features.Extractor
}

// New creates a scanner reading from fs.
func New(cfg Config, fs afero.Fs, logger *zap.Logger) (*Scanner, error) {
	if cfg.MaxImages <= 0 {
		return nil, ErrInvalidMaxImages
	}
	if cfg.Workers <= 0 {
		return nil, ErrInvalidWorkers
	}
	if cfg.MaxValueLength <= 3 {
		return nil, ErrInvalidMaxValueLength
	}
	if cfg.MaxFileSize <= 0 {
		return nil, ErrInvalidMaxFileSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		config:    cfg,
		fs:        fs,
		logger:    logger,
		extractor: extract.New(logger),
		features:  features.NewExtractor(cfg.MaxValueLength),
	}, nil
}

// Decode returns the payloads of every QR code in the file at path.
// It fails with ErrNotFound for a missing path, ErrNoCodes when nothing was
// decoded and ErrUnsupported when the format could not be processed.
func (s *Scanner) Decode(ctx context.Context, path string) ([]string, error) {
	res, err := s.ScanFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return res.Payloads(), nil
}

// ScanFile reads path and scans it. For ErrNoCodes and ErrUnsupported the
// result is returned alongside the error.
func (s *Scanner) ScanFile(ctx context.Context, path string) (*Result, error) {
	info, err := s.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, path)
	}
	if info.Size() > s.config.MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, path, info.Size(), s.config.MaxFileSize)
	}

	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return s.ScanBytes(ctx, path, data)
}

// ScanBytes scans data as if read from a file called name.
func (s *Scanner) ScanBytes(ctx context.Context, name string, data []byte) (*Result, error) {
	format := s.config.FileType
	if format == "" {
		format = filetype.Detect(data)
	}
	log := s.logger.With(zap.String("path", name), zap.String("format", format))
	log.Debug("scanning file", zap.Int("bytes", len(data)))

	res := &Result{
		Path:       name,
		FileFormat: format,
		State:      StateCompleted,
	}
	ex := features.NewExtraction()
	res.Features = ex.Features

	var (
		col  *extract.Collector
		kind string
		err  error
	)
	switch {
	case filetype.IsOffice(format):
		kind = "Office"
		col, err = s.collect(data, s.extractor.Office)
	case filetype.IsPDF(format):
		kind = "PDF"
		col, err = s.collect(data, s.extractor.PDF)
	case filetype.IsEmail(format):
		// MIME only; Outlook messages take the fallback chain
		kind = "Email"
		col, err = s.collect(data, s.extractor.Email)
	case filetype.IsImage(format):
		kind = "Image"
		col, err = s.collect(data, s.image)
	default:
		return s.fallback(ctx, log, res, ex, data)
	}
	// A corrupt container is a completed scan with nothing found
	if err != nil {
		log.Warn("error processing "+kind, zap.Error(err))
	}

	if err := s.process(ctx, log, res, ex, col.Sources()); err != nil {
		return nil, err
	}
	return s.finish(log, res, kind, col)
}

// fallback tries each extractor in turn for files of unknown type. The first
// step that manages to search at least one image ends the chain.
func (s *Scanner) fallback(ctx context.Context, log *zap.Logger, res *Result, ex *features.Extraction, data []byte) (*Result, error) {
	steps := []struct {
		kind string
		run  extractFunc
	}{
		{"Office", s.extractor.Office},
		{"Image", s.image},
		{"PDF", s.extractor.PDF},
	}

	for _, step := range steps {
		col, err := s.collect(data, step.run)
		if err != nil {
			log.Debug("extractor rejected file", zap.String("tried", step.kind), zap.Error(err))
		}
		if err := s.process(ctx, log, res, ex, col.Sources()); err != nil {
			return nil, err
		}
		if res.ImagesProcessed > 0 {
			return s.finish(log, res, step.kind, col)
		}
	}

	res.State = StateOptOut
	res.Message = "Unable to process file type"
	log.Info("opting out", zap.String("reason", res.Message))
	return res, ErrUnsupported
}

// extractFunc is the shape shared by the extract.Extractor methods.
type extractFunc func(data []byte, origin string, c *extract.Collector) error

// collect runs an extractor into a fresh collector. The collector is always
// returned, holding whatever was found before any error.
func (s *Scanner) collect(data []byte, run extractFunc) (*extract.Collector, error) {
	col := extract.NewCollector(s.config.MaxImages)
	err := run(data, "", col)
	s.logger.Debug("extracted images", zap.Int("count", col.Len()), zap.Bool("overflow", col.Overflow()))
	return col, err
}

func (s *Scanner) image(data []byte, origin string, c *extract.Collector) error {
	s.extractor.Image(data, origin, c)
	return nil
}

func (s *Scanner) finish(log *zap.Logger, res *Result, kind string, col *extract.Collector) (*Result, error) {
	if col.Overflow() {
		res.State = StateCompletedWithErrors
		res.Message = fmt.Sprintf("%s has more than %d images, only processed first %d",
			kind, s.config.MaxImages, s.config.MaxImages)
		log.Warn(res.Message)
	}
	log.Info("scan complete",
		zap.String("state", string(res.State)),
		zap.Int("images", res.ImagesProcessed),
		zap.Int("codes", len(res.Codes)))

	if len(res.Codes) == 0 {
		return res, ErrNoCodes
	}
	return res, nil
}
