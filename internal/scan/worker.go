package scan

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/extract"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/features"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/qr"
	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/recovery"
)

// outcome is the decode result for one source.
type outcome struct {
	codes  []qr.Code
	opened bool
}

// process decodes sources on a bounded pool and folds the codes into res in
// source order.
func (s *Scanner) process(ctx context.Context, log *zap.Logger, res *Result, ex *features.Extraction, sources []extract.Source) error {
	if len(sources) == 0 {
		return nil
	}
	outcomes := make([]outcome, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range sources {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = s.decodeSource(log, sources[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, o := range outcomes {
		if o.opened {
			res.ImagesProcessed++
		}
		for _, code := range o.codes {
			code.Source = sources[i].Name
			log.Debug("decoded qr code", zap.String("source", code.Source), zap.Int("bytes", len(code.Raw)))
			res.Codes = append(res.Codes, code)
			s.features.Add(ex, code)
		}
	}
	res.Children = ex.Children
	res.Texts = ex.Texts
	return nil
}

// decodeSource decodes one image. Failures are logged and never abort the scan.
func (s *Scanner) decodeSource(log *zap.Logger, src extract.Source) outcome {
	var out outcome
	err := recovery.Guard(func() error {
		codes, err := qr.NewReader().DecodeBytes(src.Data)
		out.codes = codes
		return err
	})
	// A panic or unreadable symbol still means the image was searched
	out.opened = !errors.Is(err, qr.ErrUnsupportedImage)

	switch {
	case err == nil:
	case errors.Is(err, qr.ErrUnsupportedImage):
		log.Warn("can't open image", zap.String("source", src.Name), zap.Error(err))
	case errors.Is(err, qr.ErrUnreadable):
		log.Debug("qr code unreadable", zap.String("source", src.Name), zap.Error(err))
	default:
		log.Error("image decode failed", zap.String("source", src.Name), zap.Error(err))
	}
	return out
}
