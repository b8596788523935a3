package qr

import (
	"errors"
	"fmt"
	"image"
	"unicode/utf8"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ErrUnreadable indicates a symbol was located but could not be decoded
// (checksum or format errors).
var ErrUnreadable = errors.New("qr code located but unreadable")

// multiReader is the multi-symbol half of gozxing's QR reader.
type multiReader interface {
	DecodeMultiple(img *gozxing.BinaryBitmap, hints map[gozxing.DecodeHintType]interface{}) ([]*gozxing.Result, error)
}

// Reader decodes every QR code in an image. A Reader is not safe for
// concurrent use; create one per goroutine.
type Reader struct {
	multi  multiReader
	single gozxing.Reader
	hints  map[gozxing.DecodeHintType]interface{}
}

// NewReader creates a reader that tries hard to locate symbols.
func NewReader() *Reader {
	return &Reader{
		multi:  multiqr.NewQRCodeMultiReader(),
		single: qrcode.NewQRCodeReader(),
		hints: map[gozxing.DecodeHintType]interface{}{
			gozxing.DecodeHintType_TRY_HARDER: true,
		},
	}
}

// Decode returns all codes found in img. An image without codes yields an
// empty slice and a nil error.
func (r *Reader) Decode(img image.Image) ([]Code, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarize image: %w", err)
	}

	// Partial multi results win over the error that ended the search
	results, _ := r.multi.DecodeMultiple(bmp, r.hints)
	if len(results) == 0 {
		// The multi detector needs every finder pattern well separated; the
		// single reader copes better with tight crops.
		result, err := r.single.Decode(bmp, r.hints)
		if err != nil {
			return nil, classify(err)
		}
		results = []*gozxing.Result{result}
	}

	codes := make([]Code, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, res := range results {
		code := fromResult(res)
		key := code.Text + "\x00" + code.Rect.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		codes = append(codes, code)
	}
	return codes, nil
}

// DecodeBytes decodes encoded image data and returns its codes.
func (r *Reader) DecodeBytes(data []byte) ([]Code, error) {
	img, _, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	return r.Decode(img)
}

// classify maps reader exceptions: "not found" is an empty result, anything
// else means a symbol was seen but could not be read.
func classify(err error) error {
	var notFound gozxing.NotFoundException
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnreadable, err)
}

func fromResult(res *gozxing.Result) Code {
	code := Code{
		Text:   res.GetText(),
		Format: res.GetBarcodeFormat().String(),
	}

	for _, p := range res.GetResultPoints() {
		if p == nil {
			continue
		}
		code.Polygon = append(code.Polygon, Point{X: p.GetX(), Y: p.GetY()})
	}
	code.Rect = code.Polygon.Bounds()

	meta := res.GetResultMetadata()
	if v, ok := meta[gozxing.ResultMetadataType_ERROR_CORRECTION_LEVEL]; ok {
		code.ECLevel = fmt.Sprint(v)
	}
	if v, ok := meta[gozxing.ResultMetadataType_ORIENTATION].(int); ok {
		code.Orientation = orientationName(v)
	}

	code.Raw = []byte(code.Text)
	if segments, ok := meta[gozxing.ResultMetadataType_BYTE_SEGMENTS].([][]byte); ok && len(segments) > 0 {
		var raw []byte
		for _, seg := range segments {
			raw = append(raw, seg...)
		}
		// Charset guessing always yields valid text; keep the original bytes
		// when they were never text to begin with.
		if !utf8.Valid(raw) {
			code.Raw = raw
		}
	}
	return code
}
