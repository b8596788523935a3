// Package testutil builds QR-bearing fixtures (images, office zips, PDFs,
// emails) for tests across the module.
package testutil

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"sort"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// QRSize is the edge length in pixels of generated symbols, quiet zone included.
const QRSize = 240

// QRImage renders text as a QR code.
func QRImage(t *testing.T, text string) image.Image {
	t.Helper()
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, QRSize, QRSize, nil)
	require.NoError(t, err, "encode qr fixture")
	return toGray(matrix)
}

// QRLatin1PNG renders text as a byte-mode QR code whose payload is the
// ISO-8859-1 encoding of text, so the raw bytes are not valid UTF-8.
func QRLatin1PNG(t *testing.T, text string) []byte {
	t.Helper()
	hints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_CHARACTER_SET: "ISO-8859-1",
	}
	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, QRSize, QRSize, hints)
	require.NoError(t, err, "encode latin-1 qr fixture")
	return encodePNG(t, toGray(matrix))
}

// QRPNG renders text as a QR code PNG.
func QRPNG(t *testing.T, text string) []byte {
	t.Helper()
	return encodePNG(t, QRImage(t, text))
}

// QRJPEG renders text as a grayscale QR code JPEG.
func QRJPEG(t *testing.T, text string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, QRImage(t, text), &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

// SideBySidePNG renders each text as its own symbol on one white canvas,
// separated by a full symbol width of white space.
func SideBySidePNG(t *testing.T, texts ...string) []byte {
	t.Helper()
	canvas := image.NewGray(image.Rect(0, 0, QRSize*(2*len(texts)+1), QRSize*3))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for i, text := range texts {
		at := image.Pt(QRSize*(2*i+1), QRSize)
		draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(image.Pt(QRSize, QRSize))}, QRImage(t, text), image.Point{}, draw.Src)
	}
	return encodePNG(t, canvas)
}

// BlankPNG is a white image without any code.
func BlankPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, QRSize, QRSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return encodePNG(t, img)
}

// Zip packs entries, in name order, into a zip archive.
func Zip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range names {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(entries[name])
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// PDFWithJPEG builds a single page PDF showing jpegData as a DCT-encoded
// grayscale image XObject.
func PDFWithJPEG(t *testing.T, jpegData []byte) []byte {
	t.Helper()
	return PDFWithImages(t, [][]byte{jpegData}, []int{0})
}

// PDFWithImages builds a PDF whose pages each show the listed JPEG images,
// given as indexes into images. Image i is object number i+3, so object order
// follows the images slice.
func PDFWithImages(t *testing.T, images [][]byte, pages ...[]int) []byte {
	t.Helper()
	objects := []string{"<< /Type /Catalog /Pages 2 0 R >>", ""}

	for _, jpegData := range images {
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(jpegData))
		require.NoError(t, err)
		objects = append(objects, fmt.Sprintf("<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /DCTDecode /Length %d >>\nstream\n%s\nendstream",
			cfg.Width, cfg.Height, len(jpegData), jpegData))
	}

	kids := make([]string, 0, len(pages))
	for _, shown := range pages {
		pageNr := len(objects) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNr))

		var xobjects, content strings.Builder
		for _, idx := range shown {
			fmt.Fprintf(&xobjects, " /Im%d %d 0 R", idx, idx+3)
			fmt.Fprintf(&content, "q %d 0 0 %d 0 0 cm /Im%d Do Q ", QRSize, QRSize, idx)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d %d] /Resources << /XObject <<%s >> >> /Contents %d 0 R >>",
				QRSize, QRSize, xobjects.String(), pageNr+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Attachment is one MIME part of an Email fixture.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Email builds a multipart/mixed message with a text body and attachments.
func Email(t *testing.T, body string, attachments ...Attachment) []byte {
	t.Helper()
	const boundary = "qrfixture-boundary"

	var b strings.Builder
	b.WriteString("From: Sender <sender@example.com>\r\n")
	b.WriteString("To: Receiver <receiver@example.com>\r\n")
	b.WriteString("Subject: fixture\r\n")
	b.WriteString("Date: Mon, 02 Jan 2006 15:04:05 -0700\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, body)
	for _, a := range attachments {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, "Content-Type: %s; name=%q\r\n", a.ContentType, a.Name)
		fmt.Fprintf(&b, "Content-Disposition: attachment; filename=%q\r\n", a.Name)
		b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		encoded := base64.StdEncoding.EncodeToString(a.Data)
		for len(encoded) > 76 {
			b.WriteString(encoded[:76] + "\r\n")
			encoded = encoded[76:]
		}
		b.WriteString(encoded + "\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return []byte(b.String())
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// toGray copies any image onto an 8-bit grayscale canvas.
func toGray(src image.Image) *image.Gray {
	dst := image.NewGray(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
