// Package filetype maps sniffed content types onto the azul file-format
// vocabulary the scanner routes on.
package filetype

import (
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Azul file formats
const (
	OfficeExcel      = "document/office/excel"
	OfficeWord       = "document/office/word"
	OfficePowerPoint = "document/office/powerpoint"
	OfficeUnknown    = "document/office/unknown"
	OfficeEmail      = "document/office/email"
	PDF              = "document/pdf"
	Email            = "document/email"
	Unknown          = "unknown"

	imagePrefix = "image/"
)

var (
	officeFormats = []string{OfficeExcel, OfficeWord, OfficePowerPoint, OfficeUnknown}
	pdfFormats    = []string{PDF}
	emailFormats  = []string{Email, OfficeEmail}
)

// mimeToFormat is checked in order; mimetype.MIME.Is matches aliases too.
var mimeToFormat = []struct {
	mime   string
	format string
}{
	{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", OfficeWord},
	{"application/msword", OfficeWord},
	{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", OfficeExcel},
	{"application/vnd.ms-excel", OfficeExcel},
	{"application/vnd.openxmlformats-officedocument.presentationml.presentation", OfficePowerPoint},
	{"application/vnd.ms-powerpoint", OfficePowerPoint},
	{"application/vnd.ms-outlook", OfficeEmail},
	{"application/pdf", PDF},
	{"message/rfc822", Email},
	// Generic containers: office documents are zips, older ones OLE2
	{"application/zip", OfficeUnknown},
	{"application/x-ole-storage", OfficeUnknown},
}

// Detect sniffs data and returns its azul file format.
func Detect(data []byte) string {
	m := mimetype.Detect(data)
	for _, entry := range mimeToFormat {
		if m.Is(entry.mime) {
			return entry.format
		}
	}
	if strings.HasPrefix(m.String(), imagePrefix) {
		// Drop parameters such as "; charset=..."
		return strings.SplitN(m.String(), ";", 2)[0]
	}
	return Unknown
}

// IsOffice reports whether format is handled by the office extractor.
func IsOffice(format string) bool { return slices.Contains(officeFormats, format) }

// IsPDF reports whether format is a PDF document.
func IsPDF(format string) bool { return slices.Contains(pdfFormats, format) }

// IsEmail reports whether format is a MIME email message. Outlook messages
// are OLE2 compound files and do not qualify.
func IsEmail(format string) bool { return format == Email }

// IsImage reports whether format is any image type.
func IsImage(format string) bool { return strings.HasPrefix(format, imagePrefix) }

// Accepted lists the formats the plugin registers interest in.
func Accepted() []string {
	out := make([]string, 0, len(officeFormats)+len(pdfFormats)+len(emailFormats)+1)
	out = append(out, officeFormats...)
	out = append(out, pdfFormats...)
	out = append(out, emailFormats...)
	return append(out, imagePrefix)
}

