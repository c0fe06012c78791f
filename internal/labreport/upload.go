package labreport

import (
	"net/http"
	"strings"

	"lab-report-ai/internal/platform/apperr"
)

// MaxUploadSize is the largest accepted report file.
const MaxUploadSize = 20 << 20

const pdfContentType = "application/pdf"

// ValidateUpload checks size and file signature. It runs before any network
// call so rejected files never reach the extractor.
func ValidateUpload(fileName string, data []byte) error {
	if len(data) == 0 {
		return apperr.Validation("empty file", map[string]string{"file": fileName})
	}
	if len(data) > MaxUploadSize {
		return apperr.TooLarge(MaxUploadSize)
	}
	ct := http.DetectContentType(data)
	if !strings.HasPrefix(ct, pdfContentType) {
		return apperr.UnsupportedMedia(ct)
	}
	return nil
}
