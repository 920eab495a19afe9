package workflow

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "github.com/moaz267/furniture/internal/errors"
)

const screenshotField = "screenshot"

var safeExtension = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// Attachment is an uploaded payment screenshot held in memory until the
// order is confirmed.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Extension returns the original file extension, lowercased, falling back to
// the one implied by the detected content.
func (a Attachment) Extension() string {
	ext := strings.ToLower(filepath.Ext(a.Filename))
	if safeExtension.MatchString(ext) {
		return ext
	}
	return mimetype.Detect(a.Data).Extension()
}

// ValidateScreenshot rejects a missing file, a file above maxBytes, and any
// file that is not an image either by its declared type or by its content.
// The size check runs first so oversized uploads are never sniffed.
func ValidateScreenshot(a Attachment, maxBytes int64) error {
	if len(a.Data) == 0 {
		return screenshotError("payment screenshot is required")
	}
	if a.Size > maxBytes || int64(len(a.Data)) > maxBytes {
		return screenshotError(fmt.Sprintf("payment screenshot must be %d MB or smaller", maxBytes/(1024*1024)))
	}
	if !strings.HasPrefix(strings.ToLower(a.ContentType), "image/") {
		return screenshotError("payment screenshot must be an image")
	}
	if detected := mimetype.Detect(a.Data); !strings.HasPrefix(detected.String(), "image/") {
		return screenshotError("payment screenshot must be an image")
	}
	return nil
}

func screenshotError(message string) error {
	return apperrors.NewValidationError(message, apperrors.ValidationDetail{
		Field:   screenshotField,
		Message: message,
	})
}
