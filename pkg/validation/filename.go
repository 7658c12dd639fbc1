package validation

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultExtension is appended to uploads whose name carries no usable extension
// once their content has been confirmed to be an image
const DefaultExtension = ".jpg"

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

var allowedMIMETypes = []string{
	"image/jpeg",
	"image/png",
	"image/bmp",
	"image/tiff",
}

// FilenameValidator decides whether an upload's name identifies an image
type FilenameValidator struct {
	allowContentTypeFallback bool
}

// NewFilenameValidator creates a filename validator. With fallback enabled a
// blank or extension-less name is accepted when the declared content type or
// the sniffed bytes confirm a supported image.
func NewFilenameValidator(allowContentTypeFallback bool) *FilenameValidator {
	return &FilenameValidator{allowContentTypeFallback: allowContentTypeFallback}
}

// HasAllowedExtension reports whether name ends in a supported image extension
func HasAllowedExtension(name string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(strings.TrimSpace(name)))]
}

// Resolve returns the effective filename for an upload and whether it is acceptable
func (v *FilenameValidator) Resolve(filename, contentType string, data []byte) (string, bool) {
	name := strings.TrimSpace(filename)
	if name != "" && HasAllowedExtension(name) {
		return name, true
	}

	// An explicit, unsupported extension is never rescued
	if name != "" && filepath.Ext(name) != "" {
		return name, false
	}

	if !v.allowContentTypeFallback {
		return name, false
	}
	if !isImageContentType(contentType) && !isImageContent(data) {
		return name, false
	}

	if name == "" {
		name = "upload"
	}
	return name + DefaultExtension, true
}

func isImageContentType(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if mediaType == "image/jpg" {
		return true
	}
	for _, allowed := range allowedMIMETypes {
		if mediaType == allowed {
			return true
		}
	}
	return false
}

func isImageContent(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	detected := mimetype.Detect(data)
	for _, allowed := range allowedMIMETypes {
		if detected.Is(allowed) {
			return true
		}
	}
	return false
}
