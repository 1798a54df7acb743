package uploads

import "errors"

// DefaultMaxFileBytes caps uploads at 5MB unless configured otherwise.
const DefaultMaxFileBytes = 5 * 1024 * 1024

var (
	// ErrNoFile indicates an empty upload payload.
	ErrNoFile = errors.New("uploads: no file provided")
	// ErrFileTooLarge indicates the payload exceeded the size cap.
	ErrFileTooLarge = errors.New("uploads: file exceeds the size limit")
	// ErrUnsupportedType indicates a declared content type outside the allowed set.
	ErrUnsupportedType = errors.New("uploads: only jpeg, png, gif, and webp images are allowed")
	// ErrNotAnImage indicates the payload bytes do not carry a known image signature.
	ErrNotAnImage = errors.New("uploads: file does not appear to be a valid image")
	// ErrUnknownBucket indicates a bucket name outside the fixed set.
	ErrUnknownBucket = errors.New("uploads: unknown bucket")
)

// extensionsByContentType doubles as the allow-list of declared types.
var extensionsByContentType = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ValidateImage checks the payload size, declared content type, and magic
// bytes. The declared type alone is not trusted; the signature check guards
// against renamed non-image files.
func ValidateImage(contentType string, data []byte, maxBytes int64) error {
	if len(data) == 0 {
		return ErrNoFile
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}
	if int64(len(data)) > maxBytes {
		return ErrFileTooLarge
	}
	if _, ok := extensionsByContentType[contentType]; !ok {
		return ErrUnsupportedType
	}
	if !hasImageSignature(data) {
		return ErrNotAnImage
	}
	return nil
}

func hasImageSignature(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	// JPEG: FF D8 FF
	if data[0] == 0xff && data[1] == 0xd8 && data[2] == 0xff {
		return true
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4e && data[3] == 0x47 {
		return true
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return true
	}
	// WebP: RIFF....WEBP
	if len(data) >= 12 &&
		data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return true
	}
	return false
}
