package artifact

import (
	"mime"
	"strings"

	"github.com/fyrsmithlabs/recall/internal/errs"
)

// DefaultMediaType is assumed when a producer does not declare one.
const DefaultMediaType = "image/png"

// MediaTypeForExt maps a file extension (with or without the dot) to a media type.
func MediaTypeForExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "image/" + ext
	}
}

// ExtForMediaType derives the file extension written for mediaType.
// Parameters and structured-syntax suffixes are dropped, so
// "image/svg+xml; charset=utf-8" becomes "svg". An empty mediaType means
// DefaultMediaType.
func ExtForMediaType(mediaType string) (string, error) {
	if strings.TrimSpace(mediaType) == "" {
		mediaType = DefaultMediaType
	}

	parsed, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return "", errs.InvalidInput("mediaType", "malformed media type %q", mediaType)
	}

	kind, sub, ok := strings.Cut(parsed, "/")
	if !ok || kind != "image" || sub == "" {
		return "", errs.InvalidInput("mediaType", "expected an image/* media type, got %q", mediaType)
	}

	sub, _, _ = strings.Cut(sub, "+")
	if sub == "" || sub == "txt" || strings.ContainsAny(sub, `/\.`) {
		return "", errs.InvalidInput("mediaType", "unsupported image subtype in %q", mediaType)
	}

	return sub, nil
}
