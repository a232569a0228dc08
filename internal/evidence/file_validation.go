package evidence

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	pkgerrors "github.com/freightline/freightline-backend/pkg/errors"
)

// allowedMediaTypes is the closed set of file types an evidence item may
// carry. Anything else is rejected before upload.
var allowedMediaTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
}

// validateFile sniffs the real media type from content and checks it plus
// the size limit. The declared type from the client is ignored for the
// decision; content wins.
func validateFile(fileName string, data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile, "file is empty")
	}
	if int64(len(data)) > maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile,
			fmt.Sprintf("file exceeds the %d byte limit", maxBytes)).
			WithDetails(map[string]any{"size_bytes": len(data), "max_bytes": maxBytes})
	}

	detected := mimetype.Detect(data)
	mediaType := strings.ToLower(strings.TrimSpace(detected.String()))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}

	if _, ok := allowedMediaTypes[mediaType]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile,
			fmt.Sprintf("media type %s is not accepted; use an image or a PDF", mediaType)).
			WithDetails(map[string]any{"file_name": fileName, "media_type": mediaType})
	}
	return mediaType, nil
}

// validateDeclared checks a submission that references an already-uploaded
// object. Without content to sniff the declared type and size are all
// there is to go on.
func validateDeclared(fileName, declaredType string, sizeBytes, maxBytes int64) (string, error) {
	if sizeBytes <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile, "file size required")
	}
	if sizeBytes > maxBytes {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile,
			fmt.Sprintf("file exceeds the %d byte limit", maxBytes)).
			WithDetails(map[string]any{"size_bytes": sizeBytes, "max_bytes": maxBytes})
	}

	mediaType := strings.ToLower(strings.TrimSpace(declaredType))
	if idx := strings.Index(mediaType, ";"); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}
	if _, ok := allowedMediaTypes[mediaType]; !ok {
		return "", pkgerrors.New(pkgerrors.CodeInvalidFile,
			fmt.Sprintf("media type %s is not accepted; use an image or a PDF", mediaType)).
			WithDetails(map[string]any{"file_name": fileName, "media_type": mediaType})
	}
	return mediaType, nil
}
