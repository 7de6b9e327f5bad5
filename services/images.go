package services

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

const maxThumbnailWidth = 1600

// decodeImage accepts raw base64 or a data URL and returns the canonical
// base64 text plus the sniffed MIME type. declaredType, when set, must be image/*.
func decodeImage(encoded, declaredType string) (string, string, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		comma := strings.IndexByte(encoded, ',')
		if comma < 0 || !strings.HasSuffix(encoded[:comma], ";base64") {
			return "", "", validationError("image data URL must be base64 encoded")
		}
		if declaredType == "" {
			declaredType = strings.TrimSuffix(strings.TrimPrefix(encoded[:comma], "data:"), ";base64")
		}
		encoded = encoded[comma+1:]
	}
	if declaredType != "" && !strings.HasPrefix(declaredType, "image/") {
		return "", "", validationError("imageType must be an image/* MIME type")
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", "", validationError("image must be valid base64")
	}
	detected := mimetype.Detect(raw)
	if !strings.HasPrefix(detected.String(), "image/") {
		return "", "", validationError("image content is not a recognised image format")
	}
	return base64.StdEncoding.EncodeToString(raw), detected.String(), nil
}

// thumbnail scales raw down to width, keeping aspect ratio. Images that are
// already narrow enough, or that imaging cannot decode, are returned as-is.
func thumbnail(raw []byte, mimeType string, width int) ([]byte, string, error) {
	if width <= 0 {
		return raw, mimeType, nil
	}
	if width > maxThumbnailWidth {
		width = maxThumbnailWidth
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return raw, mimeType, nil
	}
	if img.Bounds().Dx() <= width {
		return raw, mimeType, nil
	}

	format, outType := imaging.JPEG, "image/jpeg"
	switch mimeType {
	case "image/png":
		format, outType = imaging.PNG, "image/png"
	case "image/gif":
		format, outType = imaging.GIF, "image/gif"
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Resize(img, width, 0, imaging.Lanczos), format); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), outType, nil
}
