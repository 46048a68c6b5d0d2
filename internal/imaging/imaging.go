// Package imaging prepares reference images for submission: base64 decoding,
// normalization to the video frame size, and fetching remote references.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/draw"

	"aistudio/internal/apperr"
)

// Target frame size for video reference images, matching the default
// portrait video output.
const (
	TargetWidth  = 720
	TargetHeight = 1280
)

// DecodeBase64 decodes a base64 image payload, tolerating data-URL prefixes
// and missing padding.
func DecodeBase64(data string) ([]byte, error) {
	if idx := strings.Index(data, "base64,"); idx != -1 {
		data = data[idx+len("base64,"):]
	}
	data = strings.TrimSpace(data)
	if m := len(data) % 4; m != 0 {
		data += strings.Repeat("=", 4-m)
	}

	raw, err := base64Decode(data)
	if err != nil {
		return nil, apperr.Validation("invalid base64 image data: %v", err)
	}
	return raw, nil
}

// Normalize decodes an image and rescales it to the target frame size,
// returning PNG bytes. Images already at the target size are re-encoded
// unchanged in dimensions.
func Normalize(raw []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperr.Validation("failed to decode reference image: %v", err)
	}

	bounds := src.Bounds()
	if bounds.Dx() != TargetWidth || bounds.Dy() != TargetHeight {
		dst := image.NewRGBA(image.Rect(0, 0, TargetWidth, TargetHeight))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var out bytes.Buffer
	if err := png.Encode(&out, src); err != nil {
		return nil, fmt.Errorf("encoding reference image: %w", err)
	}
	return out.Bytes(), nil
}
