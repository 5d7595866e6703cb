package upload

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"path"
	"strings"
)

// jpegQuality matches what the phone-photo pipeline produced before:
// visually lossless for snapshots, a fraction of the HEIC's decoded size.
const jpegQuality = 80

// isHEIC reports whether the file's declared type or extension indicates a
// HEIC/HEIF image. Either signal is enough; browsers frequently send
// application/octet-stream for HEIC files.
func isHEIC(filename, contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/heic", "image/heif":
		return true
	}
	switch strings.ToLower(path.Ext(filename)) {
	case ".heic", ".heif":
		return true
	}
	return false
}

// convertToJPEG re-encodes a HEIC/HEIF image as JPEG. A decode failure
// (corrupt or mislabeled input) is returned as-is so the gateway can report
// it as a conversion error, distinct from storage failures.
func (g *Gateway) convertToJPEG(data []byte) ([]byte, error) {
	img, err := g.decodeHEIC(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding HEIC image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encoding JPEG image: %w", err)
	}
	return buf.Bytes(), nil
}

// jpegName replaces the filename's extension with .jpeg.
func jpegName(filename string) string {
	ext := path.Ext(filename)
	return strings.TrimSuffix(filename, ext) + ".jpeg"
}
