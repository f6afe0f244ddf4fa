// Package transform decodes source bytes, applies the resize policy, and
// re-encodes into the selected output format. Two implementations exist: a
// pure-Go path built on the stdlib codecs plus disintegration/imaging, and a
// libvips path enabled with the govips build tag.
package transform

import "github.com/dunamismax/pixelproxy/internal/apperrors"

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// Transformer processes one image. A nil width means no resize was
// requested; an empty format selects the output automatically (PNG when the
// decoded image carries an alpha channel, JPEG otherwise — WebP is reachable
// only by explicit request). The returned format is the one actually used.
type Transformer interface {
	Process(input []byte, width *int, quality int, format string) (data []byte, outFormat string, err error)
}

// New returns the transformer for the active build path.
func New() (Transformer, error) {
	return newTransformer()
}

// resolveFormat maps an explicit request format onto an output format.
// Matching is case-sensitive; anything outside the supported set is IMG_004.
func resolveFormat(format string) (string, error) {
	switch format {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", apperrors.InvalidImageFormat(format)
	}
}

// targetHeight applies the aspect-ratio rule: floating-point scaling, then
// truncation toward zero. This must stay bit-for-bit stable because it is
// the only aspect-ratio rule in the system.
func targetHeight(targetWidth, srcWidth, srcHeight int) int {
	return int(float32(targetWidth) * float32(srcHeight) / float32(srcWidth))
}
