//go:build !govips || !cgo

package transform

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	_ "image/gif"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/dunamismax/pixelproxy/internal/apperrors"
)

type stdTransformer struct{}

func (stdTransformer) Process(input []byte, width *int, quality int, format string) ([]byte, string, error) {
	img, _, err := image.Decode(bytes.NewReader(input))
	if err != nil {
		return nil, "", apperrors.ImageProcessingFailed("failed to decode image: " + err.Error())
	}

	// Alpha is a property of the decoded color model, captured before any
	// resample converts the representation.
	alpha := hasAlphaChannel(img)

	if width != nil {
		bounds := img.Bounds()
		srcW, srcH := bounds.Dx(), bounds.Dy()
		if *width < srcW {
			img = imaging.Resize(img, *width, targetHeight(*width, srcW, srcH), imaging.Lanczos)
		}
	}

	outFormat := ""
	if format != "" {
		outFormat, err = resolveFormat(format)
		if err != nil {
			return nil, "", err
		}
	} else if alpha {
		outFormat = FormatPNG
	} else {
		outFormat = FormatJPEG
	}

	data, err := encode(img, outFormat, quality)
	if err != nil {
		return nil, "", err
	}
	return data, outFormat, nil
}

func encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case FormatJPEG:
		// JPEG has no transparency; flatten to RGB before encoding.
		rgb := imaging.Clone(img)
		if err := jpeg.Encode(&buf, flattenToRGB(rgb), &jpeg.Options{Quality: quality}); err != nil {
			return nil, apperrors.ImageProcessingFailed("failed to encode JPEG: " + err.Error())
		}
	case FormatPNG:
		// Lossless regardless of the quality parameter.
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, apperrors.ImageProcessingFailed("failed to encode PNG: " + err.Error())
		}
	case FormatWebP:
		opts := &webp.Options{Lossless: false, Quality: float32(quality)}
		if err := webp.Encode(&buf, img, opts); err != nil {
			return nil, apperrors.ImageProcessingFailed("failed to encode WebP: " + err.Error())
		}
	default:
		return nil, apperrors.InvalidImageFormat(format)
	}

	return buf.Bytes(), nil
}

func flattenToRGB(img *image.NRGBA) image.Image {
	bounds := img.Bounds()
	rgb := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			c.A = 0xFF
			rgb.Set(x, y, c)
		}
	}
	return rgb
}

// hasAlphaChannel reports whether the decoded representation carries an
// alpha channel. The stdlib decoders produce RGBA/RGBA64 only for sources
// without one (truecolor PNG), so those count as opaque here.
func hasAlphaChannel(img image.Image) bool {
	switch src := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.Alpha, *image.Alpha16, *image.NYCbCrA:
		return true
	case *image.Paletted:
		return !src.Opaque()
	default:
		return false
	}
}
