//go:build govips && cgo

package transform

import (
	"github.com/davidbyttow/govips/v2/vips"

	"github.com/dunamismax/pixelproxy/internal/apperrors"
)

type govipsTransformer struct{}

func (govipsTransformer) Process(input []byte, width *int, quality int, format string) ([]byte, string, error) {
	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return nil, "", apperrors.ImageProcessingFailed("failed to decode image: " + err.Error())
	}
	defer img.Close()

	alpha := img.HasAlpha()

	if width != nil && *width < img.Width() {
		scale := float64(*width) / float64(img.Width())
		if err := img.Resize(scale, vips.KernelLanczos3); err != nil {
			return nil, "", apperrors.ImageProcessingFailed("failed to resize image: " + err.Error())
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

	data, err := export(img, outFormat, quality)
	if err != nil {
		return nil, "", err
	}
	return data, outFormat, nil
}

func export(img *vips.ImageRef, format string, quality int) ([]byte, error) {
	switch format {
	case FormatJPEG:
		if err := img.Flatten(&vips.Color{R: 255, G: 255, B: 255}); err != nil {
			return nil, apperrors.ImageProcessingFailed("failed to flatten image: " + err.Error())
		}
		params := vips.NewJpegExportParams()
		params.Quality = quality
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, apperrors.ImageProcessingFailed("failed to encode JPEG: " + err.Error())
		}
		return data, nil
	case FormatPNG:
		data, _, err := img.ExportPng(vips.NewPngExportParams())
		if err != nil {
			return nil, apperrors.ImageProcessingFailed("failed to encode PNG: " + err.Error())
		}
		return data, nil
	case FormatWebP:
		params := vips.NewWebpExportParams()
		params.Quality = quality
		data, _, err := img.ExportWebp(params)
		if err != nil {
			return nil, apperrors.ImageProcessingFailed("failed to encode WebP: " + err.Error())
		}
		return data, nil
	default:
		return nil, apperrors.InvalidImageFormat(format)
	}
}
