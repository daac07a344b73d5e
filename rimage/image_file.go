// Package rimage holds the raster primitives used to find a projectile in a frame: decoding,
// grayscale conversion, convolution, gradient fields and a circular Hough transform.
package rimage

import (
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"golang.org/x/image/tiff"
)

// SupportedExtensions are the lower-cased file suffixes recognized as frames.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".tif", ".tiff"}

// IsSupportedImage reports whether the path carries one of SupportedExtensions.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SupportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ReadImageFromFile decodes the image at path. TIFF frames are decoded directly, every other
// supported format goes through imaging with EXIF orientation applied.
func ReadImageFromFile(path string) (image.Image, error) {
	if !IsSupportedImage(path) {
		return nil, errors.Errorf("unsupported image format %q", filepath.Ext(path))
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tif" || ext == ".tiff" {
		//nolint:gosec
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer goutils.UncheckedErrorFunc(f.Close)
		img, err := tiff.Decode(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding %s", path)
		}
		return img, nil
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", path)
	}
	return img, nil
}

// WriteImageToFile encodes img in the format implied by the path's extension.
func WriteImageToFile(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tif" || ext == ".tiff" {
		//nolint:gosec
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			goutils.UncheckedError(f.Close())
			return err
		}
		return f.Close()
	}
	return imaging.Save(img, path)
}
