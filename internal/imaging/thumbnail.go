package imaging

import (
	"errors"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrUndecodable is returned for data OpenCV cannot read as an image.
var ErrUndecodable = errors.New("image could not be decoded")

const maxDimension = 8192

// Thumbnail decodes data (any format OpenCV reads, including WebP), scales
// it to fit inside size×size keeping the aspect ratio, and re-encodes it as
// PNG. Images already small enough are only re-encoded.
func Thumbnail(data []byte, size int) ([]byte, error) {
	if err := validateDimensions(size, size, "thumbnail"); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrUndecodable
	}

	src, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	defer src.Close()

	if err := validateMat(src, "thumbnail"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	width, height := fitInside(src.Cols(), src.Rows(), size)
	if width == src.Cols() && height == src.Rows() {
		return encodePNG(src)
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Point{X: width, Y: height}, 0, 0, gocv.InterpolationArea)
	if dst.Empty() {
		return nil, fmt.Errorf("resize to %dx%d failed", width, height)
	}
	return encodePNG(dst)
}

// fitInside scales width×height down so the longer side equals size.
func fitInside(width, height, size int) (int, int) {
	if width <= size && height <= size {
		return width, height
	}
	if width >= height {
		h := height * size / width
		if h < 1 {
			h = 1
		}
		return size, h
	}
	w := width * size / height
	if w < 1 {
		w = 1
	}
	return w, size
}

func encodePNG(mat gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.PNGFileExt, mat)
	if err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
