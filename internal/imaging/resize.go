package imaging

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/file-tools/internal/errs"
)

// Resize scales img to the requested size with Lanczos resampling.
//
// A zero width or height means "not specified"; at least one must be set
// and neither may be negative. With keepAspect:
//   - both set: the result fits inside width x height
//   - one set: the other is derived from the aspect ratio
//
// Without keepAspect an unset dimension keeps the source value.
func Resize(img image.Image, width, height int, keepAspect bool) (*image.NRGBA, error) {
	if width == 0 && height == 0 {
		return nil, errs.Invalid("Width or height must be specified")
	}
	if width < 0 || height < 0 {
		return nil, errs.Invalid("Width and height must be positive")
	}

	w, h := targetSize(img.Bounds(), width, height, keepAspect)
	if err := checkPixels(w, h); err != nil {
		return nil, err
	}
	return imaging.Resize(img, w, h, imaging.Lanczos), nil
}

// targetSize resolves the requested dimensions against the source bounds.
// Derived dimensions are rounded the way imaging.Resize rounds them.
func targetSize(b image.Rectangle, width, height int, keepAspect bool) (int, int) {
	srcW, srcH := b.Dx(), b.Dy()
	if !keepAspect {
		if width == 0 {
			width = srcW
		}
		if height == 0 {
			height = srcH
		}
		return width, height
	}

	if width > 0 && height > 0 {
		// Fit inside the box, enlarging when the source is smaller.
		if float64(srcW)/float64(srcH) > float64(width)/float64(height) {
			height = 0
		} else {
			width = 0
		}
	}
	if width == 0 {
		width = scaled(height, srcW, srcH)
	}
	if height == 0 {
		height = scaled(width, srcH, srcW)
	}
	return width, height
}

func scaled(n, num, den int) int {
	return int(math.Max(1, math.Floor(float64(n)*float64(num)/float64(den)+0.5)))
}
