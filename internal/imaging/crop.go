package imaging

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/file-tools/internal/errs"
)

// Box is a crop rectangle. Left/Top are inclusive, Right/Bottom exclusive,
// measured in pixels from the image's top-left corner.
type Box struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Crop extracts box from img. The box must be non-empty and lie within the
// image bounds; violations are input errors.
func Crop(img image.Image, box Box) (*image.NRGBA, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if box.Left >= box.Right || box.Top >= box.Bottom {
		return nil, errs.Invalid("Invalid crop box: left must be < right and top must be < bottom")
	}
	if box.Left < 0 || box.Top < 0 || box.Right > w || box.Bottom > h {
		return nil, errs.Invalid("Crop box (%d,%d)-(%d,%d) outside image bounds %dx%d",
			box.Left, box.Top, box.Right, box.Bottom, w, h)
	}

	// imaging.Crop works in the source's coordinate space.
	rect := image.Rect(box.Left, box.Top, box.Right, box.Bottom).Add(bounds.Min)
	return imaging.Crop(img, rect), nil
}
