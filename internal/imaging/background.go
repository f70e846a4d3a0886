package imaging

import (
	"context"
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/clone"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/file-tools/internal/errs"
)

// BackgroundOptions tunes RemoveBackground.
type BackgroundOptions struct {
	// Tolerance is the maximum CIE-Lab distance (0-1) from the estimated
	// background color for a pixel to be treated as background.
	Tolerance float64

	// Feather is the Gaussian blur radius applied to the alpha mask to
	// soften the cut-out edge. 0 disables feathering.
	Feather float64
}

// DefaultBackgroundOptions matches the server's configuration defaults.
var DefaultBackgroundOptions = BackgroundOptions{Tolerance: 0.12, Feather: 1.0}

// Validate rejects out-of-range options as input errors.
func (o BackgroundOptions) Validate() error {
	if o.Tolerance <= 0 || o.Tolerance >= 1 {
		return errs.Invalid("Tolerance must be between 0 and 1")
	}
	if o.Feather < 0 {
		return errs.Invalid("Feather must not be negative")
	}
	return nil
}

// RemoveBackground makes the background of img transparent.
//
// The background color is the mean Lab color of the image border. Starting
// from every border pixel, a 4-connected flood fill marks pixels within
// Tolerance of that color as background, so enclosed regions of a similar
// color inside the subject are kept. The resulting mask is optionally
// feathered and combined with the source alpha (the lower value wins).
func RemoveBackground(ctx context.Context, img image.Image, opts BackgroundOptions) (*image.NRGBA, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := clone.AsRGBA(img)
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, errs.New(errs.CategoryInput, "imaging.background", errs.ErrInvalidDimensions)
	}

	bg := borderColor(src)
	seg := &segmenter{src: src, bg: bg, tol: opts.Tolerance, dist: make([]float64, w*h)}
	for i := range seg.dist {
		seg.dist[i] = -1
	}

	background := seg.fill()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mask := image.NewGray(image.Rect(0, 0, w, h))
	for i, isBG := range background {
		if !isBG {
			mask.Pix[i] = 0xff
		}
	}

	alphaAt := func(x, y int) uint8 { return mask.GrayAt(x, y).Y }
	if opts.Feather > 0 {
		soft := blur.Gaussian(mask, opts.Feather)
		alphaAt = func(x, y int) uint8 { return soft.RGBAAt(x, y).R }
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if a := alphaAt(x, y); a < c.A {
				c.A = a
			}
			out.SetNRGBA(x, y, c)
		}
	}
	return out, nil
}

// borderColor averages the Lab color of the opaque pixels on the border.
func borderColor(src *image.RGBA) colorful.Color {
	b := src.Bounds()
	var sumL, sumA, sumB float64
	n := 0

	add := func(x, y int) {
		c, ok := colorful.MakeColor(src.At(x, y))
		if !ok {
			return
		}
		l, a, bb := c.Lab()
		sumL += l
		sumA += a
		sumB += bb
		n++
	}

	for x := b.Min.X; x < b.Max.X; x++ {
		add(x, b.Min.Y)
		add(x, b.Max.Y-1)
	}
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		add(b.Min.X, y)
		add(b.Max.X-1, y)
	}

	if n == 0 {
		return colorful.Color{R: 1, G: 1, B: 1}
	}
	return colorful.Lab(sumL/float64(n), sumA/float64(n), sumB/float64(n))
}

type segmenter struct {
	src  *image.RGBA
	bg   colorful.Color
	tol  float64
	dist []float64 // lazily computed Lab distance per pixel, -1 = unknown
}

// isBackground reports whether pixel i (row-major, image-relative) is close
// enough to the background color. Fully transparent pixels always are.
func (s *segmenter) isBackground(i int) bool {
	if s.dist[i] < 0 {
		b := s.src.Bounds()
		w := b.Dx()
		x, y := b.Min.X+i%w, b.Min.Y+i/w
		c, ok := colorful.MakeColor(s.src.At(x, y))
		if !ok {
			s.dist[i] = 0
		} else {
			s.dist[i] = c.DistanceLab(s.bg)
		}
	}
	return s.dist[i] < s.tol
}

func (s *segmenter) fill() []bool {
	b := s.src.Bounds()
	w, h := b.Dx(), b.Dy()
	visited := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	push := func(x, y int) {
		i := y*w + x
		if visited[i] || !s.isBackground(i) {
			return
		}
		visited[i] = true
		queue = append(queue, i)
	}

	for x := 0; x < w; x++ {
		push(x, 0)
		push(x, h-1)
	}
	for y := 0; y < h; y++ {
		push(0, y)
		push(w-1, y)
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		x, y := i%w, i/w
		if x > 0 {
			push(x-1, y)
		}
		if x < w-1 {
			push(x+1, y)
		}
		if y > 0 {
			push(x, y-1)
		}
		if y < h-1 {
			push(x, y+1)
		}
	}
	return visited
}
