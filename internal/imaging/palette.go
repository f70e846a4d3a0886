package imaging

import (
	"context"
	"image"
	"image/color"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
)

// maxPaletteSamples caps the pixels examined by Palette; larger images are
// sampled on a regular grid.
const maxPaletteSamples = 250_000

// Swatch is one entry of an image palette.
type Swatch struct {
	Hex        string  `json:"hex"`        // "#rrggbb" (quantized)
	Percentage float64 `json:"percentage"` // share of opaque sampled pixels, 0-100

	// HSL of the swatch: hue in degrees, saturation and lightness 0-1.
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// Palette returns up to count of the most common colors in img, most common
// first.
//
// # Color Quantization
//
// Each RGB component is truncated to its top four bits before counting, so
// colors within 16 units per component fall in the same bucket:
//
//	quantized = (original / 16) * 16
//
// Pixels with alpha below 50% are ignored; a fully transparent image
// yields an empty palette.
func Palette(ctx context.Context, img image.Image, count int) ([]Swatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, nil
	}

	b := img.Bounds()
	step := 1
	for (b.Dx()/step)*(b.Dy()/step) > maxPaletteSamples {
		step++
	}

	counts := make(map[uint16]int)
	total := 0
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if c.A < 0x80 {
				continue
			}
			key := uint16(c.R>>4)<<8 | uint16(c.G>>4)<<4 | uint16(c.B>>4)
			counts[key]++
			total++
		}
	}
	if total == 0 {
		return []Swatch{}, nil
	}

	swatches := make([]Swatch, 0, len(counts))
	for key, n := range counts {
		c := colorful.Color{
			R: float64((key>>8)&0xf<<4) / 255,
			G: float64((key>>4)&0xf<<4) / 255,
			B: float64(key&0xf<<4) / 255,
		}
		h, s, l := c.Hsl()
		swatches = append(swatches, Swatch{
			Hex:        c.Hex(),
			Percentage: float64(n) / float64(total) * 100,
			H:          h,
			S:          s,
			L:          l,
		})
	}

	sort.Slice(swatches, func(i, j int) bool {
		if swatches[i].Percentage != swatches[j].Percentage {
			return swatches[i].Percentage > swatches[j].Percentage
		}
		return swatches[i].Hex < swatches[j].Hex
	})
	if len(swatches) > count {
		swatches = swatches[:count]
	}
	return swatches, nil
}
