package portfolio

import (
	"fmt"
	"image/color"
	"math"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
)

const (
	baseSaturation = 70
	saturationStep = 10
	baseLightness  = 20
	lightnessStep  = 5
	maxPercent     = 100
)

type Slice struct {
	Ticker string  `json:"ticker"`
	Value  float64 `json:"value"`
}

// HSL is a colour with hue in degrees and saturation/lightness in percent.
type HSL struct {
	Hue        float64 `json:"hue"`
	Saturation float64 `json:"saturation"`
	Lightness  float64 `json:"lightness"`
}

func (c HSL) String() string {
	return fmt.Sprintf("hsl(%g, %g%%, %g%%)", c.Hue, c.Saturation, c.Lightness)
}

// RGBA converts the colour to an opaque color.RGBA.
func (c HSL) RGBA() color.RGBA {
	h := math.Mod(c.Hue, 360) / 360
	if h < 0 {
		h++
	}
	s := c.Saturation / 100
	l := c.Lightness / 100

	if s == 0 {
		v := uint8(math.Round(l * 255))
		return color.RGBA{R: v, G: v, B: v, A: 255}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	return color.RGBA{
		R: uint8(math.Round(hueToRGB(p, q, h+1.0/3) * 255)),
		G: uint8(math.Round(hueToRGB(p, q, h) * 255)),
		B: uint8(math.Round(hueToRGB(p, q, h-1.0/3) * 255)),
		A: 255,
	}
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6:
		return p + (q-p)*6*t
	case t < 1.0/2:
		return q
	case t < 2.0/3:
		return p + (q-p)*(2.0/3-t)*6
	default:
		return p
	}
}

// Distribution is the breakdown of the portfolio value by holding, in input order.
type Distribution struct {
	Slices []Slice `json:"slices"`
	Colors []HSL   `json:"colors"`
}

func ComputeDistribution(holdings []model.Holding) Distribution {
	slices := make([]Slice, 0, len(holdings))
	for _, h := range holdings {
		slices = append(slices, Slice{Ticker: h.Ticker, Value: h.MarketValue()})
	}
	return Distribution{
		Slices: slices,
		Colors: GenerateColors(len(holdings)),
	}
}

// GenerateColors returns n colours with hues spread evenly over the circle and
// saturation/lightness ramped by index. Empty for n <= 0.
func GenerateColors(n int) []HSL {
	if n <= 0 {
		return []HSL{}
	}

	hueStep := 360.0 / float64(n)
	colors := make([]HSL, n)
	for i := range colors {
		colors[i] = HSL{
			Hue:        math.Mod(float64(i)*hueStep, 360),
			Saturation: math.Min(float64(baseSaturation+i*saturationStep), maxPercent),
			Lightness:  math.Min(float64(baseLightness+i*lightnessStep), maxPercent),
		}
	}
	return colors
}

// ColorAt returns the colour for the i-th slice, cycling when i exceeds the palette.
func (d Distribution) ColorAt(i int) (HSL, bool) {
	if len(d.Colors) == 0 || i < 0 {
		return HSL{}, false
	}
	return d.Colors[i%len(d.Colors)], true
}

func (d Distribution) Total() float64 {
	var total float64
	for _, s := range d.Slices {
		total += s.Value
	}
	return total
}

// Share returns the percentage of the total value held by the i-th slice.
func (d Distribution) Share(i int) Ratio {
	if i < 0 || i >= len(d.Slices) {
		return UndefinedRatio()
	}
	return Percent(d.Slices[i].Value, d.Total())
}
