package chartGenerator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/internal/portfolio"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToRender is returned when no slice of the distribution has a positive value.
var ErrNothingToRender = errors.New("nothing to render")

const (
	chartWidth  = 512
	chartHeight = 512
)

type ChartGenerator struct{}

func New() *ChartGenerator {
	return &ChartGenerator{}
}

// RenderDistribution renders the distribution as a PNG pie chart using the distribution colours.
// Zero value slices are omitted.
func (g *ChartGenerator) RenderDistribution(ctx context.Context, distribution portfolio.Distribution) ([]byte, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "ChartGenerator.RenderDistribution"

	slog.Debug("RenderDistribution start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("slices", len(distribution.Slices)))

	values := make([]chart.Value, 0, len(distribution.Slices))
	for i, slice := range distribution.Slices {
		if slice.Value <= 0 {
			continue
		}

		value := chart.Value{Label: slice.Ticker, Value: slice.Value}
		if c, ok := distribution.ColorAt(i); ok {
			rgba := c.RGBA()
			value.Style = chart.Style{
				FillColor:   drawing.Color{R: rgba.R, G: rgba.G, B: rgba.B, A: rgba.A},
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
				FontColor:   drawing.ColorWhite,
			}
		}
		values = append(values, value)
	}

	if len(values) == 0 {
		return nil, ErrNothingToRender
	}

	pie := chart.PieChart{
		Title:  "Portfolio Distribution",
		Width:  chartWidth,
		Height: chartHeight,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		slog.Error("chart render failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	slog.Debug("RenderDistribution completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), nil
}
