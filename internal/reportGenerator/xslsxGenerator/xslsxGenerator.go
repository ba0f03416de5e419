package xslsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/portfolio"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/xuri/excelize/v2"
)

const (
	holdingsSheet = "Holdings"
	summarySheet  = "Summary"
	defaultSheet  = "Sheet1"

	moneyFormat   = "#,##0.00"
	percentFormat = `0.00"%"`
	notAvailable  = "N/A"
)

type XSLSXGenerator struct{}

func New() *XSLSXGenerator {
	return &XSLSXGenerator{}
}

type styles struct {
	header  int
	money   int
	percent int
}

// Generate builds a workbook with the holdings table and the portfolio summary.
func (g *XSLSXGenerator) Generate(ctx context.Context, holdings []model.Holding, view portfolio.View) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XSLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("holdings", len(holdings)))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	st, err := g.newStyles(f)
	if err != nil {
		return nil, "", err
	}

	if err = f.SetSheetName(defaultSheet, holdingsSheet); err != nil {
		return nil, "", err
	}

	if err = g.fillHoldingsSheet(f, st, holdings); err != nil {
		return nil, "", fmt.Errorf("fill holdings sheet: %w", err)
	}

	if _, err = f.NewSheet(summarySheet); err != nil {
		return nil, "", err
	}

	if err = g.fillSummarySheet(f, st, holdings, view); err != nil {
		return nil, "", fmt.Errorf("fill summary sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while Saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XSLSXGenerator) newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error

	st.header, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{"#cfe2f3"},
		},
	})
	if err != nil {
		return styles{}, err
	}

	moneyFmt := moneyFormat
	st.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return styles{}, err
	}

	percentFmt := percentFormat
	st.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt})
	if err != nil {
		return styles{}, err
	}

	return st, nil
}

func (g *XSLSXGenerator) writeHeader(f *excelize.File, st styles, sheet string, row int, titles ...string) error {
	for i, title := range titles {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err = f.SetCellStr(sheet, cell, title); err != nil {
			return err
		}
	}

	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(titles), row)
	return f.SetCellStyle(sheet, first, last, st.header)
}

func (g *XSLSXGenerator) fillHoldingsSheet(f *excelize.File, st styles, holdings []model.Holding) error {
	err := g.writeHeader(f, st, holdingsSheet, 1,
		"id", "name", "ticker", "quantity", "buy price", "current price", "value", "gain/loss", "gain/loss %")
	if err != nil {
		return err
	}

	for i, h := range holdings {
		row := i + 2
		_ = f.SetCellInt(holdingsSheet, fmt.Sprintf("A%d", row), int(h.ID))
		_ = f.SetCellStr(holdingsSheet, fmt.Sprintf("B%d", row), h.Name)
		_ = f.SetCellStr(holdingsSheet, fmt.Sprintf("C%d", row), h.Ticker)
		_ = f.SetCellFloat(holdingsSheet, fmt.Sprintf("D%d", row), h.Quantity, -1, 64)
		_ = f.SetCellFloat(holdingsSheet, fmt.Sprintf("E%d", row), h.BuyPrice, -1, 64)
		_ = f.SetCellFloat(holdingsSheet, fmt.Sprintf("G%d", row), h.MarketValue(), -1, 64)

		if gainLoss, ok := h.GainLoss(); ok {
			_ = f.SetCellFloat(holdingsSheet, fmt.Sprintf("F%d", row), *h.CurrentPrice, -1, 64)
			_ = f.SetCellFloat(holdingsSheet, fmt.Sprintf("H%d", row), gainLoss, -1, 64)
		} else {
			_ = f.SetCellStr(holdingsSheet, fmt.Sprintf("F%d", row), notAvailable)
			_ = f.SetCellStr(holdingsSheet, fmt.Sprintf("H%d", row), notAvailable)
		}
		_ = f.SetCellFloat(holdingsSheet, fmt.Sprintf("I%d", row), portfolio.Performance(h), -1, 64)
	}

	if len(holdings) == 0 {
		return nil
	}

	last := len(holdings) + 1
	if err = f.SetCellStyle(holdingsSheet, "E2", fmt.Sprintf("H%d", last), st.money); err != nil {
		return err
	}
	return f.SetCellStyle(holdingsSheet, "I2", fmt.Sprintf("I%d", last), st.percent)
}

// fillSummarySheet пишет метрики и распределение из view, а рейтинг целиком, без отсечения по TopN.
func (g *XSLSXGenerator) fillSummarySheet(f *excelize.File, st styles, holdings []model.Holding, view portfolio.View) error {
	m := view.Metrics

	if err := g.writeHeader(f, st, summarySheet, 1, "metric", "value"); err != nil {
		return err
	}

	_ = f.SetCellStr(summarySheet, "A2", "total value")
	_ = f.SetCellFloat(summarySheet, "B2", m.TotalValue, -1, 64)
	_ = f.SetCellStr(summarySheet, "A3", "total investment")
	_ = f.SetCellFloat(summarySheet, "B3", m.TotalInvestment, -1, 64)
	_ = f.SetCellStr(summarySheet, "A4", "total gain/loss")
	_ = f.SetCellFloat(summarySheet, "B4", m.TotalGainLoss, -1, 64)
	if err := f.SetCellStyle(summarySheet, "B2", "B4", st.money); err != nil {
		return err
	}

	_ = f.SetCellStr(summarySheet, "A5", "return")
	if ret, ok := m.PercentageReturn.Float64(); ok {
		_ = f.SetCellFloat(summarySheet, "B5", ret, -1, 64)
		_ = f.SetCellStyle(summarySheet, "B5", "B5", st.percent)
	} else {
		_ = f.SetCellStr(summarySheet, "B5", notAvailable)
	}

	// распределение по бумагам
	row := 7
	if err := g.writeHeader(f, st, summarySheet, row, "ticker", "value", "share", "color"); err != nil {
		return err
	}
	for i, slice := range view.Distribution.Slices {
		row++
		_ = f.SetCellStr(summarySheet, fmt.Sprintf("A%d", row), slice.Ticker)
		_ = f.SetCellFloat(summarySheet, fmt.Sprintf("B%d", row), slice.Value, -1, 64)
		_ = f.SetCellStyle(summarySheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), st.money)
		if share, ok := view.Distribution.Share(i).Float64(); ok {
			_ = f.SetCellFloat(summarySheet, fmt.Sprintf("C%d", row), share, -1, 64)
			_ = f.SetCellStyle(summarySheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), st.percent)
		} else {
			_ = f.SetCellStr(summarySheet, fmt.Sprintf("C%d", row), notAvailable)
		}
		if c, ok := view.Distribution.ColorAt(i); ok {
			_ = f.SetCellStr(summarySheet, fmt.Sprintf("D%d", row), c.String())
		}
	}

	ranking := portfolio.ComputeRankingN(holdings, -1)

	row += 2
	if err := g.writeRanked(f, st, &row, "gainers", ranking.Gainers); err != nil {
		return err
	}
	row += 2
	return g.writeRanked(f, st, &row, "losers", ranking.Losers)
}

func (g *XSLSXGenerator) writeRanked(f *excelize.File, st styles, row *int, title string, ranked []portfolio.RankedHolding) error {
	if err := g.writeHeader(f, st, summarySheet, *row, title, "performance"); err != nil {
		return err
	}
	for _, r := range ranked {
		*row++
		_ = f.SetCellStr(summarySheet, fmt.Sprintf("A%d", *row), r.Ticker)
		_ = f.SetCellFloat(summarySheet, fmt.Sprintf("B%d", *row), r.Performance, -1, 64)
		_ = f.SetCellStyle(summarySheet, fmt.Sprintf("B%d", *row), fmt.Sprintf("B%d", *row), st.percent)
	}
	return nil
}
