package telebotConverter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/tg/tgCallback"
	"github.com/KotFed0t/portfolio_tracker/internal/portfolio"
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	tele "gopkg.in/telebot.v4"
)

const notAvailable = "N/A"

// FormatMoney форматирует сумму в валюте портфеля, неизвестная валюта выводится кодом.
func FormatMoney(amount float64, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%.2f %s", amount, currency)
	}

	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0).IntPart()
	return money.New(minor, currency).Display()
}

func FormatSignedMoney(amount float64, currency string) string {
	if amount > 0 {
		return "+" + FormatMoney(amount, currency)
	}
	return FormatMoney(amount, currency)
}

func FormatRatio(r portfolio.Ratio) string {
	v, ok := r.Float64()
	if !ok {
		return notAvailable
	}
	return fmt.Sprintf("%+.2f%%", v)
}

func MainMenuMarkup() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("📊 Портфель", tgCallback.Portfolio),
			markup.Data("📋 Позиции", tgCallback.Holdings),
		),
		markup.Row(
			markup.Data("➕ Добавить", tgCallback.AddHolding),
			markup.Data("🥧 Диаграмма", tgCallback.Chart),
			markup.Data("📄 Отчет", tgCallback.Report),
		),
		markup.Row(markup.Data("☁️ Ссылка на отчет", tgCallback.UploadReport)),
	)
	return markup
}

func PortfolioSummaryResponse(view portfolio.View, currency string) (text string, markup *tele.ReplyMarkup) {
	var sb strings.Builder

	m := view.Metrics
	sb.WriteString("📊 Портфель\n")
	sb.WriteString(fmt.Sprintf("💰 Стоимость: %s\n", FormatMoney(m.TotalValue, currency)))
	sb.WriteString(fmt.Sprintf("💵 Вложено: %s\n", FormatMoney(m.TotalInvestment, currency)))
	sb.WriteString(fmt.Sprintf("📈 Результат: %s (%s)\n\n", FormatSignedMoney(m.TotalGainLoss, currency), FormatRatio(m.PercentageReturn)))

	if len(view.Distribution.Slices) > 0 {
		sb.WriteString("🥧 Распределение:\n")
		for i, slice := range view.Distribution.Slices {
			sb.WriteString(fmt.Sprintf("   ▸ %s: %s (%s)\n", slice.Ticker, FormatMoney(slice.Value, currency), shareString(view.Distribution.Share(i))))
		}
		sb.WriteString("\n")
	}

	writeRanked(&sb, "🚀 Лучшие:", view.Ranking.Gainers)
	writeRanked(&sb, "🔻 Худшие:", view.Ranking.Losers)

	return sb.String(), MainMenuMarkup()
}

func shareString(r portfolio.Ratio) string {
	v, ok := r.Float64()
	if !ok {
		return notAvailable
	}
	return fmt.Sprintf("%.1f%%", v)
}

func writeRanked(sb *strings.Builder, title string, ranked []portfolio.RankedHolding) {
	if len(ranked) == 0 {
		return
	}
	sb.WriteString(title + "\n")
	for i, h := range ranked {
		sb.WriteString(fmt.Sprintf("   %d. %s %+.2f%%\n", i+1, h.Ticker, h.Performance))
	}
	sb.WriteString("\n")
}

func HoldingsResponse(holdings []model.Holding, currency string) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	if len(holdings) == 0 {
		markup.Inline(markup.Row(markup.Data("➕ Добавить", tgCallback.AddHolding)))
		return "Портфель пуст, добавьте первую позицию через /add", markup
	}

	var sb strings.Builder
	sb.WriteString("📋 Позиции:\n\n")

	rows := make([]tele.Row, 0, len(holdings)+1)
	for _, h := range holdings {
		sb.WriteString(fmt.Sprintf("#%d %s (%s)\n", h.ID, h.Ticker, h.Name))
		sb.WriteString(fmt.Sprintf("   ▸ Кол-во: %s\n", strconv.FormatFloat(h.Quantity, 'f', -1, 64)))
		sb.WriteString(fmt.Sprintf("   ▸ Цена покупки: %s\n", FormatMoney(h.BuyPrice, currency)))

		price := notAvailable
		if h.CurrentPrice != nil {
			price = FormatMoney(*h.CurrentPrice, currency)
		}
		sb.WriteString(fmt.Sprintf("   ▸ Текущая цена: %s\n", price))
		sb.WriteString(fmt.Sprintf("   ▸ Стоимость: %s\n\n", FormatMoney(h.MarketValue(), currency)))

		rows = append(rows, markup.Row(markup.Data("🗑 "+h.Ticker+" #"+strconv.FormatInt(h.ID, 10), tgCallback.DeleteHolding, strconv.FormatInt(h.ID, 10))))
	}
	rows = append(rows, markup.Row(markup.Data("➕ Добавить", tgCallback.AddHolding)))
	markup.Inline(rows...)

	return sb.String(), markup
}

func SearchResponse(candidates []model.SymbolCandidate) (text string, markup *tele.ReplyMarkup) {
	markup = &tele.ReplyMarkup{}
	if len(candidates) == 0 {
		return "Ничего не найдено", markup
	}

	var sb strings.Builder
	sb.WriteString("🔎 Найдено:\n")
	rows := make([]tele.Row, 0, len(candidates))
	for _, c := range candidates {
		sb.WriteString(fmt.Sprintf("   ▸ %s - %s\n", c.Symbol, c.Name))
		rows = append(rows, markup.Row(markup.Data("➕ "+c.Symbol, tgCallback.ChooseSymbol, c.Symbol)))
	}
	markup.Inline(rows...)

	return sb.String(), markup
}
