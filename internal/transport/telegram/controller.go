package telegram

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/data/session"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/telebotConverter"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/portfolio"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
	tele "gopkg.in/telebot.v4"
)

const (
	internalErrMsg    = "что-то пошло не так..."
	xlsxMIME          = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	startMsg          = "Привет! Я помогу следить за портфелем акций.\n\n/portfolio - сводка\n/holdings - позиции\n/add - добавить позицию\n/delete <id> - удалить позицию\n/search <запрос> - поиск тикера\n/chart - диаграмма распределения\n/report - отчет xlsx\n/upload - ссылка на отчет\n/cancel - отменить ввод"
	emptyPortfolioMsg = "Портфель пуст, добавьте первую позицию через /add"
)

type PortfolioService interface {
	ListHoldings(ctx context.Context) ([]model.Holding, error)
	CreateHolding(ctx context.Context, fields model.HoldingFields) (int64, error)
	DeleteHolding(ctx context.Context, id int64) error
	SearchSymbols(ctx context.Context, query string) ([]model.SymbolCandidate, error)
	GetPortfolioView(ctx context.Context) (portfolio.View, error)
	RenderDistributionChart(ctx context.Context) ([]byte, error)
	GenerateReport(ctx context.Context) (fileBytes []byte, fileExtension string, err error)
	UploadReport(ctx context.Context) (downloadLink string, err error)
	ReportFilename(ext string) string
}

type Session interface {
	GetSession(ctx context.Context, key string) (model.Session, error)
	SetSession(ctx context.Context, key string, session model.Session) error
}

type Controller struct {
	portfolioService PortfolioService
	session          Session
	currency         string
}

func NewController(cfg *config.Config, portfolioService PortfolioService, session Session) *Controller {
	return &Controller{
		portfolioService: portfolioService,
		session:          session,
		currency:         cfg.Presentation.Currency,
	}
}

func (ctrl *Controller) Start(c tele.Context) error {
	return c.Send(startMsg, telebotConverter.MainMenuMarkup())
}

func (ctrl *Controller) Portfolio(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	view, err := ctrl.portfolioService.GetPortfolioView(ctx)
	if err != nil {
		slog.Error("got error from portfolioService.GetPortfolioView", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.PortfolioSummaryResponse(view, ctrl.currency)
	return c.Send(text, markup)
}

func (ctrl *Controller) Holdings(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	holdings, err := ctrl.portfolioService.ListHoldings(ctx)
	if err != nil {
		slog.Error("got error from portfolioService.ListHoldings", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.HoldingsResponse(holdings, ctrl.currency)
	return c.Send(text, markup)
}

// HandleText выбирает шаг диалога по сохраненной сессии чата.
func (ctrl *Controller) HandleText(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}
	c.Set("session", chatSession)

	switch chatSession.Action {
	case model.ExpectingTicker:
		return ctrl.ProcessTicker(c)
	case model.ExpectingQuantity:
		return ctrl.ProcessQuantity(c)
	case model.ExpectingBuyPrice:
		return ctrl.ProcessBuyPrice(c)
	default:
		slog.Debug("text without active dialogue", slog.String("rqID", rqID), slog.Any("action", chatSession.Action))
		return c.Send("сначала введите одну из команд, список: /start")
	}
}

// InitAddHolding начинает диалог добавления: тикер -> количество -> цена покупки.
func (ctrl *Controller) InitAddHolding(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	err := ctrl.saveSession(ctx, c, model.Session{Action: model.ExpectingTicker})
	if err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Введите тикер (например, SBER):")
}

// ChooseSymbol добавляет позицию по тикеру из результатов поиска, сразу переходя к количеству.
func (ctrl *Controller) ChooseSymbol(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	_ = c.Respond()

	return ctrl.acceptTicker(ctx, c, c.Data())
}

func (ctrl *Controller) ProcessTicker(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	return ctrl.acceptTicker(ctx, c, c.Text())
}

func (ctrl *Controller) acceptTicker(ctx context.Context, c tele.Context, text string) error {
	ticker := strings.ToUpper(strings.TrimSpace(text))
	if ticker == "" {
		return c.Send("Тикер не может быть пустым, попробуйте еще раз:")
	}

	draft := model.HoldingFields{Ticker: ticker, Name: ctrl.lookupName(ctx, ticker)}
	if err := ctrl.saveSession(ctx, c, model.Session{Action: model.ExpectingQuantity, Draft: draft}); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Введите количество акций " + ticker + ":")
}

// lookupName ищет название бумаги, при неудаче используется сам тикер.
func (ctrl *Controller) lookupName(ctx context.Context, ticker string) string {
	candidates, err := ctrl.portfolioService.SearchSymbols(ctx, ticker)
	if err != nil {
		slog.Warn("can't lookup symbol name", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return ticker
	}
	for _, candidate := range candidates {
		if strings.EqualFold(candidate.Symbol, ticker) && candidate.Name != "" {
			return candidate.Name
		}
	}
	return ticker
}

func (ctrl *Controller) ProcessQuantity(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	quantity, ok := parsePositive(c.Text())
	if !ok {
		return c.Send("Количество должно быть положительным числом, попробуйте еще раз:")
	}

	chatSession.Action = model.ExpectingBuyPrice
	chatSession.Draft.Quantity = quantity
	if err = ctrl.saveSession(ctx, c, chatSession); err != nil {
		return c.Send(internalErrMsg)
	}

	return c.Send("Введите цену покупки одной акции:")
}

func (ctrl *Controller) ProcessBuyPrice(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	chatSession, err := ctrl.getSessionFromTeleCtxOrStorage(ctx, c)
	if err != nil {
		return c.Send(internalErrMsg)
	}

	buyPrice, ok := parsePositive(c.Text())
	if !ok {
		return c.Send("Цена должна быть положительным числом, попробуйте еще раз:")
	}

	chatSession.Draft.BuyPrice = buyPrice
	draft := chatSession.Draft

	defer func() {
		_ = ctrl.saveSession(ctx, c, model.Session{Action: model.DefaultAction})
	}()

	id, err := ctrl.portfolioService.CreateHolding(ctx, draft)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Send("Не удалось добавить позицию: " + err.Error())
		}
		slog.Error("got error from portfolioService.CreateHolding", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("✅ Позиция #"+strconv.FormatInt(id, 10)+" "+draft.Ticker+" добавлена", telebotConverter.MainMenuMarkup())
}

func (ctrl *Controller) Cancel(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	if err := ctrl.saveSession(ctx, c, model.Session{Action: model.DefaultAction}); err != nil {
		return c.Send(internalErrMsg)
	}
	return c.Send("Ввод отменен", telebotConverter.MainMenuMarkup())
}

// DeleteHolding обрабатывает и команду /delete <id>, и inline кнопку с id в payload.
func (ctrl *Controller) DeleteHolding(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	raw := c.Data()
	if c.Callback() != nil {
		_ = c.Respond()
	}

	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return c.Send("Укажите id позиции: /delete <id>")
	}

	err = ctrl.portfolioService.DeleteHolding(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Send("Позиция не найдена")
		}
		slog.Error("got error from portfolioService.DeleteHolding", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("🗑 Позиция #" + strconv.FormatInt(id, 10) + " удалена")
}

func (ctrl *Controller) Search(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	query := strings.TrimSpace(c.Data())
	if query == "" {
		return c.Send("Укажите запрос: /search <тикер или название>")
	}

	candidates, err := ctrl.portfolioService.SearchSymbols(ctx, query)
	if err != nil {
		slog.Error("got error from portfolioService.SearchSymbols", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	text, markup := telebotConverter.SearchResponse(candidates)
	return c.Send(text, markup)
}

func (ctrl *Controller) Chart(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	png, err := ctrl.portfolioService.RenderDistributionChart(ctx)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPortfolio) {
			return c.Send(emptyPortfolioMsg)
		}
		slog.Error("got error from portfolioService.RenderDistributionChart", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(&tele.Photo{File: tele.FromReader(bytes.NewReader(png)), Caption: "🥧 Распределение портфеля"})
}

func (ctrl *Controller) Report(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	fileBytes, ext, err := ctrl.portfolioService.GenerateReport(ctx)
	if err != nil {
		slog.Error("got error from portfolioService.GenerateReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send(&tele.Document{
		File:     tele.FromReader(bytes.NewReader(fileBytes)),
		FileName: ctrl.portfolioService.ReportFilename(ext),
		MIME:     xlsxMIME,
	})
}

func (ctrl *Controller) UploadReport(c tele.Context) error {
	ctx := utils.CreateCtxWithRqID(c)
	rqID := utils.GetRequestIDFromCtx(ctx)

	link, err := ctrl.portfolioService.UploadReport(ctx)
	if err != nil {
		if errors.Is(err, service.ErrStorageDisabled) {
			return c.Send("Облачное хранилище не настроено, используйте /report")
		}
		slog.Error("got error from portfolioService.UploadReport", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return c.Send(internalErrMsg)
	}

	return c.Send("📄 Отчет: " + link)
}

func (ctrl *Controller) getSessionFromTeleCtxOrStorage(ctx context.Context, c tele.Context) (model.Session, error) {
	chatSession, ok := c.Get("session").(model.Session)
	if ok {
		return chatSession, nil
	}

	rqID := utils.GetRequestIDFromCtx(ctx)
	chatSession, err := ctrl.session.GetSession(ctx, sessionKey(c))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Session{}, nil
		}
		slog.Error("got error from session.GetSession", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.Session{}, err
	}
	return chatSession, nil
}

func (ctrl *Controller) saveSession(ctx context.Context, c tele.Context, chatSession model.Session) error {
	err := ctrl.session.SetSession(ctx, sessionKey(c), chatSession)
	if err != nil {
		slog.Error("got error from session.SetSession", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		return err
	}
	c.Set("session", chatSession)
	return nil
}

func sessionKey(c tele.Context) string {
	return strconv.FormatInt(c.Chat().ID, 10)
}

// parsePositive принимает и точку, и запятую в качестве разделителя.
// inf и nan ParseFloat разбирает без ошибки, их отсекаем отдельно.
func parsePositive(text string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 64)
	if err != nil || !(v > 0) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
