package tgbot

import (
	"log/slog"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/model/tg/tgCallback"
	"github.com/KotFed0t/portfolio_tracker/internal/transport/telegram"
	customMW "github.com/KotFed0t/portfolio_tracker/internal/transport/telegram/middleware"
	tele "gopkg.in/telebot.v4"
	"gopkg.in/telebot.v4/middleware"
)

type TGBot struct {
	bot  *tele.Bot
	ctrl *telegram.Controller
}

func New(cfg *config.Config, ctrl *telegram.Controller) *TGBot {
	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: cfg.Telegram.UpdTimeout},
		OnError: func(err error, c tele.Context) {
			slog.Error("telebot error", slog.String("err", err.Error()))
		},
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		slog.Error("error while tele.NewBot", slog.String("err", err.Error()))
		panic(err)
	}

	return &TGBot{bot: b, ctrl: ctrl}
}

func (b *TGBot) Start() {
	b.bot.Use(middleware.Recover(), customMW.Logger())

	b.setupRoutes()

	go b.bot.Start()
	slog.Info("tgbot started!")
}

func (b *TGBot) Stop() {
	slog.Info("start stopping tgbot")
	b.bot.Stop()
	slog.Info("tgbot stopped")
}

func (b *TGBot) setupRoutes() {
	b.bot.Handle(tele.OnText, b.ctrl.HandleText)

	b.bot.Handle("/start", b.ctrl.Start)
	b.bot.Handle("/portfolio", b.ctrl.Portfolio)
	b.bot.Handle("/holdings", b.ctrl.Holdings)
	b.bot.Handle("/add", b.ctrl.InitAddHolding)
	b.bot.Handle("/cancel", b.ctrl.Cancel)
	b.bot.Handle("/delete", b.ctrl.DeleteHolding)
	b.bot.Handle("/search", b.ctrl.Search)
	b.bot.Handle("/chart", b.ctrl.Chart)
	b.bot.Handle("/report", b.ctrl.Report)
	b.bot.Handle("/upload", b.ctrl.UploadReport)

	b.bot.Handle(&tele.Btn{Unique: tgCallback.Portfolio}, withRespond(b.ctrl.Portfolio))
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Holdings}, withRespond(b.ctrl.Holdings))
	b.bot.Handle(&tele.Btn{Unique: tgCallback.AddHolding}, withRespond(b.ctrl.InitAddHolding))
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Chart}, withRespond(b.ctrl.Chart))
	b.bot.Handle(&tele.Btn{Unique: tgCallback.Report}, withRespond(b.ctrl.Report))
	b.bot.Handle(&tele.Btn{Unique: tgCallback.UploadReport}, withRespond(b.ctrl.UploadReport))
	b.bot.Handle(&tele.Btn{Unique: tgCallback.DeleteHolding}, b.ctrl.DeleteHolding)
	b.bot.Handle(&tele.Btn{Unique: tgCallback.ChooseSymbol}, b.ctrl.ChooseSymbol)
}

// withRespond закрывает "часики" на inline кнопке перед вызовом обработчика.
func withRespond(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		_ = c.Respond()
		return next(c)
	}
}
