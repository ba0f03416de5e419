package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/portfolio"
	"github.com/KotFed0t/portfolio_tracker/internal/service"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/go-chi/chi/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PortfolioService interface {
	ListHoldings(ctx context.Context) ([]model.Holding, error)
	GetHolding(ctx context.Context, id int64) (model.Holding, error)
	CreateHolding(ctx context.Context, fields model.HoldingFields) (int64, error)
	UpdateHolding(ctx context.Context, id int64, fields model.HoldingFields) error
	DeleteHolding(ctx context.Context, id int64) error
	SearchSymbols(ctx context.Context, query string) ([]model.SymbolCandidate, error)
	GetPortfolioView(ctx context.Context) (portfolio.View, error)
	RenderDistributionChart(ctx context.Context) ([]byte, error)
	GenerateReport(ctx context.Context) (fileBytes []byte, fileExtension string, err error)
	UploadReport(ctx context.Context) (downloadLink string, err error)
	ReportFilename(ext string) string
}

type Controller struct {
	portfolioService PortfolioService
}

func NewController(portfolioService PortfolioService) *Controller {
	return &Controller{portfolioService: portfolioService}
}

func (ctrl *Controller) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (ctrl *Controller) ListHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := ctrl.portfolioService.ListHoldings(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, holdings)
}

func (ctrl *Controller) GetHolding(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	holding, err := ctrl.portfolioService.GetHolding(r.Context(), id)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, holding)
}

func (ctrl *Controller) CreateHolding(w http.ResponseWriter, r *http.Request) {
	var fields model.HoldingFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := ctrl.portfolioService.CreateHolding(r.Context(), fields)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (ctrl *Controller) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var fields model.HoldingFields
	if err = json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err = ctrl.portfolioService.UpdateHolding(r.Context(), id, fields); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (ctrl *Controller) DeleteHolding(w http.ResponseWriter, r *http.Request) {
	id, err := holdingID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err = ctrl.portfolioService.DeleteHolding(r.Context(), id); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (ctrl *Controller) SearchSymbols(w http.ResponseWriter, r *http.Request) {
	candidates, err := ctrl.portfolioService.SearchSymbols(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, candidates)
}

func (ctrl *Controller) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	view, err := ctrl.portfolioService.GetPortfolioView(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (ctrl *Controller) DistributionChart(w http.ResponseWriter, r *http.Request) {
	png, err := ctrl.portfolioService.RenderDistributionChart(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (ctrl *Controller) DownloadReport(w http.ResponseWriter, r *http.Request) {
	fileBytes, ext, err := ctrl.portfolioService.GenerateReport(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ctrl.portfolioService.ReportFilename(ext)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(fileBytes)
}

func (ctrl *Controller) UploadReport(w http.ResponseWriter, r *http.Request) {
	link, err := ctrl.portfolioService.UploadReport(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}

func holdingID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid holding id")
	}
	return id, nil
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "holding not found")
	case errors.Is(err, service.ErrEmptyPortfolio):
		writeError(w, http.StatusNotFound, "portfolio is empty")
	case errors.Is(err, service.ErrStorageDisabled):
		writeError(w, http.StatusServiceUnavailable, "cloud storage is not configured")
	default:
		slog.Error("request failed", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("err", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("can't encode response", slog.String("err", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
