package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/KotFed0t/portfolio_tracker/data/repository"
	"github.com/KotFed0t/portfolio_tracker/internal/converter/dbConverter"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/dbModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/shopspring/decimal"
)

func (r *Postgres) ListHoldings(ctx context.Context) (holdings []model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ListHoldings"
	query := `
		SELECT id, name, ticker, quantity, buy_price, current_price, price_updated_at
		FROM holdings
		ORDER BY id
		`

	slog.Debug("ListHoldings start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("ListHoldings failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ListHoldings completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(holdings)))
		}
	}()

	rows, err := r.txOrDb(ctx).QueryxContext(ctx, query)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	holdings = make([]model.Holding, 0)
	for rows.Next() {
		var holding dbModel.Holding
		err = rows.StructScan(&holding)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, dbConverter.ConvertHolding(holding))
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holdings, nil
}

func (r *Postgres) GetHolding(ctx context.Context, id int64) (holding model.Holding, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.GetHolding"
	query := `
		SELECT id, name, ticker, quantity, buy_price, current_price, price_updated_at
		FROM holdings
		WHERE id = $1
		`

	slog.Debug("GetHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("GetHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbHolding := dbModel.Holding{}
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, id).StructScan(&dbHolding)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Holding{}, repository.ErrNotFound
		}
		return model.Holding{}, err
	}

	return dbConverter.ConvertHolding(dbHolding), nil
}

func (r *Postgres) CreateHolding(ctx context.Context, fields model.HoldingFields) (id int64, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.CreateHolding"
	query := `
		INSERT INTO holdings(name, ticker, quantity, buy_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
		`

	slog.Debug("CreateHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Any("fields", fields), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("CreateHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("CreateHolding completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id))
		}
	}()

	dbFields := dbConverter.ConvertHoldingFields(fields)
	err = r.txOrDb(ctx).QueryRowxContext(ctx, query, dbFields.Name, dbFields.Ticker, dbFields.Quantity, dbFields.BuyPrice).Scan(&id)
	if err != nil {
		return 0, err
	}

	return id, nil
}

func (r *Postgres) UpdateHolding(ctx context.Context, id int64, fields model.HoldingFields) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateHolding"
	query := `
		UPDATE holdings
		SET
			name = $2,
			ticker = $3,
			quantity = $4,
			buy_price = $5,
			-- при смене тикера старая цена больше не актуальна
			current_price = CASE WHEN ticker = $3 THEN current_price ELSE NULL END,
			price_updated_at = CASE WHEN ticker = $3 THEN price_updated_at ELSE NULL END,
			dt_update = now()
		WHERE id = $1
		`

	slog.Debug("UpdateHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id), slog.Any("fields", fields), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("UpdateHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	dbFields := dbConverter.ConvertHoldingFields(fields)
	res, err := r.txOrDb(ctx).ExecContext(ctx, query, id, dbFields.Name, dbFields.Ticker, dbFields.Quantity, dbFields.BuyPrice)
	if err != nil {
		return err
	}

	return checkAffected(res)
}

func (r *Postgres) DeleteHolding(ctx context.Context, id int64) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.DeleteHolding"
	query := `DELETE FROM holdings WHERE id = $1`

	slog.Debug("DeleteHolding start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("id", id), slog.String("query", query))
	defer func() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("DeleteHolding failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("DeleteHolding completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return checkAffected(res)
}

func (r *Postgres) ListTickers(ctx context.Context) (tickers []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.ListTickers"
	query := `SELECT DISTINCT ticker FROM holdings ORDER BY ticker`

	slog.Debug("ListTickers start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("ListTickers failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("ListTickers completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	tickers = make([]string, 0)
	err = r.txOrDb(ctx).SelectContext(ctx, &tickers, query)
	if err != nil {
		return nil, err
	}

	return tickers, nil
}

// UpdateCurrentPrices sets the current price of every holding with the given tickers.
func (r *Postgres) UpdateCurrentPrices(ctx context.Context, prices map[string]decimal.Decimal, updatedAt time.Time) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Postgres.UpdateCurrentPrices"
	query := `
		UPDATE holdings
		SET current_price = $2, price_updated_at = $3
		WHERE ticker = $1
		`

	slog.Debug("UpdateCurrentPrices start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("tickers", len(prices)), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpdateCurrentPrices failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpdateCurrentPrices completed", slog.String("rqID", rqID), slog.String("op", op))
		}
	}()

	if len(prices) == 0 {
		return nil
	}

	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		for ticker, price := range prices {
			if _, err := r.txOrDb(ctx).ExecContext(ctx, query, ticker, price, updatedAt); err != nil {
				return err
			}
		}
		return nil
	})
}

func checkAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
