package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KotFed0t/portfolio_tracker/config"
	"github.com/KotFed0t/portfolio_tracker/internal/model"
	"github.com/KotFed0t/portfolio_tracker/internal/model/moexModel"
	"github.com/KotFed0t/portfolio_tracker/utils"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

const (
	stockKeyPrefix  = "stock:"
	searchKeyPrefix = "search:"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func stockKey(ticker string) string {
	return stockKeyPrefix + ticker
}

func searchKey(query string) string {
	return searchKeyPrefix + strings.ToLower(strings.TrimSpace(query))
}

func (r *RedisCache) SetStocks(ctx context.Context, stocks []moexModel.StockInfo) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.SetStocks"
	slog.Debug("SetStocks start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("count", len(stocks)))

	if len(stocks) == 0 {
		return nil
	}

	pipe := r.redis.Pipeline()
	for _, stock := range stocks {
		stockJson, err := json.Marshal(stock)
		if err != nil {
			slog.Error(
				"can't marshall stock",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("err", err.Error()),
				slog.Any("stock", stock),
			)
			return fmt.Errorf("can't marshall stock: %w", err)
		}

		pipe.Set(ctx, stockKey(stock.Ticker), stockJson, r.cfg.Cache.StocksExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetStocks completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

// GetStocks returns cached stocks info, any absent ticker makes the whole lookup a miss.
func (r *RedisCache) GetStocks(ctx context.Context, tickers []string) (map[string]moexModel.StockInfo, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.GetStocks"
	slog.Debug("GetStocks start", slog.String("rqID", rqID), slog.String("op", op))

	res := make(map[string]moexModel.StockInfo, len(tickers))
	if len(tickers) == 0 {
		return res, nil
	}

	keys := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		keys = append(keys, stockKey(ticker))
	}

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Error("failed on redis.MGet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCacheMiss, tickers[i])
		}

		stockInfo := moexModel.StockInfo{}
		if err = json.Unmarshal([]byte(raw), &stockInfo); err != nil {
			slog.Error(
				"can't unmarshall stock",
				slog.String("rqID", rqID),
				slog.String("op", op),
				slog.String("err", err.Error()),
				slog.String("resultFromRedis", raw),
			)
			return nil, fmt.Errorf("can't unmarshall stock: %w", err)
		}
		res[tickers[i]] = stockInfo
	}

	slog.Debug("GetStocks finished", slog.String("rqID", rqID), slog.String("op", op))

	return res, nil
}

func (r *RedisCache) SetSearchResults(ctx context.Context, query string, candidates []model.SymbolCandidate) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.SetSearchResults"

	raw, err := json.Marshal(candidates)
	if err != nil {
		return fmt.Errorf("can't marshall search results: %w", err)
	}

	err = r.redis.Set(ctx, searchKey(query), raw, r.cfg.Cache.SearchExpiration).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	return nil
}

func (r *RedisCache) GetSearchResults(ctx context.Context, query string) ([]model.SymbolCandidate, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "RedisCache.GetSearchResults"

	raw, err := r.redis.Get(ctx, searchKey(query)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	candidates := make([]model.SymbolCandidate, 0)
	if err = json.Unmarshal(raw, &candidates); err != nil {
		return nil, fmt.Errorf("can't unmarshall search results: %w", err)
	}

	return candidates, nil
}
