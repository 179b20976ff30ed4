package selector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"biocatalyst/internal/client/alpaca"
	"biocatalyst/internal/config"
)

// Per-ticker selection failures. All three are non-fatal: the engine skips
// the candidate and moves on.
var (
	ErrPriceUnavailable   = errors.New("underlying price unavailable")
	ErrNoContractsInRange = errors.New("no option contracts in range")
	ErrLegNotFound        = errors.New("straddle leg not found at chosen strike/expiration")
)

type QuoteProvider interface {
	LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

type ChainProvider interface {
	ListContracts(ctx context.Context, params alpaca.ListContractsParams) ([]alpaca.Contract, error)
}

// ContractSelection is the resolved call+put pair for one execution attempt.
// It is never persisted.
type ContractSelection struct {
	CallSymbol string
	PutSymbol  string
	Expiration time.Time
	Strike     decimal.Decimal
}

type Selector struct {
	Quotes QuoteProvider
	Chain  ChainProvider
	Logger *zap.Logger
	Config config.SelectorConfig
}

// Select resolves an approximately at-the-money straddle for ticker nearest
// targetDate. Strike and expiration are chosen independently by nearest
// distance over one broad range query, then the concrete call and put at that
// exact coordinate are looked up explicitly. A single nearest-contract pick
// would risk pairing legs from different expirations or strikes.
func (s *Selector) Select(ctx context.Context, ticker string, targetDate time.Time) (*ContractSelection, error) {
	price, err := s.Quotes.LatestPrice(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("%w for %s: %v", ErrPriceUnavailable, ticker, err)
	}

	dateTolerance := s.Config.DateToleranceDays
	if dateTolerance <= 0 {
		dateTolerance = 15
	}
	strikeTolerance := decimal.NewFromFloat(s.Config.StrikeTolerance)
	if strikeTolerance.LessThanOrEqual(decimal.Zero) {
		strikeTolerance = decimal.NewFromInt(5)
	}

	contracts, err := s.Chain.ListContracts(ctx, alpaca.ListContractsParams{
		Underlying:    ticker,
		Type:          "call",
		ExpirationGTE: targetDate.AddDate(0, 0, -dateTolerance),
		ExpirationLTE: targetDate.AddDate(0, 0, dateTolerance),
		StrikeGTE:     price.Sub(strikeTolerance),
		StrikeLTE:     price.Add(strikeTolerance),
	})
	if err != nil {
		return nil, fmt.Errorf("chain query for %s: %w", ticker, err)
	}
	if len(contracts) == 0 {
		return nil, fmt.Errorf("%w for %s around %s", ErrNoContractsInRange, ticker, targetDate.Format("2006-01-02"))
	}

	strike := nearestStrike(contracts, price)
	expiration := nearestExpiration(contracts, targetDate)

	call, err := s.findLeg(ctx, ticker, "call", expiration, strike)
	if err != nil {
		return nil, err
	}
	put, err := s.findLeg(ctx, ticker, "put", expiration, strike)
	if err != nil {
		return nil, err
	}

	if s.Logger != nil {
		s.Logger.Debug("straddle legs selected",
			zap.String("ticker", ticker),
			zap.String("call", call.Symbol),
			zap.String("put", put.Symbol),
			zap.String("strike", strike.String()),
			zap.String("expiration", expiration.Format("2006-01-02")),
		)
	}
	return &ContractSelection{
		CallSymbol: call.Symbol,
		PutSymbol:  put.Symbol,
		Expiration: expiration,
		Strike:     strike,
	}, nil
}

func (s *Selector) findLeg(ctx context.Context, ticker, optionType string, expiration time.Time, strike decimal.Decimal) (*alpaca.Contract, error) {
	contracts, err := s.Chain.ListContracts(ctx, alpaca.ListContractsParams{
		Underlying: ticker,
		Type:       optionType,
		Expiration: expiration,
		StrikeGTE:  strike,
		StrikeLTE:  strike,
	})
	if err != nil {
		return nil, fmt.Errorf("%s leg query for %s: %w", optionType, ticker, err)
	}
	// Chain data can be asymmetric: the strike/expiration coordinate may
	// exist for calls but not puts, or the other way round.
	if len(contracts) == 0 {
		return nil, fmt.Errorf("%w: %s %s %s @ %s", ErrLegNotFound,
			ticker, optionType, strike.String(), expiration.Format("2006-01-02"))
	}
	return &contracts[0], nil
}

// nearestStrike picks the strike minimizing |strike - price|. Ties keep the
// first contract in provider order; that order carries no meaning, it just
// makes the pick deterministic for a deterministic provider.
func nearestStrike(contracts []alpaca.Contract, price decimal.Decimal) decimal.Decimal {
	best := contracts[0].Strike
	bestDist := contracts[0].Strike.Sub(price).Abs()
	for _, c := range contracts[1:] {
		dist := c.Strike.Sub(price).Abs()
		if dist.LessThan(bestDist) {
			best = c.Strike
			bestDist = dist
		}
	}
	return best
}

// nearestExpiration picks the expiration minimizing |expiration - target|,
// same tie-break policy as nearestStrike.
func nearestExpiration(contracts []alpaca.Contract, target time.Time) time.Time {
	best := contracts[0].Expiration
	bestDist := absDuration(contracts[0].Expiration.Sub(target))
	for _, c := range contracts[1:] {
		dist := absDuration(c.Expiration.Sub(target))
		if dist < bestDist {
			best = c.Expiration
			bestDist = dist
		}
	}
	return best
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
