package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"biocatalyst/internal/catalyst"
	"biocatalyst/internal/client/alpaca"
	"biocatalyst/internal/config"
	"biocatalyst/internal/models"
	"biocatalyst/internal/repository"
	"biocatalyst/internal/selector"
)

// Skip reasons reported in the run summary.
const (
	SkipMissingTicker    = "missing_ticker"
	SkipAlreadyDecided   = "already_decided"
	SkipPriceUnavailable = "price_unavailable"
	SkipNoContracts      = "no_contracts"
	SkipLegNotFound      = "leg_not_found"
	SkipOrderFailed      = "order_failed"
	SkipPartialExecution = "partial_execution"
	SkipAlreadyTraded    = "already_traded"
)

type OrderGateway interface {
	SubmitMarketOrder(ctx context.Context, symbol string, qty int) (alpaca.OrderConfirmation, error)
}

type ContractSelector interface {
	Select(ctx context.Context, ticker string, targetDate time.Time) (*selector.ContractSelection, error)
}

type Summary struct {
	Attempted int            `json:"attempted"`
	Executed  int            `json:"executed"`
	Skipped   map[string]int `json:"skipped"`
}

type RunReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Summary    Summary   `json:"summary"`
	Error      string    `json:"error,omitempty"`
}

// Engine drives untraded, due-soon catalysts to execution, at most once each.
// A run is a single sequential pass: one catalyst is fully resolved (quote,
// chain queries, both order submissions, flag persistence) before the next
// starts, so no two submissions for the same brokerage account are in flight
// at once. Re-invoking the run is the retry mechanism; the traded flag plus
// the store's conditional update make retries safe.
type Engine struct {
	Repo     repository.Repository
	Selector ContractSelector
	Orders   OrderGateway
	Logger   *zap.Logger
	Config   config.EngineConfig

	mu   sync.Mutex
	last *RunReport
}

// LastRun returns the report of the most recent completed run, or nil.
func (e *Engine) LastRun() *RunReport {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

type kindScan struct {
	kind       string
	offsetDays int
}

// RunOnce executes one trading pass at the given evaluation time. Store
// errors are fatal and abort the run; everything that goes wrong for a single
// candidate is counted, logged and skipped.
func (e *Engine) RunOnce(ctx context.Context, now time.Time) (Summary, error) {
	started := time.Now().UTC()
	summary := Summary{Skipped: map[string]int{}}

	lookahead := e.Config.LookaheadDays
	if lookahead <= 0 {
		lookahead = 15
	}
	trialOffset := e.Config.TrialOffsetDays
	if trialOffset <= 0 {
		trialOffset = 60
	}
	decisionOffset := e.Config.DecisionOffsetDays
	if decisionOffset <= 0 {
		decisionOffset = 14
	}

	// The window starts tomorrow: a catalyst resolving today is too late to
	// open a straddle for.
	from := now.AddDate(0, 0, 1)
	to := now.AddDate(0, 0, lookahead)

	scans := []kindScan{
		{kind: models.KindClinicalTrial, offsetDays: trialOffset},
		{kind: models.KindRegulatoryDecision, offsetDays: decisionOffset},
	}

	var runErr error
	for _, scan := range scans {
		if ctx.Err() != nil {
			runErr = ctx.Err()
			break
		}
		candidates, err := e.Repo.FindDueUntraded(ctx, scan.kind, from, to)
		if err != nil {
			runErr = fmt.Errorf("find due %s catalysts: %w", scan.kind, err)
			break
		}
		for _, ev := range candidates {
			if ctx.Err() != nil {
				runErr = ctx.Err()
				break
			}
			summary.Attempted++
			if err := e.processCandidate(ctx, ev, scan.offsetDays, now, &summary); err != nil {
				runErr = err
				break
			}
		}
		if runErr != nil {
			break
		}
	}

	e.storeReport(started, summary, runErr)
	if e.Logger != nil {
		fields := []zap.Field{
			zap.Int("attempted", summary.Attempted),
			zap.Int("executed", summary.Executed),
		}
		for reason, n := range summary.Skipped {
			fields = append(fields, zap.Int("skipped_"+reason, n))
		}
		if runErr != nil {
			e.Logger.Error("trading run aborted", append(fields, zap.Error(runErr))...)
		} else {
			e.Logger.Info("trading run complete", fields...)
		}
	}
	return summary, runErr
}

// processCandidate resolves and submits one straddle. A non-nil return means
// a store failure; every per-candidate failure is absorbed into the summary.
func (e *Engine) processCandidate(ctx context.Context, ev models.CatalystEvent, offsetDays int, now time.Time, summary *Summary) error {
	key := []zap.Field{
		zap.String("ticker", ev.Ticker),
		zap.String("identity_key", ev.IdentityKey),
		zap.String("event_date", ev.EventDate.Format("2006-01-02")),
		zap.String("kind", ev.Kind),
	}

	if ev.Ticker == "" {
		// Cannot trade without a symbol; left untraded for manual follow-up.
		summary.Skipped[SkipMissingTicker]++
		if e.Logger != nil {
			e.Logger.Warn("catalyst has no ticker, skipping", key...)
		}
		return nil
	}

	// Recompute rather than trust anything persisted: an outcome may have
	// been verified after the row was written.
	if catalyst.DeriveStatus(ev, now) == catalyst.StatusDecided {
		summary.Skipped[SkipAlreadyDecided]++
		if e.Logger != nil {
			e.Logger.Info("catalyst already decided, skipping", key...)
		}
		return nil
	}

	targetDate := ev.EventDate.AddDate(0, 0, offsetDays)
	sel, err := e.Selector.Select(ctx, ev.Ticker, targetDate)
	if err != nil {
		summary.Skipped[selectorSkipReason(err)]++
		if e.Logger != nil {
			e.Logger.Warn("contract selection failed, skipping", append(key, zap.Error(err))...)
		}
		return nil
	}

	qty := e.Config.OrderQty
	if qty <= 0 {
		qty = 1
	}

	callConf, err := e.Orders.SubmitMarketOrder(ctx, sel.CallSymbol, qty)
	if err != nil {
		summary.Skipped[SkipOrderFailed]++
		if e.Logger != nil {
			e.Logger.Error("call order failed, catalyst left untraded",
				append(key, zap.String("call_symbol", sel.CallSymbol), zap.Error(err))...)
		}
		return nil
	}

	putConf, err := e.Orders.SubmitMarketOrder(ctx, sel.PutSymbol, qty)
	if err != nil {
		// The call leg is live in the account with no hedge. The catalyst
		// stays untraded so the full straddle is retried next run; the open
		// lone leg is reported here, not closed.
		summary.Skipped[SkipPartialExecution]++
		if e.Logger != nil {
			e.Logger.Error("put order failed after call was submitted: open lone call leg",
				append(key,
					zap.String("call_order_id", callConf.ID),
					zap.String("call_symbol", sel.CallSymbol),
					zap.String("put_symbol", sel.PutSymbol),
					zap.Error(err))...)
		}
		return nil
	}

	claimed, err := e.Repo.MarkTraded(ctx, ev.Ticker, ev.IdentityKey, ev.EventDate)
	if err != nil {
		return fmt.Errorf("mark traded %s/%s: %w", ev.Ticker, ev.IdentityKey, err)
	}
	if !claimed {
		// An overlapping run claimed the key between our read and this
		// write; both straddles are live. Surface it loudly.
		summary.Skipped[SkipAlreadyTraded]++
		if e.Logger != nil {
			e.Logger.Error("catalyst was claimed concurrently, duplicate straddle submitted",
				append(key,
					zap.String("call_order_id", callConf.ID),
					zap.String("put_order_id", putConf.ID))...)
		}
		return nil
	}

	if err := e.Repo.InsertStraddleOrder(ctx, &models.StraddleOrder{
		CatalystID:  ev.ID,
		Ticker:      ev.Ticker,
		CallSymbol:  sel.CallSymbol,
		PutSymbol:   sel.PutSymbol,
		Strike:      sel.Strike,
		Expiration:  sel.Expiration,
		CallOrderID: callConf.ID,
		PutOrderID:  putConf.ID,
		SubmittedAt: time.Now().UTC(),
	}); err != nil && e.Logger != nil {
		// The trade is done and the flag is set; a failed log row must not
		// fail the run.
		e.Logger.Warn("failed to record straddle order", append(key, zap.Error(err))...)
	}

	summary.Executed++
	if e.Logger != nil {
		e.Logger.Info("straddle submitted",
			append(key,
				zap.String("call_symbol", sel.CallSymbol),
				zap.String("put_symbol", sel.PutSymbol),
				zap.String("call_order_id", callConf.ID),
				zap.String("put_order_id", putConf.ID),
				zap.String("strike", sel.Strike.String()),
				zap.String("expiration", sel.Expiration.Format("2006-01-02")))...)
	}
	return nil
}

func selectorSkipReason(err error) string {
	switch {
	case errors.Is(err, selector.ErrPriceUnavailable):
		return SkipPriceUnavailable
	case errors.Is(err, selector.ErrNoContractsInRange):
		return SkipNoContracts
	case errors.Is(err, selector.ErrLegNotFound):
		return SkipLegNotFound
	default:
		return SkipNoContracts
	}
}

func (e *Engine) storeReport(started time.Time, summary Summary, runErr error) {
	report := &RunReport{
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Summary:    summary,
	}
	if runErr != nil {
		report.Error = runErr.Error()
	}
	e.mu.Lock()
	e.last = report
	e.mu.Unlock()
}
