package exec

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config bounds the lifecycle. Every wait the executor performs has a
// timeout; nothing blocks indefinitely.
type Config struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	}
	if c.Timeout < c.PollInterval {
		return fmt.Errorf("timeout %v must be at least the poll interval %v", c.Timeout, c.PollInterval)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry_backoff must not be negative, got %v", c.RetryBackoff)
	}
	return nil
}

// Executor runs one order lifecycle at a time per call; calls for
// different orders are independent and a failure in one never touches
// another.
type Executor struct {
	venue  Venue
	clock  Clock
	cfg    Config
	logger *slog.Logger
}

func NewExecutor(venue Venue, clock Clock, cfg Config, logger *slog.Logger) *Executor {
	if clock == nil {
		clock = RealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{venue: venue, clock: clock, cfg: cfg, logger: logger}
}

// Execute submits the intent and polls it to a terminal status.
//
// State machine: Submitted -> {Filled, PartiallyFilled, Cancelled,
// TimedOut}. A partial fill past the deadline is accepted as-is; the
// remainder is not cancelled. An order still open past the deadline is
// cancelled best-effort and recorded TimedOut. Transport failures are
// retried with backoff up to the configured budget; exhausting it
// returns ErrExecutionFailed and no terminal outcome.
func (e *Executor) Execute(ctx context.Context, intent OrderIntent) (Outcome, error) {
	orderID, err := e.submit(ctx, intent)
	if err != nil {
		return Outcome{}, err
	}

	submittedAt := e.clock.Now()
	deadline := submittedAt.Add(e.cfg.Timeout)

	e.logger.Info("order submitted",
		"order_id", orderID,
		"market_id", intent.MarketID,
		"side", intent.Side.String(),
		"size", intent.Size,
	)

	terminal := func(status TerminalStatus, rep StatusReport) Outcome {
		size := rep.FilledSize
		if status == StatusFilled && size == 0 {
			size = intent.Size
		}
		price := rep.AvgPrice
		if price == 0 {
			price = intent.LimitPrice
		}
		return Outcome{
			OrderID:     orderID,
			Intent:      intent,
			Status:      status,
			FilledSize:  size,
			FillPrice:   price,
			SubmittedAt: submittedAt,
			ResolvedAt:  e.clock.Now(),
		}
	}

	for {
		rep, err := e.poll(ctx, orderID)
		if err != nil {
			return Outcome{}, err
		}

		expired := !e.clock.Now().Before(deadline)

		switch rep.Status {
		case VenueFilled:
			return terminal(StatusFilled, rep), nil

		case VenueCancelled:
			// Cancelled externally, e.g. by the venue.
			return terminal(StatusCancelled, rep), nil

		case VenuePartiallyFilled:
			if expired {
				e.logger.Warn("accepting partial fill at deadline",
					"order_id", orderID, "filled", rep.FilledSize, "wanted", intent.Size)
				return terminal(StatusPartiallyFilled, rep), nil
			}

		case VenueOpen:
			if expired {
				if err := e.venue.CancelOrder(ctx, orderID); err != nil {
					e.logger.Warn("cancel after timeout failed",
						"order_id", orderID, "error", err)
				}
				return terminal(StatusTimedOut, rep), nil
			}

		default:
			return Outcome{}, fmt.Errorf("%w: venue reported unknown status %q for order %s",
				ErrExecutionFailed, rep.Status, orderID)
		}

		if err := e.clock.Sleep(ctx, e.cfg.PollInterval); err != nil {
			return Outcome{}, err
		}
	}
}

func (e *Executor) submit(ctx context.Context, intent OrderIntent) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		orderID, err := e.venue.PlaceOrder(ctx, intent)
		if err == nil {
			return orderID, nil
		}
		lastErr = err
		e.logger.Warn("order placement failed",
			"market_id", intent.MarketID, "attempt", attempt,
			"max", e.cfg.MaxRetries, "error", err)

		if attempt < e.cfg.MaxRetries {
			if serr := e.clock.Sleep(ctx, e.cfg.RetryBackoff); serr != nil {
				return "", serr
			}
		}
	}
	return "", fmt.Errorf("%w: submit after %d attempts: %v",
		ErrExecutionFailed, e.cfg.MaxRetries, lastErr)
}

func (e *Executor) poll(ctx context.Context, orderID string) (StatusReport, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxRetries; attempt++ {
		rep, err := e.venue.OrderStatus(ctx, orderID)
		if err == nil {
			return rep, nil
		}
		lastErr = err
		e.logger.Warn("status poll failed",
			"order_id", orderID, "attempt", attempt,
			"max", e.cfg.MaxRetries, "error", err)

		if attempt < e.cfg.MaxRetries {
			if serr := e.clock.Sleep(ctx, e.cfg.RetryBackoff); serr != nil {
				return StatusReport{}, serr
			}
		}
	}
	return StatusReport{}, fmt.Errorf("%w: poll order %s after %d attempts: %v",
		ErrExecutionFailed, orderID, e.cfg.MaxRetries, lastErr)
}
