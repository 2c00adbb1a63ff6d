// Package trade submits paper trades and interprets the backend's
// authoritative result. It never mutates the local portfolio: the
// mirror only changes when the session receives a delta carrying the
// backend's recomputed book, which keeps fees, slippage and rejected
// orders from ever diverging client and server equity.
package trade

import (
	"context"
	"errors"
	"strings"
	"time"

	"SignalDesk/internal/domain/models"
	drepo "SignalDesk/internal/domain/repository"
	applogger "SignalDesk/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Executor brokers paper-trade submissions.
type Executor struct {
	backend  drepo.Backend
	metrics  drepo.Metrics
	log      *applogger.Logger
	validate *validator.Validate
}

// NewExecutor creates a trade executor.
func NewExecutor(backend drepo.Backend, metrics drepo.Metrics, log *applogger.Logger) *Executor {
	return &Executor{
		backend:  backend,
		metrics:  metrics,
		log:      log,
		validate: validator.New(),
	}
}

// Submit validates and sends one paper trade. Invalid input is rejected
// locally as a ValidationError without contacting the backend. On
// acceptance the returned string is the backend's confirmation message;
// on refusal the error is an ExecutionError carrying the backend's
// reason verbatim when it gave one. Concurrent submissions are
// independent; the backend is the sole arbiter of resulting holdings.
func (e *Executor) Submit(ctx context.Context, req models.TradeRequest) (string, error) {
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if side, err := models.TradeSideFromString(string(req.Side)); err == nil {
		req.Side = side
	}

	if err := e.validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return "", &models.ValidationError{Field: fe.Field(), Message: validationMessage(fe)}
		}
		return "", &models.ValidationError{Message: err.Error()}
	}

	// idempotency key; the observed protocol has none, so a retried
	// request after a timeout could double-execute without it
	req.RequestID = uuid.NewString()

	start := time.Now()
	res, err := e.backend.SubmitTrade(ctx, req)
	e.metrics.RecordLatency("trade_submit", time.Since(start).Seconds())
	if err != nil {
		e.metrics.RecordTrade(string(req.Side), false)
		e.log.Warn("trade rejected",
			applogger.String("symbol", req.Symbol),
			applogger.String("side", string(req.Side)),
			applogger.Error(err))
		var execErr *models.ExecutionError
		if errors.As(err, &execErr) {
			return "", execErr
		}
		return "", models.NewExecutionError("", err)
	}

	e.metrics.RecordTrade(string(req.Side), true)
	e.log.Info("trade accepted",
		applogger.String("symbol", req.Symbol),
		applogger.String("side", string(req.Side)),
		applogger.String("request_id", req.RequestID))
	return res.Message, nil
}

// ClosePosition sells (or buys back) the full current quantity of a
// holding. Not a distinct primitive: just a full-size order at the
// holding's mark price.
func (e *Executor) ClosePosition(ctx context.Context, h models.Holding, side models.TradeSide) (string, error) {
	return e.Submit(ctx, models.TradeRequest{
		Symbol:   h.Symbol,
		Side:     side,
		Quantity: h.Quantity,
		Price:    h.Price,
	})
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "failed validation: " + fe.Tag()
	}
}
