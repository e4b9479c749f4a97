package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/aq2208/gorder-seed/internal/logging"
	"github.com/aq2208/gorder-seed/internal/usecase"
)

type Runner interface {
	Execute(ctx context.Context, p usecase.Params) (usecase.RunReport, error)
}

// RunRequestHandler executes queued run requests, intended to be used with
// JSONHandler[usecase.RunRequest]. Only lock contention is handed back for requeue.
type RunRequestHandler struct {
	Runner   Runner
	Defaults usecase.Params
}

func NewRunRequestHandler(r Runner, defaults usecase.Params) *RunRequestHandler {
	return &RunRequestHandler{Runner: r, Defaults: defaults}
}

func (h *RunRequestHandler) HandleRunRequest(ctx context.Context, req usecase.RunRequest) error {
	p, err := req.Params(h.Defaults)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	rep, err := h.Runner.Execute(ctx, p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, usecase.ErrRunInProgress):
		// nothing was written; the request can run once the lock frees
		return err
	case usecase.IsPrecondition(err):
		logging.FromCtx(ctx).Warn("queued run skipped orders", "run_id", rep.RunID, "error", err)
		return nil
	default:
		// earlier stages may have committed, so a redelivery would seed them twice
		logging.FromCtx(ctx).Error("queued run failed, not retried", "run_id", rep.RunID, "error", err)
		return nil
	}
}
