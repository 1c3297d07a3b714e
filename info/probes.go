package info

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type probePayload struct {
	State  string `json:"state"`
	Checks int    `json:"checks,omitempty"`
}

func (ih *InfoHandler) respondProbe(w http.ResponseWriter, r *http.Request, state string, checks int) {
	ih.RespondWithJSON(w, r, http.StatusOK, probePayload{State: state, Checks: checks})
}

// runChecks runs every probe under one shared deadline and joins the
// failures, so a readiness response names all unavailable dependencies.
func (ih *InfoHandler) runChecks(ctx context.Context, checks []ProbeFunc) error {
	if len(checks) == 0 {
		return nil
	}

	timeout := ih.probeTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}

	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	for idx, check := range checks {
		if check == nil {
			continue
		}
		if err := check(probeCtx); err != nil {
			errs = append(errs, describeProbeError(idx+1, timeout, err))
		}
	}
	return errors.Join(errs...)
}

func describeProbeError(n int, timeout time.Duration, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("probe %d timed out after %s", n, timeout)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("probe %d was cancelled", n)
	default:
		return fmt.Errorf("probe %d failed: %w", n, err)
	}
}

func filterProbes(checks []ProbeFunc) []ProbeFunc {
	if len(checks) == 0 {
		return nil
	}

	filtered := make([]ProbeFunc, 0, len(checks))
	for _, check := range checks {
		if check != nil {
			filtered = append(filtered, check)
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	return filtered
}
