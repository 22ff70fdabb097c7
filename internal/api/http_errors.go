package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// httpStatusForDomainError maps a domain error chain to an HTTP status.
// Wrapper categories (orchestrator, workflow, execution, internal) have no
// mapping of their own; the walk continues into their cause so that, for
// example, a task failure wrapping a provider-selection error surfaces as
// 503 and an agent-resolution failure surfaces as 404.
func httpStatusForDomainError(err error) (int, bool) {
	sawDomain := false

	for e := err; e != nil; e = errors.Unwrap(e) {
		domErr, ok := e.(*core.DomainError)
		if !ok {
			continue
		}
		sawDomain = true

		switch domErr.Category {
		case core.ErrCatValidation:
			return http.StatusUnprocessableEntity, true
		case core.ErrCatNotFound:
			return http.StatusNotFound, true
		case core.ErrCatConflict:
			return http.StatusConflict, true
		case core.ErrCatAuth:
			return http.StatusUnauthorized, true
		case core.ErrCatRateLimit:
			return http.StatusTooManyRequests, true
		case core.ErrCatTimeout:
			return http.StatusGatewayTimeout, true
		case core.ErrCatProvider:
			return http.StatusServiceUnavailable, true
		case core.ErrCatState:
			return http.StatusConflict, true
		}
	}

	if sawDomain {
		return http.StatusInternalServerError, true
	}
	return 0, false
}
