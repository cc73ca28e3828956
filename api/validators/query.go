package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/HasashiDaaku/ledger-tycoon-erp/pkg/errors"
)

// ParseQueryID reads a required positive integer id from the query string.
func ParseQueryID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").
			WithDetails(map[string]any{"field": key})
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a positive id").
			WithDetails(map[string]any{"field": key})
	}
	return value, nil
}

// ParseOptionalQueryID reads an optional positive integer id, returning 0
// when the parameter is absent.
func ParseOptionalQueryID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	return ParseQueryID(r, key)
}
