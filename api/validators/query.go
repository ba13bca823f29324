package validators

import (
	"net/http"
	"strings"

	"github.com/selvamresidency/hotel-backend/pkg/dates"
	pkgerrors "github.com/selvamresidency/hotel-backend/pkg/errors"
)

// ParseQueryDate reads a YYYY-MM-DD query parameter. An empty value returns
// fallback.
func ParseQueryDate(r *http.Request, key string, fallback dates.Date) (dates.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		if fallback.IsZero() {
			return dates.Date{}, pkgerrors.New(pkgerrors.CodeValidation, "query parameter is required").WithDetails(map[string]any{"field": key})
		}
		return fallback, nil
	}
	return ParseDate(key, raw)
}

// ParseDate parses raw as a calendar date and reports field on failure.
func ParseDate(field, raw string) (dates.Date, error) {
	d, err := dates.Parse(raw)
	if err != nil {
		return dates.Date{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": field, "value": raw})
	}
	return d, nil
}
