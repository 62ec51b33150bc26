package log

import (
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

const (
	ErrAttrKey = "error"
)

// warningFields flattens a structured warning into log fields using its
// zerolog object marshaler when it has one.
func warningFields(w error) []any {
	m, ok := w.(zerolog.LogObjectMarshaler)
	if !ok {
		return []any{ErrorTypeKey, "warning"}
	}
	return []any{"warning", m}
}

func extractStacktrace(err error) string {
	safeDetails := errors.GetSafeDetails(err).SafeDetails
	if len(safeDetails) > 0 {
		return safeDetails[0]
	}
	return ""
}
