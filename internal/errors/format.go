package errors

import (
	"encoding/json"
	"net/http"
)

// jsonError is the JSON body returned to HTTP clients.
type jsonError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// StatusFor maps an error to the HTTP status the routing layer responds with.
func StatusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}

	switch GetCategory(err) {
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryConflict:
		return http.StatusConflict
	case CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// FormatJSON returns the HTTP body for err.
// Non-shardex errors are wrapped as internal errors.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	se, ok := As(err)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}

	return json.Marshal(jsonError{
		Message: se.Message,
		Code:    se.Code,
	})
}

// FormatForLog formats an error for structured logging.
// Returns key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	se, ok := As(err)
	if !ok {
		return map[string]any{
			"error": err.Error(),
		}
	}

	result := map[string]any{
		"error_code": se.Code,
		"message":    se.Message,
		"category":   string(se.Category),
	}

	if se.Cause != nil {
		result["cause"] = se.Cause.Error()
	}

	for k, v := range se.Details {
		result["detail_"+k] = v
	}

	return result
}
