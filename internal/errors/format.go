package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
)

// asSiftError returns the first SiftError in the chain, wrapping plain
// errors as internal errors.
func asSiftError(err error) *SiftError {
	var se *SiftError
	if stderrors.As(err, &se) {
		return se
	}
	return Wrap(ErrCodeInternal, err)
}

// FormatForCLI formats an error for terminal output.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	se := asSiftError(err)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", se.Message))
	if se.Cause != nil && se.Cause.Error() != se.Message {
		sb.WriteString(fmt.Sprintf("  Cause: %v\n", se.Cause))
	}
	if se.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  Hint: %s\n", se.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  Code: %s\n", se.Code))

	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	se := asSiftError(err)
	je := jsonError{
		Code:       se.Code,
		Message:    se.Message,
		Category:   string(se.Category),
		Severity:   string(se.Severity),
		Details:    se.Details,
		Suggestion: se.Suggestion,
		Retryable:  se.Retryable,
	}
	if se.Cause != nil {
		je.Cause = se.Cause.Error()
	}

	return json.Marshal(je)
}

// LogAttrs returns key-value pairs suitable for slog.With or slog attributes.
func LogAttrs(err error) []any {
	if err == nil {
		return nil
	}

	var se *SiftError
	if !stderrors.As(err, &se) {
		return []any{"error", err.Error()}
	}

	attrs := []any{"error_code", se.Code, "error", se.Message}
	if se.Cause != nil {
		attrs = append(attrs, "cause", se.Cause.Error())
	}
	return attrs
}
