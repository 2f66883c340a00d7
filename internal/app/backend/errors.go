// internal/app/backend/errors.go
package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GenericNetworkMessage is shown when a call could not complete at all.
const GenericNetworkMessage = "Network error. Please try again."

// APIError is a backend-reported failure: the call completed with a
// non-2xx status. Detail carries the backend's "detail" text when present.
type APIError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: backend returned %d", e.Op, e.StatusCode)
}

// TransportError is a request that could not complete (connection refused,
// DNS failure, reset, unreadable body).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message turns an error from this package into the text shown to a user.
// Backend details are passed through; everything else collapses into the
// generic network message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		return fmt.Sprintf("Request failed (status %d).", apiErr.StatusCode)
	}
	return GenericNetworkMessage
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// parseDetail extracts FastAPI's {"detail": ...}. Detail is either a string
// or a list of validation problems carrying "msg".
func parseDetail(body []byte) string {
	var env struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Detail) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(env.Detail, &s); err == nil {
		return s
	}

	var problems []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(env.Detail, &problems); err == nil {
		msgs := make([]string, 0, len(problems))
		for _, p := range problems {
			if p.Msg == "" {
				continue
			}
			if field := lastLoc(p.Loc); field != "" {
				msgs = append(msgs, field+": "+p.Msg)
			} else {
				msgs = append(msgs, p.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func lastLoc(loc []any) string {
	if len(loc) == 0 {
		return ""
	}
	if s, ok := loc[len(loc)-1].(string); ok && s != "body" && s != "query" {
		return s
	}
	return ""
}
