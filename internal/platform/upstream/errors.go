package upstream

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// FieldError is a normalized, user-displayable error tied to a single form
// field. Field is empty for non-field errors.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error is the normalized failure returned by Client. It covers both
// transport failures (Transport true, Status 0) and HTTP error responses
// (Status set, Fields populated from the backend envelope).
type Error struct {
	Op        string
	Status    int
	Transport bool
	Message   string
	Fields    []FieldError
	Err       error
}

// AsError unwraps err into a *Error when possible.
func AsError(err error) (*Error, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// The backend emits at least seven differently shaped error envelopes.
// envelope covers all of them at once; Normalize picks whichever fields are
// populated, in a fixed precedence order, so every caller sees one shape.
type envelope struct {
	FieldErrors    map[string][]string `json:"field_errors"`
	Detail         string              `json:"detail"`
	Message        string              `json:"message"`
	NonFieldErrors []string            `json:"non_field_errors"`
	Error          *nestedError        `json:"error"`
}

type nestedError struct {
	Message string              `json:"message"`
	Details map[string][]string `json:"details"`
}

const genericMessage = "The request could not be completed."

// Normalize collapses a backend error body into a single display message and
// a flat list of field errors. Recognized envelopes, in precedence order:
//
//  1. {"field_errors": {"email": ["taken"]}}
//  2. {"error": {"message": "...", "details": {"dob": ["invalid"]}}}
//  3. {"non_field_errors": ["Invalid credentials"]}
//  4. {"detail": "Not found."}
//  5. {"message": "..."}
//  6. direct per-field arrays: {"email": ["invalid"], "password": ["too short"]}
//  7. any other body (including non-JSON) falls back to a generic message.
func Normalize(body []byte) (string, []FieldError) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return genericMessage, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if len(env.FieldErrors) > 0 {
			fields := flattenFieldMap(env.FieldErrors)
			return firstMessage(env.Detail, env.Message, fields[0].Message), fields
		}
		if env.Error != nil && (env.Error.Message != "" || len(env.Error.Details) > 0) {
			fields := flattenFieldMap(env.Error.Details)
			msg := env.Error.Message
			if msg == "" && len(fields) > 0 {
				msg = fields[0].Message
			}
			return firstMessage(msg), fields
		}
		if len(env.NonFieldErrors) > 0 {
			return env.NonFieldErrors[0], nil
		}
		if env.Detail != "" {
			return env.Detail, nil
		}
		if env.Message != "" {
			return env.Message, nil
		}
	}

	// Direct per-field arrays: the whole object is a field->messages map.
	var direct map[string][]string
	if err := json.Unmarshal(body, &direct); err == nil && len(direct) > 0 {
		fields := flattenFieldMap(direct)
		if len(fields) > 0 {
			return fields[0].Message, fields
		}
	}

	// A bare JSON string is its own message.
	var s string
	if err := json.Unmarshal(body, &s); err == nil && s != "" {
		return s, nil
	}

	return genericMessage, nil
}

// flattenFieldMap converts a field->messages map into a sorted flat list,
// one entry per message. Sorting keeps output deterministic for tests and
// for stable rendering.
func flattenFieldMap(m map[string][]string) []FieldError {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []FieldError
	for _, k := range keys {
		for _, msg := range m[k] {
			if msg == "" {
				continue
			}
			out = append(out, FieldError{Field: k, Message: msg})
		}
	}
	return out
}

func firstMessage(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return genericMessage
}
