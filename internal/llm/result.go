/*
Package llm talks to the text-generation provider. A call either yields a
parsed JSON value or a definitive failure reason; callers never receive a
partially trusted response.
*/
package llm

import "errors"

// FailureReason classifies why a call produced no usable JSON.
type FailureReason string

const (
	ReasonNoAPIKey      FailureReason = "no_api_key"
	ReasonHTTPError     FailureReason = "http_error"
	ReasonMalformedJSON FailureReason = "malformed_json"
	ReasonMissingKey    FailureReason = "missing_expected_key"
)

var (
	// ErrNoAPIKey means no provider credential is configured.
	ErrNoAPIKey = errors.New("llm provider credential not configured")
	// ErrUpstream covers transport errors, timeouts and non-2xx responses.
	ErrUpstream = errors.New("llm provider request failed")
	// ErrMalformedJSON means the message content did not decode as JSON.
	ErrMalformedJSON = errors.New("llm response is not valid json")
)

// Result is the tagged outcome of a provider call.
type Result struct {
	// Value holds the decoded content: map[string]any or []any.
	Value  any
	Reason FailureReason
	Err    error
}

func Success(v any) Result {
	return Result{Value: v}
}

func Failure(reason FailureReason, err error) Result {
	return Result{Reason: reason, Err: err}
}

// OK reports whether the call succeeded.
func (r Result) OK() bool {
	return r.Reason == "" && r.Value != nil
}
