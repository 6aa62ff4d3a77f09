package gate

import (
	"fmt"
	"net/http"
)

// Kind classifies why a submission was not relayed
type Kind string

// Phase names the pipeline stage a log line or failure belongs to
type Phase string

// Failure kinds
const (
	KindMethodNotAllowed  Kind = "method_not_allowed"
	KindInvalidBody       Kind = "invalid_body"
	KindMissingField      Kind = "missing_field"
	KindInvalidCredential Kind = "invalid_config_credential"
	KindInvalidStore      Kind = "invalid_config_store"
	KindUpstreamError     Kind = "upstream_error"
	KindTransportError    Kind = "transport_error"
)

// Pipeline phases, in order
const (
	PhaseCheckMethod      Phase = "check_method"
	PhaseParseBody        Phase = "parse_body"
	PhaseValidatePayload  Phase = "validate_payload"
	PhaseValidateEnv      Phase = "validate_env"
	PhaseAirtableFetch    Phase = "airtable_fetch"
	PhaseAirtableResponse Phase = "airtable_response"
)

var statusCodes = map[Kind]int{
	KindMethodNotAllowed:  http.StatusMethodNotAllowed,
	KindInvalidBody:       http.StatusBadRequest,
	KindMissingField:      http.StatusBadRequest,
	KindInvalidCredential: http.StatusInternalServerError,
	KindInvalidStore:      http.StatusInternalServerError,
	KindUpstreamError:     http.StatusInternalServerError,
	KindTransportError:    http.StatusInternalServerError,
}

var (
	credentialHints = []string{
		`Set AIRTABLE_API_KEY to an Airtable personal access token (it starts with "pat")`,
		"Grant the token the data.records:write scope and access to the base",
		"Redeploy the function after changing environment variables",
	}
	storeHints = []string{
		`Set AIRTABLE_BASE_ID to the id of the base (it starts with "app")`,
		"Redeploy the function after changing environment variables",
	}
	upstreamHints = []string{
		"Check the table name in AIRTABLE_TABLE exists in the base",
		"Check the table has fields named Name, Email and Company",
		"Check the token has access to the base",
		"Check AIRTABLE_BASE_ID is the right base",
	}
	transportHints = []string{
		"Check the function can reach api.airtable.com",
		"Retry the request",
	}
)

// Failure is a submission that stopped at some phase. It is turned into a
// response once, at the edge of Handle.
type Failure struct {
	Kind   Kind
	Phase  Phase
	Detail string
	Hints  []string
	// Upstream is the Airtable status code, set for upstream errors only
	Upstream int
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%v at %v: %v", f.Kind, f.Phase, f.Detail)
}

// StatusCode is the HTTP status returned to the caller
func (f *Failure) StatusCode() int {
	if c, ok := statusCodes[f.Kind]; ok {
		return c
	}
	return http.StatusInternalServerError
}

// Code is the value of the error field in the response body
func (f *Failure) Code() string {
	if f.Kind == KindUpstreamError {
		return "airtable_error"
	}
	return string(f.Kind)
}
