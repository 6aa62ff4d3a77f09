package gate

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"
)

// TraceHeader carries the trace id back to the caller
const TraceHeader = "X-Trace-Id"

const allowedMethods = "POST, OPTIONS"

type success struct {
	OK      bool            `json:"ok"`
	Record  json.RawMessage `json:"record"`
	TraceID string          `json:"traceId"`
}

type failure struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error"`
	Where   Phase    `json:"where"`
	Detail  string   `json:"detail,omitempty"`
	Hints   []string `json:"hints,omitempty"`
	Status  int      `json:"status,omitempty"`
	TraceID string   `json:"traceId"`
}

// headers returns the headers sent on every response
func headers(origin, traceID string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  origin,
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": allowedMethods,
		TraceHeader:                    traceID,
	}
}

func respond(status int, hdr map[string]string, v interface{}) events.APIGatewayProxyResponse {

	hdr["Content-Type"] = "application/json"

	b, err := json.Marshal(v)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    hdr,
			Body:       `{"ok":false,"error":"internal_error","where":"respond","traceId":"` + hdr[TraceHeader] + `"}`,
		}
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    hdr,
		Body:       string(b),
	}
}

func respondFailure(f *Failure, hdr map[string]string, traceID string) events.APIGatewayProxyResponse {
	return respond(f.StatusCode(), hdr, failure{
		Error:   f.Code(),
		Where:   f.Phase,
		Detail:  f.Detail,
		Hints:   f.Hints,
		Status:  f.Upstream,
		TraceID: traceID,
	})
}

func respondSuccess(record json.RawMessage, hdr map[string]string, traceID string) events.APIGatewayProxyResponse {
	return respond(http.StatusOK, hdr, success{
		OK:      true,
		Record:  record,
		TraceID: traceID,
	})
}

// firstRecord returns records[0] of an Airtable reply, or nil when the reply
// is not JSON or has no records.
func firstRecord(body []byte) json.RawMessage {
	if !gjson.ValidBytes(body) {
		return nil
	}
	r := gjson.GetBytes(body, "records.0")
	if !r.Exists() {
		return nil
	}
	return json.RawMessage(r.Raw)
}

// Mask hides all but the first and last four characters of a secret.
// Secrets too short to keep anything hidden are masked completely.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// preview shortens s to at most n runes for logging
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
