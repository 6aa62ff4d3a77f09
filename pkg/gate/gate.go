// Package gate receives a form submission, checks it and writes it to Airtable.
package gate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/UKHomeOffice/formgate/internal/config"
	"github.com/UKHomeOffice/formgate/pkg/airtable"
)

const previewLen = 64

// Handler represents the handler type
type Handler struct {
	params config.ParamStore
	log    zerolog.Logger
	newID  func() string
}

// NewHandler returns a new Handler. ps may be nil when the credential is
// never read from SSM.
func NewHandler(ps config.ParamStore, log zerolog.Logger) *Handler {
	return &Handler{params: ps, log: log, newID: uuid.NewString}
}

// Handle deals with the incoming request. Every outcome is a response; the
// returned error is always nil.
func (h *Handler) Handle(ctx context.Context, s config.Settings, request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	traceID := h.newID()
	log := h.log.With().Str("trace_id", traceID).Logger()
	hdr := headers(s.CORSOrigin, traceID)

	method := strings.ToUpper(request.HTTPMethod)
	log.Info().
		Str("phase", string(PhaseCheckMethod)).
		Str("method", method).
		Str("path", request.Path).
		Msg("request received")

	switch method {
	case http.MethodOptions:
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    hdr,
		}, nil
	case http.MethodPost:
	default:
		hdr["Allow"] = allowedMethods
		f := &Failure{
			Kind:   KindMethodNotAllowed,
			Phase:  PhaseCheckMethod,
			Detail: "use POST",
		}
		logFailure(log, f)
		return respondFailure(f, hdr, traceID), nil
	}

	record, f := h.submit(ctx, log, s, request)
	if f != nil {
		logFailure(log, f)
		return respondFailure(f, hdr, traceID), nil
	}

	log.Info().Bool("record", record != nil).Msg("submission stored")
	return respondSuccess(record, hdr, traceID), nil
}

// submit runs a POST through the pipeline and returns the created record
func (h *Handler) submit(ctx context.Context, log zerolog.Logger, s config.Settings, request *events.APIGatewayProxyRequest) (json.RawMessage, *Failure) {

	body, f := readBody(request)
	if f != nil {
		return nil, f
	}
	log.Info().
		Str("phase", string(PhaseParseBody)).
		Int("bytes", len(body)).
		Bool("base64", request.IsBase64Encoded).
		Msg("body read")

	sub, f := parseSubmission(body)
	if f != nil {
		return nil, f
	}

	log.Info().
		Str("phase", string(PhaseValidatePayload)).
		Str("name", preview(sub.Name, previewLen)).
		Str("email", preview(sub.Email, previewLen)).
		Str("company", preview(sub.Company, previewLen)).
		Msg("payload parsed")

	if f := sub.check(); f != nil {
		return nil, f
	}

	if f := h.checkSettings(ctx, log, &s); f != nil {
		return nil, f
	}

	return h.create(ctx, log, s, sub)
}

// checkSettings resolves and validates what is needed to call Airtable
func (h *Handler) checkSettings(ctx context.Context, log zerolog.Logger, s *config.Settings) *Failure {

	fromSSM := s.APIKey == "" && s.APIKeyParam != ""
	err := s.ResolveCredential(ctx, h.params)
	if err == nil {
		err = s.Validate()
	}

	log.Info().
		Str("phase", string(PhaseValidateEnv)).
		Str("api_key", Mask(s.APIKey)).
		Bool("api_key_from_ssm", fromSSM).
		Str("base_id", s.BaseID).
		Str("table", s.Table).
		Msg("settings read")

	if err == nil {
		return nil
	}

	var ce *config.Error
	if errors.As(err, &ce) && ce.Setting == config.SettingStore {
		return &Failure{
			Kind:   KindInvalidStore,
			Phase:  PhaseValidateEnv,
			Detail: ce.Reason,
			Hints:  storeHints,
		}
	}
	if ce != nil {
		return &Failure{
			Kind:   KindInvalidCredential,
			Phase:  PhaseValidateEnv,
			Detail: ce.Reason,
			Hints:  credentialHints,
		}
	}

	return &Failure{
		Kind:   KindInvalidCredential,
		Phase:  PhaseValidateEnv,
		Detail: err.Error(),
		Hints:  credentialHints,
	}
}

// create makes the single outbound call to Airtable
func (h *Handler) create(ctx context.Context, log zerolog.Logger, s config.Settings, sub Submission) (json.RawMessage, *Failure) {

	c, err := airtable.NewClient(s.APIURL, s.Timeout)
	if err != nil {
		return nil, &Failure{
			Kind:   KindTransportError,
			Phase:  PhaseAirtableFetch,
			Detail: err.Error(),
			Hints:  transportHints,
		}
	}

	log.Info().
		Str("phase", string(PhaseAirtableFetch)).
		Str("path", airtable.RecordsPath(s.BaseID, s.Table)).
		Msg("creating record")

	res, err := c.CreateRecord(ctx, s.BaseID, s.Table, s.APIKey, sub.fields())
	if err != nil {
		return nil, &Failure{
			Kind:   KindTransportError,
			Phase:  PhaseAirtableFetch,
			Detail: err.Error(),
			Hints:  transportHints,
		}
	}

	log.Info().
		Str("phase", string(PhaseAirtableResponse)).
		Int("status", res.StatusCode).
		Str("body", preview(string(res.Body), 500)).
		Msg("Airtable replied")

	if !res.OK() {
		return nil, &Failure{
			Kind:     KindUpstreamError,
			Phase:    PhaseAirtableResponse,
			Detail:   string(res.Body),
			Hints:    upstreamHints,
			Upstream: res.StatusCode,
		}
	}

	return firstRecord(res.Body), nil
}

func logFailure(log zerolog.Logger, f *Failure) {
	log.Warn().
		Str("phase", string(f.Phase)).
		Str("kind", string(f.Kind)).
		Int("status", f.StatusCode()).
		Str("detail", preview(f.Detail, 500)).
		Msg("submission rejected")
}
