// Package devserver serves the gateway over plain HTTP for local testing,
// translating requests into the proxy events the function receives when
// deployed.
package devserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/UKHomeOffice/formgate/internal/config"
)

// maxBody matches the synchronous Lambda payload limit
const maxBody = 6 << 20

// Invoker handles one proxy request
type Invoker interface {
	Handle(context.Context, config.Settings, *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// NewRouter routes every method and path to the gateway
func NewRouter(h Invoker, log zerolog.Logger) http.Handler {

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.HandleFunc("/*", func(w http.ResponseWriter, req *http.Request) {

		in, err := ToProxyRequest(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		s, err := config.Load()
		if err != nil {
			log.Warn().Err(err).Msg("settings partly ignored")
		}

		out, err := h.Handle(req.Context(), s, in)
		if err != nil {
			log.Error().Err(err).Msg("handler failed")
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}

		if err := WriteProxyResponse(w, out); err != nil {
			log.Error().Err(err).Msg("could not write response")
		}
	})

	return r
}

// ToProxyRequest converts a HTTP request to an API Gateway proxy event.
// Bodies that are not valid UTF-8 are base64 encoded.
func ToProxyRequest(r *http.Request) (*events.APIGatewayProxyRequest, error) {

	body, err := ioutil.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("could not read request body: %v", err)
	}
	if len(body) > maxBody {
		return nil, fmt.Errorf("request body larger than %v bytes", maxBody)
	}

	in := &events.APIGatewayProxyRequest{HTTPMethod: r.Method, Path: r.URL.Path}
	in.Headers = make(map[string]string, len(r.Header))
	in.MultiValueHeaders = make(map[string][]string, len(r.Header))
	in.QueryStringParameters = map[string]string{}
	in.MultiValueQueryStringParameters = map[string][]string{}
	in.RequestContext.RequestID = middleware.GetReqID(r.Context())
	in.RequestContext.HTTPMethod = r.Method

	for k, v := range r.Header {
		in.Headers[k] = strings.Join(v, ",")
		in.MultiValueHeaders[k] = v
	}
	for k, v := range r.URL.Query() {
		in.QueryStringParameters[k] = v[len(v)-1]
		in.MultiValueQueryStringParameters[k] = v
	}

	if utf8.Valid(body) {
		in.Body = string(body)
	} else {
		in.Body = base64.StdEncoding.EncodeToString(body)
		in.IsBase64Encoded = true
	}

	return in, nil
}

// WriteProxyResponse writes an API Gateway proxy response to w
func WriteProxyResponse(w http.ResponseWriter, res events.APIGatewayProxyResponse) error {

	for k, v := range res.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range res.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	body := []byte(res.Body)
	if res.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(res.Body)
		if err != nil {
			http.Error(w, "could not decode response body", http.StatusBadGateway)
			return err
		}
		body = b
	}

	status := res.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	_, err := w.Write(body)
	return err
}
