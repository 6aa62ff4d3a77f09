package devserver

import (
	"context"
	"encoding/base64"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/UKHomeOffice/formgate/internal/config"
	"github.com/UKHomeOffice/formgate/pkg/gate"
)

type fakeInvoker struct {
	got *events.APIGatewayProxyRequest
	res events.APIGatewayProxyResponse
	err error
}

func (f *fakeInvoker) Handle(ctx context.Context, s config.Settings, req *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	f.got = req
	return f.res, f.err
}

func TestRouter(t *testing.T) {

	tt := []struct {
		name   string
		method string
		target string
		body   string
		res    events.APIGatewayProxyResponse
		err    error
		code   int
		reply  string
		header string
		base64 bool
		query  map[string]string
	}{
		{name: "post", method: "POST", target: "/.netlify/functions/gate", body: `{"name":"Ada"}`,
			res: events.APIGatewayProxyResponse{StatusCode: 200, Headers: map[string]string{"X-Trace-Id": "t1"}, Body: `{"ok":true}`},
			code: 200, reply: `{"ok":true}`, header: "t1", query: map[string]string{}},
		{name: "query", method: "OPTIONS", target: "/?a=1&a=2&b=3",
			res: events.APIGatewayProxyResponse{StatusCode: 200},
			code: 200, query: map[string]string{"a": "2", "b": "3"}},
		{name: "binary body", method: "POST", target: "/", body: "\xff\xfe",
			res: events.APIGatewayProxyResponse{StatusCode: 400, Body: "no"},
			code: 400, reply: "no", base64: true, query: map[string]string{}},
		{name: "base64 reply", method: "POST", target: "/", body: "{}",
			res: events.APIGatewayProxyResponse{StatusCode: 201, Body: base64.StdEncoding.EncodeToString([]byte("hello")), IsBase64Encoded: true},
			code: 201, reply: "hello", query: map[string]string{}},
		{name: "handler error", method: "POST", target: "/", body: "{}",
			err: errors.New("boom"),
			code: 502, reply: "boom\n", query: map[string]string{}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			f := &fakeInvoker{res: tc.res, err: tc.err}
			srv := httptest.NewServer(NewRouter(f, zerolog.Nop()))
			defer srv.Close()

			req, err := http.NewRequest(tc.method, srv.URL+tc.target, strings.NewReader(tc.body))
			if err != nil {
				t.Fatalf("could not make request: %v", err)
			}
			req.Header.Set("Content-Type", "application/json")

			res, err := http.DefaultClient.Do(req)
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			defer res.Body.Close()

			b, err := ioutil.ReadAll(res.Body)
			if err != nil {
				t.Fatalf("could not read body: %v", err)
			}

			if res.StatusCode != tc.code {
				t.Errorf("expected %v, got %v", tc.code, res.StatusCode)
			}
			if string(b) != tc.reply {
				t.Errorf("expected %q, got %q", tc.reply, string(b))
			}
			if h := res.Header.Get("X-Trace-Id"); h != tc.header {
				t.Errorf("expected header %q, got %q", tc.header, h)
			}

			if f.got == nil {
				t.Fatal("handler not called")
			}
			if f.got.HTTPMethod != tc.method {
				t.Errorf("expected %v, got %v", tc.method, f.got.HTTPMethod)
			}
			if f.got.IsBase64Encoded != tc.base64 {
				t.Errorf("expected base64 %v, got %v", tc.base64, f.got.IsBase64Encoded)
			}
			body := f.got.Body
			if tc.base64 {
				d, err := base64.StdEncoding.DecodeString(body)
				if err != nil {
					t.Fatalf("could not decode body: %v", err)
				}
				body = string(d)
			}
			if body != tc.body {
				t.Errorf("expected body %q, got %q", tc.body, body)
			}
			if ct := f.got.Headers["Content-Type"]; ct != "application/json" {
				t.Errorf("wrong content type: %v", ct)
			}
			if f.got.RequestContext.RequestID == "" {
				t.Error("missing request id")
			}
			if diff := cmp.Diff(tc.query, f.got.QueryStringParameters); diff != "" {
				t.Errorf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRouterGateway(t *testing.T) {

	sent := make(chan string, 1)
	airtableSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := ioutil.ReadAll(r.Body)
		sent <- string(b)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"records":[{"id":"recA"}]}`))
	}))
	defer airtableSrv.Close()

	t.Setenv("AIRTABLE_API_KEY", "pat_1234567890")
	t.Setenv("AIRTABLE_API_KEY_PARAM", "")
	t.Setenv("AIRTABLE_BASE_ID", "app123")
	t.Setenv("AIRTABLE_TABLE", "")
	t.Setenv("AIRTABLE_API_URL", airtableSrv.URL)
	t.Setenv("AIRTABLE_TIMEOUT", "")
	t.Setenv("CORS_ORIGIN", "https://example.com")

	srv := httptest.NewServer(NewRouter(gate.NewHandler(nil, zerolog.Nop()), zerolog.Nop()))
	defer srv.Close()

	res, err := http.Post(srv.URL+"/", "application/json", strings.NewReader(`{"name":"Ada","email":"a@x.com","company":"Acme"}`))
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	defer res.Body.Close()

	b, _ := ioutil.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %v: %s", res.StatusCode, b)
	}
	if o := res.Header.Get("Access-Control-Allow-Origin"); o != "https://example.com" {
		t.Errorf("wrong origin header: %v", o)
	}
	if id := gjson.GetBytes(b, "record.id").Str; id != "recA" {
		t.Errorf("expected recA, got %q", id)
	}

	want := `{"records":[{"fields":{"Name":"Ada","Email":"a@x.com","Company":"Acme"}}]}`
	if got := <-sent; got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}
