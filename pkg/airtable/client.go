// Package airtable makes record creation calls to the Airtable REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"time"
)

// DefaultURL is the public Airtable API host
const DefaultURL = "https://api.airtable.com"

// Client is a HTTP client
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client
}

// Fields are the columns written for one submission
type Fields struct {
	Name    string `json:"Name"`
	Email   string `json:"Email"`
	Company string `json:"Company"`
}

// Record wraps the fields of a single record
type Record struct {
	Fields Fields `json:"fields"`
}

// CreateRequest is the JSON expected by the create records endpoint
type CreateRequest struct {
	Records []Record `json:"records"`
}

// Response is what Airtable replied with
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient returns a Client for the given API host
func NewClient(base string, timeout time.Duration) (*Client, error) {

	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("could not parse Airtable URL: %v", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("Airtable URL is not absolute: %q", base)
	}

	return &Client{
		BaseURL:    u,
		HTTPClient: &http.Client{Timeout: timeout},
	}, nil
}

// RecordsPath returns the relative path of a table's records endpoint
func RecordsPath(baseID, table string) string {
	return "v0/" + url.PathEscape(baseID) + "/" + url.PathEscape(table)
}

// NewRequest creates a HTTP request
func (c *Client) NewRequest(ctx context.Context, path, token string, body []byte) (*http.Request, error) {

	p, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := c.BaseURL.ResolveReference(p)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	return req, nil
}

// Do makes a HTTP request
func (c *Client) Do(req *http.Request) (*http.Response, error) {

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, err
}

// CreateRecord writes one record to the given base and table. Any non-nil
// error means Airtable was not reached or its reply could not be read; an
// unsuccessful status is reported through Response instead.
func (c *Client) CreateRecord(ctx context.Context, baseID, table, token string, f Fields) (Response, error) {

	out, err := json.Marshal(CreateRequest{Records: []Record{{Fields: f}}})
	if err != nil {
		return Response{}, fmt.Errorf("could not marshal Airtable payload: %v", err)
	}

	req, err := c.NewRequest(ctx, RecordsPath(baseID, table), token, out)
	if err != nil {
		return Response{}, fmt.Errorf("could not make request: %v", err)
	}

	res, err := c.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("could not call Airtable: %v", err)
	}
	defer res.Body.Close()

	body, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return Response{StatusCode: res.StatusCode}, fmt.Errorf("could not read Airtable response body: %v", err)
	}

	return Response{StatusCode: res.StatusCode, Body: body}, nil
}
