// Package backend is the gateway to the PHP reporting backend. Every request
// goes through a per-session cookie jar so the backend's session cookie is
// carried implicitly; the client never inspects it.
package backend

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout applies to each request when NewClient gets none.
const DefaultTimeout = 15 * time.Second

const maxBodyBytes = 4 << 20

// Endpoints of the fixed backend contract.
const (
	pathReports     = "get_reports.php"
	pathUserDetails = "get_user_details.php"
	pathSubmit      = "submit_report.php"
	pathUpdateCalls = "update_calls.php"
	pathLogin       = "login_user.php"
	pathSignup      = "insert_user.php"
	pathUsers       = "get_users.php"
	pathAssignTask  = "assign_task.php"
	pathFilter      = "filter_reports.php"
)

var sharedTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        10,
	IdleConnTimeout:     30 * time.Second,
	TLSHandshakeTimeout: 5 * time.Second,
}

// Client talks to the backend on behalf of one UI session.
type Client struct {
	BaseURL    *url.URL
	HTTPClient *http.Client

	// ReportsPath is the report list endpoint; the map view of the original
	// client reads get_location.php, the dashboard get_reports.php.
	ReportsPath string
}

// NewClient creates a client with its own cookie jar. baseURL is the backend
// origin including the directory holding the PHP scripts.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse backend base URL")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("backend base URL %q is not absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "create cookie jar")
	}

	return &Client{
		BaseURL:     base,
		ReportsPath: pathReports,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Jar:       jar,
			Transport: sharedTransport,
		},
	}, nil
}

// ImageURL resolves a report image path against the backend origin.
func (c *Client) ImageURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	rel, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		log.Printf("[backend]: unusable image path %q: %v", path, err)
		return ""
	}
	if rel.IsAbs() {
		return rel.String()
	}
	return c.BaseURL.ResolveReference(rel).String()
}

// buildURL constructs the endpoint URL with query parameters.
func (c *Client) buildURL(endpoint string, queryParams interface{}) (string, error) {
	rel, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parse endpoint")
	}
	u := c.BaseURL.ResolveReference(rel)

	if queryParams != nil {
		v, err := query.Values(queryParams)
		if err != nil {
			return "", errors.Wrap(err, "encode query parameters")
		}
		u.RawQuery = v.Encode()
	}
	return u.String(), nil
}

func (c *Client) newGet(ctx context.Context, endpoint string, queryParams interface{}) (*http.Request, error) {
	reqURL, err := c.buildURL(endpoint, queryParams)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// newForm builds a URL-encoded POST from a struct with url tags.
func (c *Client) newForm(ctx context.Context, endpoint string, form interface{}) (*http.Request, error) {
	reqURL, err := c.buildURL(endpoint, nil)
	if err != nil {
		return nil, err
	}
	values, err := query.Values(form)
	if err != nil {
		return nil, errors.Wrap(err, "encode form")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes the request and returns the status code and the body.
// Transport failures come back as network errors.
func (c *Client) do(op string, req *http.Request) (int, []byte, error) {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, networkError(op, errors.Wrap(err, "execute HTTP request"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, networkError(op, errors.Wrap(err, "read response body"))
	}
	return resp.StatusCode, bytes.TrimSpace(body), nil
}

func success(code int) bool {
	return code >= 200 && code < 300
}
