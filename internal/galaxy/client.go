// Package galaxy talks to a Galaxy server over its REST API and implements
// the engine contracts in internal/remote.
package galaxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dfornika/irida/internal/remote"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	apiKeyHeader   = "x-api-key"
	DefaultTimeout = 5 * time.Minute
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Method string
	Path   string
	Status int
	Msg    string
}

func (e *APIError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("galaxy %s %s: %d %s", e.Method, e.Path, e.Status, e.Msg)
	}
	return fmt.Sprintf("galaxy %s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is lets errors.Is(err, remote.ErrNotFound) match 404 answers.
func (e *APIError) Is(target error) bool {
	return target == remote.ErrNotFound && e.Status == http.StatusNotFound
}

type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	logger  zerolog.Logger
}

var _ remote.Engine = (*Client)(nil)

// New returns a client for the server at serverURL, e.g. http://localhost:8080.
func New(serverURL, apiKey string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse galaxy url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("galaxy url must include a scheme and host, e.g. `http://localhost:8080`")
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if apiKey == "" {
		return nil, errors.New("galaxy api key is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: u,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  log.With().Str("component", "galaxy").Str("server", u.Host).Logger(),
	}, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = u.Path + path
	return u.String()
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("galaxy request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, path, resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeError(method, path string, resp *http.Response) error {
	apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string `json:"err_msg"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Message != "" {
		apiErr.Msg = payload.Message
	} else {
		apiErr.Msg = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, "", nil, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(raw), out)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), out)
}

// postMultipart streams the file at filePath as fileField alongside fields.
func (c *Client) postMultipart(ctx context.Context, path string, fields map[string]string, fileField, filePath string, out any) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeMultipart(mw, fields, fileField, filepath.Base(filePath), f))
	}()

	err = c.do(ctx, http.MethodPost, path, mw.FormDataContentType(), pr, out)
	_ = pr.Close()
	return err
}

func writeMultipart(mw *multipart.Writer, fields map[string]string, fileField, fileName string, r io.Reader) error {
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile(fileField, fileName)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	return mw.Close()
}
