// Package client talks to the credential service over HTTP.
//
// Every call is a single attempt bounded by Options.Timeout. Replies are
// translated back into the error types of the credentials package, so
// callers can use errors.As regardless of which side of the wire produced
// them.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andrebq/credbox/credentials"
	"github.com/andrebq/credbox/internal/logutil"
)

const (
	DefaultTimeout = 5 * time.Second

	maxReply = 1 << 20
)

type (
	Options struct {
		// Timeout bounds each call, DefaultTimeout when zero
		Timeout time.Duration
		// TLS is used for https base urls, nil means system defaults
		TLS *tls.Config
	}

	Client struct {
		base *url.URL
		http *http.Client
	}
)

func New(base *url.URL, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.TLS != nil {
		transport.TLSClientConfig = opts.TLS
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			// a 303 is an answer, not a place to go
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Create registers id and returns the token issued by the service.
func (c *Client) Create(ctx context.Context, id, password string, profile json.RawMessage) (string, error) {
	u := c.userURL(id)
	u.RawQuery = url.Values{"pw": []string{password}}.Encode()
	req, err := http.NewRequestWithContext(ctx, "PUT", u.String(), bytes.NewReader(profile))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", replyError(id, status, body)
	}
	return tokenFrom(body)
}

// Authenticate exchanges id and password for a fresh token.
func (c *Client) Authenticate(ctx context.Context, id, password string) (string, error) {
	buf, err := json.Marshal(credentials.AuthRequest{Password: password})
	if err != nil {
		return "", err
	}
	u := c.userURL(id, "auth")
	req, err := http.NewRequestWithContext(ctx, "PUT", u.String(), bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	body, status, err := c.do(req)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", replyError(id, status, body)
	}
	return tokenFrom(body)
}

// Fetch returns the raw profile of id.
func (c *Client) Fetch(ctx context.Context, id, token string) (json.RawMessage, error) {
	u := c.userURL(id)
	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	body, status, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, replyError(id, status, body)
	}
	if !json.Valid(body) {
		return nil, credentials.NewUnavailable(status, false, errors.New("profile is not valid json"))
	}
	return json.RawMessage(body), nil
}

func (c *Client) userURL(id string, extra ...string) *url.URL {
	u := *c.base
	u.RawQuery = ""
	u.Fragment = ""
	path := strings.TrimSuffix(u.Path, "/") + "/users/" + id
	rawPath := strings.TrimSuffix(u.EscapedPath(), "/") + "/users/" + url.PathEscape(id)
	for _, e := range extra {
		path += "/" + e
		rawPath += "/" + url.PathEscape(e)
	}
	u.Path, u.RawPath = path, rawPath
	return &u
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	log := logutil.GetOrDefault(req.Context())
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Str("path", req.URL.Path).Msg("Credential service call failed")
		return nil, 0, credentials.NewUnavailable(0, isTimeout(err), err)
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, maxReply))
	if err != nil {
		return nil, res.StatusCode, credentials.NewUnavailable(res.StatusCode, isTimeout(err), err)
	}
	log.Debug().Str("method", req.Method).Str("path", req.URL.Path).Int("status", res.StatusCode).Dur("duration", time.Since(start)).Msg("Credential service replied")
	return body, res.StatusCode, nil
}

func replyError(id string, status int, body []byte) error {
	var reply credentials.Reply
	// plain text bodies (400, 500) leave reply empty
	_ = json.Unmarshal(body, &reply)
	switch status {
	case http.StatusSeeOther:
		return credentials.Conflict{ID: id, Info: reply.Info}
	case http.StatusBadRequest:
		return credentials.InvalidInput{Field: "request", Reason: strings.TrimSpace(string(body))}
	case http.StatusUnauthorized:
		return credentials.Unauthorized{ID: id, Info: reply.Info}
	case http.StatusNotFound:
		return credentials.NotFound{ID: id, Info: reply.Info}
	}
	return credentials.NewUnavailable(status, false, nil)
}

func tokenFrom(body []byte) (string, error) {
	var reply credentials.Reply
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", credentials.NewUnavailable(0, false, fmt.Errorf("unable to decode reply, cause %w", err))
	}
	if reply.AuthToken == "" {
		return "", credentials.NewUnavailable(0, false, errors.New("reply without authToken"))
	}
	return reply.AuthToken, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}
