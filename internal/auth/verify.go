package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CodeBanned is the reason code for a suspended account.
const CodeBanned = "banned"

// Result is the auth service's verdict on a token.
type Result struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
}

// Banned reports whether the token belongs to a suspended account.
func (r Result) Banned() bool {
	return !r.Success && r.Code == CodeBanned
}

// TokenVerifier checks a token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Result, error)
}

// HTTPVerifier POSTs {"token": ...} to a verification endpoint and decodes
// {"success": bool, "code": string}. With no URL configured any non-empty
// token is accepted.
type HTTPVerifier struct {
	url       string
	client    *http.Client
	userAgent string
}

// NewHTTPVerifier creates a verifier for url. A nil client gets a 15s
// timeout.
func NewHTTPVerifier(url string, client *http.Client, userAgent string) *HTTPVerifier {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPVerifier{url: url, client: client, userAgent: userAgent}
}

// Verify asks the service about token. Transport failures and unexpected
// responses are errors; a rejected token is a Result with Success false.
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (Result, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Code: "empty"}, nil
	}
	if v.url == "" {
		return Result{Success: true}, nil
	}

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if v.userAgent != "" {
		req.Header.Set("User-Agent", v.userAgent)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("verify token: %w", err)
	}
	defer resp.Body.Close()

	// Rejections may come back as 4xx with a JSON verdict; only a body we
	// cannot read as a verdict is an error.
	var result Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&result); err != nil {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return Result{}, fmt.Errorf("verify token: unexpected status %d", resp.StatusCode)
		}
		return Result{}, fmt.Errorf("decode verify response: %w", err)
	}
	return result, nil
}
