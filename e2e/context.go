package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TestContext holds per-scenario state and talks to a running treasury
// server.
type TestContext struct {
	BaseURL    string
	AdminToken string
	signingKey []byte
	issuer     string
	audience   string

	client     *http.Client
	status     int
	body       map[string]any
	remembered map[string]string
}

// NewTestContextFromEnv reads E2E_* variables. BaseURL is empty when the
// suite should be skipped.
func NewTestContextFromEnv() *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(os.Getenv("E2E_BASE_URL"), "/"),
		AdminToken: os.Getenv("E2E_ADMIN_TOKEN"),
		signingKey: []byte(envOr("E2E_JWT_SIGNING_KEY", "dev-secret-key-change-in-production")),
		issuer:     envOr("E2E_JWT_ISSUER", "treasury"),
		audience:   envOr("E2E_JWT_AUDIENCE", "treasury-api"),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Reset clears state between scenarios.
func (tc *TestContext) Reset() {
	tc.status = 0
	tc.body = nil
	tc.remembered = make(map[string]string)
}

// Account returns a per-scenario account name so reruns against the same
// server never collide.
func (tc *TestContext) Account(name string) string {
	key := "account:" + name
	if v, ok := tc.remembered[key]; ok {
		return v
	}
	v := name + "-" + uuid.NewString()[:8]
	tc.remembered[key] = v
	return v
}

func (tc *TestContext) Remember(key, value string) { tc.remembered[key] = value }
func (tc *TestContext) Recall(key string) string   { return tc.remembered[key] }

func (tc *TestContext) token(account string) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   account,
		Issuer:    tc.issuer,
		Audience:  []string{tc.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		ID:        uuid.NewString(),
	}).SignedString(tc.signingKey)
}

// Request calls the API as caller. An empty caller sends no token.
func (tc *TestContext) Request(ctx context.Context, method, path, caller string, body any) error {
	headers := map[string]string{}
	if caller != "" {
		token, err := tc.token(caller)
		if err != nil {
			return fmt.Errorf("sign token: %w", err)
		}
		headers["Authorization"] = "Bearer " + token
	}
	return tc.do(ctx, method, path, headers, body)
}

// AdminRequest calls an /admin route with the operator token.
func (tc *TestContext) AdminRequest(ctx context.Context, method, path string, body any) error {
	return tc.do(ctx, method, "/admin"+path, map[string]string{"X-Admin-Token": tc.AdminToken}, body)
}

func (tc *TestContext) do(ctx context.Context, method, path string, headers map[string]string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode
	tc.body = nil
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &tc.body); err != nil {
			return fmt.Errorf("decode %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (tc *TestContext) StatusCode() int { return tc.status }

// ResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	v, ok := tc.body[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q (status %d)", field, tc.status)
	}
	return v, nil
}
