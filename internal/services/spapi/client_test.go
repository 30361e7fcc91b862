package spapi

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/models"
)

// testSimConfig returns a simulator config with no artificial latency.
func testSimConfig() common.SimulatorConfig {
	return common.SimulatorConfig{
		TokenTTL: time.Hour,
		Seed:     42,
	}
}

func testToken() *oauth2.Token {
	return &oauth2.Token{
		AccessToken: "Atza|test-token",
		TokenType:   "bearer",
		Expiry:      time.Now().Add(time.Hour),
	}
}

func mustEndpoint(t *testing.T, id string) models.Endpoint {
	t.Helper()
	ep, ok := models.EndpointByID(id)
	if !ok {
		t.Fatalf("Endpoint %s not in catalog", id)
	}
	return ep
}

func TestExchangeTokenFabricatesBearer(t *testing.T) {
	client, err := NewSimulatedClient(testSimConfig(), arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewSimulatedClient failed: %v", err)
	}

	creds := &models.Credentials{
		ClientID:     "amzn1.application-oa2-client.abc123",
		ClientSecret: "secret",
		RefreshToken: "Atzr|refresh",
	}

	token, err := client.ExchangeToken(context.Background(), creds)
	if err != nil {
		t.Fatalf("ExchangeToken failed: %v", err)
	}

	if !strings.HasPrefix(token.AccessToken, "Atza|") {
		t.Errorf("Access token missing Atza| prefix: %q", token.AccessToken)
	}
	if token.TokenType != "bearer" {
		t.Errorf("Expected bearer token type, got %q", token.TokenType)
	}
	if !token.Valid() {
		t.Error("Fabricated token should be valid")
	}
	remaining := time.Until(token.Expiry)
	if remaining < 50*time.Minute || remaining > 70*time.Minute {
		t.Errorf("Token TTL out of range: %v", remaining)
	}
}

func TestExchangeTokenRejectsIncompleteCredentials(t *testing.T) {
	client, err := NewSimulatedClient(testSimConfig(), arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewSimulatedClient failed: %v", err)
	}

	cases := []*models.Credentials{
		nil,
		{ClientSecret: "secret", RefreshToken: "r"},
		{ClientID: "id", RefreshToken: "r"},
		{ClientID: "id", ClientSecret: "secret"},
	}
	for i, creds := range cases {
		if _, err := client.ExchangeToken(context.Background(), creds); err == nil {
			t.Errorf("Case %d: expected rejection of incomplete credentials", i)
		}
	}
}

func TestFetchEndpointRequiresValidToken(t *testing.T) {
	client, err := NewSimulatedClient(testSimConfig(), arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewSimulatedClient failed: %v", err)
	}
	endpoint := mustEndpoint(t, models.EndpointOrders)

	_, err = client.FetchEndpoint(context.Background(), nil, endpoint)
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != 401 {
		t.Errorf("Expected 401 for nil token, got %v", err)
	}

	expired := &oauth2.Token{
		AccessToken: "Atza|stale",
		Expiry:      time.Now().Add(-time.Minute),
	}
	_, err = client.FetchEndpoint(context.Background(), expired, endpoint)
	if !errors.As(err, &reqErr) || reqErr.StatusCode != 401 {
		t.Errorf("Expected 401 for expired token, got %v", err)
	}
}

func TestFetchEndpointReturnsPayload(t *testing.T) {
	client, err := NewSimulatedClient(testSimConfig(), arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewSimulatedClient failed: %v", err)
	}

	payload, err := client.FetchEndpoint(context.Background(), testToken(), mustEndpoint(t, models.EndpointInventory))
	if err != nil {
		t.Fatalf("FetchEndpoint failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Payload is not valid JSON: %v", err)
	}
	if _, ok := decoded["payload"]; !ok {
		t.Error("Inventory payload missing envelope")
	}
}

func TestFetchEndpointUnknownEndpoint(t *testing.T) {
	client, err := NewSimulatedClient(testSimConfig(), arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewSimulatedClient failed: %v", err)
	}

	_, err = client.FetchEndpoint(context.Background(), testToken(), models.Endpoint{ID: "vendor-central", Path: "/vendor/orders"})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != 404 {
		t.Errorf("Expected 404 for unknown endpoint, got %v", err)
	}
}

func TestFailureInjection(t *testing.T) {
	config := testSimConfig()
	config.FailureRate = 1.0

	client, err := NewSimulatedClient(config, arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewSimulatedClient failed: %v", err)
	}

	_, err = client.FetchEndpoint(context.Background(), testToken(), mustEndpoint(t, models.EndpointOrders))
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("Expected RequestError, got %v", err)
	}
	if reqErr.StatusCode != 429 && reqErr.StatusCode != 503 {
		t.Errorf("Expected throttle or outage status, got %d", reqErr.StatusCode)
	}
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	config := testSimConfig()
	config.RateLimit = 50 * time.Millisecond
	config.RateBurst = 1

	client, err := NewSimulatedClient(config, arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewSimulatedClient failed: %v", err)
	}
	endpoint := mustEndpoint(t, models.EndpointSellers)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := client.FetchEndpoint(context.Background(), testToken(), endpoint); err != nil {
			t.Fatalf("FetchEndpoint %d failed: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// First call is free, the next two wait 50ms each
	if elapsed < 80*time.Millisecond {
		t.Errorf("Three fetches finished in %v, throttle not applied", elapsed)
	}
}

func TestFetchEndpointHonorsContextCancellation(t *testing.T) {
	config := testSimConfig()
	config.RequestDelay = 5 * time.Second

	client, err := NewSimulatedClient(config, arbor.NewLogger())
	if err != nil {
		t.Fatalf("NewSimulatedClient failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.FetchEndpoint(ctx, testToken(), mustEndpoint(t, models.EndpointOrders))
	if err == nil {
		t.Fatal("Expected context cancellation error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}
