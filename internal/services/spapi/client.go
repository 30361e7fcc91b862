// Package spapi simulates the Amazon Selling Partner API. Token exchange,
// endpoint fetches, throttling and failures are all fabricated in-process;
// no network traffic leaves the host.
package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/ternarybob/vendo/internal/common"
	"github.com/ternarybob/vendo/internal/interfaces"
	"github.com/ternarybob/vendo/internal/models"
)

// RequestError mirrors a Selling Partner API error response.
type RequestError struct {
	StatusCode int
	Code       string
	Message    string
	Endpoint   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("partner API error: %s (status %d, code %s, endpoint: %s)", e.Message, e.StatusCode, e.Code, e.Endpoint)
}

// SimulatedClient stands in for the Selling Partner API with configurable
// latency, request throttling and failure injection.
type SimulatedClient struct {
	config    common.SimulatorConfig
	generator *Generator
	limiter   *rate.Limiter
	logger    arbor.ILogger

	mu  sync.Mutex
	rng *rand.Rand
}

// Compile-time assertion
var _ interfaces.PartnerClient = (*SimulatedClient)(nil)

// NewSimulatedClient builds the simulator from configuration.
func NewSimulatedClient(config common.SimulatorConfig, logger arbor.ILogger) (*SimulatedClient, error) {
	generator, err := NewGenerator(config.Seed)
	if err != nil {
		return nil, err
	}

	// SP-API throttles per endpoint family; one limiter across the catalog is
	// close enough for a simulation
	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RateLimit > 0 {
		burst := config.RateBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(config.RateLimit), burst)
	}

	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &SimulatedClient{
		config:    config,
		generator: generator,
		limiter:   limiter,
		logger:    logger,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// ExchangeToken simulates the LWA refresh-token grant. The fabricated access
// token is opaque; only its expiry matters to callers.
func (c *SimulatedClient) ExchangeToken(ctx context.Context, creds *models.Credentials) (*oauth2.Token, error) {
	if creds == nil || creds.ClientID == "" || creds.ClientSecret == "" || creds.RefreshToken == "" {
		return nil, fmt.Errorf("token exchange rejected: incomplete credentials")
	}

	if err := sleepContext(ctx, c.config.TokenDelay); err != nil {
		return nil, err
	}

	ttl := c.config.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}

	token := &oauth2.Token{
		AccessToken:  "Atza|" + uuid.NewString(),
		TokenType:    "bearer",
		RefreshToken: creds.RefreshToken,
		Expiry:       time.Now().Add(ttl),
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("client_id", creds.ClientID).
			Str("expires", token.Expiry.Format(time.RFC3339)).
			Msg("Issued simulated LWA access token")
	}

	return token, nil
}

// FetchEndpoint returns a fabricated response body for one catalog endpoint.
func (c *SimulatedClient) FetchEndpoint(ctx context.Context, token *oauth2.Token, endpoint models.Endpoint) (json.RawMessage, error) {
	if !token.Valid() {
		return nil, &RequestError{
			StatusCode: 401,
			Code:       "Unauthorized",
			Message:    "Access token is missing or expired",
			Endpoint:   endpoint.Path,
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait aborted: %w", err)
	}

	if err := sleepContext(ctx, c.config.RequestDelay); err != nil {
		return nil, err
	}

	if c.shouldFail() {
		return nil, c.injectedFailure(endpoint)
	}

	payload, err := c.generator.Generate(endpoint.ID)
	if err != nil {
		return nil, &RequestError{
			StatusCode: 404,
			Code:       "NotFound",
			Message:    err.Error(),
			Endpoint:   endpoint.Path,
		}
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("endpoint", endpoint.ID).
			Str("path", endpoint.Path).
			Int("bytes", len(payload)).
			Msg("Partner API request served")
	}

	return payload, nil
}

func (c *SimulatedClient) shouldFail() bool {
	if c.config.FailureRate <= 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.Float64() < c.config.FailureRate
}

// injectedFailure alternates between the throttle and outage errors the real
// API returns under load.
func (c *SimulatedClient) injectedFailure(endpoint models.Endpoint) *RequestError {
	c.mu.Lock()
	throttled := c.rng.Intn(2) == 0
	c.mu.Unlock()

	if throttled {
		return &RequestError{
			StatusCode: 429,
			Code:       "QuotaExceeded",
			Message:    "You exceeded your quota for the requested resource",
			Endpoint:   endpoint.Path,
		}
	}
	return &RequestError{
		StatusCode: 503,
		Code:       "ServiceUnavailable",
		Message:    "Service is temporarily unavailable",
		Endpoint:   endpoint.Path,
	}
}

// sleepContext waits for the delay unless the context ends first.
func sleepContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
