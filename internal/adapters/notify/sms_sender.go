package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/zatekoja/streamlinecare/internal/domain/providers"
	"github.com/zatekoja/streamlinecare/pkg/config"
	apperrors "github.com/zatekoja/streamlinecare/pkg/errors"
)

// DefaultRegion is assumed for numbers written without a country code
const DefaultRegion = "GH"

// nigeriaCountryCode routes through Arkesel's transactional use case
const nigeriaCountryCode = 234

// ArkeselSender sends SMS through the Arkesel HTTP API
type ArkeselSender struct {
	apiKey     string
	senderID   string
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// ArkeselResponse is the gateway's reply
type ArkeselResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewArkeselSender creates an SMS sender from configuration
func NewArkeselSender(cfg config.ArkeselConfig) (*ArkeselSender, error) {
	if cfg.APIKey == "" || cfg.SenderID == "" {
		return nil, fmt.Errorf("ARKESEL_API_KEY and ARKESEL_SENDER_ID must be set")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &ArkeselSender{
		apiKey:   cfg.APIKey,
		senderID: cfg.SenderID,
		baseURL:  cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "arkesel-sms",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			},
		}),
	}, nil
}

var _ providers.Notifier = (*ArkeselSender)(nil)

// Channel implements providers.Notifier
func (s *ArkeselSender) Channel() string {
	return "sms"
}

// Send delivers msg.Body to msg.To. Recipients are normalized to E.164 first.
func (s *ArkeselSender) Send(ctx context.Context, msg providers.Message) error {
	to, err := NormalizePhone(msg.To)
	if err != nil {
		return err
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return s.send(ctx, to, msg.Body)
	})
	if err != nil {
		return apperrors.NewExternalError("sms delivery failed", err)
	}
	return nil
}

func (s *ArkeselSender) send(ctx context.Context, to, body string) (*ArkeselResponse, error) {
	requestURL, err := s.buildURL(to, body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arkesel API error (status %d): %s", resp.StatusCode, string(raw))
	}

	var result ArkeselResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Code != "ok" {
		return nil, fmt.Errorf("arkesel rejected message: %s", result.Message)
	}

	log.Info().Str("to", to).Str("code", result.Code).Msg("sms sent")
	return &result, nil
}

func (s *ArkeselSender) buildURL(to, body string) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid arkesel base url: %w", err)
	}

	q := u.Query()
	q.Set("action", "send-sms")
	q.Set("api_key", s.apiKey)
	q.Set("from", s.senderID)
	q.Set("to", to)
	q.Set("sms", body)
	if strings.HasPrefix(to, fmt.Sprintf("+%d", nigeriaCountryCode)) {
		q.Set("use_case", "transactional")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NormalizePhone returns raw in E.164 form. Numbers without a leading "+"
// are read as Ghanaian.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperrors.NewValidationError("phone number is required")
	}

	num, err := phonenumbers.Parse(raw, DefaultRegion)
	if err != nil {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid phone number %q", raw))
	}
	if !phonenumbers.IsPossibleNumber(num) {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid phone number %q", raw))
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
