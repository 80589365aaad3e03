package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	domain "github.com/mohammadpnp/catalog-import/internal/domain/webhook"
	"golang.org/x/time/rate"
)

const (
	userAgent       = "CatalogImport-Webhook/1.0"
	maxResponseText = 1000
)

// HTTPSender posts webhook payloads. Every call is bounded by the client
// timeout and all calls share one token bucket.
type HTTPSender struct {
	client  *http.Client
	limiter *rate.Limiter
}

func NewHTTPSender(timeout time.Duration, rps float64) *HTTPSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HTTPSender{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Send returns an error only when no HTTP response was received; non-2xx
// responses are reported through the result status code.
func (s *HTTPSender) Send(ctx context.Context, url string, payload domain.Payload) (domain.DeliveryResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("wait for send slot: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return domain.DeliveryResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Event", payload.Event)

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return domain.DeliveryResult{Latency: latency}, fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseText*utf8.UTFMax))
	return domain.DeliveryResult{
		StatusCode: resp.StatusCode,
		Body:       responseText(text),
		Latency:    latency,
	}, nil
}

// responseText keeps the first maxResponseText characters of a response as
// valid UTF-8 without NUL bytes. A character split by the read limit is
// dropped.
func responseText(body []byte) string {
	text := strings.ToValidUTF8(string(body), "")
	text = strings.ReplaceAll(text, "\x00", "")
	if utf8.RuneCountInString(text) <= maxResponseText {
		return text
	}
	return string([]rune(text)[:maxResponseText])
}
