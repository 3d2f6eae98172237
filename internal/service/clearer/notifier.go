package clearer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// maxBodySnippet bounds how much of a rejected response is kept for logs.
const maxBodySnippet = 512

// ErrRejected is returned when the outage manager answers with a status other
// than 200 or 201.
var ErrRejected = errors.New("clear request rejected")

// Notifier sends clear requests to the outage manager.
type Notifier struct {
	// client performs the HTTP requests.
	client *http.Client
	// baseURL is the endpoint prefix the alarm identifier is appended to.
	baseURL string
	// limiter spaces consecutive requests.
	limiter *rate.Limiter
}

// NotifierOptions configures a Notifier.
type NotifierOptions struct {
	// BaseURL is the endpoint prefix.
	BaseURL string
	// Pause is the minimum spacing between requests; zero or negative disables it.
	Pause time.Duration
	// Timeout bounds a single request.
	Timeout time.Duration
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool
}

// NewNotifier returns a notifier for the options.
func NewNotifier(opts NotifierOptions) *Notifier {
	limit := rate.Inf
	if opts.Pause > 0 {
		limit = rate.Every(opts.Pause)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // Standard library type.
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // The outage manager uses a private CA.
	}

	return &Notifier{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		baseURL: opts.BaseURL,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Clear asks the outage manager to clear the alarm. It waits for the rate
// limiter first, so consecutive calls are spaced by the configured pause.
func (n *Notifier) Clear(ctx context.Context, alarmID string) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for clear slot: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+url.PathEscape(alarmID), nil)
	if err != nil {
		return fmt.Errorf("build clear request: %w", err)
	}

	response, err := n.client.Do(request)
	if err != nil {
		return fmt.Errorf("send clear request: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode == http.StatusOK || response.StatusCode == http.StatusCreated {
		_, _ = io.Copy(io.Discard, response.Body)

		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(response.Body, maxBodySnippet))

	return fmt.Errorf("%w: status %d: %s", ErrRejected, response.StatusCode, strings.TrimSpace(string(body)))
}
