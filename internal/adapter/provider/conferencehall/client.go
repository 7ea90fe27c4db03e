// Package conferencehall fetches event submissions from the Conference Hall
// API and maps them into provider.Submission values.
package conferencehall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"github.com/heartmarshall/cfp-sync/internal/config"
	"github.com/heartmarshall/cfp-sync/internal/domain"
	"github.com/heartmarshall/cfp-sync/internal/provider"
)

const maxBodyBytes = 32 << 20

// Client fetches submissions for one event at a time. Requests share a rate
// limiter so watch mode over many conferences stays within the platform quota.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	validate   *validator.Validate
	retryDelay time.Duration
	log        *slog.Logger
}

// NewClient creates a Client from the upstream configuration.
func NewClient(cfg config.UpstreamConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		retryDelay: 500 * time.Millisecond,
		log:        logger.With("adapter", "conferencehall"),
	}
}

// FetchSubmissions returns every proposal of the event identified by creds.
//
// Network failures are reported as domain.ErrUpstreamUnavailable; non-2xx
// statuses and undecodable or invalid payloads as domain.ErrUpstreamBadResponse.
// No partial result is ever returned.
func (c *Client) FetchSubmissions(ctx context.Context, creds domain.CFPCredentials) ([]provider.Submission, error) {
	reqURL := fmt.Sprintf("%s/api/v1/event/%s/?key=%s", c.baseURL, url.PathEscape(creds.EventID), url.QueryEscape(creds.APIKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("conferencehall: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.DebugContext(ctx, "conferencehall request", slog.String("event_id", creds.EventID))

	resp, err := c.doWithRetry(ctx, req, creds.EventID)
	if err != nil {
		c.log.ErrorContext(ctx, "conferencehall request failed", slog.String("event_id", creds.EventID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("conferencehall: %w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("conferencehall: %w: status %d", domain.ErrUpstreamBadResponse, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("conferencehall: %w: read body: %v", domain.ErrUpstreamUnavailable, err)
	}

	var event apiEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("conferencehall: %w: decode json: %v", domain.ErrUpstreamBadResponse, err)
	}
	if err := c.validate.Struct(event); err != nil {
		return nil, fmt.Errorf("conferencehall: %w: %s", domain.ErrUpstreamBadResponse, describeValidation(err))
	}

	subs := mapEvent(event)

	c.log.DebugContext(ctx, "conferencehall response",
		slog.String("event_id", creds.EventID),
		slog.Int("status", resp.StatusCode),
		slog.Int("proposals", len(subs)),
	)

	return subs, nil
}

// doWithRetry executes the request with a single retry on 5xx or network errors.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, eventID string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry || ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "conferencehall retry", slog.String("event_id", eventID), slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.retryDelay):
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.httpClient.Do(req)
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	return fmt.Sprintf("invalid field %s (%s)", verrs[0].Namespace(), verrs[0].Tag())
}

func mapEvent(event apiEvent) []provider.Submission {
	subs := make([]provider.Submission, 0, len(event.Proposals))
	for _, p := range event.Proposals {
		sub := provider.Submission{
			ID:                 p.ID,
			Title:              p.Title,
			Abstract:           p.Abstract,
			DeliberationStatus: deref(p.DeliberationStatus),
			ConfirmationStatus: deref(p.ConfirmationStatus),
			Level:              deref(p.Level),
			References:         deref(p.References),
			Formats:            p.Formats,
			Categories:         p.Categories,
			Tags:               p.Tags,
			Languages:          p.Languages,
			Speakers:           make([]provider.SpeakerPayload, 0, len(p.Speakers)),
		}
		if p.SubmittedAt != nil {
			t := p.SubmittedAt.UTC()
			sub.SubmittedAt = &t
		}
		if p.Review != nil {
			sub.Review = &provider.Review{
				Average:   p.Review.Average,
				Positives: p.Review.Positives,
				Negatives: p.Review.Negatives,
			}
		}
		for _, s := range p.Speakers {
			sub.Speakers = append(sub.Speakers, provider.SpeakerPayload{
				ID:          s.ID,
				Name:        s.Name,
				Email:       s.Email,
				Bio:         s.Bio,
				Company:     s.Company,
				References:  s.References,
				Picture:     s.Picture,
				SocialLinks: s.SocialLinks,
			})
		}
		subs = append(subs, sub)
	}
	return subs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
