package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	gocache "github.com/patrickmn/go-cache"

	"github.com/okravets/shepard/internal/model"
	"github.com/okravets/shepard/internal/worker"
)

// serviceName is the key this source claims in the shared rate limiter
const serviceName = "graph"

// HTTPSource resolves opinions from the legal-data REST API. Requests are
// spaced by the shared rate limiter; transient failures are retried with
// exponential backoff; not-found results are cached negatively so repeated
// traversals don't re-ask for opinions known to be missing.
type HTTPSource struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	maxBytes   int64
	maxRetries uint64
	limiter    *worker.Limiter
	negative   *gocache.Cache
}

// HTTPSourceOptions configures an HTTPSource
type HTTPSourceOptions struct {
	BaseURL     string
	Token       string
	UserAgent   string
	Timeout     time.Duration
	MaxBytes    int64
	MaxRetries  int
	NotFoundTTL time.Duration
	Limiter     *worker.Limiter
}

// NewHTTPSource creates a source against the given API base URL
func NewHTTPSource(opts HTTPSourceOptions) *HTTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 5_000_000
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.NotFoundTTL == 0 {
		opts.NotFoundTTL = 24 * time.Hour
	}
	if opts.Limiter == nil {
		opts.Limiter = worker.NewLimiter(1, 5)
	}

	return &HTTPSource{
		httpClient: &http.Client{Timeout: opts.Timeout},
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		token:      opts.Token,
		userAgent:  opts.UserAgent,
		maxBytes:   opts.MaxBytes,
		maxRetries: uint64(opts.MaxRetries),
		limiter:    opts.Limiter,
		negative:   gocache.New(opts.NotFoundTTL, 10*time.Minute),
	}
}

// opinionPayload is the wire shape of an opinion record
type opinionPayload struct {
	ID        string `json:"id"`
	CaseName  string `json:"case_name"`
	Court     string `json:"court"`
	PlainText string `json:"plain_text"`
	Citations []struct {
		OpinionID string `json:"opinion_id"`
		Excerpt   string `json:"excerpt"`
	} `json:"citations"`
}

// Resolve fetches an opinion and its outbound citations
func (s *HTTPSource) Resolve(ctx context.Context, opinionID string) (*model.Opinion, error) {
	if _, found := s.negative.Get(opinionID); found {
		return nil, fmt.Errorf("%w: %s (cached)", ErrNotFound, opinionID)
	}

	if err := s.limiter.Wait(ctx, serviceName); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var opinion *model.Opinion
	operation := func() error {
		op, err := s.fetch(ctx, opinionID)
		if err != nil {
			return err
		}
		opinion = op
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.negative.SetDefault(opinionID, true)
		}
		return nil, err
	}
	return opinion, nil
}

// fetch performs one request. Not-found and client errors are permanent so
// backoff does not retry them.
func (s *HTTPSource) fetch(ctx context.Context, opinionID string) (*model.Opinion, error) {
	url := fmt.Sprintf("%s/opinions/%s/", s.baseURL, opinionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Token "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrNotFound, opinionID))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, backoff.Permanent(fmt.Errorf("unexpected status %d for %s", resp.StatusCode, opinionID))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	var payload opinionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode opinion %s: %w", opinionID, err))
	}

	opinion := &model.Opinion{
		ID:    payload.ID,
		Name:  payload.CaseName,
		Court: payload.Court,
		Text:  payload.PlainText,
	}
	if opinion.ID == "" {
		opinion.ID = opinionID
	}
	for _, c := range payload.Citations {
		opinion.Citations = append(opinion.Citations, model.Citation{
			OpinionID: c.OpinionID,
			Excerpt:   c.Excerpt,
		})
	}
	return opinion, nil
}
