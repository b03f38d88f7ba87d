package oracle

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/okravets/shepard/internal/model"
	"github.com/okravets/shepard/internal/worker"
)

// serviceName is the key remote providers claim in the shared rate limiter
const serviceName = "oracle"

// Client turns provider judgments into node assessments. It owns the retry
// policy: an unavailable oracle is retried once; malformed responses are not
// retried. Errors are returned to the caller, which records the node as
// uncertain so traversal can continue.
type Client struct {
	provider Provider
	limiter  *worker.Limiter
	logger   *zap.Logger
}

// NewClient creates an oracle client over the given provider
func NewClient(provider Provider, limiter *worker.Limiter, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider: provider,
		limiter:  limiter,
		logger:   logger,
	}
}

// Name returns the underlying provider name
func (c *Client) Name() string {
	return c.provider.Name()
}

// Assess judges one opinion. On failure the error is returned after the
// retry budget is spent; the caller decides how to degrade.
func (c *Client) Assess(ctx context.Context, req Request) (*model.NodeAssessment, error) {
	judgment, err := c.assess(ctx, req)
	if err != nil {
		c.logger.Warn("oracle assessment failed",
			zap.String("opinion_id", req.OpinionID),
			zap.String("provider", c.provider.Name()),
			zap.Error(err))
		return nil, err
	}

	return &model.NodeAssessment{
		OpinionID:    req.OpinionID,
		Category:     judgment.Category,
		Confidence:   judgment.Confidence,
		RiskScore:    judgment.RiskScore,
		IsOverruled:  judgment.IsOverruled,
		IsQuestioned: judgment.IsQuestioned,
		IsCriticized: judgment.IsCriticized,
		Summary:      judgment.Summary,
		Treatment:    &req.Treatment,
		AnalyzedAt:   time.Now().UTC(),
	}, nil
}

func (c *Client) assess(ctx context.Context, req Request) (*Judgment, error) {
	// The rules provider is local; only remote providers spend quota
	if c.limiter != nil && c.provider.Name() != "rules" {
		if err := c.limiter.Wait(ctx, serviceName); err != nil {
			return nil, err
		}
	}

	judgment, err := c.provider.Assess(ctx, req)
	if errors.Is(err, ErrUnavailable) {
		judgment, err = c.provider.Assess(ctx, req)
	}
	return judgment, err
}
