// Package graph resolves opinions and their outbound citations from the
// external legal-data service.
package graph

import (
	"context"
	"errors"

	"github.com/okravets/shepard/internal/model"
)

// ErrNotFound means the service has no record of the opinion. This is a
// cacheable negative result, not a transient failure.
var ErrNotFound = errors.New("graph: opinion not found")

// ErrUnavailable means the service could not answer right now. Callers may
// retry; the HTTP source already retries with backoff before returning it.
var ErrUnavailable = errors.New("graph: service unavailable")

// Source resolves an opinion id to its text and outbound citations
type Source interface {
	Resolve(ctx context.Context, opinionID string) (*model.Opinion, error)
}
