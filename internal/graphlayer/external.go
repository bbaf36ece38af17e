package graphlayer

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// ExternalBinding is a GraphLayer backed by a remote graph database. Its
// round trips are gated by a circuit breaker so a degraded external
// binding fails fast instead of stalling every caller.
type ExternalBinding struct {
	inner   GraphLayer
	breaker *gobreaker.CircuitBreaker
}

// NewExternalBinding wraps inner (the real client to the external graph
// database) with a circuit breaker. maxFailures/timeout follow the same
// shape as the teacher's LLM circuit breaker: open after maxFailures
// consecutive failures, half-open after timeout.
func NewExternalBinding(inner GraphLayer, maxFailures int, timeout time.Duration) *ExternalBinding {
	if maxFailures <= 0 {
		maxFailures = 3
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "graphlayer-external-binding",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
	}
	return &ExternalBinding{inner: inner, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (e *ExternalBinding) call(fn func() (any, error)) (any, error) {
	result, err := e.breaker.Execute(fn)
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, types.NewError(types.KindDependency, "external graph binding unavailable", err)
		}
		return nil, err
	}
	return result, nil
}

func (e *ExternalBinding) CreateNode(ctx context.Context, id string) error {
	_, err := e.call(func() (any, error) { return nil, e.inner.CreateNode(ctx, id) })
	return err
}

func (e *ExternalBinding) CreateEdge(ctx context.Context, edge Edge) error {
	_, err := e.call(func() (any, error) { return nil, e.inner.CreateEdge(ctx, edge) })
	return err
}

func (e *ExternalBinding) QueryEdges(ctx context.Context, nodeID string, edgeType types.RelationshipType) ([]Edge, error) {
	out, err := e.call(func() (any, error) { return e.inner.QueryEdges(ctx, nodeID, edgeType) })
	if err != nil {
		return nil, err
	}
	return out.([]Edge), nil
}

func (e *ExternalBinding) ShortestPath(ctx context.Context, from, to string, bounds Bounds) (*PathResult, error) {
	out, err := e.call(func() (any, error) { return e.inner.ShortestPath(ctx, from, to, bounds) })
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, nil
	}
	return out.(*PathResult), nil
}

func (e *ExternalBinding) ReachableFrom(ctx context.Context, from string, bounds Bounds) ([]string, bool, error) {
	type reach struct {
		ids       []string
		truncated bool
	}
	out, err := e.call(func() (any, error) {
		ids, truncated, err := e.inner.ReachableFrom(ctx, from, bounds)
		return reach{ids, truncated}, err
	})
	if err != nil {
		return nil, false, err
	}
	r := out.(reach)
	return r.ids, r.truncated, nil
}

func (e *ExternalBinding) AllNodes(ctx context.Context) ([]string, error) {
	out, err := e.call(func() (any, error) { return e.inner.AllNodes(ctx) })
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

func (e *ExternalBinding) AllEdges(ctx context.Context) ([]Edge, error) {
	out, err := e.call(func() (any, error) { return e.inner.AllEdges(ctx) })
	if err != nil {
		return nil, err
	}
	return out.([]Edge), nil
}
