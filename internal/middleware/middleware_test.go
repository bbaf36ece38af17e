package middleware_test

import (
	"errors"
	"testing"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func TestCheckRequest_DevModeSkipsAuth(t *testing.T) {
	c := middleware.New(config.SecurityConfig{DevMode: true, RateLimitPerSec: 100, RateLimitBurst: 100}, nil)
	if err := c.CheckRequest("store_memory", middleware.RequestContext{}, nil); err != nil {
		t.Fatalf("expected dev mode to allow an unauthenticated request, got %v", err)
	}
}

func TestCheckRequest_ProductionRejectsBadToken(t *testing.T) {
	c := middleware.New(config.SecurityConfig{DevMode: false, AuthToken: "secret", RateLimitPerSec: 100, RateLimitBurst: 100}, nil)
	err := c.CheckRequest("store_memory", middleware.RequestContext{AuthToken: "wrong"}, nil)
	if !errors.Is(err, types.NewError(types.KindValidation, "", nil)) {
		t.Fatalf("expected a Validation error for a bad token, got %v", err)
	}
}

func TestCheckRequest_ProductionAcceptsGoodToken(t *testing.T) {
	c := middleware.New(config.SecurityConfig{DevMode: false, AuthToken: "secret", RateLimitPerSec: 100, RateLimitBurst: 100}, nil)
	if err := c.CheckRequest("store_memory", middleware.RequestContext{AuthToken: "secret"}, nil); err != nil {
		t.Fatalf("expected a matching token to be allowed, got %v", err)
	}
}

func TestCheckRequest_RateLimitExceeded(t *testing.T) {
	c := middleware.New(config.SecurityConfig{DevMode: true, RateLimitPerSec: 1, RateLimitBurst: 1}, nil)
	if err := c.CheckRequest("search_memory", middleware.RequestContext{}, nil); err != nil {
		t.Fatalf("expected the first request to pass, got %v", err)
	}
	err := c.CheckRequest("search_memory", middleware.RequestContext{}, nil)
	if !errors.Is(err, types.NewError(types.KindRateLimited, "", nil)) {
		t.Fatalf("expected the second immediate request to be rate limited, got %v", err)
	}
}

type badPayload struct{}

func (badPayload) Validate() error { return errors.New("missing content") }

func TestCheckRequest_PayloadValidationRuns(t *testing.T) {
	c := middleware.New(config.SecurityConfig{DevMode: true, RateLimitPerSec: 100, RateLimitBurst: 100}, nil)
	err := c.CheckRequest("store_memory", middleware.RequestContext{}, badPayload{})
	if !errors.Is(err, types.NewError(types.KindValidation, "", nil)) {
		t.Fatalf("expected a Validation error from a failing payload, got %v", err)
	}
}
