package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/coursemate/internal/core/usecases"
)

// Pinger is a dependency that can report its reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Recommendations *usecases.RecommendationService
	NATS            *nats.Conn
	DB              Pinger // nil when running on the in-memory store
	Cache           Pinger
	StoreDriver     string
	Version         string
	OpenAPIPath     string // defaults to DefaultOpenAPIPath
}
