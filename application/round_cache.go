package application

import (
	"context"

	"wingo/domain/entities"
)

// RoundCache holds a short-lived snapshot of the live round for read endpoints.
// It never participates in betting or settlement decisions.
//
// Every Invalidate advances the generation. SetLive only stores a snapshot when the
// generation still matches the one read before the snapshot was loaded, so a read
// racing a bet or settlement cannot put an outdated round back in the cache.
type RoundCache interface {
	GetLive(ctx context.Context) (*entities.Round, bool)
	Generation(ctx context.Context) int64
	SetLive(ctx context.Context, round *entities.Round, generation int64)
	Invalidate(ctx context.Context)
}
