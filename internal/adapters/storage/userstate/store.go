package userstate

import (
	"context"

	domain "adventofgah/internal/domain/session"
)

// Store persists the single client-side user state record.
type Store interface {
	Load(ctx context.Context) (domain.UserState, error)
	Save(ctx context.Context, state domain.UserState) error
}
