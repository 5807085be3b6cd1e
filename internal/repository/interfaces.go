package repository

import (
	"context"

	"github.com/prperemyshlev/kanah-health/internal/domain"
)

// UserRepository defines methods for user operations
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateLastLogin(ctx context.Context, userID string) error
	MarkEmailVerified(ctx context.Context, userID string) error
}

// TokenRepository defines methods for token operations
type TokenRepository interface {
	Create(ctx context.Context, token *domain.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	DeleteByTokenHash(ctx context.Context, tokenHash string) error
	DeleteByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// OAuthProviderRepository defines methods for OAuth provider operations
type OAuthProviderRepository interface {
	Create(ctx context.Context, provider *domain.OAuthProvider) error
	GetByProvider(ctx context.Context, provider, providerUserID string) (*domain.OAuthProvider, error)
}

// MotherRepository stores mother profiles, at most one per user.
type MotherRepository interface {
	Upsert(ctx context.Context, mother *domain.Mother) error
	GetByUserID(ctx context.Context, userID string) (*domain.Mother, error)
	GetByID(ctx context.Context, id string) (*domain.Mother, error)
}

// BabyRepository stores babies keyed by (mother, baby number).
type BabyRepository interface {
	UpsertBatch(ctx context.Context, babies []*domain.Baby) error
	GetByMotherID(ctx context.Context, motherID string) ([]*domain.Baby, error)
}
