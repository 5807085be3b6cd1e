package repository

import (
	"github.com/prperemyshlev/kanah-health/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User          UserRepository
	Token         TokenRepository
	OAuthProvider OAuthProviderRepository
	Mother        MotherRepository
	Baby          BabyRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:          NewUserRepository(db),
		Token:         NewTokenRepository(db),
		OAuthProvider: NewOAuthProviderRepository(db),
		Mother:        NewMotherRepository(db),
		Baby:          NewBabyRepository(db),
	}
}
