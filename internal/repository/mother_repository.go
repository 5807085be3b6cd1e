package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/pkg/database"
)

const motherColumns = `id, user_id, birth_type, language_preference, subscription_status,
	dob, location, created_at, updated_at`

type motherRepository struct {
	db *database.Postgres
}

func NewMotherRepository(db *database.Postgres) MotherRepository {
	return &motherRepository{db: db}
}

// Upsert inserts the mother or, when the user already has one, overwrites it
// in place. The stored id is written back to mother.ID either way.
func (r *motherRepository) Upsert(ctx context.Context, mother *domain.Mother) error {
	query := `
		INSERT INTO mothers (id, user_id, birth_type, language_preference, subscription_status,
			dob, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			birth_type = EXCLUDED.birth_type,
			language_preference = EXCLUDED.language_preference,
			dob = EXCLUDED.dob,
			location = EXCLUDED.location,
			updated_at = EXCLUDED.updated_at
		RETURNING id, subscription_status, created_at, updated_at
	`

	if mother.ID == "" {
		mother.ID = uuid.New().String()
	}
	if mother.LanguagePreference == "" {
		mother.LanguagePreference = domain.LanguageEnglish
	}
	if mother.SubscriptionStatus == "" {
		mother.SubscriptionStatus = domain.SubscriptionFree
	}

	var dob any
	if mother.DOB != nil {
		dob = mother.DOB.Time
	}

	err := r.db.DB.QueryRowContext(ctx, query,
		mother.ID,
		mother.UserID,
		mother.BirthType,
		mother.LanguagePreference,
		mother.SubscriptionStatus,
		dob,
		mother.Location,
		time.Now(),
	).Scan(&mother.ID, &mother.SubscriptionStatus, &mother.CreatedAt, &mother.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqForeignKeyViolation {
			return fmt.Errorf("user %s for mother: %w", mother.UserID, ErrMissingReference)
		}
		return fmt.Errorf("failed to upsert mother: %w", err)
	}

	return nil
}

func (r *motherRepository) GetByUserID(ctx context.Context, userID string) (*domain.Mother, error) {
	return r.getBy(ctx, "user_id", userID)
}

func (r *motherRepository) GetByID(ctx context.Context, id string) (*domain.Mother, error) {
	return r.getBy(ctx, "id", id)
}

func (r *motherRepository) getBy(ctx context.Context, column, value string) (*domain.Mother, error) {
	if _, err := uuid.Parse(value); err != nil {
		return nil, fmt.Errorf("mother with %s %s not found: %w", column, value, ErrNotFound)
	}

	query := `SELECT ` + motherColumns + ` FROM mothers WHERE ` + column + ` = $1`

	mother := &domain.Mother{}
	var dob sql.NullTime
	var location sql.NullString

	err := r.db.DB.QueryRowContext(ctx, query, value).Scan(
		&mother.ID,
		&mother.UserID,
		&mother.BirthType,
		&mother.LanguagePreference,
		&mother.SubscriptionStatus,
		&dob,
		&location,
		&mother.CreatedAt,
		&mother.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("mother with %s %s not found: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get mother: %w", err)
	}

	if dob.Valid {
		d := domain.NewDate(dob.Time)
		mother.DOB = &d
	}
	if location.Valid {
		mother.Location = &location.String
	}

	return mother, nil
}
