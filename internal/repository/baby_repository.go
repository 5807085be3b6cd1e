package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prperemyshlev/kanah-health/internal/domain"
	"github.com/prperemyshlev/kanah-health/pkg/database"
)

type babyRepository struct {
	db *database.Postgres
}

func NewBabyRepository(db *database.Postgres) BabyRepository {
	return &babyRepository{db: db}
}

// UpsertBatch writes all babies in one transaction. A baby that already
// exists for (mother_id, baby_number) keeps its id and gets the new birth date.
func (r *babyRepository) UpsertBatch(ctx context.Context, babies []*domain.Baby) error {
	query := `
		INSERT INTO babies (id, mother_id, birth_date, baby_number, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mother_id, baby_number) DO UPDATE SET birth_date = EXCLUDED.birth_date
		RETURNING id, created_at
	`

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare baby insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, baby := range babies {
			if baby.ID == "" {
				baby.ID = uuid.New().String()
			}

			err := stmt.QueryRowContext(ctx, baby.ID, baby.MotherID, baby.BirthDate.Time, baby.BabyNumber, now).
				Scan(&baby.ID, &baby.CreatedAt)
			if err != nil {
				if pqCode(err) == pqForeignKeyViolation {
					return fmt.Errorf("mother %s for baby: %w", baby.MotherID, ErrMissingReference)
				}
				return fmt.Errorf("failed to upsert baby %d: %w", baby.BabyNumber, err)
			}
		}
		return nil
	})
}

func (r *babyRepository) GetByMotherID(ctx context.Context, motherID string) ([]*domain.Baby, error) {
	query := `
		SELECT id, mother_id, birth_date, baby_number, created_at
		FROM babies
		WHERE mother_id = $1
		ORDER BY baby_number
	`

	rows, err := r.db.DB.QueryContext(ctx, query, motherID)
	if err != nil {
		return nil, fmt.Errorf("failed to get babies by mother id: %w", err)
	}
	defer rows.Close()

	var babies []*domain.Baby
	for rows.Next() {
		baby := &domain.Baby{}
		var birthDate time.Time

		if err := rows.Scan(&baby.ID, &baby.MotherID, &birthDate, &baby.BabyNumber, &baby.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan baby: %w", err)
		}
		baby.BirthDate = domain.NewDate(birthDate)

		babies = append(babies, baby)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate babies: %w", err)
	}

	return babies, nil
}
