package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/websurvey-backend/internal/model"
)

const uniqueCodeColumns = `id, nama_responden, kode_unik, created_at`

// UniqueCodeRepository stores unique survey codes; kode_unik is unique.
type UniqueCodeRepository struct {
	pool *pgxpool.Pool
}

// NewUniqueCodeRepository creates a new UniqueCodeRepository.
func NewUniqueCodeRepository(pool *pgxpool.Pool) *UniqueCodeRepository {
	return &UniqueCodeRepository{pool: pool}
}

func scanUniqueCode(row pgx.Row) (*model.UniqueSurveyCode, error) {
	c := &model.UniqueSurveyCode{}
	if err := row.Scan(&c.ID, &c.NamaResponden, &c.KodeUnik, &c.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// Create inserts one code. ErrDuplicate means kode_unik already exists.
func (r *UniqueCodeRepository) Create(ctx context.Context, c *model.UniqueSurveyCode) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO unique_survey_codes (nama_responden, kode_unik)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		c.NamaResponden, c.KodeUnik,
	).Scan(&c.ID, &c.CreatedAt)
	return mapErr(err)
}

// CreateMany inserts codes without stopping at duplicates. Codes that
// already exist (or repeat within the batch) are returned in Duplicates.
func (r *UniqueCodeRepository) CreateMany(ctx context.Context, codes []model.UniqueSurveyCode) (*model.BulkInsertResult, error) {
	batch := &pgx.Batch{}
	for _, c := range codes {
		batch.Queue(
			`INSERT INTO unique_survey_codes (nama_responden, kode_unik)
			 VALUES ($1, $2)
			 ON CONFLICT (kode_unik) DO NOTHING
			 RETURNING `+uniqueCodeColumns,
			c.NamaResponden, c.KodeUnik)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	result := &model.BulkInsertResult{Inserted: []model.UniqueSurveyCode{}}
	for _, c := range codes {
		inserted, err := scanUniqueCode(br.QueryRow())
		if errors.Is(err, ErrNotFound) {
			result.Duplicates = append(result.Duplicates, c.KodeUnik)
			continue
		}
		if err != nil {
			return nil, err
		}
		result.Inserted = append(result.Inserted, *inserted)
	}
	return result, nil
}

// GetByCode looks a code up.
func (r *UniqueCodeRepository) GetByCode(ctx context.Context, kodeUnik string) (*model.UniqueSurveyCode, error) {
	return scanUniqueCode(r.pool.QueryRow(ctx,
		`SELECT `+uniqueCodeColumns+` FROM unique_survey_codes WHERE kode_unik = $1`, kodeUnik))
}

// DeleteByCode removes a code and returns the deleted row.
func (r *UniqueCodeRepository) DeleteByCode(ctx context.Context, kodeUnik string) (*model.UniqueSurveyCode, error) {
	return scanUniqueCode(r.pool.QueryRow(ctx,
		`DELETE FROM unique_survey_codes WHERE kode_unik = $1 RETURNING `+uniqueCodeColumns, kodeUnik))
}
