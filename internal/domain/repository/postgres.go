package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"babyweight_service/internal/domain/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// RecordSource pages through natality records in a stable order.
type RecordSource interface {
	Fetch(ctx context.Context, offset, limit int) ([]model.Baby, error)
}

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Connect opens and pings a postgres database.
func Connect(ctx context.Context, connStr string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return db, nil
}

type babyRow struct {
	Key            string          `db:"key"`
	WeightPounds   sql.NullFloat64 `db:"weight_pounds"`
	IsMale         sql.NullString  `db:"is_male"`
	MotherAge      sql.NullFloat64 `db:"mother_age"`
	MotherRace     sql.NullString  `db:"mother_race"`
	Plurality      sql.NullFloat64 `db:"plurality"`
	GestationWeeks sql.NullFloat64 `db:"gestation_weeks"`
	MotherMarried  sql.NullString  `db:"mother_married"`
	CigaretteUse   sql.NullString  `db:"cigarette_use"`
	AlcoholUse     sql.NullString  `db:"alcohol_use"`
}

// toBaby drops NULL columns so they surface as missing fields.
func (r babyRow) toBaby() model.Baby {
	values := map[model.Field]string{model.Key: r.Key}
	setFloat := func(f model.Field, v sql.NullFloat64) {
		if v.Valid {
			values[f] = strconv.FormatFloat(v.Float64, 'f', -1, 64)
		}
	}
	setString := func(f model.Field, v sql.NullString) {
		if v.Valid {
			values[f] = v.String
		}
	}

	setFloat(model.WeightPounds, r.WeightPounds)
	setString(model.IsMale, r.IsMale)
	setFloat(model.MotherAge, r.MotherAge)
	setString(model.MotherRace, r.MotherRace)
	setFloat(model.Plurality, r.Plurality)
	setFloat(model.GestationWeeks, r.GestationWeeks)
	setString(model.MotherMarried, r.MotherMarried)
	setString(model.CigaretteUse, r.CigaretteUse)
	setString(model.AlcoholUse, r.AlcoholUse)
	return model.NewBaby(values)
}

func (r *PostgresRepository) Fetch(ctx context.Context, offset, limit int) ([]model.Baby, error) {
	const query = `
		SELECT
			key,
			weight_pounds,
			is_male,
			mother_age,
			mother_race,
			plurality,
			gestation_weeks,
			mother_married,
			cigarette_use,
			alcohol_use
		FROM babies
		ORDER BY key
		LIMIT $1 OFFSET $2`

	var rows []babyRow
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to query babies: %w", err)
	}

	babies := make([]model.Baby, 0, len(rows))
	for _, row := range rows {
		babies = append(babies, row.toBaby())
	}
	return babies, nil
}
