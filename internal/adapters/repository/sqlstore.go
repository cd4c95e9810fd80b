package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ecoquest/bioblitz/internal/domain/model"
	"github.com/ecoquest/bioblitz/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS observations (
    seq              INTEGER PRIMARY KEY AUTOINCREMENT,
    id               INTEGER NOT NULL UNIQUE,
    observed_on      TEXT NOT NULL,
    time_observed_at TEXT,
    quality_grade    TEXT NOT NULL,
    user_login       TEXT NOT NULL,
    lat              REAL NOT NULL DEFAULT 0,
    lng              REAL NOT NULL DEFAULT 0,
    taxon_id         INTEGER NOT NULL DEFAULT 0,
    taxon_name       TEXT NOT NULL DEFAULT '',
    taxon_rank       TEXT NOT NULL DEFAULT '',
    iconic_taxon     TEXT NOT NULL DEFAULT '',
    uri              TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_observations_user ON observations(user_login);
CREATE INDEX IF NOT EXISTS idx_observations_day ON observations(observed_on);
CREATE INDEX IF NOT EXISTS idx_observations_taxon ON observations(taxon_id);
`

// SQLStore implements Store on SQLite. The seq column records arrival
// order so All can reproduce it exactly.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore opens (or creates) a SQLite database and runs migrations.
func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Add inserts an observation unless its id is already present.
func (s *SQLStore) Add(ctx context.Context, obs model.Observation) (bool, error) {
	if obs.ID <= 0 {
		return false, fmt.Errorf("%w: %d", ErrInvalidID, obs.ID)
	}

	var observedAt any
	if !obs.TimeObservedAt.IsZero() {
		observedAt = obs.TimeObservedAt.Format(time.RFC3339)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO observations (id, observed_on, time_observed_at, quality_grade, user_login, lat, lng, taxon_id, taxon_name, taxon_rank, iconic_taxon, uri)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, obs.ID, obs.ObservedOn, observedAt, obs.Quality, obs.UserLogin,
		obs.Lat, obs.Lng, obs.TaxonID, obs.TaxonName, obs.TaxonRank,
		obs.IconicTaxon, obs.URI)
	if err != nil {
		metrics.RecordStoreError()
		return false, fmt.Errorf("insert observation %d: %w", obs.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert observation %d: %w", obs.ID, err)
	}
	if n > 0 {
		metrics.UpdateStoreObservations(s.Count(ctx))
	}
	return n > 0, nil
}

// observationRow mirrors the table for sqlx scanning.
type observationRow struct {
	ID             int64          `db:"id"`
	ObservedOn     string         `db:"observed_on"`
	TimeObservedAt sql.NullString `db:"time_observed_at"`
	Quality        string         `db:"quality_grade"`
	UserLogin      string         `db:"user_login"`
	Lat            float64        `db:"lat"`
	Lng            float64        `db:"lng"`
	TaxonID        int64          `db:"taxon_id"`
	TaxonName      string         `db:"taxon_name"`
	TaxonRank      string         `db:"taxon_rank"`
	IconicTaxon    string         `db:"iconic_taxon"`
	URI            string         `db:"uri"`
}

// All returns every stored observation in arrival order.
func (s *SQLStore) All(ctx context.Context) ([]model.Observation, error) {
	var rows []observationRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, observed_on, time_observed_at, quality_grade, user_login, lat, lng, taxon_id, taxon_name, taxon_rank, iconic_taxon, uri
		FROM observations ORDER BY seq ASC
	`)
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list observations: %w", err)
	}

	out := make([]model.Observation, 0, len(rows))
	for i := range rows {
		obs := model.Observation{
			ID:          rows[i].ID,
			ObservedOn:  rows[i].ObservedOn,
			Quality:     model.QualityGrade(rows[i].Quality),
			UserLogin:   rows[i].UserLogin,
			Lat:         rows[i].Lat,
			Lng:         rows[i].Lng,
			TaxonID:     rows[i].TaxonID,
			TaxonName:   rows[i].TaxonName,
			TaxonRank:   rows[i].TaxonRank,
			IconicTaxon: rows[i].IconicTaxon,
			URI:         rows[i].URI,
		}
		if rows[i].TimeObservedAt.Valid && rows[i].TimeObservedAt.String != "" {
			if t, err := time.Parse(time.RFC3339, rows[i].TimeObservedAt.String); err == nil {
				obs.TimeObservedAt = t
			}
		}
		out = append(out, obs)
	}
	return out, nil
}

// Count returns the number of stored observations.
func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM observations`); err != nil {
		return 0
	}
	return n
}
