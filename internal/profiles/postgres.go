package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/spigell/match-scorer/internal/compatibility"
)

const profileColumns = `id, COALESCE(user_id, ''), date_of_birth, gender, COALESCE(height_cm, 0), marital_status,
	COALESCE(country, ''), COALESCE(state, ''), COALESCE(city, ''), religion, COALESCE(community, ''),
	COALESCE(education, ''), COALESCE(profession, ''), COALESCE(diet, ''), COALESCE(smoking, ''),
	COALESCE(drinking, ''), partner_preferences`

// PostgresSource reads profiles from a table maintained by the main platform.
type PostgresSource struct {
	db *sql.DB
}

// OpenPostgres opens a lib/pq connection pool for the given DSN.
func OpenPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) List(ctx context.Context) ([]*compatibility.Profile, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+profileColumns+" FROM profiles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	var items []*compatibility.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}

	return items, nil
}

func (s *PostgresSource) Get(ctx context.Context, id string) (*compatibility.Profile, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = $1", id)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*compatibility.Profile, error) {
	var (
		p     compatibility.Profile
		prefs []byte
	)

	err := row.Scan(
		&p.ID, &p.UserID, &p.DateOfBirth, &p.Gender, &p.HeightCm, &p.MaritalStatus,
		&p.Country, &p.State, &p.City, &p.Religion, &p.Community,
		&p.Education, &p.Profession, &p.Diet, &p.Smoking,
		&p.Drinking, &prefs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &p.Preferences); err != nil {
			return nil, fmt.Errorf("decode partner preferences of %s: %w", p.ID, err)
		}
	}

	return &p, nil
}
