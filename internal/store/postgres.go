package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const pingTimeout = 5 * time.Second

var openDB = sql.Open

// PGStore keeps candidates in Postgres.
type PGStore struct {
	DB *sql.DB
}

// OpenPostgres connects, verifies connectivity and applies the embedded migrations.
func OpenPostgres(ctx context.Context, databaseURL string) (*PGStore, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("database url is required")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &PGStore{DB: db}, nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *PGStore) Insert(ctx context.Context, c Candidate) error {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" {
		return ErrEmptyEmail
	}

	var record any
	if len(c.Record) > 0 {
		record = []byte(c.Record)
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO candidates (name, email, phone, json_data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ((lower(email))) DO NOTHING`,
		c.Name, c.Email, c.Phone, record,
	)
	if err != nil {
		return fmt.Errorf("insert candidate: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateCandidate, c.Email)
	}
	return nil
}

func (s *PGStore) List(ctx context.Context, search string) ([]Candidate, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT name, email, phone, json_data
		FROM candidates
		WHERE $1 = '' OR strpos(lower(name), $1) > 0 OR strpos(lower(email), $1) > 0
		ORDER BY id`,
		strings.ToLower(strings.TrimSpace(search)),
	)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var (
			c      Candidate
			record []byte
		)
		if err := rows.Scan(&c.Name, &c.Email, &c.Phone, &record); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if len(record) > 0 {
			c.Record = record
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return out, nil
}

func (s *PGStore) Delete(ctx context.Context, email string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM candidates WHERE lower(email) = $1`, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("delete candidate: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrCandidateNotFound, strings.TrimSpace(email))
	}
	return nil
}

func (s *PGStore) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
