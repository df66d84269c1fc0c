// Package results persists experiment runs in SQLite or PostgreSQL.
package results

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/theokoles7/parcus/pkg/config"
	"github.com/theokoles7/parcus/pkg/logging"
)

var ErrDisabled = errors.New("results database is not enabled")

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	// Fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

type Store struct {
	conn    *sql.DB
	driver  string
	enabled bool
	log     *logrus.Entry
}

func New(ctx context.Context, cfg *config.Database) (*Store, error) {
	s := &Store{
		driver:  cfg.Driver,
		enabled: cfg.Enabled,
		log:     logging.Get("results"),
	}

	if !cfg.Enabled {
		s.log.Debug("Results database disabled")
		return s, nil
	}

	var (
		conn *sql.DB
		err  error
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		s.driver = DriverSQLite
		conn, err = openSQLite(cfg.Path)
	case DriverPostgres:
		conn, err = openPostgres(ctx, cfg)
	default:
		err = fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		s.log.Warn("Results database disabled")
		return s, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		s.log.Warn("Results database disabled")
		return s, fmt.Errorf("failed to ping database: %w", err)
	}

	s.conn = conn
	if err := s.initSchema(ctx); err != nil {
		return s, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.log.Debugf("Results database active (%s)", s.driver)
	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	conn, err := sql.Open(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)
	return conn, nil
}

// openPostgres connects to cfg.Name, creating the database first if the
// server does not have it yet.
func openPostgres(ctx context.Context, cfg *config.Database) (*sql.DB, error) {
	admin, err := sql.Open(DriverPostgres, postgresDSN(cfg, "postgres"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer admin.Close()

	if err := admin.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	var exists bool
	err = admin.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", cfg.Name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check database existence: %w", err)
	}
	if !exists {
		if _, err := admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", quoteIdent(cfg.Name))); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
		logging.Get("results").Infof("Database '%s' created", cfg.Name)
	}

	conn, err := sql.Open(DriverPostgres, postgresDSN(cfg, cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

func postgresDSN(cfg *config.Database, name string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, name, cfg.SSLMode)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			model TEXT NOT NULL,
			dataset TEXT NOT NULL,
			samples INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			run_id TEXT NOT NULL,
			problem_id INTEGER NOT NULL,
			budget INTEGER NOT NULL,
			question TEXT NOT NULL,
			ground_truth TEXT NOT NULL,
			generated TEXT NOT NULL,
			predicted TEXT NOT NULL,
			correct BOOLEAN NOT NULL,
			tokens_used INTEGER NOT NULL,
			truncated BOOLEAN NOT NULL,
			error TEXT NOT NULL,
			PRIMARY KEY (run_id, problem_id, budget)
		)`,
		`CREATE TABLE IF NOT EXISTS budget_stats (
			run_id TEXT NOT NULL,
			budget INTEGER NOT NULL,
			samples INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			errors INTEGER NOT NULL,
			accuracy DOUBLE PRECISION NOT NULL,
			mean_tokens DOUBLE PRECISION NOT NULL,
			std_tokens DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, budget)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_model ON runs(model)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_dataset ON runs(dataset)`,
	}
	for _, stmt := range schema {
		if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Store) IsEnabled() bool {
	return s.enabled && s.conn != nil
}

// rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveRun stores a run with its records and budget summaries in one
// transaction. Saving the same run twice keeps the first copy.
func (s *Store) SaveRun(ctx context.Context, run Run, records []Record, summaries []Summary) error {
	if !s.IsEnabled() {
		return nil
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO runs (id, model, dataset, samples, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`), run.ID, run.Model, run.Dataset, run.Samples, formatTime(run.StartedAt), formatTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	recordStmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO records (run_id, problem_id, budget, question, ground_truth, generated, predicted, correct, tokens_used, truncated, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`))
	if err != nil {
		return err
	}
	defer recordStmt.Close()

	for _, r := range records {
		if _, err := recordStmt.ExecContext(ctx, run.ID, r.ProblemID, r.Budget, r.Question, r.GroundTruth,
			r.Generated, r.Predicted, r.Correct, r.TokensUsed, r.Truncated, r.Error); err != nil {
			return fmt.Errorf("failed to insert record %d at budget %d: %w", r.ProblemID, r.Budget, err)
		}
	}

	statStmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO budget_stats (run_id, budget, samples, correct, errors, accuracy, mean_tokens, std_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`))
	if err != nil {
		return err
	}
	defer statStmt.Close()

	for _, sm := range summaries {
		if _, err := statStmt.ExecContext(ctx, run.ID, sm.Budget, sm.Samples, sm.Correct, sm.Errors,
			sm.Accuracy, sm.MeanTokens, sm.StdTokens); err != nil {
			return fmt.Errorf("failed to insert summary for budget %d: %w", sm.Budget, err)
		}
	}

	s.log.Debugf("Saved run %s (%d records)", run.ID, len(records))
	return tx.Commit()
}

// Summaries returns budget summaries, newest run first and budgets ascending.
func (s *Store) Summaries(ctx context.Context, f Filter) ([]Summary, error) {
	if !s.IsEnabled() {
		return nil, ErrDisabled
	}

	query := `
		SELECT r.id, r.model, r.dataset, r.started_at,
			b.budget, b.samples, b.correct, b.errors, b.accuracy, b.mean_tokens, b.std_tokens
		FROM budget_stats b
		JOIN runs r ON r.id = b.run_id
		WHERE 1 = 1
	`
	var args []interface{}
	if f.Model != "" {
		query += " AND r.model = ?"
		args = append(args, f.Model)
	}
	if f.Dataset != "" {
		query += " AND r.dataset = ?"
		args = append(args, f.Dataset)
	}
	if f.RunID != "" {
		query += " AND r.id = ?"
		args = append(args, f.RunID)
	}
	query += " ORDER BY r.started_at DESC, r.id, b.budget"

	rows, err := s.conn.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var (
			sm      Summary
			started string
		)
		if err := rows.Scan(&sm.RunID, &sm.Model, &sm.Dataset, &started,
			&sm.Budget, &sm.Samples, &sm.Correct, &sm.Errors, &sm.Accuracy, &sm.MeanTokens, &sm.StdTokens); err != nil {
			return nil, err
		}
		sm.StartedAt, _ = time.Parse(timeLayout, started)
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}

// Records returns the stored records of one run ordered by budget and
// problem.
func (s *Store) Records(ctx context.Context, runID string) ([]Record, error) {
	if !s.IsEnabled() {
		return nil, ErrDisabled
	}

	rows, err := s.conn.QueryContext(ctx, s.rebind(`
		SELECT rec.problem_id, rec.budget, rec.question, rec.ground_truth, rec.generated, rec.predicted,
			rec.correct, rec.tokens_used, rec.truncated, rec.error, r.model, r.dataset
		FROM records rec
		JOIN runs r ON r.id = rec.run_id
		WHERE rec.run_id = ?
		ORDER BY rec.budget, rec.problem_id
	`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		r := Record{RunID: runID}
		if err := rows.Scan(&r.ProblemID, &r.Budget, &r.Question, &r.GroundTruth, &r.Generated, &r.Predicted,
			&r.Correct, &r.TokensUsed, &r.Truncated, &r.Error, &r.Model, &r.Dataset); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
