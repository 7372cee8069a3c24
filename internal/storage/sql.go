package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// SQL stores keys in a single kv_store table. It backs both the sqlite and
// postgres schemes; sqlx.Rebind adapts placeholders per driver.
type SQL struct {
	db  *sqlx.DB
	dot *dotsql.DotSql
}

var _ Storage = (*SQL)(nil)

func openSQL(ctx context.Context, driver, dataSource string) (*SQL, error) {
	db, err := sqlx.Open(driver, dataSource)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", driver, err)
	}
	if driver == "sqlite3" {
		// Single writer keeps sqlite from returning SQLITE_BUSY on overlapping
		// persists from the scheduler and the UI.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s storage: %w", driver, err)
	}

	dot, err := loadQueries()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &SQL{db: db, dot: dot}
	if _, err := s.exec(ctx, "create-kv-table"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create kv table: %w", err)
	}
	return s, nil
}

func loadQueries() (*dotsql.DotSql, error) {
	var combined strings.Builder
	err := fs.WalkDir(queriesFS, "queries", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".sql" {
			return nil
		}
		content, err := queriesFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		combined.Write(content)
		combined.WriteString("\n")
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load query files: %w", err)
	}
	dot, err := dotsql.LoadFromString(combined.String())
	if err != nil {
		return nil, fmt.Errorf("parse queries: %w", err)
	}
	return dot, nil
}

func (s *SQL) query(name string) (string, error) {
	q, err := s.dot.Raw(name)
	if err != nil {
		return "", fmt.Errorf("query not found: %s", name)
	}
	return s.db.Rebind(q), nil
}

func (s *SQL) exec(ctx context.Context, name string, args ...any) (sql.Result, error) {
	q, err := s.query(name)
	if err != nil {
		return nil, err
	}
	return s.db.ExecContext(ctx, q, args...)
}

func (s *SQL) Get(ctx context.Context, key string) (string, error) {
	q, err := s.query("get-value")
	if err != nil {
		return "", err
	}
	var value string
	if err := s.db.GetContext(ctx, &value, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	if _, err := s.exec(ctx, "put-value", key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.exec(ctx, "delete-value", key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
