package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/mysql/*.sql migrations/postgres/*.sql
var migrations embed.FS

func migrationFiles(dir string) ([]string, error) {
	entries, err := fs.ReadDir(migrations, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// splitStatements cuts a migration into single statements; the MySQL
// driver runs one statement per Exec unless multiStatements is on.
func splitStatements(src string) []string {
	var out []string
	for _, s := range strings.Split(src, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MigrateMySQL applies pending files from migrations/mysql and returns the
// names of the files it applied.
func MigrateMySQL(ctx context.Context, db *sql.DB) ([]string, error) {
	if _, err := db.ExecContext(ctx,
		"CREATE TABLE IF NOT EXISTS schema_migrations (version VARCHAR(255) NOT NULL PRIMARY KEY)"); err != nil {
		return nil, err
	}
	files, err := migrationFiles("migrations/mysql")
	if err != nil {
		return nil, err
	}
	var applied []string
	for _, f := range files {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE version = ?", f).Scan(&n); err != nil {
			return applied, err
		}
		if n > 0 {
			continue
		}
		b, err := migrations.ReadFile(path.Join("migrations/mysql", f))
		if err != nil {
			return applied, err
		}
		// MySQL DDL commits implicitly, so files are written to be re-runnable.
		for _, stmt := range splitStatements(string(b)) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return applied, fmt.Errorf("apply %s: %w", f, err)
			}
		}
		if _, err := db.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", f); err != nil {
			return applied, err
		}
		applied = append(applied, f)
	}
	return applied, nil
}

// MigratePostgres applies pending files from migrations/postgres, each in
// its own transaction.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY)`); err != nil {
		return nil, err
	}
	files, err := migrationFiles("migrations/postgres")
	if err != nil {
		return nil, err
	}
	var applied []string
	for _, f := range files {
		var done bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, f).Scan(&done); err != nil {
			return applied, err
		}
		if done {
			continue
		}
		b, err := migrations.ReadFile(path.Join("migrations/postgres", f))
		if err != nil {
			return applied, err
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return applied, err
		}
		if _, err := tx.Exec(ctx, string(b)); err != nil {
			_ = tx.Rollback(ctx)
			return applied, fmt.Errorf("apply %s: %w", f, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, f); err != nil {
			_ = tx.Rollback(ctx)
			return applied, err
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, err
		}
		applied = append(applied, f)
	}
	return applied, nil
}
