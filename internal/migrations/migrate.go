package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/Simplici0/tarifario/internal/logger"
)

const (
	sqliteDialect = "sqlite3"
	migrationsDir = "sql"
)

//go:embed sql/*.sql
var embedded embed.FS

var log = logger.Nop()

// SetLogger routes goose output through l. Without it migrations run silently.
func SetLogger(l *logger.Logger) {
	if l == nil {
		l = logger.Nop()
	}
	log = l
}

// gooseLogger satisfies goose.Logger on top of the structured logger.
type gooseLogger struct {
	log *logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	ctx := g.log.WithField(context.Background(), "component", "goose")
	g.log.Info(ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	ctx := g.log.WithField(context.Background(), "component", "goose")
	g.log.Error(ctx, "migration aborted", fmt.Errorf(format, v...))
	os.Exit(1)
}

func prepare() error {
	goose.SetBaseFS(embedded)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Up runs all pending embedded SQL migrations.
func Up(db *sql.DB) error {
	if err := prepare(); err != nil {
		return err
	}

	if err := goose.Up(db, migrationsDir); err != nil {
		return fmt.Errorf("run goose up migrations: %w", err)
	}

	return nil
}

// Version returns the schema version currently applied.
func Version(db *sql.DB) (int64, error) {
	if err := prepare(); err != nil {
		return 0, err
	}

	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("get db version: %w", err)
	}
	return v, nil
}
