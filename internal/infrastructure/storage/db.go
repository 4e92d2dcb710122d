package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"BookAnnotator/internal/config"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Open connects to the database named by driver and checks it is reachable.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if _, err := placeholderFor(driver); err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == config.DriverSQLite {
		// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

func placeholderFor(driver string) (sq.PlaceholderFormat, error) {
	switch driver {
	case config.DriverPostgres:
		return sq.Dollar, nil
	case config.DriverSQLite:
		return sq.Question, nil
	case config.DriverSQLServer:
		return sq.AtP, nil
	default:
		return nil, fmt.Errorf("storage: unsupported driver %q", driver)
	}
}

func statementBuilder(driver string) (sq.StatementBuilderType, error) {
	format, err := placeholderFor(driver)
	if err != nil {
		return sq.StatementBuilderType{}, err
	}
	return sq.StatementBuilder.PlaceholderFormat(format), nil
}

func checkIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("storage: invalid table name %q", name)
	}
	return nil
}
