package config

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"busbooking/internal/utils"

	"github.com/sirupsen/logrus"

	_ "github.com/go-sql-driver/mysql"
)

// Pool limits sized for short booking transactions; seat claims hold a connection
// only for the ledger insert plus the booking row.
const (
	maxOpenConns    = 25
	maxIdleConns    = 10
	connMaxLifetime = 10 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// BookingTables are the tables the booking engine cannot run without.
var BookingTables = []string{"users", "routes", "buses", "bus_seats", "bookings", "booking_passengers", "seat_ledger"}

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// ConnectDB opens the booking database once and reuses it on later calls.
// The first ping is bounded by the store timeout.
func ConnectDB(env Env) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}

	conn, err := sql.Open("mysql", env.DSN())
	if err != nil {
		return nil, fmt.Errorf("open booking db %s: %w", env.DBName, err)
	}
	conn.SetMaxOpenConns(maxOpenConns)
	conn.SetMaxIdleConns(maxIdleConns)
	conn.SetConnMaxLifetime(connMaxLifetime)
	conn.SetConnMaxIdleTime(connMaxIdleTime)

	timeout := env.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping booking db %s at %s: %w", env.DBName, env.DBHost, err)
	}

	DB = conn
	utils.Logger().WithFields(logrus.Fields{
		"module":    "DB",
		"action":    "connect",
		"db_host":   env.DBHost,
		"db_name":   env.DBName,
		"max_conns": maxOpenConns,
	}).Info("booking store connected")
	return DB, nil
}

// SchemaCheck reports which booking tables are absent from the connected schema.
type SchemaCheck struct {
	DB *sql.DB
}

// MissingTables lists the BookingTables entries not present in the current database.
func (s SchemaCheck) MissingTables(ctx context.Context) ([]string, error) {
	if s.DB == nil {
		return nil, fmt.Errorf("db not available")
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()`)
	if err != nil {
		return nil, fmt.Errorf("list booking tables: %w", err)
	}
	defer rows.Close()

	present := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		present[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list booking tables: %w", err)
	}

	missing := []string{}
	for _, t := range BookingTables {
		if _, ok := present[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing, nil
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
