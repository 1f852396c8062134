package probes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// DefaultDBTimeout bounds connect and ping when no timeout is given.
const DefaultDBTimeout = 5 * time.Second

// MySQLProbe pings a MySQL server through a small dedicated pool.
// The output never includes the DSN.
type MySQLProbe struct {
	name    string
	db      *sql.DB
	addr    string
	dbName  string
	timeout time.Duration
}

// NewMySQL creates a MySQL probe for dsn. No connection is made until the
// first Check. Close releases the pool.
func NewMySQL(name, dsn string, timeout time.Duration) (*MySQLProbe, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDSN, err)
	}
	if timeout <= 0 {
		timeout = DefaultDBTimeout
	}
	if cfg.Timeout == 0 || cfg.Timeout > timeout {
		cfg.Timeout = timeout
	}

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDSN, err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &MySQLProbe{
		name:    name,
		db:      db,
		addr:    cfg.Addr,
		dbName:  cfg.DBName,
		timeout: timeout,
	}, nil
}

// Name returns the name of this probe.
func (p *MySQLProbe) Name() string {
	return p.name
}

// Check pings the server.
func (p *MySQLProbe) Check(ctx context.Context) (bool, any) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	if err := p.db.PingContext(ctx); err != nil {
		return false, err.Error()
	}
	return true, map[string]any{
		"addr":    p.addr,
		"db":      p.dbName,
		"ping_ms": time.Since(start).Milliseconds(),
	}
}

// Close closes the connection pool.
func (p *MySQLProbe) Close() error {
	return p.db.Close()
}
