package probes

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProbe pings a PostgreSQL server through a one-connection pool.
// The output never includes the password.
type PostgresProbe struct {
	name    string
	pool    *pgxpool.Pool
	host    string
	dbName  string
	timeout time.Duration
}

// NewPostgres creates a PostgreSQL probe for dsn, in URL or key=value form.
// The pool connects lazily on the first Check. Close releases it.
func NewPostgres(name, dsn string, timeout time.Duration) (*PostgresProbe, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDSN, err)
	}
	if timeout <= 0 {
		timeout = DefaultDBTimeout
	}
	if cfg.ConnConfig.ConnectTimeout == 0 || cfg.ConnConfig.ConnectTimeout > timeout {
		cfg.ConnConfig.ConnectTimeout = timeout
	}
	cfg.MaxConns = 1
	cfg.MinConns = 0

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDSN, err)
	}

	return &PostgresProbe{
		name:    name,
		pool:    pool,
		host:    cfg.ConnConfig.Host,
		dbName:  cfg.ConnConfig.Database,
		timeout: timeout,
	}, nil
}

// Name returns the name of this probe.
func (p *PostgresProbe) Name() string {
	return p.name
}

// Check pings the server.
func (p *PostgresProbe) Check(ctx context.Context) (bool, any) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	if err := p.pool.Ping(ctx); err != nil {
		return false, err.Error()
	}
	return true, map[string]any{
		"host":    p.host,
		"db":      p.dbName,
		"ping_ms": time.Since(start).Milliseconds(),
	}
}

// Close closes the pool.
func (p *PostgresProbe) Close() {
	p.pool.Close()
}
