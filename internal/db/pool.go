// Package db wraps a pgx connection pool behind a single Execute call that
// accepts '?' placeholders and returns rows plus field metadata.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"astrotech/internal/config"
)

// ErrAcquireTimeout is returned when no pooled connection frees up within the
// acquire timeout.
var ErrAcquireTimeout = errors.New("db: timed out acquiring connection")

// Querier is the part of a connection Execute needs. It is implemented by
// *pgxpool.Conn, *pgx.Conn and pgxmock connections.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Conn is a connection held exclusively until Release.
type Conn interface {
	Querier
	Release()
}

// Acquirer hands out connections. Acquire blocks until one is free or ctx
// is done.
type Acquirer interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Row maps column names to decoded values.
type Row = map[string]any

// Field describes one result column.
type Field struct {
	Name         string `json:"name"`
	TableID      uint32 `json:"tableID"`
	ColumnID     uint16 `json:"columnID"`
	DataTypeID   uint32 `json:"dataTypeID"`
	DataTypeSize int16  `json:"dataTypeSize"`
	TypeModifier int32  `json:"dataTypeModifier"`
	Format       int16  `json:"format"`
}

type Stats struct {
	TotalConns           int32 `json:"totalConns"`
	IdleConns            int32 `json:"idleConns"`
	AcquiredConns        int32 `json:"acquiredConns"`
	MaxConns             int32 `json:"maxConns"`
	EmptyAcquireCount    int64 `json:"emptyAcquireCount"`
	CanceledAcquireCount int64 `json:"canceledAcquireCount"`
}

// Pool is safe for concurrent use.
type Pool struct {
	acq            Acquirer
	pgx            *pgxpool.Pool
	acquireTimeout time.Duration
	log            *zap.Logger
}

type pgxAcquirer struct {
	pool *pgxpool.Pool
}

func (a pgxAcquirer) Acquire(ctx context.Context) (Conn, error) {
	c, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Open builds the pgx pool from cfg. Connections are dialed lazily, so bad
// credentials or an unreachable host only fail the first Execute.
func Open(ctx context.Context, cfg config.Database, log *zap.Logger) (*Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("db: parse config: %w", err)
	}
	pcfg.MaxConns = cfg.MaxConns
	pcfg.MinConns = 0
	pcfg.MaxConnIdleTime = cfg.IdleTimeout
	pcfg.ConnConfig.ConnectTimeout = cfg.AcquireTimeout

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("db: create pool: %w", err)
	}

	p := New(pgxAcquirer{pool: pool}, cfg.AcquireTimeout, log)
	p.pgx = pool
	return p, nil
}

// New wraps an arbitrary Acquirer. A zero acquireTimeout waits for as long
// as ctx allows.
func New(acq Acquirer, acquireTimeout time.Duration, log *zap.Logger) *Pool {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pool{
		acq:            acq,
		acquireTimeout: acquireTimeout,
		log:            log.Named("db"),
	}
}

// Execute runs sql after rewriting its '?' placeholders to $1..$n. params
// are passed through untouched, so their count must match the placeholders;
// a mismatch comes back as a database error.
func (p *Pool) Execute(ctx context.Context, sql string, params ...any) ([]Row, []Field, error) {
	start := time.Now()

	conn, err := p.acquire(ctx)
	if err != nil {
		p.log.Warn("acquire failed", zap.Error(err), zap.Duration("waited", time.Since(start)))
		return nil, nil, err
	}
	defer conn.Release()

	query := Rebind(sql)
	rows, err := conn.Query(ctx, query, params...)
	if err != nil {
		p.log.Debug("query failed", zap.String("sql", query), zap.Error(err))
		return nil, nil, err
	}
	defer rows.Close()

	out, err := collect(rows)
	if err != nil {
		p.log.Debug("query failed", zap.String("sql", query), zap.Error(err))
		return nil, nil, err
	}
	fields := convertFields(rows.FieldDescriptions())

	p.log.Debug("query",
		zap.String("sql", query),
		zap.Int("params", len(params)),
		zap.Int("rows", len(out)),
		zap.Duration("took", time.Since(start)),
	)
	return out, fields, nil
}

func (p *Pool) acquire(ctx context.Context) (Conn, error) {
	if p.acquireTimeout <= 0 {
		return p.acq.Acquire(ctx)
	}

	actx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.acq.Acquire(actx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w after %s: %w", ErrAcquireTimeout, p.acquireTimeout, err)
		}
		return nil, err
	}
	return conn, nil
}

// Ping round-trips a trivial statement through Execute.
func (p *Pool) Ping(ctx context.Context) error {
	_, _, err := p.Execute(ctx, "SELECT 1")
	return err
}

// Stats reports pool counters. It returns the zero value when the pool was
// built with New rather than Open.
func (p *Pool) Stats() Stats {
	if p.pgx == nil {
		return Stats{}
	}
	s := p.pgx.Stat()
	return Stats{
		TotalConns:           s.TotalConns(),
		IdleConns:            s.IdleConns(),
		AcquiredConns:        s.AcquiredConns(),
		MaxConns:             s.MaxConns(),
		EmptyAcquireCount:    s.EmptyAcquireCount(),
		CanceledAcquireCount: s.CanceledAcquireCount(),
	}
}

func (p *Pool) Close() {
	if p.pgx != nil {
		p.pgx.Close()
	}
}

func collect(rows pgx.Rows) ([]Row, error) {
	out := make([]Row, 0)
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		fds := rows.FieldDescriptions()
		row := make(Row, len(fds))
		for i, fd := range fds {
			if i < len(vals) {
				row[fd.Name] = vals[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func convertFields(fds []pgconn.FieldDescription) []Field {
	out := make([]Field, len(fds))
	for i, fd := range fds {
		out[i] = Field{
			Name:         fd.Name,
			TableID:      fd.TableOID,
			ColumnID:     fd.TableAttributeNumber,
			DataTypeID:   fd.DataTypeOID,
			DataTypeSize: fd.DataTypeSize,
			TypeModifier: fd.TypeModifier,
			Format:       fd.Format,
		}
	}
	return out
}
