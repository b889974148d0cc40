// Package store persists claims and verification results in SQL. The same
// queries run on SQLite (single instance, embedded) and PostgreSQL (shared by
// every instance); only placeholders, row locking and column types differ.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/hazard-claim-verifier/internal/domain"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore implements domain.ClaimStore.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
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

// lockClause is appended to the claim read that opens a WithClaim
// transaction. SQLite serializes through its single connection instead.
func (s *SQLStore) lockClause() string {
	if s.dialect == dialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const claimColumns = `id, reporter_id, hazard_type, description, latitude, longitude, status, confidence_score, created_at, finalized_at, dispatch_attempts, last_dispatch_at`

const resultColumns = `id, claim_id, source, payload, counted, created_at`

// CreateClaim inserts claim, reporting false if the id already exists.
func (s *SQLStore) CreateClaim(ctx context.Context, c domain.Claim) (bool, error) {
	query := s.rebind(`INSERT INTO claims (` + claimColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`)
	res, err := s.db.ExecContext(ctx, query,
		c.ID, c.ReporterID, c.HazardType, c.Description,
		c.Location.Latitude, c.Location.Longitude,
		string(c.Status), c.ConfidenceScore,
		toNanos(c.CreatedAt), nullNanos(c.FinalizedAt),
		c.DispatchAttempts, toNanos(c.LastDispatchAt),
	)
	if err != nil {
		return false, fmt.Errorf("insert claim %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert claim %s: %w", c.ID, err)
	}
	return n == 1, nil
}

// GetClaim returns domain.ErrClaimNotFound for an unknown id.
func (s *SQLStore) GetClaim(ctx context.Context, id string) (domain.Claim, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+claimColumns+` FROM claims WHERE id = ?`), id)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Claim{}, fmt.Errorf("%w: %s", domain.ErrClaimNotFound, id)
	}
	if err != nil {
		return domain.Claim{}, fmt.Errorf("get claim %s: %w", id, err)
	}
	return c, nil
}

// ListResults returns every result stored for claimID, oldest first.
func (s *SQLStore) ListResults(ctx context.Context, claimID string) ([]domain.VerificationResult, error) {
	return queryResults(ctx, s.db, s.rebind(`SELECT `+resultColumns+` FROM verification_results WHERE claim_id = ? ORDER BY created_at, id`), claimID)
}

// RecordDispatch advances the dispatch bookkeeping if last_dispatch_at still
// equals prev. Two instances sweeping the same claim cannot both win.
func (s *SQLStore) RecordDispatch(ctx context.Context, claimID string, prev, at time.Time) (bool, error) {
	query := s.rebind(`UPDATE claims
		SET dispatch_attempts = dispatch_attempts + 1, last_dispatch_at = ?
		WHERE id = ? AND last_dispatch_at = ? AND finalized_at IS NULL`)
	res, err := s.db.ExecContext(ctx, query, toNanos(at), claimID, toNanos(prev))
	if err != nil {
		return false, fmt.Errorf("record dispatch %s: %w", claimID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record dispatch %s: %w", claimID, err)
	}
	return n == 1, nil
}

// ListStale returns unfinalized claims that have not been dispatched since
// cutoff and still have attempts left.
func (s *SQLStore) ListStale(ctx context.Context, cutoff time.Time, maxAttempts, limit int) ([]domain.Claim, error) {
	query := s.rebind(`SELECT ` + claimColumns + ` FROM claims
		WHERE finalized_at IS NULL AND last_dispatch_at < ? AND dispatch_attempts < ?
		ORDER BY last_dispatch_at, id
		LIMIT ?`)
	rows, err := s.db.QueryContext(ctx, query, toNanos(cutoff), maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var claims []domain.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("list stale claims: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list stale claims: %w", err)
	}
	return claims, nil
}

// WithClaim runs fn inside a transaction holding the claim row lock.
func (s *SQLStore) WithClaim(ctx context.Context, claimID string, fn func(tx domain.ClaimTx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin claim tx %s: %w", claimID, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := tx.QueryRowContext(ctx, s.rebind(`SELECT `+claimColumns+` FROM claims WHERE id = ?`+s.lockClause()), claimID)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", domain.ErrClaimNotFound, claimID)
	}
	if err != nil {
		return fmt.Errorf("lock claim %s: %w", claimID, err)
	}

	if err = fn(&claimTx{store: s, tx: tx, claim: claim}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit claim tx %s: %w", claimID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (domain.Claim, error) {
	var (
		c           domain.Claim
		status      string
		createdAt   int64
		finalizedAt sql.NullInt64
		lastDispAt  int64
	)
	err := row.Scan(
		&c.ID, &c.ReporterID, &c.HazardType, &c.Description,
		&c.Location.Latitude, &c.Location.Longitude,
		&status, &c.ConfidenceScore,
		&createdAt, &finalizedAt,
		&c.DispatchAttempts, &lastDispAt,
	)
	if err != nil {
		return domain.Claim{}, err
	}
	c.Status = domain.Status(status)
	c.CreatedAt = fromNanos(createdAt)
	c.LastDispatchAt = fromNanos(lastDispAt)
	if finalizedAt.Valid {
		t := fromNanos(finalizedAt.Int64)
		c.FinalizedAt = &t
	}
	return c, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryResults(ctx context.Context, q queryer, query string, claimID string) ([]domain.VerificationResult, error) {
	rows, err := q.QueryContext(ctx, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("list results %s: %w", claimID, err)
	}
	defer func() { _ = rows.Close() }()

	var results []domain.VerificationResult
	for rows.Next() {
		var (
			r         domain.VerificationResult
			source    string
			payload   []byte
			counted   int
			createdAt int64
		)
		if err := rows.Scan(&r.ID, &r.ClaimID, &source, &payload, &counted, &createdAt); err != nil {
			return nil, fmt.Errorf("scan result for %s: %w", claimID, err)
		}
		r.Source = domain.Source(source)
		r.RawPayload = json.RawMessage(payload)
		r.Counted = counted == 1
		r.CreatedAt = fromNanos(createdAt)
		p, err := domain.DecodePayload(r.Source, r.RawPayload)
		if err != nil {
			return nil, fmt.Errorf("decode stored result %s: %w", r.ID, err)
		}
		r.Payload = p
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list results %s: %w", claimID, err)
	}
	return results, nil
}

// Timestamps are stored as Unix nanoseconds so both dialects compare them
// exactly.
func toNanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}
