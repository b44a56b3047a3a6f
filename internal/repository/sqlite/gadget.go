package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msomdec/gadget-registry/internal/domain"
)

const gadgetColumns = `id, name, codename, status, decommissioned_at, created_at, updated_at`

// GadgetRepository implements domain.GadgetRepository using SQLite.
type GadgetRepository struct {
	db *sql.DB
}

// Create inserts gadget, assigning its ID and timestamps. A codename
// collision returns domain.ErrDuplicateCodename and leaves gadget untouched.
func (r *GadgetRepository) Create(ctx context.Context, gadget *domain.Gadget) error {
	id := uuid.New()
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO gadgets (id, name, codename, status, decommissioned_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, gadget.Name, gadget.Codename, string(gadget.Status), nullTime(gadget.DecommissionedAt), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCodename
		}
		return fmt.Errorf("insert gadget: %w", err)
	}

	gadget.ID = id
	gadget.CreatedAt = now
	gadget.UpdatedAt = now
	return nil
}

// GetByID returns domain.ErrNotFound when no gadget has id.
func (r *GadgetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Gadget, error) {
	return getGadget(ctx, r.db, id)
}

// List returns gadgets newest first, filtered by status when non-nil.
func (r *GadgetRepository) List(ctx context.Context, status *domain.GadgetStatus) ([]domain.Gadget, error) {
	query := `SELECT ` + gadgetColumns + ` FROM gadgets`
	var args []any
	if status != nil {
		query += ` WHERE status = ?`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query gadgets: %w", err)
	}
	defer rows.Close()

	gadgets := []domain.Gadget{}
	for rows.Next() {
		g, err := scanGadget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan gadget: %w", err)
		}
		gadgets = append(gadgets, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate gadgets: %w", err)
	}
	return gadgets, nil
}

// Update overwrites the mutable fields of an existing gadget. Concurrent
// updates are last-write-wins.
func (r *GadgetRepository) Update(ctx context.Context, gadget *domain.Gadget) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE gadgets SET name = ?, status = ?, updated_at = ? WHERE id = ?`,
		gadget.Name, string(gadget.Status), now, gadget.ID,
	)
	if err != nil {
		return fmt.Errorf("update gadget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	gadget.UpdatedAt = now
	return nil
}

// Decommission moves a gadget that is not yet decommissioned into the
// Decommissioned state and stamps the time in the same statement. It
// returns domain.ErrNotFound when no such gadget exists or it was already
// decommissioned.
func (r *GadgetRepository) Decommission(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Gadget, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	at = at.UTC()
	res, err := tx.ExecContext(ctx,
		`UPDATE gadgets SET status = ?, decommissioned_at = ?, updated_at = ?
		 WHERE id = ? AND status <> ?`,
		string(domain.StatusDecommissioned), at, at, id, string(domain.StatusDecommissioned),
	)
	if err != nil {
		return nil, fmt.Errorf("decommission gadget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}

	g, err := getGadget(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return g, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getGadget(ctx context.Context, q queryRower, id uuid.UUID) (*domain.Gadget, error) {
	row := q.QueryRowContext(ctx, `SELECT `+gadgetColumns+` FROM gadgets WHERE id = ?`, id)
	g, err := scanGadget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query gadget by id: %w", err)
	}
	return g, nil
}

func scanGadget(s scanner) (*domain.Gadget, error) {
	var (
		g              domain.Gadget
		status         string
		decommissioned sql.NullTime
	)
	if err := s.Scan(&g.ID, &g.Name, &g.Codename, &status, &decommissioned, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	g.Status = domain.GadgetStatus(status)
	if decommissioned.Valid {
		t := decommissioned.Time
		g.DecommissionedAt = &t
	}
	return &g, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
