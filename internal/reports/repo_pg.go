package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new report.
func (r *PGRepo) Create(ctx context.Context, report Report) error {
	const query = `
INSERT INTO reports (id, products, result, created_at)
VALUES ($1, $2, $3, $4)`
	products, err := json.Marshal(report.Products)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, report.ID, products, []byte(report.Result), report.CreatedAt)
	return err
}

// GetByID returns a report by its ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Report, error) {
	const query = `
SELECT id, products, result, created_at
FROM reports
WHERE id = $1`
	row := r.DB.QueryRowContext(ctx, query, id)
	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	return report, err
}

// List returns reports newest first.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Report, error) {
	const query = `
SELECT id, products, result, created_at
FROM reports
ORDER BY created_at DESC
LIMIT $1 OFFSET $2`
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (Report, error) {
	var (
		report   Report
		products []byte
		result   []byte
	)
	if err := row.Scan(&report.ID, &products, &result, &report.CreatedAt); err != nil {
		return Report{}, err
	}
	if err := json.Unmarshal(products, &report.Products); err != nil {
		return Report{}, err
	}
	report.Result = json.RawMessage(result)
	return report, nil
}

var _ Repo = (*PGRepo)(nil)
