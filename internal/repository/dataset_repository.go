package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campuspulse/survey-server/internal/repository/models"
	"github.com/campuspulse/survey-server/internal/survey"
)

// ErrNotFound is returned when the requested dataset does not exist.
var ErrNotFound = errors.New("dataset not found")

type DatasetRepository struct {
	db *sql.DB
}

func NewDatasetRepository(db *sql.DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Migrate creates the schema. Idempotent; called once at startup.
func (r *DatasetRepository) Migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS datasets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		uploaded_at TEXT NOT NULL,
		headers TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS responses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		dataset_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		submitted_at TEXT NOT NULL,
		year_semester TEXT NOT NULL,
		gender TEXT NOT NULL,
		branch TEXT NOT NULL,
		section_type TEXT NOT NULL,
		cells TEXT NOT NULL,
		FOREIGN KEY (dataset_id) REFERENCES datasets(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_responses_dataset
		ON responses(dataset_id, position);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// SaveDataset stores a parsed table transactionally and returns the new
// dataset id. Row order is preserved via the position column.
func (r *DatasetRepository) SaveDataset(ctx context.Context, name string, table *survey.Table) (int64, error) {
	headers, err := json.Marshal(table.Headers)
	if err != nil {
		return 0, fmt.Errorf("marshal headers: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin SaveDataset: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO datasets (name, uploaded_at, headers) VALUES (?, ?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339), string(headers))
	if err != nil {
		return 0, fmt.Errorf("insert dataset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("dataset id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO responses
			(dataset_id, position, submitted_at, year_semester, gender, branch, section_type, cells)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert response: %w", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		cells, err := json.Marshal(row.Cells)
		if err != nil {
			return 0, fmt.Errorf("marshal cells at row %d: %w", i, err)
		}
		_, err = stmt.ExecContext(ctx, id, i,
			row.SubmittedAt.UTC().Format(time.RFC3339),
			row.YearSemester, row.Gender, row.Branch, row.SectionType,
			string(cells))
		if err != nil {
			return 0, fmt.Errorf("insert response at row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit SaveDataset: %w", err)
	}
	return id, nil
}

// GetDataset loads a dataset with its rows in upload order.
func (r *DatasetRepository) GetDataset(ctx context.Context, id int64) (*models.Dataset, error) {
	ds := &models.Dataset{ID: id, Table: &survey.Table{}}

	var uploadedAt, headers string
	err := r.db.QueryRowContext(ctx,
		`SELECT name, uploaded_at, headers FROM datasets WHERE id = ?`, id).
		Scan(&ds.Name, &uploadedAt, &headers)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query dataset %d: %w", id, err)
	}
	if ds.UploadedAt, err = time.Parse(time.RFC3339, uploadedAt); err != nil {
		return nil, fmt.Errorf("parse uploaded_at: %w", err)
	}
	if err := json.Unmarshal([]byte(headers), &ds.Table.Headers); err != nil {
		return nil, fmt.Errorf("unmarshal headers: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT submitted_at, year_semester, gender, branch, section_type, cells
		FROM responses WHERE dataset_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query responses for dataset %d: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var submittedAt, cells string
		var row survey.Row
		if err := rows.Scan(&submittedAt, &row.YearSemester, &row.Gender,
			&row.Branch, &row.SectionType, &cells); err != nil {
			return nil, fmt.Errorf("scan response row: %w", err)
		}
		if row.SubmittedAt, err = time.Parse(time.RFC3339, submittedAt); err != nil {
			return nil, fmt.Errorf("parse submitted_at: %w", err)
		}
		if err := json.Unmarshal([]byte(cells), &row.Cells); err != nil {
			return nil, fmt.Errorf("unmarshal cells: %w", err)
		}
		ds.Table.Rows = append(ds.Table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return ds, nil
}

// ListDatasets returns all stored datasets, newest first, with
// SQL-side response counts.
func (r *DatasetRepository) ListDatasets(ctx context.Context) ([]models.DatasetInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.uploaded_at, COUNT(resp.id) AS response_count
		FROM datasets AS d
		LEFT JOIN responses AS resp ON resp.dataset_id = d.id
		GROUP BY d.id
		ORDER BY d.uploaded_at DESC, d.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query ListDatasets: %w", err)
	}
	defer rows.Close()

	var out []models.DatasetInfo
	for rows.Next() {
		var info models.DatasetInfo
		var uploadedAt string
		if err := rows.Scan(&info.ID, &info.Name, &uploadedAt, &info.ResponseCount); err != nil {
			return nil, fmt.Errorf("scan ListDatasets row: %w", err)
		}
		if info.UploadedAt, err = time.Parse(time.RFC3339, uploadedAt); err != nil {
			return nil, fmt.Errorf("parse uploaded_at: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListDatasets: %w", err)
	}
	return out, nil
}

// DeleteDataset removes a dataset and its responses.
func (r *DatasetRepository) DeleteDataset(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin DeleteDataset: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE dataset_id = ?`, id); err != nil {
		return fmt.Errorf("delete responses: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete dataset rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// DistinctValues fetches the observed values per categorical dimension
// and the dataset's response time bounds, all computed in SQL.
func (r *DatasetRepository) DistinctValues(ctx context.Context, id int64) (models.FilterOptions, error) {
	var opts models.FilterOptions

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM datasets WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return opts, fmt.Errorf("query dataset %d: %w", id, err)
	}
	if exists == 0 {
		return opts, ErrNotFound
	}

	for _, q := range []struct {
		column string
		dest   *[]string
	}{
		{"year_semester", &opts.YearSemesters},
		{"gender", &opts.Genders},
		{"branch", &opts.Branches},
		{"section_type", &opts.SectionTypes},
	} {
		values, err := r.distinctColumn(ctx, id, q.column)
		if err != nil {
			return opts, err
		}
		*q.dest = values
	}

	var minTS, maxTS sql.NullString
	err = r.db.QueryRowContext(ctx, `
		SELECT MIN(submitted_at), MAX(submitted_at)
		FROM responses WHERE dataset_id = ?`, id).Scan(&minTS, &maxTS)
	if err != nil {
		return opts, fmt.Errorf("query time bounds: %w", err)
	}
	if minTS.Valid {
		if opts.EarliestResponse, err = time.Parse(time.RFC3339, minTS.String); err != nil {
			return opts, fmt.Errorf("parse earliest response: %w", err)
		}
	}
	if maxTS.Valid {
		if opts.LatestResponse, err = time.Parse(time.RFC3339, maxTS.String); err != nil {
			return opts, fmt.Errorf("parse latest response: %w", err)
		}
	}
	return opts, nil
}

func (r *DatasetRepository) distinctColumn(ctx context.Context, id int64, column string) ([]string, error) {
	// column names come from the fixed list above, never from input
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM responses WHERE dataset_id = ? ORDER BY %s`,
		column, column)

	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("query distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct %s: %w", column, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate distinct %s: %w", column, err)
	}
	return values, nil
}
