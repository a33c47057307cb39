package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"dnsapply/internal/model"
)

const recordColumns = "id, name, type, data, status, application_id, created_at"

func scanRecord(row interface{ Scan(...any) error }) (*model.Record, error) {
	r := &model.Record{}
	err := row.Scan(&r.ID, &r.Name, &r.Type, &r.Data, &r.Status, &r.ApplicationID, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (db *DB) GetRecord(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	return scanRecord(db.conn.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM records WHERE id = $1", id,
	))
}

func (db *DB) ListRecords(ctx context.Context, status model.RecordStatus, limit, offset int) ([]model.Record, int, error) {
	where := ""
	args := []any{}
	if status != "" {
		args = append(args, status)
		where = "WHERE status = $1"
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(
		"SELECT "+recordColumns+" FROM records %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, *r)
	}
	return records, total, rows.Err()
}
