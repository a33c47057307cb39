package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dnsapply/internal/model"
	"dnsapply/internal/workflow"
)

const applicationColumns = `id, applicant_id, approver_id, action, record_name,
	record_type, record_data, office_room, office_ext, remark, status, record_id,
	created_at, updated_at`

func scanApplication(row interface{ Scan(...any) error }) (*model.Application, error) {
	a := &model.Application{}
	var recordID sql.NullString
	err := row.Scan(&a.ID, &a.ApplicantID, &a.ApproverID, &a.Action, &a.RecordName,
		&a.RecordType, &a.RecordData, &a.OfficeRoom, &a.OfficeExt, &a.Remark,
		&a.Status, &recordID, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if recordID.Valid {
		if id, err := uuid.Parse(recordID.String); err == nil {
			a.RecordID = &id
		}
	}
	return a, nil
}

func (db *DB) Create(ctx context.Context, app *model.Application) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO applications (id, applicant_id, approver_id, action, record_name,
		   record_type, record_data, office_room, office_ext, remark, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		app.ID, app.ApplicantID, app.ApproverID, app.Action, app.RecordName,
		app.RecordType, app.RecordData, app.OfficeRoom, app.OfficeExt, app.Remark,
		app.Status,
	)
	return err
}

// CreateCompleted inserts an application that was completed at submit
// time together with its derived record, as one transaction. The zone
// publish runs inside the transaction so a publish failure rolls the
// whole submit back.
func (db *DB) CreateCompleted(ctx context.Context, app *model.Application, rec *model.Record, publish workflow.PublishFunc) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO applications (id, applicant_id, approver_id, action, record_name,
		   record_type, record_data, office_room, office_ext, remark, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		app.ID, app.ApplicantID, app.ApproverID, app.Action, app.RecordName,
		app.RecordType, app.RecordData, app.OfficeRoom, app.OfficeExt, app.Remark,
		app.Status,
	)
	if err != nil {
		return err
	}

	if rec != nil {
		if err := insertRecord(ctx, tx, app, rec); err != nil {
			return err
		}
		if publish != nil {
			if err := publish(ctx, rec); err != nil {
				return fmt.Errorf("publish record: %w", err)
			}
		}
	}

	return tx.Commit()
}

func (db *DB) Get(ctx context.Context, id uuid.UUID) (*model.Application, error) {
	return scanApplication(db.conn.QueryRowContext(ctx,
		"SELECT "+applicationColumns+" FROM applications WHERE id = $1", id,
	))
}

func (db *DB) List(ctx context.Context, f workflow.ApplicationFilter) ([]model.Application, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if f.ApplicantID != nil {
		args = append(args, *f.ApplicantID)
		where += fmt.Sprintf(" AND applicant_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM applications "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := f.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := f.Page
	if page < 1 {
		page = 1
	}
	args = append(args, perPage, (page-1)*perPage)
	query := fmt.Sprintf(
		"SELECT "+applicationColumns+" FROM applications %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args),
	)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var apps []model.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, 0, err
		}
		apps = append(apps, *a)
	}
	return apps, total, rows.Err()
}

// Transition applies a conditional status update. The WHERE clause on
// the current status serializes concurrent transitions: the loser of a
// race matches zero rows and gets ok=false, never a lost update.
func (db *DB) Transition(ctx context.Context, id uuid.UUID, from []model.ApplicationStatus, to model.ApplicationStatus, remark string) (bool, error) {
	args := []any{to, remark, id}
	placeholders := make([]string, len(from))
	for i, s := range from {
		args = append(args, string(s))
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	res, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`UPDATE applications
		 SET status = $1,
		     remark = CASE WHEN $2 <> '' THEN $2 ELSE remark END,
		     updated_at = NOW()
		 WHERE id = $3 AND status IN (%s)`, strings.Join(placeholders, ", ")),
		args...,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Complete moves an accepted application to completed and creates its
// derived record in a single transaction. ok=false means the status
// precondition no longer held. The record insert, the record_id link
// and the zone publish are all-or-nothing with the status change; the
// unique constraint on records.application_id guarantees at most one
// record per application even under retries.
func (db *DB) Complete(ctx context.Context, id uuid.UUID, rec *model.Record, publish workflow.PublishFunc) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE applications SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = $3`,
		model.StatusCompleted, id, model.StatusAccepted,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if rec != nil {
		app := &model.Application{ID: id}
		if err := insertRecord(ctx, tx, app, rec); err != nil {
			return false, err
		}
		if publish != nil {
			if err := publish(ctx, rec); err != nil {
				return false, fmt.Errorf("publish record: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, app *model.Application, rec *model.Record) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO records (id, name, type, data, status, application_id) VALUES ($1, $2, $3, $4, $5, $6)",
		rec.ID, rec.Name, rec.Type, rec.Data, rec.Status, rec.ApplicationID,
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		"UPDATE applications SET record_id = $1, updated_at = NOW() WHERE id = $2",
		rec.ID, app.ID,
	)
	return err
}
