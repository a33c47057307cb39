package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dnsapply/internal/model"
)

const userColumns = `id, username, name, email, role, office_room, office_ext,
	approver_id, pass_hash, active, auth_source, last_logged_in_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	var approverID sql.NullString
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Role, &u.OfficeRoom,
		&u.OfficeExt, &approverID, &u.PassHash, &u.Active, &u.AuthSource,
		&lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if approverID.Valid {
		if id, err := uuid.Parse(approverID.String); err == nil {
			u.ApproverID = &id
		}
	}
	if lastLogin.Valid {
		u.LastLoggedInAt = &lastLogin.Time
	}
	return u, nil
}

func (db *DB) GetUserByUsername(username string) (*model.User, error) {
	return scanUser(db.conn.QueryRow(
		"SELECT "+userColumns+" FROM users WHERE username = $1", username,
	))
}

func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(db.conn.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id,
	))
}

func (db *DB) ListApprovers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role = $1 AND active ORDER BY name",
		model.RoleApprover,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (db *DB) CreateUser(username, name, email, password string, role model.Role) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	_, err = db.conn.Exec(
		"INSERT INTO users (id, username, name, email, role, pass_hash) VALUES ($1, $2, $3, $4, $5, $6)",
		uuid.New(), username, name, email, role, string(hash),
	)
	return err
}

func (db *DB) UpdateUserProfile(ctx context.Context, id uuid.UUID, officeRoom, officeExt string) (*model.User, error) {
	return scanUser(db.conn.QueryRowContext(ctx,
		`UPDATE users SET office_room = $1, office_ext = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING `+userColumns,
		officeRoom, officeExt, id,
	))
}

func (db *DB) TouchLastLogin(username string) error {
	_, err := db.conn.Exec(
		"UPDATE users SET last_logged_in_at = NOW(), updated_at = NOW() WHERE username = $1",
		username,
	)
	return err
}

func (db *DB) AuthenticateUser(username, password string) (*model.User, error) {
	u, err := db.GetUserByUsername(username)
	if err != nil || u == nil || !u.Active {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PassHash), []byte(password)); err != nil {
		return nil, nil
	}
	return u, nil
}

func (db *DB) CreateLDAPUser(username, name, email string, role model.Role) error {
	_, err := db.conn.Exec(
		`INSERT INTO users (id, username, name, email, role, pass_hash, auth_source)
		 VALUES ($1, $2, $3, $4, $5, '', 'ldap')
		 ON CONFLICT(username) DO UPDATE SET
		   name = $6, email = $7, role = $8, auth_source = 'ldap', updated_at = NOW()`,
		uuid.New(), username, name, email, role, name, email, role,
	)
	return err
}
