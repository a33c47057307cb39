package model

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleApplicant Role = "applicant"
	RoleApprover  Role = "approver"
	RoleDnsTa     Role = "dnsta"
)

func (r Role) Valid() bool {
	switch r {
	case RoleApplicant, RoleApprover, RoleDnsTa:
		return true
	}
	return false
}

type ApplicationStatus string

const (
	StatusPending   ApplicationStatus = "pending"
	StatusApproved  ApplicationStatus = "approved"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
	StatusRevoked   ApplicationStatus = "revoked"
	StatusCompleted ApplicationStatus = "completed"
)

type ApplicationAction string

const (
	ActionAdd ApplicationAction = "add"
)

type RecordType string

const (
	TypeA     RecordType = "A"
	TypeAAAA  RecordType = "AAAA"
	TypeCNAME RecordType = "CNAME"
	TypePTR   RecordType = "PTR"
)

func (t RecordType) Valid() bool {
	switch t {
	case TypeA, TypeAAAA, TypeCNAME, TypePTR:
		return true
	}
	return false
}

type RecordStatus string

const (
	RecordActive   RecordStatus = "active"
	RecordInactive RecordStatus = "inactive"
)

type User struct {
	ID             uuid.UUID
	Username       string
	Name           string
	Email          string
	Role           Role
	OfficeRoom     string
	OfficeExt      string
	ApproverID     *uuid.UUID // default approver for applicants
	PassHash       string
	Active         bool
	AuthSource     string // "local" or "ldap"
	LastLoggedInAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Application is a single DNS change request and its lifecycle state.
// Rows are never deleted; status only moves along the transition graph
// owned by the workflow package.
type Application struct {
	ID          uuid.UUID
	ApplicantID uuid.UUID
	ApproverID  uuid.UUID
	Action      ApplicationAction
	RecordName  string
	RecordType  RecordType
	RecordData  string
	OfficeRoom  string
	OfficeExt   string
	Remark      string
	Status      ApplicationStatus
	RecordID    *uuid.UUID // derived record, set once COMPLETED
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Record is a materialized DNS record created from a completed ADD
// application. At most one record exists per application.
type Record struct {
	ID            uuid.UUID
	Name          string
	Type          RecordType
	Data          string
	Status        RecordStatus
	ApplicationID uuid.UUID
	CreatedAt     time.Time
}

type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type AuditEntry struct {
	ID            int64
	Username      string
	Action        string
	ApplicationID string
	RecordName    string
	RecordType    string
	Detail        string
	IPAddress     string
	CreatedAt     time.Time
}
