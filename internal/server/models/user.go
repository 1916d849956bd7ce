package models

import "time"

// User is the account record. Email is unique and compared case-sensitively.
type User struct {
	ID                    string
	Email                 string
	PasswordHash          string
	RoleID                int
	Avatar                string
	LastAccess            time.Time
	TotalReadingSeconds   int64
	LastReadingDocumentID *string
	CreatedAt             time.Time
}

type Role struct {
	ID   int
	Name string
}
