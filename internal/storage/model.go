package storage

import "time"

// User is an account row.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is a login session row.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// BackupRow is the flattened form of any created row, handed to the
// backup worker for appending to the external ledger.
type BackupRow struct {
	Entity string
	ID     int64
	Name   string
	Detail string
	Amount int64
	Date   string
}
