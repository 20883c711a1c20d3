// Package models holds the server-side persistent entities.
package models

import "time"

// Account is a registered identity. CredentialHash is never serialized.
type Account struct {
	ID             string    `db:"id" json:"id"`
	Username       string    `db:"username" json:"username"`
	CredentialHash string    `db:"credential_hash" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
