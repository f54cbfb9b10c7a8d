package model

import "time"

// Admin represents a planner account as stored in the `admins` table.
// The json tags are omitted because these structs are used internally
// by the repository layer; handlers define separate response types.
//
// Fields:
//  ID           – primary key identifier.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  IsActive     – whether the account may log in.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type Admin struct {
	ID           uint64    // admins.id
	Email        string    // admins.email
	PasswordHash string    // admins.password_hash
	IsActive     bool      // admins.is_active
	CreatedAt    time.Time // admins.created_at
	UpdatedAt    time.Time // admins.updated_at
}
