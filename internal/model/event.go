package model

import "time"

// MaxTableCapacity is the hard upper bound on guests per table.  Every
// mutation path re-checks this limit before committing; it is a product
// constant, not a per-event setting.
const MaxTableCapacity = 12

// Event is one wedding's seating dataset and the unit of isolation.
// All tables, guests and broadcast sequences are scoped to a single
// event; operations on different events never contend.
//
// Fields:
//  ID         – primary key identifier.
//  Name       – display name of the wedding ("Sara & Omid").
//  PublicCode – short opaque code used in portal and live URLs.
//  Version    – optimistic locking counter bumped on every commit.
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Event struct {
	ID         uint64    // events.id
	Name       string    // events.name
	PublicCode string    // events.public_code
	Version    uint64    // events.version
	CreatedAt  time.Time // events.created_at
	UpdatedAt  time.Time // events.updated_at
}
