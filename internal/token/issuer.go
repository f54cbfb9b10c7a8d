// Package token mints and verifies the opaque lookup tokens printed
// into guest QR codes.  A token is the only credential a guest holds,
// so uniqueness is permanent: a token is reserved in the store's
// ledger the moment it is issued and stays reserved after the guest is
// removed, which keeps a stale QR code from ever resolving to someone
// else's seat.
package token

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/kamyarm/wedding-seating/internal/model"
	"github.com/kamyarm/wedding-seating/internal/repository"
)

// tokenBytes yields 32 hex characters per token.
const tokenBytes = 16

// Issuer mints lookup tokens against a store's permanent ledger.  It
// is stateless beyond the store reference; verification is a pure
// lookup with no side effects.
type Issuer struct {
	store repository.Store
}

// NewIssuer returns an Issuer backed by the given store.
func NewIssuer(store repository.Store) *Issuer { return &Issuer{store: store} }

// Mint returns a fresh token that has never been issued before, across
// all events.  The caller must reserve it in the same transaction that
// commits the guest carrying it (ChangeSet.ReserveTokens).
func (i *Issuer) Mint(ctx context.Context) (string, error) {
	for {
		tok, err := randomHex(tokenBytes)
		if err != nil {
			return "", err
		}
		seen, err := i.store.TokenSeen(ctx, tok)
		if err != nil {
			return "", err
		}
		if !seen {
			return tok, nil
		}
	}
}

// MintBatch mints n distinct fresh tokens for a bulk import.
func (i *Issuer) MintBatch(ctx context.Context, n int) ([]string, error) {
	tokens := make([]string, 0, n)
	taken := make(map[string]struct{}, n)
	for len(tokens) < n {
		tok, err := i.Mint(ctx)
		if err != nil {
			return nil, err
		}
		if _, dup := taken[tok]; dup {
			continue
		}
		taken[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens, nil
}

// Verify resolves a token to its event and guest.  It returns
// repository.ErrTokenNotFound for unknown or retired tokens and never
// mutates state.
func (i *Issuer) Verify(ctx context.Context, tok string) (model.Event, model.Guest, error) {
	return i.store.FindGuestByToken(ctx, tok)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
