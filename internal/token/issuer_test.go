package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamyarm/wedding-seating/internal/repository"
)

func TestMint_OpaqueAndUnique(t *testing.T) {
	store := repository.NewMemoryStore()
	iss := NewIssuer(store)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := iss.Mint(ctx)
		require.NoError(t, err)
		assert.Len(t, tok, 32) // 16 random bytes, hex encoded
		_, dup := seen[tok]
		assert.False(t, dup, "token %q minted twice", tok)
		seen[tok] = struct{}{}
	}
}

func TestMintBatch(t *testing.T) {
	store := repository.NewMemoryStore()
	iss := NewIssuer(store)

	toks, err := iss.MintBatch(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, toks, 25)
	seen := make(map[string]struct{}, len(toks))
	for _, tok := range toks {
		seen[tok] = struct{}{}
	}
	assert.Len(t, seen, 25)
}

func TestVerify_UnknownToken(t *testing.T) {
	store := repository.NewMemoryStore()
	iss := NewIssuer(store)

	_, _, err := iss.Verify(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef")
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}
