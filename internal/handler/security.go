package handler

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/ecocin/internal/domain/auth"
)

// APIKeyHeader carries the caller's plain API key.
const APIKeyHeader = "api_key"

// Guard authenticates requests by the HMAC-SHA256 hash of their API key.
type Guard struct {
	apikeys auth.Repository
	pepper  []byte
}

// NewGuard creates a Guard backed by apikeys, hashing with pepper.
func NewGuard(apikeys auth.Repository, pepper []byte) *Guard {
	return &Guard{
		apikeys: apikeys,
		pepper:  pepper,
	}
}

// errInvalidKey marks credential failures, as opposed to key store faults.
var errInvalidKey = errors.New("invalid api key")

// Middleware rejects requests without a valid key with 401. Key store
// faults are answered with 500.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, err := g.authenticate(r)
		switch {
		case errors.Is(err, errInvalidKey):
			zctx.From(r.Context()).Debug("Rejected API key", zap.Error(err))
			writeErrorMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		case err != nil:
			writeError(w, r, errors.Wrap(err, "authenticate"))
			return
		}
		ctx := r.Context()
		ctx = zctx.Base(ctx, zctx.From(ctx).With(zap.String("api_key_name", info.Name)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Guard) authenticate(r *http.Request) (*auth.APIKeyInfo, error) {
	key := r.Header.Get(APIKeyHeader)
	if key == "" {
		return nil, errors.Wrap(errInvalidKey, "missing key")
	}
	hexHash := auth.HashKey(g.pepper, key)

	info, err := g.apikeys.FindByHash(r.Context(), hexHash)
	if errors.Is(err, auth.ErrNotFound) {
		return nil, errors.Wrap(errInvalidKey, "unknown key")
	}
	if err != nil {
		return nil, errors.Wrap(err, "find key")
	}

	// The stored row must hash to the same bytes.
	computed, err := hex.DecodeString(hexHash)
	if err != nil {
		return nil, errors.Wrap(err, "decode computed hash")
	}
	stored, err := hex.DecodeString(info.KeyHash)
	if err != nil {
		return nil, errors.Wrap(err, "decode stored hash")
	}
	if subtle.ConstantTimeCompare(computed, stored) != 1 {
		return nil, errors.Wrap(errInvalidKey, "hash mismatch")
	}
	return info, nil
}
