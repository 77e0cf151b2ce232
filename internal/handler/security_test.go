package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bloomstead/flowershop/internal/domain/auth"
)

type mockKeyRepo struct {
	keys map[string]*auth.APIKeyInfo
}

func (m *mockKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := m.keys[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return info, nil
}

func TestAPIKeyAuth(t *testing.T) {
	pepper := []byte("test-pepper")
	key := "s3cret-admin-key"

	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	hash := hex.EncodeToString(mac.Sum(nil))

	repo := &mockKeyRepo{keys: map[string]*auth.APIKeyInfo{
		hash: {ID: "default", KeyHash: hash, Name: "Default admin key"},
	}}

	var reached bool
	protected := APIKeyAuth(repo, pepper)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid key passes", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodPost, "/admin/coupons", nil)
		req.Header.Set("X-API-Key", key)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodPost, "/admin/coupons", nil)
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})

	t.Run("wrong key is rejected", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodPost, "/admin/coupons", nil)
		req.Header.Set("X-API-Key", "not-the-key")
		rec := httptest.NewRecorder()

		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, reached)
	})
}
