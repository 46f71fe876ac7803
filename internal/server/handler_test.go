package server

import (
	"crypto/sha256"
	"encoding/json"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type testLogger struct{}

func (testLogger) Debug(...any)          {}
func (testLogger) Info(...any)           {}
func (testLogger) Error(...any)          {}
func (testLogger) Debugf(string, ...any) {}
func (testLogger) Infof(string, ...any)  {}
func (testLogger) Errorf(string, ...any) {}

func TestWriteJsonResponse(t *testing.T) {
	s := Server{Logger: testLogger{}}
	rec := httptest.NewRecorder()
	s.writeJsonResponse(rec, map[string]int{"coins": 42}, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"coins":42}`, rec.Body.String())
}

func TestWriteErrorResponse(t *testing.T) {
	s := Server{Logger: testLogger{}}
	rec := httptest.NewRecorder()
	s.writeErrorResponse(rec, "Not enough coins", http.StatusConflict)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Not enough coins", resp.Error)
}

func TestPageSize(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/bill/get?limit=10", nil)
	assert.Equal(t, int64(10), pageSize(req, 50))

	req = httptest.NewRequest(http.MethodGet, "/api/bill/get", nil)
	assert.Equal(t, int64(50), pageSize(req, 50))

	req = httptest.NewRequest(http.MethodGet, "/api/bill/get?limit=0", nil)
	assert.Equal(t, int64(50), pageSize(req, 50))

	req = httptest.NewRequest(http.MethodGet, "/api/bill/get?limit=-3", nil)
	assert.Equal(t, int64(50), pageSize(req, 50))

	req = httptest.NewRequest(http.MethodGet, "/api/bill/get?limit=9999", nil)
	assert.Equal(t, int64(50), pageSize(req, 50))

	req = httptest.NewRequest(http.MethodGet, "/api/bill/get?limit=abc", nil)
	assert.Equal(t, int64(50), pageSize(req, 50))
}

func TestLoggingMwRecoversPanic(t *testing.T) {
	s := Server{Logger: testLogger{}}
	h := s.loggingMw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/wallet/get", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCreateLoginTokenAndHash(t *testing.T) {
	key, err := jwk.FromRaw([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	s := Server{Logger: testLogger{}, AuthSecretKey: key}

	lt, tokenID, exp, hash, err := s.createLoginTokenAndHash("user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, tokenID)
	assert.True(t, exp.After(time.Now().AddDate(0, 0, 89)))

	parsed, err := jwt.Parse([]byte(lt), jwt.WithKey(jwa.HS256, key), jwt.WithValidate(true))
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.Subject())
	assert.Equal(t, tokenID, parsed.JwtID())

	tokenHash := sha256.Sum256([]byte(lt))
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, tokenHash[:]))

	// A different token must not verify against this hash.
	otherHash := sha256.Sum256([]byte(lt + "x"))
	assert.Error(t, bcrypt.CompareHashAndPassword(hash, otherHash[:]))
}
