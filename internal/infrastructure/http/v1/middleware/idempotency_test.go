package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backoffice/internal/core/apperror"
	"backoffice/internal/infrastructure/storage/postgres"
)

type fakeKeys struct {
	replay     *postgres.IdempotencyReplay
	acquireErr error

	acquired  []string
	completed []string
	failed    []string
	lastOp    string
	lastHash  string
}

func (f *fakeKeys) AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error) {
	f.acquired = append(f.acquired, key)
	f.lastOp = operation
	f.lastHash = requestHash
	return f.replay, f.acquireErr
}

func (f *fakeKeys) CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	f.completed = append(f.completed, key)
	return nil
}

func (f *fakeKeys) FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error {
	f.failed = append(f.failed, key)
	return nil
}

func idempotencyRouter(store IdempotencyKeys, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.Use(Idempotency(store))
	r.POST("/refunds", handler)
	return r
}

func postRefund(r *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/refunds", bytes.NewBufferString(`{"amount":"10.00"}`))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoHeaderPassesThrough(t *testing.T) {
	store := &fakeKeys{}
	r := idempotencyRouter(store, func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": "r1"})
	})

	w := postRefund(r, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, store.acquired)
}

func TestIdempotency_AcquiresKeyAndRunsHandler(t *testing.T) {
	store := &fakeKeys{}
	var storedKey any
	r := idempotencyRouter(store, func(c *gin.Context) {
		storedKey, _ = c.Get("idempotency_key")
		c.JSON(http.StatusCreated, gin.H{"id": "r1"})
	})

	w := postRefund(r, "key-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"key-1"}, store.acquired)
	assert.Equal(t, "key-1", storedKey)
	assert.Equal(t, "POST /refunds", store.lastOp)
	assert.NotEmpty(t, store.lastHash)
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	store := &fakeKeys{replay: &postgres.IdempotencyReplay{
		StatusCode:  http.StatusCreated,
		ContentType: "application/json",
		Body:        []byte(`{"id":"r1"}`),
	}}
	handlerRan := false
	r := idempotencyRouter(store, func(c *gin.Context) {
		handlerRan = true
		c.JSON(http.StatusCreated, gin.H{"id": "r2"})
	})

	w := postRefund(r, "key-1")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"r1"}`, w.Body.String())
	assert.False(t, handlerRan)
}

func TestIdempotency_InFlightKeyConflicts(t *testing.T) {
	store := &fakeKeys{acquireErr: apperror.NewIdempotencyConflict("key-1")}
	r := idempotencyRouter(store, func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": "r1"})
	})

	w := postRefund(r, "key-1")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeIdempotency)
}

func TestIdempotency_HandlerErrorFailsKey(t *testing.T) {
	store := &fakeKeys{}
	r := idempotencyRouter(store, func(c *gin.Context) {
		_ = c.Error(apperror.NewValidation("amount exceeds order total"))
		c.Abort()
	})

	w := postRefund(r, "key-1")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"key-1"}, store.failed)
	assert.Empty(t, store.completed)
}
