package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternalCarriesDetail(t *testing.T) {
	err := Internal(errors.New("model timeout"))

	assert.Equal(t, "Error processing request: model timeout", err.Error())
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
}

func TestStatusOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("load profile: %w", WrapRedis(redis.Nil))

	assert.Equal(t, http.StatusNotFound, StatusOf(wrapped))
	assert.True(t, errors.Is(wrapped, redis.Nil))

	var appErr *AppError
	require.True(t, errors.As(wrapped, &appErr))
	assert.Equal(t, RedisNotFoundMessage, appErr.Message)
}

func TestWrapRedis(t *testing.T) {
	assert.NoError(t, WrapRedis(nil))
	assert.Equal(t, http.StatusBadGateway, StatusOf(WrapRedis(errors.New("connection refused"))))
}

func TestUnavailableHasNoCause(t *testing.T) {
	err := Unavailable(GraphUnavailableMessage)

	assert.Equal(t, GraphUnavailableMessage, err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("plain")))
}
