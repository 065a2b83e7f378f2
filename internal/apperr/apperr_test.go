package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelOfSameKind(t *testing.T) {
	err := New(KindNotFound, "space %q not found", "R9")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)
	assert.Equal(t, `space "R9" not found`, err.Error())

	wrapped := fmt.Errorf("create booking: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	kind, ok := KindOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, KindNotFound, kind)
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindStorageFailure, cause, "flush bookings")
	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "flush bookings: disk full", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(New(KindInvalidInput, "bad date")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrNotFound))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(ErrNotBookable))
	assert.Equal(t, http.StatusConflict, HTTPStatus(ErrConflict))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrStorageFailure))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
