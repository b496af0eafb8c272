package postgres

import (
	"errors"
	"fmt"
	"testing"

	"communityhub-backend/internal/gateway"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyNoRowsIsNotFound(t *testing.T) {
	err := classify("get event", pgx.ErrNoRows)
	assert.True(t, errors.Is(err, gateway.ErrNotFound))
}

func TestClassifyConstraintViolations(t *testing.T) {
	cases := []struct {
		pg    *pgconn.PgError
		field string
	}{
		{&pgconn.PgError{Code: "23503", Message: "fk"}, "group_id"},
		{&pgconn.PgError{Code: "22007", Message: "bad date"}, "date"},
		{&pgconn.PgError{Code: "23502", Message: "null", ColumnName: "title"}, "title"},
	}
	for _, tc := range cases {
		err := classify("create event", fmt.Errorf("wrapped: %w", tc.pg))
		var vErr *gateway.ValidationError
		require.True(t, errors.As(err, &vErr), tc.pg.Code)
		assert.Contains(t, vErr.Fields, tc.field)
	}
}

func TestClassifyOtherErrorsAreTransport(t *testing.T) {
	err := classify("list events", errors.New("connection refused"))
	var vErr *gateway.ValidationError
	assert.False(t, errors.As(err, &vErr))
	assert.False(t, errors.Is(err, gateway.ErrNotFound))
	assert.Contains(t, err.Error(), "list events")
}

func TestClassifyResourceViolations(t *testing.T) {
	err := classifyAs(resourceSubject, "create resource", &pgconn.PgError{Code: "23503", Message: "fk"})
	var vErr *gateway.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Selected category does not exist", vErr.Fields["category_id"])

	err = classifyAs(resourceSubject, "create resource", &pgconn.PgError{Code: "23514", Message: "check"})
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, vErr.Fields, "resource")
}
