package repository

import (
	"errors"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	require.NotNil(t, NewShowRepo(nil))
	require.NotNil(t, NewBookingRepo(nil))
}

func TestTranslateMySQLError(t *testing.T) {
	// A duplicate key on occupied_seats means another booking claimed
	// the seat first.
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'A1-1'"}
	assert.ErrorIs(t, translateMySQLError(dup), ErrSeatsUnavailable)

	// A failed foreign key means the show vanished under us.
	fk := &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"}
	assert.ErrorIs(t, translateMySQLError(fk), ErrShowNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateMySQLError(other))
}
