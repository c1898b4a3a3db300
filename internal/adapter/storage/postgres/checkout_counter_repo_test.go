package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutCounterRepo_ListByMerchant(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCheckoutCounterRepo(mock)

	mock.ExpectQuery("SELECT id, merchant_id, description, alias_value").
		WithArgs(int64(42)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "merchant_id", "description", "alias_value"}).
			AddRow(int64(1001), int64(42), "till 1", "0037042").
			AddRow(int64(1002), int64(42), "till 2", ""))

	counters, err := repo.ListByMerchant(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, counters, 2)
	assert.Equal(t, "0037042", counters[0].AliasValue)
	assert.Empty(t, counters[1].AliasValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckoutCounterRepo_UpdateAliasValue(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewCheckoutCounterRepo(mock)

	mock.ExpectExec("UPDATE checkout_counters SET alias_value").
		WithArgs("0037042", int64(1001)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.UpdateAliasValue(context.Background(), 1001, "0037042")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
