package handlers

import (
	"testing"
	"time"

	"spotix/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaleReferenceRowsOldestFirst(t *testing.T) {
	now := time.Now()
	rows := staleReferenceRows([]*models.PaymentReference{
		{Reference: "SPTX-TX-2B345678C9", Method: models.MethodPaystack, Amount: 2150, CreatedAt: now.Add(-time.Hour)},
		{Reference: "SPTX-TX-3C456789D0", Method: models.MethodMonnify, Amount: 1940, CreatedAt: now.Add(-3 * time.Hour)},
		{Reference: "SPTX-TX-1A234567B8", Method: models.MethodWallet, Amount: 10500, CreatedAt: now.Add(-2 * time.Hour)},
	})

	require.Len(t, rows, 3)
	assert.Equal(t, "SPTX-TX-3C456789D0", rows[0]["reference"])
	assert.Equal(t, "SPTX-TX-1A234567B8", rows[1]["reference"])
	assert.Equal(t, "SPTX-TX-2B345678C9", rows[2]["reference"])
	assert.Equal(t, "monnify", rows[0]["payment_method"])
	assert.Equal(t, int64(1940), rows[0]["amount"])
}

func TestStaleReferenceRowsEmpty(t *testing.T) {
	assert.Empty(t, staleReferenceRows(nil))
}
