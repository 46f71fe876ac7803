package model

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"testing"
)

func TestWalletKeyedByUID(t *testing.T) {
	data, err := bson.Marshal(Wallet{UID: "u1", Coins: 5})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(data, &doc))

	assert.Equal(t, "u1", doc["_id"])
	assert.NotContains(t, doc, "uid")
}

func TestClampCoins(t *testing.T) {
	tests := []struct {
		name        string
		before      int64
		delta       int64
		wantAfter   int64
		wantApplied int64
	}{
		{"credit", 10, 5, 15, 5},
		{"debit", 10, -4, 6, -4},
		{"debit to zero", 10, -10, 0, -10},
		{"debit past zero clamps", 10, -25, 0, -10},
		{"zero balance debit", 0, -5, 0, 0},
		{"zero delta", 7, 0, 7, 0},
		{"credit from zero", 0, 100, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after, applied := ClampCoins(tt.before, tt.delta)
			assert.Equal(t, tt.wantAfter, after)
			assert.Equal(t, tt.wantApplied, applied)
		})
	}
}
