//go:build integration

package database

import (
	"coinloyalty/internal/model"
	"context"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// These tests need a local mongod running as a single-node replica set,
// since the wallet mutations run inside transactions:
//
//	mongod --replSet rs0 --dbpath /tmp/mongo-test &
//	mongosh --eval 'rs.initiate()'
//	TEST_DATABASE_URI=mongodb://localhost:27017 go test -tags integration ./internal/database
func testDB(t *testing.T) Database {
	t.Helper()
	uri := os.Getenv("TEST_DATABASE_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := ConnectDB(ctx, uri)
	if err != nil {
		t.Skipf("mongod not reachable at %s: %v", uri, err)
	}

	db := Database{Database: client.Database("coin_loyalty_test_db")}
	require.NoError(t, db.Drop(ctx))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return db
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWalletCreditCreatesAndClamps(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	after, err := db.WalletCredit(ctx, "u1", 50, model.HistoryEntry{
		EntryID:    model.NotificationID("u1", "b1", "approved"),
		UID:        "u1",
		Title:      "Bill Approved",
		Type:       model.HistoryBillApproved,
		CoinsDelta: 50,
		BillID:     "b1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), after)

	w, err := db.WalletFind(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), w.Coins)

	after, err = db.WalletCredit(ctx, "u1", -80, model.HistoryEntry{
		EntryID:    model.NotificationID("u1", "b2", "approved"),
		UID:        "u1",
		Title:      "Bill Approved",
		Type:       model.HistoryBillApproved,
		CoinsDelta: -80,
		BillID:     "b2",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), after)

	hs, err := db.HistoryFindByUID(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	assert.Len(t, hs, 2)
}

func TestWalletAdjustClampRecordsApplied(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	require.NoError(t, db.WalletEnsure(ctx, "u1"))

	before, after, applied, err := db.WalletAdjust(ctx, "u1", 30, model.HistoryEntry{
		UID:   "u1",
		Title: "Coins Adjusted",
		Type:  model.HistoryAdminWalletAdjust,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), before)
	assert.Equal(t, int64(30), after)
	assert.Equal(t, int64(30), applied)

	before, after, applied, err = db.WalletAdjust(ctx, "u1", -100, model.HistoryEntry{
		UID:   "u1",
		Title: "Coins Adjusted",
		Type:  model.HistoryAdminWalletAdjust,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(30), before)
	assert.Equal(t, int64(0), after)
	assert.Equal(t, int64(-30), applied)

	hs, err := db.HistoryFindByUID(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	require.NotNil(t, hs[0].BeforeCoins)
	require.NotNil(t, hs[0].AfterCoins)
	assert.Equal(t, int64(-30), hs[0].CoinsDelta)
}

func TestSchemeRequestCreateInsufficientBalance(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	_, err := db.WalletCredit(ctx, "u1", 10, model.HistoryEntry{UID: "u1", Type: model.HistoryBillApproved, CoinsDelta: 10})
	require.NoError(t, err)

	_, err = db.SchemeRequestCreate(ctx, model.SchemeRequest{
		UID:           "u1",
		SchemeID:      primitive.NewObjectID(),
		SchemeTitle:   "Gold Scheme",
		RequiredCoins: 25,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotEnoughCoins))

	// The abort must leave no partial state behind.
	w, err := db.WalletFind(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), w.Coins)

	n, err := db.SchemeRequestsCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	hs, err := db.HistoryFindByUID(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	assert.Len(t, hs, 1)
}

func TestSchemeRequestCreateWalletMissing(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	_, err := db.SchemeRequestCreate(ctx, model.SchemeRequest{
		UID:           "ghost",
		SchemeID:      primitive.NewObjectID(),
		RequiredCoins: 5,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWalletNotFound))
	assert.False(t, errors.Is(err, ErrNotEnoughCoins))
}

func TestSchemeRequestRejectionDoesNotRefund(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	_, err := db.WalletCredit(ctx, "u1", 100, model.HistoryEntry{UID: "u1", Type: model.HistoryBillApproved, CoinsDelta: 100})
	require.NoError(t, err)

	sr, err := db.SchemeRequestCreate(ctx, model.SchemeRequest{
		UID:           "u1",
		SchemeID:      primitive.NewObjectID(),
		SchemeTitle:   "Gold Scheme",
		RequiredCoins: 40,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, sr.Status)

	w, err := db.WalletFind(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), w.Coins)

	decided, err := db.SchemeRequestMarkDecided(ctx, sr.ID.Hex(), model.RequestRejected, "admin1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, decided.Status)

	w, err = db.WalletFind(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), w.Coins)
}

func TestSchemeRequestDuplicateActive(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	_, err := db.WalletCredit(ctx, "u1", 100, model.HistoryEntry{UID: "u1", Type: model.HistoryBillApproved, CoinsDelta: 100})
	require.NoError(t, err)

	schemeID := primitive.NewObjectID()
	first, err := db.SchemeRequestCreate(ctx, model.SchemeRequest{
		UID:           "u1",
		SchemeID:      schemeID,
		SchemeTitle:   "Gold Scheme",
		RequiredCoins: 30,
	})
	require.NoError(t, err)

	_, err = db.SchemeRequestCreate(ctx, model.SchemeRequest{
		UID:           "u1",
		SchemeID:      schemeID,
		SchemeTitle:   "Gold Scheme",
		RequiredCoins: 30,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRequestAlreadyActive))

	// A single debit, a single request.
	w, err := db.WalletFind(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(70), w.Coins)

	n, err := db.Collection(CollectionSchemeRequests).CountDocuments(ctx, bson.M{"uid": "u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Re-requesting is allowed once the first request is rejected.
	_, err = db.SchemeRequestMarkDecided(ctx, first.ID.Hex(), model.RequestRejected, "admin1")
	require.NoError(t, err)

	_, err = db.SchemeRequestCreate(ctx, model.SchemeRequest{
		UID:           "u1",
		SchemeID:      schemeID,
		SchemeTitle:   "Gold Scheme",
		RequiredCoins: 30,
	})
	require.NoError(t, err)

	w, err = db.WalletFind(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), w.Coins)
}

func TestBillMarkDecidedOnce(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	billID, err := db.BillInsert(ctx, model.Bill{
		UID:         "u1",
		BillNumber:  "B-100",
		TotalAmount: 2500,
	})
	require.NoError(t, err)

	coins := int64(20)
	b, err := db.BillMarkDecided(ctx, billID, model.BillApproved, &coins, "admin1")
	require.NoError(t, err)
	assert.Equal(t, model.BillApproved, b.Status)
	require.NotNil(t, b.ApprovedCoins)
	assert.Equal(t, int64(20), *b.ApprovedCoins)

	_, err = db.BillMarkDecided(ctx, billID, model.BillApproved, &coins, "admin2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyDecided))

	_, err = db.BillMarkDecided(ctx, billID, model.BillRejected, nil, "admin2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyDecided))

	_, err = db.BillMarkDecided(ctx, primitive.NewObjectID().Hex(), model.BillApproved, &coins, "admin1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, mongo.ErrNoDocuments))
}

func TestDecisionMarkerClaimedOnce(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	m := model.DecisionMarker{EntityID: "bill1", UID: "u1", Coins: 20, DecidedBy: "admin1"}
	require.NoError(t, db.DecisionMarkerClaim(ctx, CollectionApprovedBills, m))

	err := db.DecisionMarkerClaim(ctx, CollectionApprovedBills, m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyProcessed))

	exists, err := db.DecisionMarkerExists(ctx, CollectionApprovedBills, "bill1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = db.DecisionMarkerExists(ctx, CollectionRejectedBills, "bill1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestHistoryUpsertIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := testCtx(t)

	h := model.HistoryEntry{
		EntryID:    model.NotificationID("u1", "b1", "approved"),
		UID:        "u1",
		Title:      "Bill Approved",
		Type:       model.HistoryBillApproved,
		CoinsDelta: 20,
		BillID:     "b1",
	}
	require.NoError(t, db.HistoryInsert(ctx, h))
	require.NoError(t, db.HistoryInsert(ctx, h))

	hs, err := db.HistoryFindByUID(ctx, "u1", time.Time{}, 10)
	require.NoError(t, err)
	assert.Len(t, hs, 1)
}
