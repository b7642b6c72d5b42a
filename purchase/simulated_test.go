package purchase_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/progression/catalog"
	"github.com/xraph/progression/purchase"
	"github.com/xraph/progression/types"
)

func TestSimulatedConfirms(t *testing.T) {
	p := purchase.NewSimulated()

	r, err := p.SubmitPurchase(context.Background(), "c-101", catalog.KindCourse, types.USD(4900))
	require.NoError(t, err)
	assert.True(t, r.Confirmed())
	assert.True(t, strings.HasPrefix(r.TransactionID, "txn_"))
	assert.Equal(t, types.USD(4900), r.Price)

	again, err := p.SubmitPurchase(context.Background(), "c-101", catalog.KindCourse, types.USD(4900))
	require.NoError(t, err)
	assert.NotEqual(t, r.TransactionID, again.TransactionID)
	assert.Len(t, p.Receipts(), 2)
}

func TestSimulatedDeclines(t *testing.T) {
	p := purchase.NewSimulated("p-sci")

	r, err := p.SubmitPurchase(context.Background(), "p-sci", catalog.KindPack, types.USD(9900))
	require.ErrorIs(t, err, purchase.ErrDeclined)
	assert.False(t, r.Confirmed())
	assert.Equal(t, purchase.StatusFailed, r.Status)
}

func TestSimulatedHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := purchase.NewSimulated().SubmitPurchase(ctx, "l1", catalog.KindLesson, types.USD(500))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProviderFunc(t *testing.T) {
	var p purchase.Provider = purchase.ProviderFunc(func(_ context.Context, itemID string, kind catalog.Kind, price types.Money) (*purchase.Receipt, error) {
		return &purchase.Receipt{TransactionID: "t-1", ItemID: itemID, Kind: kind, Price: price, Status: purchase.StatusPending}, nil
	})

	r, err := p.SubmitPurchase(context.Background(), "l1", catalog.KindLesson, types.USD(100))
	require.NoError(t, err)
	assert.False(t, r.Confirmed())
}
