package service

import (
	"context"
	"testing"

	"storefront/internal/models"
	"storefront/internal/service/mock"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddSameProductTwiceMergesLine(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.customer(t)
	product := f.product(t, "Lamp", "1000", 10)

	_, err := f.cart.Add(ctx, p, product.ID, 1)
	require.NoError(t, err)
	view, err := f.cart.Add(ctx, p, product.ID, 1)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 2, view.Lines[0].Quantity)
	assert.Equal(t, 1, view.ItemCount)
	assert.Equal(t, 2, view.TotalItems)
	assertDecimal(t, "2000", view.Total)
	assert.True(t, view.CanCheckout)
}

func TestAddRejectsInvalidRequests(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.customer(t)
	product := f.product(t, "Mug", "150", 2)

	_, err := f.cart.Add(ctx, p, product.ID, 0)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	_, err = f.cart.Add(ctx, p, 9999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.cart.Add(ctx, p, product.ID, 3)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = f.cart.Add(ctx, p, product.ID, 2)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, p, product.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestIncrementDecrementStayWithinStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.customer(t)
	product := f.product(t, "Chair", "500", 3)

	view, err := f.cart.Add(ctx, p, product.ID, 1)
	require.NoError(t, err)
	lineID := view.Lines[0].ID

	steps := []struct {
		op      func() (*CartView, bool, error)
		changed bool
		want    int
	}{
		{func() (*CartView, bool, error) { return f.cart.Decrement(ctx, p, lineID) }, false, 1},
		{func() (*CartView, bool, error) { return f.cart.Increment(ctx, p, lineID) }, true, 2},
		{func() (*CartView, bool, error) { return f.cart.Increment(ctx, p, lineID) }, true, 3},
		{func() (*CartView, bool, error) { return f.cart.Increment(ctx, p, lineID) }, false, 3},
		{func() (*CartView, bool, error) { return f.cart.Decrement(ctx, p, lineID) }, true, 2},
	}

	for i, step := range steps {
		view, changed, err := step.op()
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, step.changed, changed, "step %d", i)
		assert.Equal(t, step.want, view.Lines[0].Quantity, "step %d", i)

		stored, err := f.store.GetCartLines(ctx, p.UserID)
		require.NoError(t, err)
		assert.Equal(t, step.want, stored[0].Quantity, "step %d persisted", i)
	}
}

func TestStepOnMissingOrForeignLine(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := f.customer(t)
	other := f.customer(t)
	product := f.product(t, "Desk", "800", 5)

	view, err := f.cart.Add(ctx, owner, product.ID, 1)
	require.NoError(t, err)
	lineID := view.Lines[0].ID

	_, _, err = f.cart.Increment(ctx, other, lineID)
	assert.ErrorIs(t, err, ErrCartLineNotFound)

	_, err = f.cart.Remove(ctx, other, lineID)
	assert.ErrorIs(t, err, ErrCartLineNotFound)

	_, _, err = f.cart.Decrement(ctx, owner, lineID+100)
	assert.ErrorIs(t, err, ErrCartLineNotFound)
}

func TestRemoveDropsLine(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	p := f.customer(t)
	a := f.product(t, "A", "10", 5)
	b := f.product(t, "B", "20", 5)

	_, err := f.cart.Add(ctx, p, a.ID, 1)
	require.NoError(t, err)
	view, err := f.cart.Add(ctx, p, b.ID, 2)
	require.NoError(t, err)
	require.Len(t, view.Lines, 2)

	view, err = f.cart.Remove(ctx, p, view.Lines[0].ID)
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, b.ID, view.Lines[0].ProductID)
	assertDecimal(t, "40", view.Total)

	loaded, err := f.cart.Load(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, view.Lines, loaded.Lines)
}

func TestCartTotalIgnoresLineOrder(t *testing.T) {
	lines := []models.CartLineView{
		{ID: 1, Price: decimal.RequireFromString("19.99"), Quantity: 3},
		{ID: 2, Price: decimal.RequireFromString("0.01"), Quantity: 7},
		{ID: 3, Price: decimal.RequireFromString("1000"), Quantity: 1},
	}
	reversed := []models.CartLineView{lines[2], lines[1], lines[0]}

	assertDecimal(t, "1060.04", CartTotal(lines))
	assert.True(t, CartTotal(lines).Equal(CartTotal(reversed)))
	assertDecimal(t, "0", CartTotal(nil))
}

func TestNewCartViewCanCheckout(t *testing.T) {
	assert.False(t, NewCartView(nil).CanCheckout)
	assert.NotNil(t, NewCartView(nil).Lines)

	inStock := models.CartLineView{ID: 1, Price: decimal.NewFromInt(1), Quantity: 1, Stock: 4}
	soldOut := models.CartLineView{ID: 2, Price: decimal.NewFromInt(1), Quantity: 1, Stock: 0}

	assert.True(t, NewCartView([]models.CartLineView{inStock}).CanCheckout)
	assert.False(t, NewCartView([]models.CartLineView{inStock, soldOut}).CanCheckout)
}

func TestCartChangesArePublished(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pub := mock.NewMockChangePublisher(ctrl)
	f := newFixture(t, pub)
	ctx := context.Background()
	p := f.customer(t)
	product := f.product(t, "Rug", "300", 2)

	gomock.InOrder(
		pub.EXPECT().PublishChange(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e *models.ChangeEvent) error {
				assert.Equal(t, models.TableCart, e.Table)
				assert.Equal(t, models.EventTypeInsert, e.EventType)
				assert.Equal(t, p.UserID.String(), e.UserID)
				assert.NotEmpty(t, e.EventID)
				return nil
			}),
		pub.EXPECT().PublishChange(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e *models.ChangeEvent) error {
				assert.Equal(t, models.EventTypeUpdate, e.EventType)
				return nil
			}),
	)

	view, err := f.cart.Add(ctx, p, product.ID, 1)
	require.NoError(t, err)
	_, changed, err := f.cart.Increment(ctx, p, view.Lines[0].ID)
	require.NoError(t, err)
	assert.True(t, changed)

	// at stock: no write, no event
	_, changed, err = f.cart.Increment(ctx, p, view.Lines[0].ID)
	require.NoError(t, err)
	assert.False(t, changed)
}
