package service

import (
	"context"
	"testing"

	"storefront/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductFormParsing(t *testing.T) {
	tests := []struct {
		name  string
		form  ProductForm
		field string
	}{
		{"missing name", ProductForm{Price: "1", Category: "c", Quantity: "1"}, "name"},
		{"missing category", ProductForm{Name: "n", Price: "1", Quantity: "1"}, "category"},
		{"missing price", ProductForm{Name: "n", Category: "c", Quantity: "1"}, "price"},
		{"bad price", ProductForm{Name: "n", Price: "ten", Category: "c", Quantity: "1"}, "price"},
		{"missing quantity", ProductForm{Name: "n", Price: "1", Category: "c"}, "quantity"},
		{"bad quantity", ProductForm{Name: "n", Price: "1", Category: "c", Quantity: "1.5"}, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.apply(&models.Product{})
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	var p models.Product
	require.NoError(t, ProductForm{Name: " Lamp ", Price: " 12.50 ", Category: "Lighting", Quantity: "7"}.apply(&p))
	assert.Equal(t, "Lamp", p.Name)
	assertDecimal(t, "12.5", p.Price)
	assert.Equal(t, 7, p.Quantity)
}

func TestProductCRUDAndLowStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	created, err := f.products.Create(ctx, ProductForm{Name: "Lamp", Price: "40", Category: "Lighting", Quantity: "5"})
	require.NoError(t, err)
	assert.True(t, created.LowStock)

	updated, err := f.products.Update(ctx, created.ID, ProductForm{Name: "Lamp", Price: "45", Category: "Lighting", Quantity: "6"})
	require.NoError(t, err)
	assert.False(t, updated.LowStock)

	got, err := f.products.Get(ctx, created.ID)
	require.NoError(t, err)
	assertDecimal(t, "45", got.Price)
	assert.False(t, got.LowStock)

	require.NoError(t, f.products.Delete(ctx, created.ID))

	_, err = f.products.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, f.products.Delete(ctx, created.ID), ErrProductNotFound)

	_, err = f.products.Update(ctx, created.ID, ProductForm{Name: "x", Price: "1", Category: "c", Quantity: "1"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestListFiltersCatalog(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for _, form := range []ProductForm{
		{Name: "Desk Lamp", Price: "40", Category: "Lighting", Quantity: "3", Description: "warm light"},
		{Name: "Floor Lamp", Price: "90", Category: "Lighting", Quantity: "10"},
		{Name: "Armchair", Price: "300", Category: "Seating", Quantity: "2", Description: "reading lamp not included"},
	} {
		_, err := f.products.Create(ctx, form)
		require.NoError(t, err)
	}

	all, err := f.products.List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	lighting, err := f.products.List(ctx, models.ProductFilter{Category: "lighting"})
	require.NoError(t, err)
	assert.Len(t, lighting, 2)

	lamps, err := f.products.List(ctx, models.ProductFilter{Query: "LAMP"})
	require.NoError(t, err)
	assert.Len(t, lamps, 3)

	both, err := f.products.List(ctx, models.ProductFilter{Category: "Lighting", Query: "warm"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "Desk Lamp", both[0].Name)
	assert.True(t, both[0].LowStock)

	categories, err := f.products.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lighting", "Seating"}, categories)
}
