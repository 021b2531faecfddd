package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/pokefolio/backend/internal/models"
)

func TestWishlistAddAndUpdate(t *testing.T) {
	env := newTestServices(t, pricedCard("sv1-1", "Sprigatito", 1, 2, 3))
	ctx := context.Background()

	target := 1.0
	item, err := env.wishlist.Add(ctx, models.WishlistRequest{CardID: "sv1-1", TargetPrice: &target, Priority: models.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, models.PriorityHigh, item.Priority)
	assert.Equal(t, models.CurrencyEUR, item.TargetPriceCurrency)

	notes := "for the binder"
	item, err = env.wishlist.Add(ctx, models.WishlistRequest{CardID: "sv1-1", Quantity: 2, TargetPrice: &target, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, "for the binder", item.Notes)
	assert.Equal(t, models.PriorityHigh, item.Priority, "blank priority keeps the stored one")

	item, err = env.wishlist.Update("sv1-1", models.WishlistRequest{Priority: models.PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, item.Priority)
	assert.Nil(t, item.TargetPrice)

	items, err := env.wishlist.List()
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWishlistListOrdersByPriority(t *testing.T) {
	env := newTestServices(t,
		pricedCard("sv1-1", "Sprigatito", 1, 2, 3),
		pricedCard("sv1-2", "Floragato", 1, 2, 3),
		pricedCard("sv1-3", "Meowscarada", 1, 2, 3),
	)
	ctx := context.Background()

	for _, req := range []models.WishlistRequest{
		{CardID: "sv1-1", Priority: models.PriorityLow},
		{CardID: "sv1-2"},
		{CardID: "sv1-3", Priority: models.PriorityHigh},
	} {
		_, err := env.wishlist.Add(ctx, req)
		require.NoError(t, err)
	}

	items, err := env.wishlist.List()
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"sv1-3", "sv1-2", "sv1-1"}, []string{items[0].CardID, items[1].CardID, items[2].CardID})
}

func TestWishlistMoveToCollection(t *testing.T) {
	env := newTestServices(t, pricedCard("sv1-1", "Sprigatito", 1, 2, 3))
	ctx := context.Background()

	_, err := env.wishlist.Add(ctx, models.WishlistRequest{CardID: "sv1-1", Quantity: 3})
	require.NoError(t, err)

	owned, err := env.wishlist.MoveToCollection(ctx, "sv1-1")
	require.NoError(t, err)
	assert.Equal(t, 3, owned.Quantity)

	_, err = env.wishlist.Get("sv1-1")
	assert.True(t, errors.Is(err, ErrEntryNotFound))

	_, err = env.wishlist.MoveToCollection(ctx, "sv1-1")
	assert.ErrorIs(t, err, ErrEntryNotFound)
}

func TestWishlistRemoveMissing(t *testing.T) {
	env := newTestServices(t)
	assert.ErrorIs(t, env.wishlist.Remove("nope"), ErrEntryNotFound)
}
