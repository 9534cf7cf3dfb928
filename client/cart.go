package client

import (
	"context"

	v1 "storefront/pkg/api/v1"
)

const cartPath = "/cart"

type CartService struct {
	gw *Gateway
}

func (s *CartService) Get(ctx context.Context) (*v1.Cart, error) {
	var cart v1.Cart
	if err := call(ctx, s.gw, get, cartPath, nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// TotalQuantity is the lightweight badge-count call.
func (s *CartService) TotalQuantity(ctx context.Context) (int, error) {
	var n int
	if err := call(ctx, s.gw, get, cartPath+"/total-quantity", nil, nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *CartService) Add(ctx context.Context, productID int64) (*v1.Cart, error) {
	return s.mutate(ctx, post, cartPath, v1.CartItemRequest{ProductID: productID})
}

// UpdateQuantity changes the quantity of productID by delta (may be negative).
func (s *CartService) UpdateQuantity(ctx context.Context, productID int64, delta int) (*v1.Cart, error) {
	return s.mutate(ctx, patch, cartPath, v1.CartItemRequest{ProductID: productID, Quantity: delta})
}

func (s *CartService) Remove(ctx context.Context, productID int64) (*v1.Cart, error) {
	return s.mutate(ctx, del, cartPath, v1.CartItemRequest{ProductID: productID})
}

func (s *CartService) ToggleSelection(ctx context.Context, productID int64) (*v1.Cart, error) {
	return s.mutate(ctx, patch, cartPath+"/toggle-selection", v1.CartItemRequest{ProductID: productID})
}

func (s *CartService) ToggleAll(ctx context.Context, selectAll bool) (*v1.Cart, error) {
	return s.mutate(ctx, patch, cartPath+"/toggle-all", v1.ToggleAllRequest{SelectAll: selectAll})
}

func (s *CartService) mutate(ctx context.Context, method, path string, body any) (*v1.Cart, error) {
	var cart v1.Cart
	if err := call(ctx, s.gw, method, path, nil, body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}
