package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
)

const ordersPath = "/orders"

type OrderService struct {
	gw *Gateway
}

// List returns the caller's orders, optionally filtered by status ("" for all).
func (s *OrderService) List(ctx context.Context, status constraints.OrderStatus) ([]v1.Order, error) {
	var q url.Values
	if status != "" {
		if !status.Valid() {
			return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalidArgument, status)
		}
		q = url.Values{"status": {string(status)}}
	}
	var orders []v1.Order
	if err := call(ctx, s.gw, get, ordersPath, q, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) Details(ctx context.Context, orderID int64) ([]v1.OrderLine, error) {
	var lines []v1.OrderLine
	if err := call(ctx, s.gw, get, ordersPath+"/"+strconv.FormatInt(orderID, 10), nil, nil, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Place checks out the selected cart items.
func (s *OrderService) Place(ctx context.Context, req v1.PlaceOrderRequest) (*v1.PlaceOrderResponse, error) {
	if err := validateOrder(req); err != nil {
		return nil, err
	}
	resp, err := s.gw.Do(ctx, &Request{Method: post, Path: ordersPath, Body: req})
	if err != nil {
		return nil, err
	}
	var out v1.PlaceOrderResponse
	if err := resp.Decode(&out); err != nil {
		// Cash orders answer with a plain confirmation string.
		var msg string
		if jerr := resp.Decode(&msg); jerr != nil {
			return nil, err
		}
		out.Message = msg
	}
	return &out, nil
}

func (s *OrderService) Cancel(ctx context.Context, orderID int64) (string, error) {
	return message(ctx, s.gw, patch, ordersPath+"/"+strconv.FormatInt(orderID, 10)+"/cancel", nil, nil)
}

func validateOrder(req v1.PlaceOrderRequest) error {
	switch {
	case req.CustomerName == "":
		return fmt.Errorf("%w: customer name is required", ErrInvalidArgument)
	case !ValidPhone(req.Phone):
		return fmt.Errorf("%w: invalid phone number %q", ErrInvalidArgument, req.Phone)
	case !ValidEmail(req.Email):
		return fmt.Errorf("%w: invalid email %q", ErrInvalidArgument, req.Email)
	case req.Address == "" || req.Province == "":
		return fmt.Errorf("%w: address and province are required", ErrInvalidArgument)
	case !constraints.PaymentMethod(req.PaymentMethod).Valid():
		return fmt.Errorf("%w: payment method %q is invalid", ErrInvalidArgument, req.PaymentMethod)
	}
	return nil
}
