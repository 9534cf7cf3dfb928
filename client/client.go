package client

import (
	"context"
	"net/http"
	"net/url"
)

// Client groups the storefront resources over one shared Gateway, so every
// resource sees the same token and the same in-flight refresh.
type Client struct {
	gw *Gateway

	Auth      *AuthService
	Cart      *CartService
	Orders    *OrderService
	Products  *ProductService
	Addresses *AddressService
	Profile   *ProfileService
	Provinces *ProvinceService
	Payments  *PaymentService
}

func New(cfg GatewayConfig, store DisplayStore, opts ...GatewayOption) (*Client, error) {
	gw, err := NewGateway(cfg, store, opts...)
	if err != nil {
		return nil, err
	}
	return NewWithGateway(gw), nil
}

func NewWithGateway(gw *Gateway) *Client {
	return &Client{
		gw:        gw,
		Auth:      &AuthService{gw: gw},
		Cart:      &CartService{gw: gw},
		Orders:    &OrderService{gw: gw},
		Products:  &ProductService{gw: gw},
		Addresses: &AddressService{gw: gw},
		Profile:   &ProfileService{gw: gw},
		Provinces: &ProvinceService{gw: gw},
		Payments:  &PaymentService{gw: gw},
	}
}

func (c *Client) Gateway() *Gateway {
	return c.gw
}

// call runs one request through the gateway and decodes the JSON result
// into out when out is non-nil.
func call(ctx context.Context, gw *Gateway, method, path string, query url.Values, body, out any) error {
	resp, err := gw.Do(ctx, &Request{Method: method, Path: path, Query: query, Body: body})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.Decode(out)
}

// message calls an endpoint that answers with a bare string.
func message(ctx context.Context, gw *Gateway, method, path string, query url.Values, body any) (string, error) {
	resp, err := gw.Do(ctx, &Request{Method: method, Path: path, Query: query, Body: body})
	if err != nil {
		return "", err
	}
	var s string
	if err := resp.Decode(&s); err != nil {
		return string(resp.Body), nil
	}
	return s, nil
}

const (
	get   = http.MethodGet
	post  = http.MethodPost
	put   = http.MethodPut
	patch = http.MethodPatch
	del   = http.MethodDelete
)
