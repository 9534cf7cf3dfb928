package client

import (
	"context"
	"net/url"
	"strconv"

	v1 "storefront/pkg/api/v1"
)

type ProfileService struct {
	gw *Gateway
}

func (s *ProfileService) Get(ctx context.Context) (*v1.Profile, error) {
	var p v1.Profile
	if err := call(ctx, s.gw, get, "/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update saves the profile. Per-field validation errors from the backend
// are available in APIError.Fields.
func (s *ProfileService) Update(ctx context.Context, req v1.ProfileRequest) (*v1.Profile, error) {
	var p v1.Profile
	if err := call(ctx, s.gw, put, "/profile", nil, req, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

const addressPath = "/address"

type AddressService struct {
	gw *Gateway
}

func (s *AddressService) List(ctx context.Context) ([]v1.Address, error) {
	var out []v1.Address
	if err := call(ctx, s.gw, get, addressPath, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AddressService) Get(ctx context.Context, id int64) (*v1.Address, error) {
	var a v1.Address
	if err := call(ctx, s.gw, get, addressID(id), nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressService) Create(ctx context.Context, req v1.AddressRequest) (*v1.Address, error) {
	var a v1.Address
	if err := call(ctx, s.gw, post, addressPath, nil, req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressService) Update(ctx context.Context, id int64, req v1.AddressRequest) (*v1.Address, error) {
	var a v1.Address
	if err := call(ctx, s.gw, put, addressID(id), nil, req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AddressService) Delete(ctx context.Context, id int64) (string, error) {
	return message(ctx, s.gw, del, addressID(id), nil, nil)
}

func (s *AddressService) SetDefault(ctx context.Context, id int64) (*v1.Address, error) {
	var a v1.Address
	if err := call(ctx, s.gw, patch, addressID(id)+"/set-default", nil, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func addressID(id int64) string {
	return addressPath + "/" + strconv.FormatInt(id, 10)
}

type ProvinceService struct {
	gw *Gateway
}

func (s *ProvinceService) List(ctx context.Context) ([]v1.Province, error) {
	var out []v1.Province
	if err := call(ctx, s.gw, get, "/province", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProvinceService) Wards(ctx context.Context, provinceCode string) ([]v1.Ward, error) {
	var out []v1.Ward
	if err := call(ctx, s.gw, get, "/province/"+url.PathEscape(provinceCode)+"/wards", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
