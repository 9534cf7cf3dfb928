package client

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	v1 "storefront/pkg/api/v1"
)

const productPath = "/product"

type ProductService struct {
	gw *Gateway
}

// Filter narrows a category listing. Zero prices are ignored; Attributes maps
// an attribute id to the accepted values.
type Filter struct {
	MinPrice   int
	MaxPrice   int
	Sort       string
	Attributes map[int64][]string
}

func (f Filter) values() url.Values {
	q := url.Values{}
	if f.MinPrice > 0 {
		q.Set("minPrice", strconv.Itoa(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		q.Set("maxPrice", strconv.Itoa(f.MaxPrice))
	}
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	ids := make([]int64, 0, len(f.Attributes))
	for id := range f.Attributes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if vals := f.Attributes[id]; len(vals) > 0 {
			q.Set("attr_"+strconv.FormatInt(id, 10), strings.Join(vals, ","))
		}
	}
	return q
}

func (s *ProductService) List(ctx context.Context) ([]v1.Product, error) {
	var out []v1.Product
	if err := call(ctx, s.gw, get, productPath, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) Categories(ctx context.Context) ([]v1.Category, error) {
	var out []v1.Category
	if err := call(ctx, s.gw, get, productPath+"/categories", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) FilterOptions(ctx context.Context, categoryID int64) (*v1.FilterOptions, error) {
	var out v1.FilterOptions
	if err := call(ctx, s.gw, get, categoryPath(categoryID)+"/filter-options", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ProductService) Filter(ctx context.Context, categoryID int64, f Filter) ([]v1.Product, error) {
	var out []v1.Product
	if err := call(ctx, s.gw, get, categoryPath(categoryID)+"/filter", f.values(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) Search(ctx context.Context, keyword string) ([]v1.Product, error) {
	var out []v1.Product
	if err := call(ctx, s.gw, get, productPath+"/search", url.Values{"keyword": {keyword}}, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *ProductService) Detail(ctx context.Context, productID int64) (*v1.ProductDetail, error) {
	var out v1.ProductDetail
	if err := call(ctx, s.gw, get, productPath+"/"+strconv.FormatInt(productID, 10), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Compare fetches 2 to 3 distinct products side by side. categoryID may be 0
// to skip the category check.
func (s *ProductService) Compare(ctx context.Context, categoryID int64, productIDs ...int64) (*v1.CompareResponse, error) {
	if n := len(productIDs); n < 2 || n > 3 {
		return nil, fmt.Errorf("%w: compare needs 2 to 3 products, got %d", ErrInvalidArgument, n)
	}
	seen := make(map[int64]bool, len(productIDs))
	for _, id := range productIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: product %d listed twice", ErrInvalidArgument, id)
		}
		seen[id] = true
	}
	var out v1.CompareResponse
	req := v1.CompareRequest{CategoryID: categoryID, ProductIDs: productIDs}
	if err := call(ctx, s.gw, post, productPath+"/compare", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func categoryPath(id int64) string {
	return productPath + "/category/" + strconv.FormatInt(id, 10)
}
