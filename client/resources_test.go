package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"

	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
}

// recordingServer answers every route with the canned response registered
// for "METHOD /path" and remembers what it was sent.
func recordingServer(t *testing.T, routes map[string]func(w http.ResponseWriter)) (*Client, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query()}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		mu.Lock()
		calls = append(calls, rec)
		mu.Unlock()

		if h, ok := routes[r.Method+" "+r.URL.Path]; ok {
			h(w)
			return
		}
		writeJSON(w, http.StatusNotFound, v1.ErrorBody{Message: "no route"})
	}))
	t.Cleanup(srv.Close)

	c, err := New(GatewayConfig{BaseURL: srv.URL}, NewMemoryStore())
	require.NoError(t, err)
	return c, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func respond(status int, v any) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) { writeJSON(w, status, v) }
}

func TestFilter_Values(t *testing.T) {
	f := Filter{
		MinPrice: 100,
		Sort:     "price_asc",
		Attributes: map[int64][]string{
			7: {"16GB", "32GB"},
			3: {"Intel"},
			9: nil,
		},
	}
	q := f.values()
	require.Equal(t, "100", q.Get("minPrice"))
	require.Empty(t, q.Get("maxPrice"))
	require.Equal(t, "price_asc", q.Get("sort"))
	require.Equal(t, "16GB,32GB", q.Get("attr_7"))
	require.Equal(t, "Intel", q.Get("attr_3"))
	_, ok := q["attr_9"]
	require.False(t, ok)
}

func TestProducts_FilterAndSearch(t *testing.T) {
	c, calls := recordingServer(t, map[string]func(http.ResponseWriter){
		"GET /product/category/4/filter": respond(http.StatusOK, []v1.Product{{ID: 1, Title: "Laptop"}}),
		"GET /product/search":            respond(http.StatusOK, []v1.Product{{ID: 2, Title: "Mouse"}}),
		"GET /product/9":                 respond(http.StatusOK, v1.ProductDetail{ID: 9, Attributes: map[string]string{"RAM": "16GB"}}),
	})
	ctx := context.Background()

	ps, err := c.Products.Filter(ctx, 4, Filter{MaxPrice: 2000, Attributes: map[int64][]string{1: {"a", "b"}}})
	require.NoError(t, err)
	require.Len(t, ps, 1)

	ps, err = c.Products.Search(ctx, "wireless mouse")
	require.NoError(t, err)
	require.Equal(t, "Mouse", ps[0].Title)

	d, err := c.Products.Detail(ctx, 9)
	require.NoError(t, err)
	require.Equal(t, "16GB", d.Attributes["RAM"])

	got := calls()
	require.Equal(t, "2000", got[0].query.Get("maxPrice"))
	require.Equal(t, "a,b", got[0].query.Get("attr_1"))
	require.Equal(t, "wireless mouse", got[1].query.Get("keyword"))
}

func TestCart_MutationsSendProductID(t *testing.T) {
	cart := v1.Cart{CartID: 1, TotalQuantity: 3}
	c, calls := recordingServer(t, map[string]func(http.ResponseWriter){
		"POST /cart":                   respond(http.StatusOK, cart),
		"PATCH /cart":                  respond(http.StatusOK, cart),
		"DELETE /cart":                 respond(http.StatusOK, cart),
		"PATCH /cart/toggle-all":       respond(http.StatusOK, cart),
		"PATCH /cart/toggle-selection": respond(http.StatusOK, cart),
		"GET /cart/total-quantity":     respond(http.StatusOK, 3),
	})
	ctx := context.Background()

	_, err := c.Cart.Add(ctx, 42)
	require.NoError(t, err)
	_, err = c.Cart.UpdateQuantity(ctx, 42, -1)
	require.NoError(t, err)
	_, err = c.Cart.Remove(ctx, 42)
	require.NoError(t, err)
	_, err = c.Cart.ToggleSelection(ctx, 42)
	require.NoError(t, err)
	_, err = c.Cart.ToggleAll(ctx, true)
	require.NoError(t, err)
	n, err := c.Cart.TotalQuantity(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	got := calls()
	require.EqualValues(t, 42, got[0].body["productId"])
	require.EqualValues(t, -1, got[1].body["quantity"])
	require.Equal(t, http.MethodDelete, got[2].method)
	require.Equal(t, true, got[4].body["selectAll"])
}

func TestOrders_ListValidatesStatus(t *testing.T) {
	c, calls := recordingServer(t, map[string]func(http.ResponseWriter){
		"GET /orders": respond(http.StatusOK, []v1.Order{{ID: 5, Status: "PENDING"}}),
	})

	orders, err := c.Orders.List(context.Background(), constraints.OrderPending)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "PENDING", calls()[0].query.Get("status"))

	_, err = c.Orders.List(context.Background(), "SHIPPED")
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Len(t, calls(), 1)
}

func TestOrders_PlaceValidation(t *testing.T) {
	valid := v1.PlaceOrderRequest{
		CustomerName:  "Nguyen Van A",
		Phone:         "0912345678",
		Email:         "a@example.com",
		Address:       "1 Le Loi",
		Province:      "79",
		PaymentMethod: string(constraints.PaymentVNPay),
	}

	tests := []struct {
		name   string
		mutate func(*v1.PlaceOrderRequest)
	}{
		{"missing name", func(r *v1.PlaceOrderRequest) { r.CustomerName = "" }},
		{"bad phone", func(r *v1.PlaceOrderRequest) { r.Phone = "12345" }},
		{"bad email", func(r *v1.PlaceOrderRequest) { r.Email = "nope" }},
		{"missing province", func(r *v1.PlaceOrderRequest) { r.Province = "" }},
		{"bad payment method", func(r *v1.PlaceOrderRequest) { r.PaymentMethod = "BITCOIN" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			require.ErrorIs(t, validateOrder(req), ErrInvalidArgument)
		})
	}
	require.NoError(t, validateOrder(valid))
}

func TestOrders_PlaceCashReturnsMessage(t *testing.T) {
	c, _ := recordingServer(t, map[string]func(http.ResponseWriter){
		"POST /orders": respond(http.StatusOK, "Order placed successfully"),
	})
	out, err := c.Orders.Place(context.Background(), v1.PlaceOrderRequest{
		CustomerName:  "B",
		Phone:         "+84912345678",
		Email:         "b@example.com",
		Address:       "2 Hai Ba Trung",
		Province:      "01",
		PaymentMethod: string(constraints.PaymentCash),
	})
	require.NoError(t, err)
	require.Equal(t, "Order placed successfully", out.Message)
}

func TestPayments_VerifyVNPay(t *testing.T) {
	c, calls := recordingServer(t, map[string]func(http.ResponseWriter){
		"GET /payment/vnpay/callback": respond(http.StatusBadRequest, v1.PaymentResult{Success: false, Message: "Invalid payment signature"}),
	})

	res, err := c.Payments.VerifyVNPay(context.Background(), url.Values{"vnp_TxnRef": {"abc"}, "vnp_SecureHash": {"x"}})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Invalid payment signature", res.Message)
	require.Equal(t, "abc", calls()[0].query.Get("vnp_TxnRef"))
}

func TestAuth_LoginProfileAndLogout(t *testing.T) {
	b := newFakeBackend(t)
	var ended int
	gw, store := b.gateway(WithSessionEndHook(func(error) { ended++ }))
	c := NewWithGateway(gw)
	ctx := context.Background()

	_, err := c.Auth.Login(ctx, "alice", "wrong")
	require.True(t, IsUnauthorized(err))
	require.Equal(t, "Bad credentials", Message(err, "login failed"))
	require.Zero(t, b.refreshCalls.Load())
	require.False(t, c.Auth.IsAuthenticated())

	_, err = c.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.True(t, c.Auth.IsAuthenticated())

	u, err := c.Auth.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, CurrentUser{Username: "alice", Name: "Alice", ImageURL: "https://img/alice.png", Role: "customer"}, u)

	require.NoError(t, c.Auth.Logout(ctx))
	require.False(t, c.Auth.IsAuthenticated())
	require.Zero(t, store.Len())
	require.Equal(t, 1, ended)
}

func TestAuth_LoginReplacesPreviousProfile(t *testing.T) {
	b := newFakeBackend(t)
	gw, store := b.gateway()
	c := NewWithGateway(gw)
	ctx := context.Background()

	_, err := c.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	_, err = c.Auth.Login(ctx, "bob", "secret")
	require.NoError(t, err)

	u, err := c.Auth.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, CurrentUser{Username: "bob"}, u)
	require.Equal(t, 1, store.Len())
}

func TestProducts_Compare(t *testing.T) {
	c, calls := recordingServer(t, map[string]func(http.ResponseWriter){
		"POST /product/compare": respond(http.StatusOK, v1.CompareResponse{
			AttributeNames: []string{"RAM", "Brand"},
			Products:       []v1.ProductDetail{{ID: 1}, {ID: 3}},
		}),
	})
	ctx := context.Background()

	_, err := c.Products.Compare(ctx, 1, 1)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.Products.Compare(ctx, 1, 1, 2, 3, 4)
	require.ErrorIs(t, err, ErrInvalidArgument)
	_, err = c.Products.Compare(ctx, 1, 3, 3)
	require.ErrorIs(t, err, ErrInvalidArgument)
	require.Empty(t, calls())

	res, err := c.Products.Compare(ctx, 1, 1, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"RAM", "Brand"}, res.AttributeNames)
	require.Len(t, res.Products, 2)

	got := calls()
	require.Len(t, got, 1)
	require.EqualValues(t, 1, got[0].body["categoryId"])
	require.Equal(t, []any{float64(1), float64(3)}, got[0].body["productIds"])
}

func TestAuth_LocalValidation(t *testing.T) {
	c, calls := recordingServer(t, nil)
	ctx := context.Background()

	_, err := c.Auth.Login(ctx, " ", "x")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.Auth.Register(ctx, v1.RegisterRequest{Username: "u", Password: "a", ConfirmPassword: "b", Email: "u@x.io"})
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.Auth.ChangePassword(ctx, "old", "new1", "new2")
	require.ErrorIs(t, err, ErrInvalidArgument)

	require.Empty(t, calls())
}

func TestAPIError_Messages(t *testing.T) {
	e := newAPIError("PUT", "/profile", 400, []byte(`{"message":"invalid","errors":{"phone":"bad"}}`))
	require.Equal(t, "invalid", e.Message)
	require.Equal(t, "bad", e.Fields["phone"])

	e = newAPIError("POST", "/auth/register", 400, []byte(`"Username already exists"`))
	require.Equal(t, "Username already exists", e.Message)

	var err error = e
	require.Equal(t, 400, StatusCode(err))
	require.Equal(t, 0, StatusCode(errors.New("plain")))
	require.Equal(t, "fallback", Message(errors.New("plain"), "fallback"))
}

func TestValidPhone(t *testing.T) {
	for _, p := range []string{"0912345678", "+84387654321", "84762345678"} {
		require.True(t, ValidPhone(p), p)
	}
	for _, p := range []string{"0112345678", "091234567", "phone"} {
		require.False(t, ValidPhone(p), p)
	}
}
