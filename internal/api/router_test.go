package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/client"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
	gin.SetMode(gin.TestMode)
}

type testBackend struct {
	srv      *httptest.Server
	signer   *service.VNPaySigner
	offset   atomic.Int64 // clock skew applied to the auth service
	refreshs atomic.Int32
}

func (b *testBackend) advance(d time.Duration) {
	b.offset.Add(int64(d))
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{signer: service.NewVNPaySigner("STORE01", "vnp-secret", "", "")}
	clock := func() time.Time { return time.Now().Add(time.Duration(b.offset.Load())) }

	auth := service.NewAuthService(repository.NewMemoryUserRepository(), repository.NewMemorySessionRepository(),
		"test-key", 15*time.Minute, 24*time.Hour, service.WithClock(clock))
	_, err := auth.SeedUser(context.Background(), model.User{
		Username: "alice",
		Email:    "alice@example.com",
		Name:     "Alice",
		ImageURL: "https://cdn.storefront.local/u/alice.png",
	}, "secret")
	require.NoError(t, err)

	router := RegisterRoutes(RouterConfig{
		Auth:              auth,
		Shop:              service.NewShopService(b.signer),
		RequestsPerSecond: 1000,
	})
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == constraints.PathRefreshToken {
			b.refreshs.Add(1)
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *testBackend) client(t *testing.T, opts ...client.GatewayOption) (*client.Client, *client.MemoryStore) {
	t.Helper()
	store := client.NewMemoryStore()
	c, err := client.New(client.GatewayConfig{BaseURL: b.srv.URL}, store, opts...)
	require.NoError(t, err)
	return c, store
}

func TestRouter_LoginAndExpiredTokenRecovery(t *testing.T) {
	b := newTestBackend(t)
	c, store := b.client(t)
	ctx := context.Background()

	_, err := c.Cart.Get(ctx)
	require.Error(t, err, "no session yet, refresh has no cookie")
	require.True(t, client.IsRefreshFailure(err))

	_, err = c.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	first := c.Gateway().Token()

	cart, err := c.Cart.Add(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, 1, cart.TotalQuantity)
	refreshsBefore := b.refreshs.Load()

	b.advance(20 * time.Minute)

	n, err := c.Cart.TotalQuantity(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, refreshsBefore+1, b.refreshs.Load())
	require.NotEqual(t, first, c.Gateway().Token())

	name, _ := store.Get(ctx, constraints.DisplayName)
	require.Equal(t, "Alice", name)
	img, _ := store.Get(ctx, constraints.DisplayImageURL)
	require.Equal(t, "https://cdn.storefront.local/u/alice.png", img)
}

func TestRouter_ConcurrentExpiryRefreshesOnce(t *testing.T) {
	b := newTestBackend(t)
	c, _ := b.client(t)
	ctx := context.Background()
	_, err := c.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	b.advance(20 * time.Minute)
	before := b.refreshs.Load()

	// The backend rotates refresh tokens, so a second concurrent refresh
	// would present a revoked cookie and fail.
	const n = 12
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Orders.List(ctx, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, before+1, b.refreshs.Load())
}

func TestRouter_RefreshFailureEndsSession(t *testing.T) {
	b := newTestBackend(t)
	var ended atomic.Int32
	c, store := b.client(t, client.WithSessionEndHook(func(error) { ended.Add(1) }))
	ctx := context.Background()
	_, err := c.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	// Past both the access and the refresh lifetime.
	b.advance(48 * time.Hour)

	_, err = c.Profile.Get(ctx)
	require.True(t, client.IsRefreshFailure(err))
	require.False(t, c.Auth.IsAuthenticated())
	require.Zero(t, store.Len())
	require.EqualValues(t, 1, ended.Load())
}

func TestRouter_LogoutRevokesRefreshCookie(t *testing.T) {
	b := newTestBackend(t)
	c, _ := b.client(t)
	ctx := context.Background()
	_, err := c.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	require.NoError(t, c.Auth.Logout(ctx))

	_, err = c.Profile.Get(ctx)
	require.True(t, client.IsRefreshFailure(err))
}

func TestRouter_AuthErrorsAreNotRecovered(t *testing.T) {
	b := newTestBackend(t)
	c, _ := b.client(t)
	ctx := context.Background()

	_, err := c.Auth.Login(ctx, "alice", "wrong")
	require.True(t, client.IsUnauthorized(err))
	require.Equal(t, "Bad credentials", client.Message(err, ""))
	require.Zero(t, b.refreshs.Load())

	_, err = c.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)
	_, err = c.Auth.ChangePassword(ctx, "wrong", "n3w", "n3w")
	require.Equal(t, http.StatusBadRequest, client.StatusCode(err))
	msg, err := c.Auth.ChangePassword(ctx, "secret", "n3w", "n3w")
	require.NoError(t, err)
	require.Equal(t, "Password changed successfully", msg)
}

func TestRouter_ShopFlow(t *testing.T) {
	b := newTestBackend(t)
	c, _ := b.client(t)
	ctx := context.Background()
	_, err := c.Auth.Login(ctx, "alice", "secret")
	require.NoError(t, err)

	laptops, err := c.Products.Filter(ctx, 1, client.Filter{Sort: "price_desc", Attributes: map[int64][]string{2: {"Apple", "Dell"}}})
	require.NoError(t, err)
	require.Len(t, laptops, 2)
	require.Equal(t, "Dell XPS 13", laptops[0].Title)

	opts, err := c.Products.FilterOptions(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, opts.Attributes)

	detail, err := c.Products.Detail(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, "Apple", detail.Attributes["Brand"])

	cmp, err := c.Products.Compare(ctx, 1, 2, 3)
	require.NoError(t, err)
	require.Equal(t, []string{"RAM", "Brand"}, cmp.AttributeNames)
	_, err = c.Products.Compare(ctx, 2, 2, 3)
	require.Equal(t, http.StatusBadRequest, client.StatusCode(err))

	_, err = c.Cart.Add(ctx, 2)
	require.NoError(t, err)
	placed, err := c.Orders.Place(ctx, v1.PlaceOrderRequest{
		CustomerName:  "Alice",
		Phone:         "0912345678",
		Email:         "alice@example.com",
		Address:       "1 Le Loi",
		Province:      "79",
		PaymentMethod: string(constraints.PaymentVNPay),
	})
	require.NoError(t, err)
	require.NotEmpty(t, placed.PaymentURL)

	tampered := b.signer.ReturnParams(placed.TxnRef, 27990000+30000, "00")
	tampered.Set("vnp_Amount", "100")
	res, err := c.Payments.VerifyVNPay(ctx, tampered)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, "Invalid payment signature", res.Message)

	res, err = c.Payments.VerifyVNPay(ctx, b.signer.ReturnParams(placed.TxnRef, 27990000+30000, "00"))
	require.NoError(t, err)
	require.True(t, res.Success)

	orders, err := c.Orders.List(ctx, constraints.OrderSuccess)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, placed.OrderID, orders[0].ID)
}
