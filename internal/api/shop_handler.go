package api

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/service"
	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"

	"github.com/gin-gonic/gin"
)

type ShopHandler struct {
	svc *service.ShopService
}

func NewShopHandler(svc *service.ShopService) *ShopHandler {
	return &ShopHandler{svc: svc}
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// Products

func (h *ShopHandler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Products(c.Request.Context()))
}

func (h *ShopHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Categories(c.Request.Context()))
}

func (h *ShopHandler) Search(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Search(c.Request.Context(), c.Query("keyword")))
}

func (h *ShopHandler) Compare(c *gin.Context) {
	var req v1.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Compare(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ShopHandler) Product(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Product(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ShopHandler) FilterOptions(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	opts, err := h.svc.FilterOptions(c.Request.Context(), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, opts)
}

// Filter reads minPrice, maxPrice, sort and attr_<id>=v1,v2 parameters.
func (h *ShopHandler) Filter(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	q := service.ProductQuery{Sort: c.DefaultQuery("sort", "price_asc")}
	q.MinPrice, _ = strconv.Atoi(c.Query("minPrice"))
	q.MaxPrice, _ = strconv.Atoi(c.Query("maxPrice"))
	for key, vals := range c.Request.URL.Query() {
		raw, found := strings.CutPrefix(key, "attr_")
		if !found || len(vals) == 0 {
			continue
		}
		attrID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		if q.Attributes == nil {
			q.Attributes = map[int64][]string{}
		}
		q.Attributes[attrID] = strings.Split(vals[0], ",")
	}
	c.JSON(http.StatusOK, h.svc.Filter(c.Request.Context(), id, q))
}

// Cart

func (h *ShopHandler) Cart(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Cart(c.Request.Context(), userID(c)))
}

func (h *ShopHandler) TotalQuantity(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Cart(c.Request.Context(), userID(c)).TotalQuantity)
}

func (h *ShopHandler) cartMutation(fn func(c *gin.Context, req v1.CartItemRequest) (v1.Cart, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req v1.CartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		cart, err := fn(c, req)
		if err != nil {
			abort(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

func (h *ShopHandler) AddToCart() gin.HandlerFunc {
	return h.cartMutation(func(c *gin.Context, req v1.CartItemRequest) (v1.Cart, error) {
		return h.svc.AddToCart(c.Request.Context(), userID(c), req.ProductID)
	})
}

func (h *ShopHandler) UpdateQuantity() gin.HandlerFunc {
	return h.cartMutation(func(c *gin.Context, req v1.CartItemRequest) (v1.Cart, error) {
		return h.svc.UpdateQuantity(c.Request.Context(), userID(c), req.ProductID, req.Quantity)
	})
}

func (h *ShopHandler) RemoveFromCart() gin.HandlerFunc {
	return h.cartMutation(func(c *gin.Context, req v1.CartItemRequest) (v1.Cart, error) {
		return h.svc.RemoveFromCart(c.Request.Context(), userID(c), req.ProductID)
	})
}

func (h *ShopHandler) ToggleSelection() gin.HandlerFunc {
	return h.cartMutation(func(c *gin.Context, req v1.CartItemRequest) (v1.Cart, error) {
		return h.svc.ToggleSelection(c.Request.Context(), userID(c), req.ProductID)
	})
}

func (h *ShopHandler) ToggleAll(c *gin.Context) {
	var req v1.ToggleAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.ToggleAll(c.Request.Context(), userID(c), req.SelectAll))
}

// Orders

func (h *ShopHandler) Orders(c *gin.Context) {
	status := constraints.OrderStatus(strings.ToUpper(c.Query("status")))
	if status != "" && !status.Valid() {
		fail(c, http.StatusBadRequest, "invalid status")
		return
	}
	c.JSON(http.StatusOK, h.svc.Orders(c.Request.Context(), userID(c), status))
}

func (h *ShopHandler) OrderDetails(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	lines, err := h.svc.OrderDetails(c.Request.Context(), userID(c), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, lines)
}

// PlaceOrder answers cash orders with a plain message and VNPay orders with
// the payment redirect.
func (h *ShopHandler) PlaceOrder(c *gin.Context) {
	var req v1.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp, err := h.svc.PlaceOrder(c.Request.Context(), userID(c), req)
	if err != nil {
		abort(c, err)
		return
	}
	if resp.PaymentURL == "" {
		c.JSON(http.StatusOK, resp.Message)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShopHandler) CancelOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.CancelOrder(c.Request.Context(), userID(c), id); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, "Order cancelled successfully")
}

func (h *ShopHandler) VNPayCallback(c *gin.Context) {
	res := h.svc.VerifyPayment(c.Request.Context(), c.Request.URL.Query())
	if !res.Success && res.ResponseCode == "" {
		c.JSON(http.StatusBadRequest, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Addresses

func (h *ShopHandler) Addresses(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Addresses(c.Request.Context(), userID(c)))
}

func (h *ShopHandler) Address(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.Address(c.Request.Context(), userID(c), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ShopHandler) CreateAddress(c *gin.Context) {
	var req v1.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.svc.CreateAddress(c.Request.Context(), userID(c), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ShopHandler) UpdateAddress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req v1.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.svc.UpdateAddress(c.Request.Context(), userID(c), id, req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ShopHandler) DeleteAddress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAddress(c.Request.Context(), userID(c), id); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, "Address deleted successfully")
}

func (h *ShopHandler) SetDefaultAddress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.SetDefaultAddress(c.Request.Context(), userID(c), id)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// Provinces

func (h *ShopHandler) Provinces(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Provinces(c.Request.Context()))
}

func (h *ShopHandler) Wards(c *gin.Context) {
	wards, err := h.svc.Wards(c.Request.Context(), c.Param("code"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, wards)
}
