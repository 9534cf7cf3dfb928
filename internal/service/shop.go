package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
	"storefront/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptySelection = errors.New("no selected items in cart")
	ErrNotCancellable = errors.New("order can no longer be cancelled")
)

const deliveryFee = 30000

// ProductQuery mirrors the category filter query string.
type ProductQuery struct {
	MinPrice   int
	MaxPrice   int
	Sort       string
	Attributes map[int64][]string
}

type catalog struct {
	categories []v1.Category
	attributes map[int64]string // attribute id -> name
	products   []v1.ProductDetail
	provinces  []v1.Province
	wards      []v1.Ward
}

type account struct {
	cart      v1.Cart
	orders    []v1.Order
	addresses []v1.Address
}

// ShopService is the dev server's in-memory catalog, cart, order and address
// book. Every method is scoped by the caller's user id.
type ShopService struct {
	catalog  catalog
	payments *VNPaySigner

	mu       sync.Mutex
	accounts map[int64]*account
	nextID   int64
	pending  map[string]int64 // txnRef -> order id
}

func NewShopService(payments *VNPaySigner) *ShopService {
	return &ShopService{
		catalog:  defaultCatalog(),
		payments: payments,
		accounts: make(map[int64]*account),
		pending:  make(map[string]int64),
	}
}

func (s *ShopService) summary(p v1.ProductDetail) v1.Product {
	return v1.Product{
		ID:           p.ID,
		Title:        p.Title,
		Price:        p.Price,
		QuantitySold: p.QuantitySold,
		ImageURL:     p.ImageURL,
		Stocked:      p.Stocked,
		CategoryName: p.CategoryName,
	}
}

func (s *ShopService) Products(ctx context.Context) []v1.Product {
	out := make([]v1.Product, 0, len(s.catalog.products))
	for _, p := range s.catalog.products {
		out = append(out, s.summary(p))
	}
	return out
}

func (s *ShopService) Categories(ctx context.Context) []v1.Category {
	return append([]v1.Category(nil), s.catalog.categories...)
}

func (s *ShopService) Product(ctx context.Context, id int64) (*v1.ProductDetail, error) {
	for _, p := range s.catalog.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// Compare returns 2 to 3 distinct products side by side. A non-zero
// categoryID requires every product to belong to it.
func (s *ShopService) Compare(ctx context.Context, req v1.CompareRequest) (*v1.CompareResponse, error) {
	if n := len(req.ProductIDs); n < 2 || n > 3 {
		return nil, fmt.Errorf("%w: select 2 to 3 products to compare", ErrInvalidInput)
	}
	out := &v1.CompareResponse{AttributeNames: []string{}}
	seen := map[int64]bool{}
	present := map[string]bool{}
	for _, id := range req.ProductIDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: product %d listed twice", ErrInvalidInput, id)
		}
		seen[id] = true
		p, err := s.Product(ctx, id)
		if err != nil {
			return nil, err
		}
		if req.CategoryID != 0 && p.CategoryID != req.CategoryID {
			return nil, fmt.Errorf("%w: product %d is not in category %d", ErrInvalidInput, id, req.CategoryID)
		}
		for name := range p.Attributes {
			present[name] = true
		}
		out.Products = append(out.Products, *p)
	}
	for _, id := range s.attributeIDs() {
		if name := s.catalog.attributes[id]; present[name] {
			out.AttributeNames = append(out.AttributeNames, name)
		}
	}
	return out, nil
}

func (s *ShopService) attributeIDs() []int64 {
	ids := make([]int64, 0, len(s.catalog.attributes))
	for id := range s.catalog.attributes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *ShopService) Search(ctx context.Context, keyword string) []v1.Product {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	out := []v1.Product{}
	for _, p := range s.catalog.products {
		if keyword == "" || strings.Contains(strings.ToLower(p.Title), keyword) {
			out = append(out, s.summary(p))
		}
	}
	return out
}

func (s *ShopService) FilterOptions(ctx context.Context, categoryID int64) (*v1.FilterOptions, error) {
	opts := &v1.FilterOptions{CategoryID: categoryID}
	values := map[string]map[string]bool{}
	found := false
	for _, p := range s.catalog.products {
		if p.CategoryID != categoryID {
			continue
		}
		if !found || p.Price < opts.MinPrice {
			opts.MinPrice = p.Price
		}
		if p.Price > opts.MaxPrice {
			opts.MaxPrice = p.Price
		}
		found = true
		for name, v := range p.Attributes {
			if values[name] == nil {
				values[name] = map[string]bool{}
			}
			values[name][v] = true
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	for _, id := range s.attributeIDs() {
		name := s.catalog.attributes[id]
		if len(values[name]) == 0 {
			continue
		}
		attr := v1.FilterAttribute{AttributeID: id, AttributeName: name}
		for v := range values[name] {
			attr.Values = append(attr.Values, v)
		}
		sort.Strings(attr.Values)
		opts.Attributes = append(opts.Attributes, attr)
	}
	return opts, nil
}

// Filter lists a category's products, sorted by price (ascending unless
// q.Sort is "price_desc").
func (s *ShopService) Filter(ctx context.Context, categoryID int64, q ProductQuery) []v1.Product {
	out := []v1.Product{}
	for _, p := range s.catalog.products {
		if p.CategoryID != categoryID {
			continue
		}
		if q.MinPrice > 0 && p.Price < q.MinPrice {
			continue
		}
		if q.MaxPrice > 0 && p.Price > q.MaxPrice {
			continue
		}
		if !s.matchAttributes(p, q.Attributes) {
			continue
		}
		out = append(out, s.summary(p))
	}
	desc := strings.EqualFold(q.Sort, "price_desc")
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Price > out[j].Price
		}
		return out[i].Price < out[j].Price
	})
	return out
}

func (s *ShopService) matchAttributes(p v1.ProductDetail, attrs map[int64][]string) bool {
	for id, accepted := range attrs {
		if len(accepted) == 0 {
			continue
		}
		have, ok := p.Attributes[s.catalog.attributes[id]]
		if !ok {
			return false
		}
		match := false
		for _, v := range accepted {
			if strings.EqualFold(v, have) {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	return true
}

func (s *ShopService) Provinces(ctx context.Context) []v1.Province {
	return append([]v1.Province(nil), s.catalog.provinces...)
}

func (s *ShopService) Wards(ctx context.Context, provinceCode string) ([]v1.Ward, error) {
	if s.province(provinceCode) == nil {
		return nil, ErrNotFound
	}
	out := []v1.Ward{}
	for _, w := range s.catalog.wards {
		if w.ProvinceCode == provinceCode {
			out = append(out, w)
		}
	}
	return out, nil
}

func (s *ShopService) province(code string) *v1.Province {
	for _, p := range s.catalog.provinces {
		if p.Code == code {
			return &p
		}
	}
	return nil
}

func (s *ShopService) ward(code string) *v1.Ward {
	for _, w := range s.catalog.wards {
		if w.Code == code {
			return &w
		}
	}
	return nil
}

// account must be called with s.mu held.
func (s *ShopService) account(userID int64) *account {
	a, ok := s.accounts[userID]
	if !ok {
		s.nextID++
		a = &account{cart: v1.Cart{CartID: s.nextID, Items: []v1.CartItem{}}}
		s.accounts[userID] = a
	}
	return a
}

func (s *ShopService) id() int64 {
	s.nextID++
	return s.nextID
}

func recount(c *v1.Cart) {
	c.TotalQuantity, c.TotalPrice = 0, 0
	for _, it := range c.Items {
		c.TotalQuantity += it.Quantity
		if it.Selected {
			c.TotalPrice += it.Quantity * it.Product.Price
		}
	}
}

func (s *ShopService) Cart(ctx context.Context, userID int64) v1.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCart(s.account(userID).cart)
}

func copyCart(c v1.Cart) v1.Cart {
	c.Items = append([]v1.CartItem{}, c.Items...)
	return c
}

// AddToCart adds one unit, creating the line if needed.
func (s *ShopService) AddToCart(ctx context.Context, userID, productID int64) (v1.Cart, error) {
	return s.UpdateQuantity(ctx, userID, productID, 1)
}

// UpdateQuantity changes a line by delta. A line that drops to zero is removed.
func (s *ShopService) UpdateQuantity(ctx context.Context, userID, productID int64, delta int) (v1.Cart, error) {
	p, err := s.Product(ctx, productID)
	if err != nil {
		return v1.Cart{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &s.account(userID).cart

	idx := -1
	for i, it := range c.Items {
		if it.Product.ID == productID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta > 0:
		c.Items = append(c.Items, v1.CartItem{CartDetailID: s.id(), Product: s.summary(*p), Quantity: delta, Selected: true})
	case idx < 0:
		return v1.Cart{}, ErrNotFound
	default:
		c.Items[idx].Quantity += delta
		if c.Items[idx].Quantity <= 0 {
			c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		}
	}
	recount(c)
	return copyCart(*c), nil
}

func (s *ShopService) RemoveFromCart(ctx context.Context, userID, productID int64) (v1.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &s.account(userID).cart
	for i, it := range c.Items {
		if it.Product.ID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			recount(c)
			return copyCart(*c), nil
		}
	}
	return v1.Cart{}, ErrNotFound
}

func (s *ShopService) ToggleSelection(ctx context.Context, userID, productID int64) (v1.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &s.account(userID).cart
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			c.Items[i].Selected = !c.Items[i].Selected
			recount(c)
			return copyCart(*c), nil
		}
	}
	return v1.Cart{}, ErrNotFound
}

func (s *ShopService) ToggleAll(ctx context.Context, userID int64, selected bool) v1.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &s.account(userID).cart
	for i := range c.Items {
		c.Items[i].Selected = selected
	}
	recount(c)
	return copyCart(*c)
}

func (s *ShopService) Orders(ctx context.Context, userID int64, status constraints.OrderStatus) []v1.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []v1.Order{}
	for _, o := range s.account(userID).orders {
		if status != "" && o.Status != string(status) {
			continue
		}
		o.Details = nil
		out = append(out, o)
	}
	return out
}

func (s *ShopService) OrderDetails(ctx context.Context, userID, orderID int64) ([]v1.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.account(userID).orders {
		if o.ID == orderID {
			return append([]v1.OrderLine{}, o.Details...), nil
		}
	}
	return nil, ErrNotFound
}

// PlaceOrder checks out the selected cart lines. VNPAY orders get a signed
// payment URL and stay PENDING until the callback verifies.
func (s *ShopService) PlaceOrder(ctx context.Context, userID int64, req v1.PlaceOrderRequest) (*v1.PlaceOrderResponse, error) {
	method := constraints.PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, fmt.Errorf("%w: payment method %q", ErrInvalidInput, req.PaymentMethod)
	}
	if s.province(req.Province) == nil {
		return nil, fmt.Errorf("%w: province %q", ErrInvalidInput, req.Province)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(userID)

	var lines []v1.OrderLine
	var kept []v1.CartItem
	total := 0
	for _, it := range a.cart.Items {
		if !it.Selected {
			kept = append(kept, it)
			continue
		}
		lines = append(lines, v1.OrderLine{ID: s.id(), Product: it.Product, Quantity: it.Quantity, Price: it.Product.Price})
		total += it.Quantity * it.Product.Price
	}
	if len(lines) == 0 {
		return nil, ErrEmptySelection
	}

	order := v1.Order{
		ID:           s.id(),
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Email:        req.Email,
		Address:      req.Address,
		Province:     req.Province,
		DeliveryFee:  deliveryFee,
		TotalPrice:   total + deliveryFee,
		CreatedAt:    time.Now().Format(time.RFC3339),
		Status:       string(constraints.OrderPending),
		Details:      lines,
	}
	a.orders = append(a.orders, order)
	a.cart.Items = append([]v1.CartItem{}, kept...)
	recount(&a.cart)

	resp := &v1.PlaceOrderResponse{OrderID: order.ID}
	if method == constraints.PaymentVNPay {
		ref := uuid.NewString()
		s.pending[ref] = order.ID
		resp.TxnRef = ref
		resp.PaymentURL = s.payments.PaymentURL(ref, int64(order.TotalPrice), fmt.Sprintf("Order %d", order.ID))
	} else {
		resp.Message = "Order placed successfully"
	}
	logger.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", userID),
		zap.String("payment", string(method)))
	return resp, nil
}

func (s *ShopService) CancelOrder(ctx context.Context, userID, orderID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.account(userID)
	for i := range a.orders {
		if a.orders[i].ID != orderID {
			continue
		}
		if a.orders[i].Status != string(constraints.OrderPending) {
			return ErrNotCancellable
		}
		a.orders[i].Status = string(constraints.OrderCancelled)
		return nil
	}
	return ErrNotFound
}

// VerifyPayment checks a VNPay return and marks the order accordingly.
func (s *ShopService) VerifyPayment(ctx context.Context, params map[string][]string) v1.PaymentResult {
	res := s.payments.Verify(params)
	if !res.Success && res.ResponseCode == "" {
		return res
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	orderID, ok := s.pending[res.TxnRef]
	if !ok {
		return v1.PaymentResult{Success: false, Message: "Unknown transaction", TxnRef: res.TxnRef}
	}
	delete(s.pending, res.TxnRef)
	status := constraints.OrderSuccess
	if !res.Success {
		status = constraints.OrderRejected
	}
	for _, a := range s.accounts {
		for i := range a.orders {
			if a.orders[i].ID == orderID {
				a.orders[i].Status = string(status)
			}
		}
	}
	return res
}

func (s *ShopService) Addresses(ctx context.Context, userID int64) []v1.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]v1.Address{}, s.account(userID).addresses...)
}

func (s *ShopService) Address(ctx context.Context, userID, id int64) (*v1.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.account(userID).addresses {
		if a.ID == id {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (s *ShopService) fillAddress(a *v1.Address, req v1.AddressRequest) error {
	p := s.province(req.ProvinceCode)
	w := s.ward(req.WardCode)
	if p == nil || w == nil || w.ProvinceCode != p.Code {
		return fmt.Errorf("%w: unknown province or ward", ErrInvalidInput)
	}
	a.ProvinceCode, a.ProvinceName = p.Code, p.Name
	a.WardCode, a.WardName = w.Code, w.Name
	a.Address = req.Address
	a.Label = req.Label
	return nil
}

func setDefault(list []v1.Address, id int64) {
	for i := range list {
		list[i].IsDefault = list[i].ID == id
	}
}

func (s *ShopService) CreateAddress(ctx context.Context, userID int64, req v1.AddressRequest) (*v1.Address, error) {
	var addr v1.Address
	if err := s.fillAddress(&addr, req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.account(userID)
	addr.ID = s.id()
	acc.addresses = append(acc.addresses, addr)
	if req.IsDefault || len(acc.addresses) == 1 {
		setDefault(acc.addresses, addr.ID)
		addr.IsDefault = true
	}
	return &addr, nil
}

func (s *ShopService) UpdateAddress(ctx context.Context, userID, id int64, req v1.AddressRequest) (*v1.Address, error) {
	var filled v1.Address
	if err := s.fillAddress(&filled, req); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.account(userID)
	for i := range acc.addresses {
		if acc.addresses[i].ID != id {
			continue
		}
		filled.ID = id
		filled.IsDefault = acc.addresses[i].IsDefault
		acc.addresses[i] = filled
		if req.IsDefault {
			setDefault(acc.addresses, id)
		}
		out := acc.addresses[i]
		return &out, nil
	}
	return nil, ErrNotFound
}

func (s *ShopService) DeleteAddress(ctx context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.account(userID)
	for i, a := range acc.addresses {
		if a.ID != id {
			continue
		}
		acc.addresses = append(acc.addresses[:i], acc.addresses[i+1:]...)
		if a.IsDefault && len(acc.addresses) > 0 {
			acc.addresses[0].IsDefault = true
		}
		return nil
	}
	return ErrNotFound
}

func (s *ShopService) SetDefaultAddress(ctx context.Context, userID, id int64) (*v1.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.account(userID)
	for i := range acc.addresses {
		if acc.addresses[i].ID == id {
			setDefault(acc.addresses, id)
			out := acc.addresses[i]
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func defaultCatalog() catalog {
	laptops := v1.Category{ID: 1, Name: "Laptop"}
	mice := v1.Category{ID: 2, Name: "Mouse"}
	product := func(id int64, cat v1.Category, title string, price, sold int, attrs map[string]string) v1.ProductDetail {
		return v1.ProductDetail{
			ID:           id,
			Title:        title,
			Description:  title + " with full warranty",
			Price:        price,
			QuantitySold: sold,
			ImageURL:     fmt.Sprintf("https://cdn.storefront.local/p/%d.png", id),
			Stocked:      true,
			CategoryID:   cat.ID,
			CategoryName: cat.Name,
			Attributes:   attrs,
		}
	}
	return catalog{
		categories: []v1.Category{laptops, mice},
		attributes: map[int64]string{1: "RAM", 2: "Brand", 3: "Connection"},
		products: []v1.ProductDetail{
			product(1, laptops, "ThinkPad X1 Carbon", 32990000, 120, map[string]string{"RAM": "16GB", "Brand": "Lenovo"}),
			product(2, laptops, "MacBook Air M3", 27990000, 310, map[string]string{"RAM": "8GB", "Brand": "Apple"}),
			product(3, laptops, "Dell XPS 13", 35490000, 85, map[string]string{"RAM": "32GB", "Brand": "Dell"}),
			product(4, mice, "Logitech MX Master 3S", 2490000, 540, map[string]string{"Brand": "Logitech", "Connection": "Wireless"}),
			product(5, mice, "Razer DeathAdder V3", 1690000, 220, map[string]string{"Brand": "Razer", "Connection": "Wired"}),
		},
		provinces: []v1.Province{
			{Code: "01", Name: "Ha Noi"},
			{Code: "79", Name: "Ho Chi Minh"},
			{Code: "48", Name: "Da Nang"},
		},
		wards: []v1.Ward{
			{Code: "00004", Name: "Ba Dinh", ProvinceCode: "01"},
			{Code: "00070", Name: "Hoan Kiem", ProvinceCode: "01"},
			{Code: "26734", Name: "Ben Nghe", ProvinceCode: "79"},
			{Code: "26740", Name: "Ben Thanh", ProvinceCode: "79"},
			{Code: "20194", Name: "Hai Chau", ProvinceCode: "48"},
		},
	}
}
