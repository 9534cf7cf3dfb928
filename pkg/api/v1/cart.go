package v1

type CartItem struct {
	CartDetailID int64   `json:"cartDetailId"`
	Product      Product `json:"productList"`
	Quantity     int     `json:"quantity"`
	Selected     bool    `json:"isSelected"`
}

type Cart struct {
	CartID        int64      `json:"cartId"`
	TotalQuantity int        `json:"totalQuantity"`
	TotalPrice    int        `json:"totalPrice"`
	Items         []CartItem `json:"cartDetailDTO"`
}

type CartItemRequest struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity,omitempty"`
}

type ToggleAllRequest struct {
	SelectAll bool `json:"selectAll"`
}
