package v1

type OrderLine struct {
	ID       int64   `json:"id"`
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
	Price    int     `json:"price"`
}

type Order struct {
	ID           int64       `json:"id"`
	CustomerName string      `json:"customerName"`
	Phone        string      `json:"phone"`
	Email        string      `json:"email"`
	Address      string      `json:"address"`
	Province     string      `json:"province"`
	DeliveryFee  int         `json:"deliveryFee"`
	TotalPrice   int         `json:"totalPrice"`
	CreatedAt    string      `json:"createdAt"`
	Status       string      `json:"status"`
	Details      []OrderLine `json:"orderDetails,omitempty"`
}

type PlaceOrderRequest struct {
	CustomerName  string `json:"customerName" binding:"required"`
	Phone         string `json:"phone" binding:"required"`
	Email         string `json:"email" binding:"required"`
	Address       string `json:"address" binding:"required"`
	Province      string `json:"province" binding:"required"`
	Description   string `json:"description"`
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

// PlaceOrderResponse carries a payment URL when the method is VNPAY.
type PlaceOrderResponse struct {
	OrderID    int64  `json:"orderId"`
	PaymentURL string `json:"paymentUrl,omitempty"`
	TxnRef     string `json:"txnRef,omitempty"`
	Message    string `json:"message,omitempty"`
}

type PaymentResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	TxnRef       string `json:"txnRef,omitempty"`
	Amount       int64  `json:"amount,omitempty"`
	OrderInfo    string `json:"orderInfo,omitempty"`
	ResponseCode string `json:"responseCode,omitempty"`
}
