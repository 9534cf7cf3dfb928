package constraints

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderApproved  OrderStatus = "APPROVED"
	OrderRejected  OrderStatus = "REJECTED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderSuccess   OrderStatus = "SUCCESS"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderApproved, OrderRejected, OrderCancelled, OrderSuccess:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentVNPay PaymentMethod = "VNPAY"
	PaymentCash  PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentVNPay || m == PaymentCash
}

type Role string

const (
	RolePM       Role = "pm"
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)
