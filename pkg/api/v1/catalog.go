package v1

type Product struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Price        int    `json:"price"`
	QuantitySold int    `json:"quantitySold"`
	ImageURL     string `json:"imageUrl"`
	Stocked      bool   `json:"stocked"`
	CategoryName string `json:"categoryName"`
}

type ProductDetail struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Price        int               `json:"price"`
	QuantitySold int               `json:"quantitySold"`
	ImageURL     string            `json:"imageUrl"`
	Stocked      bool              `json:"stocked"`
	CategoryID   int64             `json:"categoryId"`
	CategoryName string            `json:"categoryName"`
	Attributes   map[string]string `json:"attributes"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type FilterAttribute struct {
	AttributeID   int64    `json:"attributeId"`
	AttributeName string   `json:"attributeName"`
	Values        []string `json:"values"`
}

type FilterOptions struct {
	CategoryID int64             `json:"categoryId"`
	MinPrice   int               `json:"minPrice"`
	MaxPrice   int               `json:"maxPrice"`
	Attributes []FilterAttribute `json:"attributes"`
}

type Province struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Ward struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	ProvinceCode string `json:"provinceCode"`
}

// CompareRequest asks for a side-by-side view of 2 to 3 products of one
// category.
type CompareRequest struct {
	CategoryID int64   `json:"categoryId"`
	ProductIDs []int64 `json:"productIds" binding:"required"`
}

// CompareResponse lists the attribute names present on any compared product,
// in catalog order, and the products in the requested order.
type CompareResponse struct {
	AttributeNames []string        `json:"attributeNames"`
	Products       []ProductDetail `json:"products"`
}
