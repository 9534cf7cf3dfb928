package v1

type Profile struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type ProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Address struct {
	ID           int64  `json:"id"`
	ProvinceCode string `json:"provinceCode"`
	ProvinceName string `json:"provinceName"`
	WardCode     string `json:"wardCode"`
	WardName     string `json:"wardName"`
	Address      string `json:"address"`
	IsDefault    bool   `json:"isDefault"`
	Label        string `json:"label"`
}

type AddressRequest struct {
	ProvinceCode string `json:"provinceCode" binding:"required"`
	WardCode     string `json:"wardCode" binding:"required"`
	Address      string `json:"address" binding:"required"`
	IsDefault    bool   `json:"isDefault"`
	Label        string `json:"label"`
}
