package model

type User struct {
	ID                int64
	Username          string
	PasswordHash      string
	Email             string
	Name              string
	ImageURL          string
	Phone             string
	Role              string
	Verified          bool
	VerificationToken string
}
