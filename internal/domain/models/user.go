package models

import "time"

// User is the account view the booking core needs (ownership and loyalty balance).
type User struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PasswordHash  string    `json:"-"`
	Role          Actor     `json:"role"`
	LoyaltyPoints int64     `json:"loyaltyPoints"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type PublicUser struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Role          Actor  `json:"role"`
	LoyaltyPoints int64  `json:"loyaltyPoints"`
}

func (u *User) ToPublic() PublicUser {
	return PublicUser{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          u.Role,
		LoyaltyPoints: u.LoyaltyPoints,
	}
}
