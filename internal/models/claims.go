package models

import "github.com/golang-jwt/jwt/v5"

// Actor roles.
const (
	RoleMerchant = "merchant"
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// UserClaims are the JWT claims carried by every authenticated request.
type UserClaims struct {
	UserID   uint   `json:"user_id"`
	Role     string `json:"role"`
	BrandID  uint   `json:"brand_id,omitempty"`
	BranchID uint   `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the explicit caller identity passed into every service
// operation. Handlers build it from validated claims; services never read
// identity from ambient state.
type Actor struct {
	UserID   uint
	Role     string
	BrandID  uint
	BranchID uint
}

func (c *UserClaims) Actor() Actor {
	return Actor{
		UserID:   c.UserID,
		Role:     c.Role,
		BrandID:  c.BrandID,
		BranchID: c.BranchID,
	}
}
