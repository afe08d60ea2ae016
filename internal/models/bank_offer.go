package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Offer types.
const (
	OfferTypePercentage = "percentage"
	OfferTypeFixed      = "fixed"
	OfferTypeCashback   = "cashback"
)

// Offer and brand-approval statuses.
const (
	OfferStatusActive   = "active"
	OfferStatusInactive = "inactive"

	OfferBrandStatusPending  = "pending"
	OfferBrandStatusApproved = "approved"
	OfferBrandStatusRejected = "rejected"
)

// Card networks recognized by the BIN resolver.
const (
	NetworkVisa       = "visa"
	NetworkMastercard = "mastercard"
	NetworkAmex       = "amex"
	NetworkOther      = "other"
)

type Bank struct {
	gorm.Model
	Name      string `gorm:"not null"`
	Code      string `gorm:"uniqueIndex;not null"`
	LogoURL   string
	CliqAlias string
}

// CardType is a bank-issued card product identified by its BIN prefixes.
type CardType struct {
	gorm.Model
	BankID   uint   `gorm:"not null;index"`
	Bank     Bank   `gorm:"foreignKey:BankID"`
	Name     string `gorm:"not null"`
	Network  string `gorm:"not null;default:'other'"`
	Prefixes JSON   `gorm:"type:jsonb"`
	Status   string `gorm:"not null;default:'active'"`
}

// PrefixList returns the configured BIN prefixes as strings.
func (c *CardType) PrefixList() []string {
	raw, ok := c.Prefixes["prefixes"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if s, ok := p.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BankOffer is a bank-sponsored discount with a validity window and an
// optional claim cap. TotalClaims is only ever moved by the atomic
// conditional increment in the offer repository.
type BankOffer struct {
	gorm.Model
	BankID     uint  `gorm:"not null;index"`
	Bank       Bank  `gorm:"foreignKey:BankID"`
	CardTypeID *uint `gorm:"index"`

	Title string `gorm:"not null"`
	Type  string `gorm:"not null"`
	Value decimal.Decimal `gorm:"type:numeric(12,2);not null"`

	MinPurchase decimal.Decimal  `gorm:"type:numeric(12,2);not null;default:0"`
	MaxDiscount *decimal.Decimal `gorm:"type:numeric(12,2)"`

	StartDate time.Time `gorm:"not null"`
	EndDate   time.Time `gorm:"not null"`

	MaxClaims   *int `gorm:""`
	TotalClaims int  `gorm:"not null;default:0"`

	Status string `gorm:"not null;default:'active';index"`
}

// BankOfferBrand is the approval join between an offer and a participating
// brand. Only approved rows make the offer redeemable at the brand's
// branches.
type BankOfferBrand struct {
	gorm.Model
	BankOfferID uint   `gorm:"not null;index:idx_offer_brand,unique"`
	BrandID     uint   `gorm:"not null;index:idx_offer_brand,unique"`
	Status      string `gorm:"not null;default:'pending'"`
}

// OfferRedemption is one use of an offer, immutable once written.
type OfferRedemption struct {
	ID          uint      `gorm:"primarykey"`
	BankOfferID uint      `gorm:"not null;index"`
	UserID      uint      `gorm:"not null;index"`
	BranchID    uint      `gorm:"not null"`
	SessionCode string    `gorm:"index"`
	OriginalAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	DiscountApplied  decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	CreatedAt   time.Time
}
