// Seeds a development database with banks, card types and sample
// offers so sessions can be discounted locally without a back office.
package main

import (
	"log"
	"time"

	"qrpay/internal/config"
	"qrpay/internal/models"
	"qrpay/internal/repositories"

	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

func main() {
	config.LoadEnv()

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("failed to initialize databases: %v", err)
	}
	defer func() {
		if repositories.DB != nil {
			if sqlDB, err := repositories.DB.DB(); err == nil {
				sqlDB.Close()
			}
		}
	}()

	db := repositories.DB

	banks := []models.Bank{
		{Name: "Jordan Ahli Bank", Code: "AHLI", CliqAlias: "AHLIBANK"},
		{Name: "Arab Bank", Code: "ARAB", CliqAlias: "ARABBANK"},
	}
	for i := range banks {
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoNothing: true,
		}).Create(&banks[i]).Error; err != nil {
			log.Fatalf("failed to seed bank %s: %v", banks[i].Code, err)
		}
		if banks[i].ID == 0 {
			if err := db.Where("code = ?", banks[i].Code).First(&banks[i]).Error; err != nil {
				log.Fatalf("failed to load bank %s: %v", banks[i].Code, err)
			}
		}
	}

	cardTypes := []models.CardType{
		{
			BankID:   banks[0].ID,
			Name:     "Ahli Visa Platinum",
			Network:  models.NetworkVisa,
			Prefixes: models.NewJSON(map[string]interface{}{"prefixes": []interface{}{"411111", "428485"}}),
		},
		{
			BankID:   banks[1].ID,
			Name:     "Arab Bank World Mastercard",
			Network:  models.NetworkMastercard,
			Prefixes: models.NewJSON(map[string]interface{}{"prefixes": []interface{}{"510510", "529962"}}),
		},
	}
	for i := range cardTypes {
		var existing models.CardType
		err := db.Where("bank_id = ? AND name = ?", cardTypes[i].BankID, cardTypes[i].Name).First(&existing).Error
		if err == nil {
			cardTypes[i] = existing
			continue
		}
		if err := db.Create(&cardTypes[i]).Error; err != nil {
			log.Fatalf("failed to seed card type %s: %v", cardTypes[i].Name, err)
		}
	}

	now := time.Now()
	maxDiscount := decimal.NewFromInt(8)
	maxClaims := 1000
	offers := []models.BankOffer{
		{
			BankID:      banks[0].ID,
			CardTypeID:  &cardTypes[0].ID,
			Title:       "20% off with Ahli Visa Platinum",
			Type:        models.OfferTypePercentage,
			Value:       decimal.NewFromInt(20),
			MinPurchase: decimal.NewFromInt(10),
			MaxDiscount: &maxDiscount,
			StartDate:   now.AddDate(0, 0, -1),
			EndDate:     now.AddDate(0, 1, 0),
			MaxClaims:   &maxClaims,
			Status:      models.OfferStatusActive,
		},
		{
			BankID:      banks[1].ID,
			Title:       "2 JOD off any Arab Bank card",
			Type:        models.OfferTypeFixed,
			Value:       decimal.NewFromInt(2),
			MinPurchase: decimal.NewFromInt(5),
			StartDate:   now.AddDate(0, 0, -1),
			EndDate:     now.AddDate(0, 1, 0),
			Status:      models.OfferStatusActive,
		},
	}
	for i := range offers {
		var existing models.BankOffer
		err := db.Where("bank_id = ? AND title = ?", offers[i].BankID, offers[i].Title).First(&existing).Error
		if err == nil {
			offers[i] = existing
			continue
		}
		if err := db.Create(&offers[i]).Error; err != nil {
			log.Fatalf("failed to seed offer %q: %v", offers[i].Title, err)
		}
	}

	// Approve every seeded offer for the demo brand so it is redeemable
	// immediately.
	demoBrandID := uint(config.GetIntEnv("SEED_BRAND_ID", 1))
	for _, offer := range offers {
		approval := models.BankOfferBrand{
			BankOfferID: offer.ID,
			BrandID:     demoBrandID,
			Status:      models.OfferBrandStatusApproved,
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "bank_offer_id"}, {Name: "brand_id"}},
			DoNothing: true,
		}).Create(&approval).Error; err != nil {
			log.Fatalf("failed to approve offer %d for brand %d: %v", offer.ID, demoBrandID, err)
		}
	}

	log.Printf("seeded %d banks, %d card types, %d offers", len(banks), len(cardTypes), len(offers))
}
