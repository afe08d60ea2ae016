package discount

import (
	"strconv"
	"strings"

	apperrors "qrpay/internal/errors"
	"qrpay/internal/models"
)

// NormalizeBIN strips non-digits and validates the minimum length.
func NormalizeBIN(input string) (string, error) {
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 6 {
		return "", apperrors.Validation("BIN must contain at least 6 digits")
	}
	return digits[:6], nil
}

// DetectNetwork infers the card network from a 6-digit BIN.
func DetectNetwork(bin string) string {
	if len(bin) < 2 {
		return models.NetworkOther
	}

	if bin[0] == '4' {
		return models.NetworkVisa
	}

	two, err := strconv.Atoi(bin[:2])
	if err != nil {
		return models.NetworkOther
	}
	if two >= 51 && two <= 55 {
		return models.NetworkMastercard
	}
	if len(bin) >= 4 {
		if four, err := strconv.Atoi(bin[:4]); err == nil && four >= 2221 && four <= 2720 {
			return models.NetworkMastercard
		}
	}
	if two == 34 || two == 37 {
		return models.NetworkAmex
	}
	return models.NetworkOther
}

// FindCardType returns the card type whose configured prefix matches the
// BIN. Among overlapping prefixes the longest match wins, so a 6-digit
// product prefix always beats a 2-digit bank-wide one.
func FindCardType(cardTypes []models.CardType, bin string) *models.CardType {
	var best *models.CardType
	bestLen := 0
	for i := range cardTypes {
		for _, prefix := range cardTypes[i].PrefixList() {
			if strings.HasPrefix(bin, prefix) && len(prefix) > bestLen {
				best = &cardTypes[i]
				bestLen = len(prefix)
			}
		}
	}
	return best
}
