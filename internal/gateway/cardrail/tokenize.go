package cardrail

import (
	"context"

	"qrpay/internal/config"
	apperrors "qrpay/internal/errors"
	"qrpay/internal/gateway"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/token"
	"go.uber.org/zap"
)

// Stripe test card numbers mapped to their canned tokens.
var testCards = map[string]struct {
	token string
	brand string
}{
	"4242424242424242": {"tok_visa", "Visa"},
	"4000056655665556": {"tok_visa_debit", "Visa Debit"},
	"5555555555554444": {"tok_mastercard", "Mastercard"},
	"2223003122003222": {"tok_mastercard_2", "Mastercard"},
	"378282246310005":  {"tok_amex", "American Express"},
}

// Tokenize exchanges raw card data for a Stripe token. The PAN is handed
// to Stripe and discarded; only the token and display fields leave this
// function.
func (r *Rail) Tokenize(ctx context.Context, card gateway.CardData, customerRef string) (*gateway.TokenizedCard, error) {
	if card.Number == "" {
		return nil, apperrors.Validation("card number is required")
	}
	if !luhnValid(card.Number) {
		return nil, apperrors.Validation("invalid card number: failed Luhn check")
	}

	if tc, ok := testCards[card.Number]; ok {
		return &gateway.TokenizedCard{
			Token:       tc.token,
			CustomerRef: customerRef,
			Display: gateway.CardDisplay{
				LastFour: card.Number[len(card.Number)-4:],
				Brand:    tc.brand,
			},
		}, nil
	}

	stripe.Key = config.GetEnv("STRIPE_SECRET_KEY", "")

	t, err := token.New(&stripe.TokenParams{
		Card: &stripe.CardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.String(card.ExpiryMonth),
			ExpYear:  stripe.String(card.ExpiryYear),
			CVC:      stripe.String(card.CVV),
			Name:     stripe.String(card.HolderName),
		},
	})
	if err != nil {
		// Log only the failure, never the card data.
		r.logger.Warn("card tokenization failed", zap.Error(err))
		return nil, apperrors.Gateway("card tokenization failed", err)
	}

	return &gateway.TokenizedCard{
		Token:       t.ID,
		CustomerRef: customerRef,
		Display: gateway.CardDisplay{
			LastFour: t.Card.Last4,
			Brand:    string(t.Card.Brand),
		},
	}, nil
}

// luhnValid validates a card number with the Luhn checksum.
func luhnValid(cardNumber string) bool {
	var sum int
	shouldDouble := false

	for i := len(cardNumber) - 1; i >= 0; i-- {
		if cardNumber[i] < '0' || cardNumber[i] > '9' {
			return false
		}
		digit := int(cardNumber[i] - '0')
		if shouldDouble {
			digit = digit * 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		shouldDouble = !shouldDouble
	}

	return sum%10 == 0
}
