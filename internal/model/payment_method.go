package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PaymentType distinguishes cards from bank accounts.
type PaymentType string

const (
	PaymentCard PaymentType = "card"
	PaymentBank PaymentType = "bank"
)

// PaymentMethod holds display metadata only.  Full card and account numbers
// never reach storage.
type PaymentMethod struct {
	ID        uint64      `json:"id"`
	UserID    uint64      `json:"-"`
	Type      PaymentType `json:"type"`
	Last4     string      `json:"last4"`
	Brand     *string     `json:"brand,omitempty"`
	BankName  *string     `json:"bank_name,omitempty"`
	IsDefault bool        `json:"is_default"`
	CreatedAt time.Time   `json:"created_at"`
}

// PaymentMethodInput is the add-payment-method form.
type PaymentMethodInput struct {
	Type           PaymentType `json:"type"`
	CardNumber     string      `json:"card_number"`
	ExpiryMonth    int         `json:"expiry_month"`
	ExpiryYear     int         `json:"expiry_year"`
	CVV            string      `json:"cvv"`
	CardholderName string      `json:"cardholder_name"`
	BankName       string      `json:"bank_name"`
	AccountNumber  string      `json:"account_number"`
}

// ToMethod validates the input and reduces it to what is stored.
func (in PaymentMethodInput) ToMethod(userID uint64, now time.Time) (*PaymentMethod, error) {
	switch in.Type {
	case PaymentCard:
		number := digitsOnly(in.CardNumber)
		if len(number) < 12 || len(number) > 19 || !luhnValid(number) {
			return nil, fmt.Errorf("invalid card number")
		}
		if strings.TrimSpace(in.CardholderName) == "" {
			return nil, fmt.Errorf("cardholder_name is required")
		}
		if in.ExpiryMonth < 1 || in.ExpiryMonth > 12 {
			return nil, fmt.Errorf("invalid expiry_month")
		}
		if in.ExpiryYear < now.Year() || (in.ExpiryYear == now.Year() && in.ExpiryMonth < int(now.Month())) {
			return nil, fmt.Errorf("card has expired")
		}
		if cvv := digitsOnly(in.CVV); len(cvv) < 3 || len(cvv) > 4 {
			return nil, fmt.Errorf("invalid cvv")
		}
		brand := CardBrand(number)
		return &PaymentMethod{UserID: userID, Type: PaymentCard, Last4: number[len(number)-4:], Brand: &brand}, nil
	case PaymentBank:
		account := digitsOnly(in.AccountNumber)
		if len(account) != 10 {
			return nil, fmt.Errorf("account_number must be 10 digits")
		}
		bank := strings.TrimSpace(in.BankName)
		if bank == "" {
			return nil, fmt.Errorf("bank_name is required")
		}
		return &PaymentMethod{UserID: userID, Type: PaymentBank, Last4: account[6:], BankName: &bank}, nil
	}
	return nil, fmt.Errorf("type must be card or bank")
}

// CardBrand guesses the card network from the leading digits.
func CardBrand(number string) string {
	switch {
	case hasAnyPrefix(number, "5061", "5078", "5079", "6500"):
		return "Verve"
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case inPrefixRange(number, 2, 51, 55), inPrefixRange(number, 4, 2221, 2720):
		return "Mastercard"
	case hasAnyPrefix(number, "34", "37"):
		return "American Express"
	}
	return "Card"
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func inPrefixRange(s string, n, lo, hi int) bool {
	if len(s) < n {
		return false
	}
	v, err := strconv.Atoi(s[:n])
	if err != nil {
		return false
	}
	return v >= lo && v <= hi
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		} else if r != ' ' && r != '-' {
			return ""
		}
	}
	return b.String()
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
