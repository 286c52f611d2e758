package format

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency formats amounts as localized currency strings, e.g. "R$ 25,00"
// for pt-BR/BRL.
type Currency struct {
	printer *message.Printer
	unit    currency.Unit
}

func NewCurrency(locale, code string) (*Currency, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}
	return &Currency{printer: message.NewPrinter(tag), unit: unit}, nil
}

func (c *Currency) Currency(amount decimal.Decimal) string {
	return c.printer.Sprint(currency.Symbol(c.unit.Amount(amount.InexactFloat64())))
}
