package format

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		locale, code string
		amount       string
		wantSymbol   string
		wantDigits   string
	}{
		{locale: "pt-BR", code: "BRL", amount: "25", wantSymbol: "R$", wantDigits: "25"},
		{locale: "en-US", code: "USD", amount: "3.5", wantSymbol: "$", wantDigits: "3"},
	}
	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			f, err := NewCurrency(tt.locale, tt.code)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			got := f.Currency(decimal.RequireFromString(tt.amount))
			if !strings.Contains(got, tt.wantSymbol) || !strings.Contains(got, tt.wantDigits) {
				t.Fatalf("got %q, want symbol %q and digits %q", got, tt.wantSymbol, tt.wantDigits)
			}
		})
	}
}

func TestNewCurrencyRejectsBadInput(t *testing.T) {
	if _, err := NewCurrency("pt-BR", "NOPE"); err == nil {
		t.Fatal("expected error for unknown currency")
	}
	if _, err := NewCurrency("!!", "BRL"); err == nil {
		t.Fatal("expected error for bad locale")
	}
}
