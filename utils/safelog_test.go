package utils

import (
	"strings"
	"testing"
)

func TestMaskString(t *testing.T) {
	IsProduction = true
	defer func() { IsProduction = false }()

	masked := MaskString("pago a tesoreria@prodiversa.org de 1500.00 EUR en ES9121000418450200051332")
	if masked == "pago a tesoreria@prodiversa.org de 1500.00 EUR en ES9121000418450200051332" {
		t.Fatal("production logs must not carry raw sensitive data")
	}
	for _, leak := range []string{"tesoreria@", "1500.00 EUR", "ES9121000418450200051332"} {
		if strings.Contains(masked, leak) {
			t.Fatalf("masked output still contains %q: %s", leak, masked)
		}
	}
}

func TestMaskStringDevelopment(t *testing.T) {
	IsProduction = false
	input := "gasto de 200.00 EUR"
	if got := MaskString(input); got != input {
		t.Fatalf("development logs must stay unmasked, got %q", got)
	}
}

func TestMaskIBAN(t *testing.T) {
	IsProduction = true
	defer func() { IsProduction = false }()

	if got := MaskIBAN("ES9121000418450200051332"); got != "ES91****" {
		t.Fatalf("MaskIBAN = %q, want ES91****", got)
	}
	if got := MaskIBAN("ES1"); got != "***" {
		t.Fatalf("short account MaskIBAN = %q, want ***", got)
	}
}
