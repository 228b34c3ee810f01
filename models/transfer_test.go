package models

import "testing"

func TestImporteNeto(t *testing.T) {
	tr := Transfer{
		ImporteEuros:        dec("25000.00"),
		GastosTransferencia: dec("42.50"),
	}
	if got := tr.ImporteNeto(); !got.Equal(dec("24957.50")) {
		t.Fatalf("ImporteNeto = %s, want 24957.50", got)
	}
}

func TestNumeroDisplay(t *testing.T) {
	tr := Transfer{Numero: 2, TotalPrevistas: 3}
	if got := tr.NumeroDisplay(); got != "2/3" {
		t.Fatalf("NumeroDisplay = %q, want \"2/3\"", got)
	}
}

func TestTransferSent(t *testing.T) {
	sent := map[string]bool{
		TransferenciaSolicitada: false,
		TransferenciaAprobada:   false,
		TransferenciaEmitida:    true,
		TransferenciaRecibida:   true,
		TransferenciaCerrada:    true,
	}
	for estado, want := range sent {
		tr := Transfer{Estado: estado}
		if got := tr.Sent(); got != want {
			t.Fatalf("Sent(%s) = %v, want %v", estado, got, want)
		}
	}
}

func TestCountryToLocalCurrency(t *testing.T) {
	tests := map[string]string{
		"Haiti":           "HTG",
		"Haití":           "HTG",
		"Marruecos":       "MAD",
		"Rep. Dominicana": "DOP",
		"Senegal":         "XOF",
		"Atlantis":        "",
	}
	for pais, want := range tests {
		if got := CountryToLocalCurrency(pais); got != want {
			t.Fatalf("CountryToLocalCurrency(%s) = %q, want %q", pais, got, want)
		}
	}
}
