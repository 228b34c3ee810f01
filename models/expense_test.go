package models

import "testing"

func TestCantidadImputable(t *testing.T) {
	e := Expense{
		CantidadEuros: dec("1200.00"),
		Porcentaje:    dec("75"),
	}
	if got := e.CantidadImputable(); !got.Equal(dec("900.00")) {
		t.Fatalf("CantidadImputable = %s, want 900.00", got)
	}

	full := Expense{CantidadEuros: dec("350.40"), Porcentaje: dec("100")}
	if got := full.CantidadImputable(); !got.Equal(dec("350.40")) {
		t.Fatalf("CantidadImputable at 100%% = %s, want 350.40", got)
	}
}

func TestExpensePosted(t *testing.T) {
	posted := map[string]bool{
		GastoBorrador:    false,
		GastoPendiente:   false,
		GastoValidado:    true,
		GastoRechazado:   false,
		GastoJustificado: true,
	}
	for estado, want := range posted {
		e := Expense{Estado: estado}
		if got := e.Posted(); got != want {
			t.Fatalf("Posted(%s) = %v, want %v", estado, got, want)
		}
	}
}
