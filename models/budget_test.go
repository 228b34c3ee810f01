package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBudgetLineDerivedValues(t *testing.T) {
	line := ProjectBudgetLine{
		Aprobado:         dec("10000.00"),
		EjecutadoEspana:  dec("2500.00"),
		EjecutadoTerreno: dec("4500.00"),
	}

	if got := line.TotalEjecutado(); !got.Equal(dec("7000.00")) {
		t.Fatalf("TotalEjecutado = %s, want 7000.00", got)
	}
	if got := line.Diferencia(); !got.Equal(dec("3000.00")) {
		t.Fatalf("Diferencia = %s, want 3000.00", got)
	}
	if got := line.DisponibleEspana(); !got.Equal(dec("7500.00")) {
		t.Fatalf("DisponibleEspana = %s, want 7500.00", got)
	}
	if got := line.DisponibleTerreno(); !got.Equal(dec("5500.00")) {
		t.Fatalf("DisponibleTerreno = %s, want 5500.00", got)
	}
	if got := line.PorcentajeEjecucion(); got != 70 {
		t.Fatalf("PorcentajeEjecucion = %v, want 70", got)
	}
}

func TestPorcentajeEjecucionZeroApproved(t *testing.T) {
	line := ProjectBudgetLine{
		Aprobado:        decimal.Zero,
		EjecutadoEspana: dec("500.00"),
	}

	if got := line.PorcentajeEjecucion(); got != 0 {
		t.Fatalf("PorcentajeEjecucion on zero aprobado = %v, want 0", got)
	}
	if line.HasDeviationAlert() {
		t.Fatal("zero-aprobado line must not raise a deviation alert")
	}
}

func TestHasDeviationAlert(t *testing.T) {
	tests := []struct {
		name      string
		aprobado  string
		ejecutado string
		want      bool
	}{
		{"exact execution", "1000", "1000", false},
		{"within 10 points under", "1000", "905", false},
		{"within 10 points over", "1000", "1095", false},
		{"more than 10 under", "1000", "880", true},
		{"more than 10 over", "1000", "1150", true},
		{"nothing executed", "1000", "0", true},
	}

	for _, tt := range tests {
		line := ProjectBudgetLine{
			Aprobado:        dec(tt.aprobado),
			EjecutadoEspana: dec(tt.ejecutado),
		}
		if got := line.HasDeviationAlert(); got != tt.want {
			t.Fatalf("%s: HasDeviationAlert = %v, want %v", tt.name, got, tt.want)
		}
	}
}
