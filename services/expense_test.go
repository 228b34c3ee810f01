package services

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/prodiversa/coop-api/models"
)

func TestSummarizeExpenses(t *testing.T) {
	expenses := []models.Expense{
		{Estado: models.GastoBorrador, Ubicacion: models.UbicacionEspana, CantidadEuros: dec("100"), Porcentaje: dec("100")},
		{Estado: models.GastoPendiente, Ubicacion: models.UbicacionTerreno, CantidadEuros: dec("200"), Porcentaje: dec("100")},
		{Estado: models.GastoValidado, Ubicacion: models.UbicacionEspana, CantidadEuros: dec("1000"), Porcentaje: dec("50")},
		{Estado: models.GastoJustificado, Ubicacion: models.UbicacionTerreno, CantidadEuros: dec("400"), Porcentaje: dec("100")},
		{Estado: models.GastoRechazado, Ubicacion: models.UbicacionTerreno, CantidadEuros: dec("300"), Porcentaje: dec("100")},
	}

	summary := SummarizeExpenses(expenses)

	if summary.TotalRegistrados != 5 {
		t.Fatalf("TotalRegistrados = %d, want 5", summary.TotalRegistrados)
	}
	if summary.TotalBorradores != 1 || summary.TotalPendientes != 1 || summary.TotalValidados != 1 ||
		summary.TotalJustificados != 1 || summary.TotalRechazados != 1 {
		t.Fatalf("state counts wrong: %+v", summary)
	}

	// Imputable amounts: 100 + 200 + 500 + 400 + 300.
	if !summary.ImporteTotal.Equal(dec("1500")) {
		t.Fatalf("ImporteTotal = %s, want 1500", summary.ImporteTotal)
	}
	// Only validado and justificado count as posted.
	if !summary.ImporteValidado.Equal(dec("900")) {
		t.Fatalf("ImporteValidado = %s, want 900", summary.ImporteValidado)
	}
	if !summary.ImporteEspana.Equal(dec("600")) {
		t.Fatalf("ImporteEspana = %s, want 600", summary.ImporteEspana)
	}
	if !summary.ImporteTerreno.Equal(dec("900")) {
		t.Fatalf("ImporteTerreno = %s, want 900", summary.ImporteTerreno)
	}
}

func TestSummarizeExpensesEmpty(t *testing.T) {
	summary := SummarizeExpenses(nil)
	if summary.TotalRegistrados != 0 {
		t.Fatalf("TotalRegistrados = %d, want 0", summary.TotalRegistrados)
	}
	if !summary.ImporteTotal.IsZero() {
		t.Fatalf("ImporteTotal = %s, want 0", summary.ImporteTotal)
	}
}

func TestNextExpenseState(t *testing.T) {
	allowed := []struct {
		from   string
		action expenseAction
		to     string
	}{
		{models.GastoBorrador, expenseSubmit, models.GastoPendiente},
		{models.GastoBorrador, expenseValidate, models.GastoValidado},
		{models.GastoPendiente, expenseValidate, models.GastoValidado},
		{models.GastoBorrador, expenseReject, models.GastoRechazado},
		{models.GastoPendiente, expenseReject, models.GastoRechazado},
		{models.GastoValidado, expenseReject, models.GastoRechazado},
		{models.GastoValidado, expenseJustify, models.GastoJustificado},
		{models.GastoValidado, expenseRevert, models.GastoBorrador},
		{models.GastoRechazado, expenseRevert, models.GastoBorrador},
	}
	for _, tt := range allowed {
		next, err := nextExpenseState(tt.from, tt.action)
		if err != nil {
			t.Fatalf("nextExpenseState(%s, %s): %v", tt.from, tt.action, err)
		}
		if next != tt.to {
			t.Fatalf("nextExpenseState(%s, %s) = %s, want %s", tt.from, tt.action, next, tt.to)
		}
	}

	denied := []struct {
		from   string
		action expenseAction
	}{
		{models.GastoPendiente, expenseSubmit},
		{models.GastoValidado, expenseSubmit},
		{models.GastoValidado, expenseValidate},
		{models.GastoJustificado, expenseValidate},
		{models.GastoRechazado, expenseReject},
		{models.GastoJustificado, expenseReject},
		{models.GastoBorrador, expenseJustify},
		{models.GastoPendiente, expenseJustify},
		{models.GastoJustificado, expenseJustify},
		{models.GastoBorrador, expenseRevert},
		{models.GastoPendiente, expenseRevert},
		{models.GastoJustificado, expenseRevert},
	}
	for _, tt := range denied {
		if _, err := nextExpenseState(tt.from, tt.action); !errors.Is(err, ErrInvalidState) {
			t.Fatalf("nextExpenseState(%s, %s) must fail with ErrInvalidState, got %v", tt.from, tt.action, err)
		}
	}
}

func TestExpenseLedgerDelta(t *testing.T) {
	imputable := dec("500")

	// Validating posts the imputable amount; rejecting the validated
	// expense reverses it, so a validate/reject cycle nets to zero.
	post := expenseLedgerDelta(models.GastoPendiente, models.GastoValidado, imputable)
	if !post.Equal(dec("500")) {
		t.Fatalf("pendiente -> validado delta = %s, want 500", post)
	}
	reverse := expenseLedgerDelta(models.GastoValidado, models.GastoRechazado, imputable)
	if !reverse.Equal(dec("-500")) {
		t.Fatalf("validado -> rechazado delta = %s, want -500", reverse)
	}
	if !post.Add(reverse).IsZero() {
		t.Fatalf("validate then reject must net to zero, got %s", post.Add(reverse))
	}

	// Moves between two unposted states or two posted states leave the
	// ledger alone.
	if d := expenseLedgerDelta(models.GastoBorrador, models.GastoPendiente, imputable); !d.IsZero() {
		t.Fatalf("borrador -> pendiente delta = %s, want 0", d)
	}
	if d := expenseLedgerDelta(models.GastoValidado, models.GastoJustificado, imputable); !d.IsZero() {
		t.Fatalf("validado -> justificado delta = %s, want 0", d)
	}
}

func TestExpenseLedgerDeltaRoundTrip(t *testing.T) {
	// Whatever path an expense takes through its states, going there and
	// back must leave the executed totals where they started.
	states := []string{
		models.GastoBorrador, models.GastoPendiente, models.GastoValidado,
		models.GastoRechazado, models.GastoJustificado,
	}
	imputable := dec("123.45")
	for _, from := range states {
		for _, to := range states {
			out := expenseLedgerDelta(from, to, imputable)
			back := expenseLedgerDelta(to, from, imputable)
			if !out.Add(back).IsZero() {
				t.Fatalf("round trip %s -> %s -> %s leaks %s", from, to, from, out.Add(back))
			}
		}
	}
}

func TestResolvePorcentaje(t *testing.T) {
	if got := resolvePorcentaje(nil); !got.Equal(dec("100")) {
		t.Fatalf("omitted porcentaje = %s, want 100", got)
	}

	// An explicit zero is a valid attribution and must not be coerced
	// to the default.
	zero := decimal.Zero
	if got := resolvePorcentaje(&zero); !got.IsZero() {
		t.Fatalf("explicit zero porcentaje = %s, want 0", got)
	}

	partial := dec("75")
	if got := resolvePorcentaje(&partial); !got.Equal(dec("75")) {
		t.Fatalf("porcentaje 75 = %s, want 75", got)
	}
}
