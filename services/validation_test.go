package services

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/prodiversa/coop-api/models"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func nullDec(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: dec(s), Valid: true}
}

func aytoFunder() *models.Funder {
	return &models.Funder{
		ID:                     4,
		Code:                   "AYTO",
		Name:                   "Ayuntamiento de Malaga",
		MaxIndirectPercentage:  nullDec("7.00"),
		MaxPersonnelPercentage: nullDec("50.00"),
		MinAmountForAudit:      nullDec("30000.00"),
	}
}

func aecidFunder() *models.Funder {
	return &models.Funder{
		ID:                    2,
		Code:                  "AECID",
		Name:                  "Agencia Espanola de Cooperacion Internacional para el Desarrollo",
		MaxIndirectPercentage: nullDec("10.00"),
	}
}

func TestAuditRequired(t *testing.T) {
	ayto := aytoFunder()

	if AuditRequired(dec("20000"), ayto) {
		t.Fatal("grant below the AYTO threshold must not require an audit")
	}
	if !AuditRequired(dec("30000"), ayto) {
		t.Fatal("grant at the AYTO threshold must require an audit")
	}
	if !AuditRequired(dec("20000"), aecidFunder()) {
		t.Fatal("funder without a threshold must always require an audit")
	}
	if !AuditRequired(dec("20000"), nil) {
		t.Fatal("unknown funder must default to audit required")
	}
}

func TestComputeBudgetAlertsOverSubscription(t *testing.T) {
	lines := []models.ProjectBudgetLine{
		{Code: "1", Category: models.CategoriaGastosDirectos, Aprobado: dec("15000")},
		{Code: "2", Category: models.CategoriaServicios, Aprobado: dec("8000")},
	}

	alerts := ComputeBudgetAlerts(dec("20000"), lines, nil)
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if !strings.Contains(alerts[0].Message, "3000.00") {
		t.Fatalf("over-subscription alert must name the excess, got %q", alerts[0].Message)
	}
}

func TestComputeBudgetAlertsPersonnelCap(t *testing.T) {
	lines := []models.ProjectBudgetLine{
		{Code: "1", Category: models.CategoriaPersonal, Aprobado: dec("12000")},
		{Code: "2", Category: models.CategoriaGastosDirectos, Aprobado: dec("8000")},
	}

	alerts := ComputeBudgetAlerts(dec("20000"), lines, aytoFunder())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	// 60% of the budget on personnel against a 50% cap: max 10000 EUR.
	if !strings.Contains(alerts[0].Message, "10000.00") {
		t.Fatalf("personnel alert must name the max allowed amount, got %q", alerts[0].Message)
	}

	within := []models.ProjectBudgetLine{
		{Code: "1", Category: models.CategoriaPersonal, Aprobado: dec("9000")},
		{Code: "2", Category: models.CategoriaGastosDirectos, Aprobado: dec("11000")},
	}
	if alerts := ComputeBudgetAlerts(dec("20000"), within, aytoFunder()); len(alerts) != 0 {
		t.Fatalf("personnel within cap must not alert, got %v", alerts)
	}
}

func TestComputeBudgetAlertsIndirectCap(t *testing.T) {
	lines := []models.ProjectBudgetLine{
		{ID: 1, Code: "AI.6", Category: models.CategoriaGastosDirectos, Aprobado: dec("10000")},
		{ID: 2, Code: "B", Category: models.CategoriaIndirectos, Aprobado: dec("1500")},
	}

	// AECID caps indirect at 10% of non-indirect: 1000 EUR here.
	alerts := ComputeBudgetAlerts(dec("20000"), lines, aecidFunder())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	if alerts[0].LineID == nil || *alerts[0].LineID != 2 {
		t.Fatalf("indirect alert must carry the offending line id, got %+v", alerts[0])
	}
	if alerts[0].LineCode != "B" {
		t.Fatalf("indirect alert line code = %q, want B", alerts[0].LineCode)
	}

	lines[1].Aprobado = dec("1000")
	if alerts := ComputeBudgetAlerts(dec("20000"), lines, aecidFunder()); len(alerts) != 0 {
		t.Fatalf("indirect at exactly the cap must not alert, got %v", alerts)
	}
}

func TestComputeBudgetAlertsNoFunderRules(t *testing.T) {
	lines := []models.ProjectBudgetLine{
		{Code: "1", Category: models.CategoriaPersonal, Aprobado: dec("18000")},
		{Code: "B", Category: models.CategoriaIndirectos, Aprobado: dec("2000")},
	}

	aacid := &models.Funder{ID: 1, Code: "AACID"}
	if alerts := ComputeBudgetAlerts(dec("20000"), lines, aacid); len(alerts) != 0 {
		t.Fatalf("funder without caps must not raise cap alerts, got %v", alerts)
	}
}

func TestBuildBudgetSummaryAuditLineOptional(t *testing.T) {
	lines := []models.ProjectBudgetLine{
		{ID: 1, Code: "5", Name: "Gastos de auditoria/evaluacion", Category: models.CategoriaServicios, Aprobado: dec("1000")},
		{ID: 2, Code: "1", Name: "Gastos de personal", Category: models.CategoriaPersonal, Aprobado: dec("5000")},
	}

	summary := BuildBudgetSummary(7, dec("20000"), lines, aytoFunder())
	if summary.AuditRequired {
		t.Fatal("20000 EUR AYTO grant must not require an audit")
	}

	var auditView *models.BudgetLineView
	for i := range summary.Lines {
		if summary.Lines[i].ID == 1 {
			auditView = &summary.Lines[i]
		}
	}
	if auditView == nil {
		t.Fatal("audit line missing from summary")
	}
	if !auditView.IsOptional {
		t.Fatal("audit line must be optional when no audit is required")
	}

	big := BuildBudgetSummary(7, dec("50000"), lines, aytoFunder())
	if !big.AuditRequired {
		t.Fatal("50000 EUR AYTO grant must require an audit")
	}
	for i := range big.Lines {
		if big.Lines[i].IsOptional {
			t.Fatal("no line may be optional when the audit is required")
		}
	}
}

func TestBuildBudgetSummaryTotalsAndSubtotals(t *testing.T) {
	lines := []models.ProjectBudgetLine{
		{ID: 1, Code: "1", Category: models.CategoriaPersonal, Aprobado: dec("5000"), EjecutadoEspana: dec("1000"), EjecutadoTerreno: dec("1500")},
		{ID: 2, Code: "2", Category: models.CategoriaGastosDirectos, Aprobado: dec("3000"), EjecutadoTerreno: dec("3000")},
		{ID: 3, Code: "B", Category: models.CategoriaIndirectos, Aprobado: dec("500")},
	}

	summary := BuildBudgetSummary(1, dec("10000"), lines, nil)

	if !summary.HasBudget {
		t.Fatal("summary with lines must report HasBudget")
	}
	if !summary.Totals.TotalAprobado.Equal(dec("8500")) {
		t.Fatalf("TotalAprobado = %s, want 8500", summary.Totals.TotalAprobado)
	}
	if !summary.Totals.TotalEjecutado.Equal(dec("5500")) {
		t.Fatalf("TotalEjecutado = %s, want 5500", summary.Totals.TotalEjecutado)
	}
	if !summary.Totals.TotalDiferencia.Equal(dec("3000")) {
		t.Fatalf("TotalDiferencia = %s, want 3000", summary.Totals.TotalDiferencia)
	}

	if len(summary.CategorySubtotals) != 3 {
		t.Fatalf("expected 3 category subtotals, got %d", len(summary.CategorySubtotals))
	}
	// Categories come out in fixed presentation order.
	order := []string{models.CategoriaPersonal, models.CategoriaGastosDirectos, models.CategoriaIndirectos}
	for i, sub := range summary.CategorySubtotals {
		if sub.Category != order[i] {
			t.Fatalf("subtotal %d category = %s, want %s", i, sub.Category, order[i])
		}
	}
	directos := summary.CategorySubtotals[1]
	if !directos.TotalEjecutado.Equal(dec("3000")) {
		t.Fatalf("gastos_directos subtotal ejecutado = %s, want 3000", directos.TotalEjecutado)
	}
	if directos.PorcentajeEjecucion != 100 {
		t.Fatalf("gastos_directos subtotal pct = %v, want 100", directos.PorcentajeEjecucion)
	}
}

func TestBuildBudgetSummaryEmpty(t *testing.T) {
	summary := BuildBudgetSummary(9, dec("10000"), nil, nil)
	if summary.HasBudget {
		t.Fatal("empty budget must not report HasBudget")
	}
	if len(summary.ValidationAlerts) != 0 {
		t.Fatalf("empty budget must not alert, got %v", summary.ValidationAlerts)
	}
}
