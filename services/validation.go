package services

import (
	"fmt"
	"strings"

	"github.com/prodiversa/coop-api/models"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// AuditRequired reports whether the funder demands an external audit for a
// grant of this size. No threshold means the audit is always required.
func AuditRequired(subvencion decimal.Decimal, funder *models.Funder) bool {
	if funder == nil || !funder.MinAmountForAudit.Valid {
		return true
	}
	return subvencion.GreaterThanOrEqual(funder.MinAmountForAudit.Decimal)
}

// isAuditLine identifies the external-audit line of a template set.
func isAuditLine(line *models.ProjectBudgetLine) bool {
	return line.Category == models.CategoriaServicios &&
		strings.Contains(strings.ToLower(line.Name), "audit")
}

// ComputeBudgetAlerts derives the funder-rule violations for a project's
// budget. Pure over its inputs; recomputed on every read, never stored.
func ComputeBudgetAlerts(subvencion decimal.Decimal, lines []models.ProjectBudgetLine, funder *models.Funder) []models.BudgetValidationAlert {
	var alerts []models.BudgetValidationAlert

	totalAprobado := decimal.Zero
	totalPersonal := decimal.Zero
	totalNonIndirect := decimal.Zero
	for i := range lines {
		totalAprobado = totalAprobado.Add(lines[i].Aprobado)
		if lines[i].Category == models.CategoriaPersonal {
			totalPersonal = totalPersonal.Add(lines[i].Aprobado)
		}
		if lines[i].Category != models.CategoriaIndirectos {
			totalNonIndirect = totalNonIndirect.Add(lines[i].Aprobado)
		}
	}

	if totalAprobado.GreaterThan(subvencion) {
		exceso := totalAprobado.Sub(subvencion)
		alerts = append(alerts, models.BudgetValidationAlert{
			Message: fmt.Sprintf(
				"El total aprobado (%s EUR) supera la subvencion (%s EUR) en %s EUR",
				totalAprobado.StringFixed(2), subvencion.StringFixed(2), exceso.StringFixed(2)),
			AlertType: "error",
		})
	}

	if funder != nil && funder.MaxPersonnelPercentage.Valid && totalAprobado.IsPositive() {
		limit := funder.MaxPersonnelPercentage.Decimal
		pct := totalPersonal.Div(totalAprobado).Mul(oneHundred)
		if pct.GreaterThan(limit) {
			maxAllowed := totalAprobado.Mul(limit).Div(oneHundred)
			alerts = append(alerts, models.BudgetValidationAlert{
				Message: fmt.Sprintf(
					"Los gastos de personal (%s%%) superan el %s%% permitido del total del proyecto. Maximo: %s EUR, Actual: %s EUR",
					pct.StringFixed(1), limit.String(), maxAllowed.StringFixed(2), totalPersonal.StringFixed(2)),
				AlertType: "error",
			})
		}
	}

	if funder != nil && funder.MaxIndirectPercentage.Valid && totalNonIndirect.IsPositive() {
		limit := funder.MaxIndirectPercentage.Decimal
		maxAllowed := totalNonIndirect.Mul(limit).Div(oneHundred)
		for i := range lines {
			line := &lines[i]
			if line.Category != models.CategoriaIndirectos {
				continue
			}
			if line.Aprobado.GreaterThan(maxAllowed) {
				lineID := line.ID
				alerts = append(alerts, models.BudgetValidationAlert{
					LineID:   &lineID,
					LineCode: line.Code,
					Message: fmt.Sprintf(
						"La partida %s (%s) supera el %s%% permitido. Maximo: %s EUR, Actual: %s EUR",
						line.Code, line.Name, limit.String(), maxAllowed.StringFixed(2), line.Aprobado.StringFixed(2)),
					AlertType: "error",
				})
			}
		}
	}

	return alerts
}

// lineHasMaxPercentageAlert mirrors the per-line indirect check for the
// line view flags.
func lineHasMaxPercentageAlert(line *models.ProjectBudgetLine, totalNonIndirect decimal.Decimal, funder *models.Funder) bool {
	if line.Category != models.CategoriaIndirectos {
		return false
	}
	if funder == nil || !funder.MaxIndirectPercentage.Valid || !totalNonIndirect.IsPositive() {
		return false
	}
	maxAllowed := totalNonIndirect.Mul(funder.MaxIndirectPercentage.Decimal).Div(oneHundred)
	return line.Aprobado.GreaterThan(maxAllowed)
}

// BuildBudgetSummary assembles the read model: line views with derived
// values and flags, totals, category subtotals and alerts.
func BuildBudgetSummary(projectID int64, subvencion decimal.Decimal, lines []models.ProjectBudgetLine, funder *models.Funder) models.BudgetSummary {
	summary := models.BudgetSummary{
		ProjectID:         projectID,
		ProjectSubvencion: subvencion,
		HasBudget:         len(lines) > 0,
		AuditRequired:     AuditRequired(subvencion, funder),
		ValidationAlerts:  ComputeBudgetAlerts(subvencion, lines, funder),
	}
	if funder != nil {
		summary.FunderID = &funder.ID
		summary.FunderCode = funder.Code
		summary.FunderName = funder.Name
	}

	totalNonIndirect := decimal.Zero
	for i := range lines {
		if lines[i].Category != models.CategoriaIndirectos {
			totalNonIndirect = totalNonIndirect.Add(lines[i].Aprobado)
		}
	}

	totals := models.BudgetTotals{
		TotalAprobado:         decimal.Zero,
		TotalEjecutadoEspana:  decimal.Zero,
		TotalEjecutadoTerreno: decimal.Zero,
		TotalEjecutado:        decimal.Zero,
		TotalDiferencia:       decimal.Zero,
	}

	views := make([]models.BudgetLineView, 0, len(lines))
	for i := range lines {
		line := lines[i]
		view := models.BudgetLineView{
			ProjectBudgetLine:     line,
			TotalEjecutado:        line.TotalEjecutado(),
			Diferencia:            line.Diferencia(),
			PorcentajeEjecucion:   line.PorcentajeEjecucion(),
			HasDeviationAlert:     line.HasDeviationAlert(),
			HasMaxPercentageAlert: lineHasMaxPercentageAlert(&line, totalNonIndirect, funder),
			IsOptional:            !summary.AuditRequired && isAuditLine(&line),
		}
		views = append(views, view)

		totals.TotalAprobado = totals.TotalAprobado.Add(line.Aprobado)
		totals.TotalEjecutadoEspana = totals.TotalEjecutadoEspana.Add(line.EjecutadoEspana)
		totals.TotalEjecutadoTerreno = totals.TotalEjecutadoTerreno.Add(line.EjecutadoTerreno)
	}

	totals.TotalEjecutado = totals.TotalEjecutadoEspana.Add(totals.TotalEjecutadoTerreno)
	totals.TotalDiferencia = totals.TotalAprobado.Sub(totals.TotalEjecutado)
	if totals.TotalAprobado.IsPositive() {
		pct, _ := totals.TotalEjecutado.Div(totals.TotalAprobado).Mul(oneHundred).Float64()
		totals.PorcentajeEjecucionGlobal = pct
	}

	summary.Lines = views
	summary.Totals = totals
	summary.CategorySubtotals = buildCategorySubtotals(views)
	return summary
}

func buildCategorySubtotals(views []models.BudgetLineView) []models.CategorySubtotal {
	byCategory := make(map[string][]models.BudgetLineView)
	for _, v := range views {
		byCategory[v.Category] = append(byCategory[v.Category], v)
	}

	var subtotals []models.CategorySubtotal
	for _, category := range models.CategoryOrder {
		catLines := byCategory[category]
		if len(catLines) == 0 {
			continue
		}

		sub := models.CategorySubtotal{
			Category:        category,
			CategoryName:    models.CategoryNames[category],
			TotalAprobado:   decimal.Zero,
			TotalEjecutado:  decimal.Zero,
			TotalDiferencia: decimal.Zero,
			Lines:           catLines,
		}
		for _, v := range catLines {
			sub.TotalAprobado = sub.TotalAprobado.Add(v.Aprobado)
			sub.TotalEjecutado = sub.TotalEjecutado.Add(v.TotalEjecutado)
		}
		sub.TotalDiferencia = sub.TotalAprobado.Sub(sub.TotalEjecutado)
		if sub.TotalAprobado.IsPositive() {
			pct, _ := sub.TotalEjecutado.Div(sub.TotalAprobado).Mul(oneHundred).Float64()
			sub.PorcentajeEjecucion = pct
		}
		subtotals = append(subtotals, sub)
	}
	return subtotals
}
