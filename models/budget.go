package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget line categories shared by templates and materialized lines.
const (
	CategoriaServicios      = "servicios"
	CategoriaPersonal       = "personal"
	CategoriaGastosDirectos = "gastos_directos"
	CategoriaInversiones    = "inversiones"
	CategoriaIndirectos     = "indirectos"
)

// CategoryOrder is the fixed presentation order for category subtotals.
var CategoryOrder = []string{
	CategoriaPersonal,
	CategoriaServicios,
	CategoriaGastosDirectos,
	CategoriaInversiones,
	CategoriaIndirectos,
}

// CategoryNames maps category keys to their display names.
var CategoryNames = map[string]string{
	CategoriaServicios:      "Servicios",
	CategoriaPersonal:       "Personal",
	CategoriaGastosDirectos: "Gastos Directos",
	CategoriaInversiones:    "Inversiones",
	CategoriaIndirectos:     "Costes Indirectos",
}

// Funder is immutable reference data: identity plus the per-funder rule
// parameters used by budget validation. Null parameters mean "no cap".
type Funder struct {
	ID                     int64               `json:"id"`
	Code                   string              `json:"code"`
	Name                   string              `json:"name"`
	MaxIndirectPercentage  decimal.NullDecimal `json:"max_indirect_percentage"`
	MaxPersonnelPercentage decimal.NullDecimal `json:"max_personnel_percentage"`
	MinAmountForAudit      decimal.NullDecimal `json:"min_amount_for_audit"`
	CreatedAt              time.Time           `json:"created_at"`
}

// BudgetLineTemplate is one node of a funder's chart-of-accounts tree.
type BudgetLineTemplate struct {
	ID            int64               `json:"id"`
	FunderID      int64               `json:"funder_id"`
	ParentID      *int64              `json:"parent_id,omitempty"`
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	Category      string              `json:"category"`
	IsSpainOnly   bool                `json:"is_spain_only"`
	Order         int                 `json:"order"`
	MaxPercentage decimal.NullDecimal `json:"max_percentage"`
}

// ProjectBudgetLine is a project's materialized copy of a template line.
// Executed amounts are mutated only by expense state transitions.
type ProjectBudgetLine struct {
	ID               int64               `json:"id"`
	ProjectID        int64               `json:"project_id"`
	TemplateID       *int64              `json:"template_id,omitempty"`
	ParentID         *int64              `json:"parent_id,omitempty"`
	Code             string              `json:"code"`
	Name             string              `json:"name"`
	Category         string              `json:"category"`
	IsSpainOnly      bool                `json:"is_spain_only"`
	Order            int                 `json:"order"`
	MaxPercentage    decimal.NullDecimal `json:"max_percentage"`
	Aprobado         decimal.Decimal     `json:"aprobado"`
	EjecutadoEspana  decimal.Decimal     `json:"ejecutado_espana"`
	EjecutadoTerreno decimal.Decimal     `json:"ejecutado_terreno"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func (l *ProjectBudgetLine) TotalEjecutado() decimal.Decimal {
	return l.EjecutadoEspana.Add(l.EjecutadoTerreno)
}

func (l *ProjectBudgetLine) Diferencia() decimal.Decimal {
	return l.Aprobado.Sub(l.TotalEjecutado())
}

func (l *ProjectBudgetLine) DisponibleEspana() decimal.Decimal {
	return l.Aprobado.Sub(l.EjecutadoEspana)
}

func (l *ProjectBudgetLine) DisponibleTerreno() decimal.Decimal {
	return l.Aprobado.Sub(l.EjecutadoTerreno)
}

// PorcentajeEjecucion returns executed over approved as a percentage, 0
// when the line has no approved amount.
func (l *ProjectBudgetLine) PorcentajeEjecucion() float64 {
	if l.Aprobado.IsZero() {
		return 0
	}
	pct, _ := l.TotalEjecutado().Div(l.Aprobado).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// HasDeviationAlert reports whether execution deviates more than 10 points
// from 100%. Lines with no approved amount never alert.
func (l *ProjectBudgetLine) HasDeviationAlert() bool {
	if l.Aprobado.IsZero() {
		return false
	}
	deviation := l.PorcentajeEjecucion() - 100
	if deviation < 0 {
		deviation = -deviation
	}
	return deviation > 10
}

type UpdateBudgetLineRequest struct {
	Aprobado *decimal.Decimal `json:"aprobado"`
	Name     *string          `json:"name"`
}

// BudgetValidationAlert is one funder-rule violation derived from ledger
// state. Alerts are recomputed on every read and never persisted.
type BudgetValidationAlert struct {
	LineID    *int64 `json:"line_id,omitempty"`
	LineCode  string `json:"line_code,omitempty"`
	Message   string `json:"message"`
	AlertType string `json:"alert_type"`
}

// BudgetLineView is a ProjectBudgetLine plus its derived values and the
// per-line flags computed by the validation engine.
type BudgetLineView struct {
	ProjectBudgetLine
	TotalEjecutado        decimal.Decimal `json:"total_ejecutado"`
	Diferencia            decimal.Decimal `json:"diferencia"`
	PorcentajeEjecucion   float64         `json:"porcentaje_ejecucion"`
	HasDeviationAlert     bool            `json:"has_deviation_alert"`
	HasMaxPercentageAlert bool            `json:"has_max_percentage_alert"`
	IsOptional            bool            `json:"is_optional"`
}

type BudgetTotals struct {
	TotalAprobado             decimal.Decimal `json:"total_aprobado"`
	TotalEjecutadoEspana      decimal.Decimal `json:"total_ejecutado_espana"`
	TotalEjecutadoTerreno     decimal.Decimal `json:"total_ejecutado_terreno"`
	TotalEjecutado            decimal.Decimal `json:"total_ejecutado"`
	TotalDiferencia           decimal.Decimal `json:"total_diferencia"`
	PorcentajeEjecucionGlobal float64         `json:"porcentaje_ejecucion_global"`
}

type CategorySubtotal struct {
	Category            string           `json:"category"`
	CategoryName        string           `json:"category_name"`
	TotalAprobado       decimal.Decimal  `json:"total_aprobado"`
	TotalEjecutado      decimal.Decimal  `json:"total_ejecutado"`
	TotalDiferencia     decimal.Decimal  `json:"total_diferencia"`
	PorcentajeEjecucion float64          `json:"porcentaje_ejecucion"`
	Lines               []BudgetLineView `json:"lines"`
}

// BudgetSummary is the full read model for a project's budget: lines with
// derived values, totals, category subtotals and validation alerts.
type BudgetSummary struct {
	ProjectID         int64                   `json:"project_id"`
	ProjectSubvencion decimal.Decimal         `json:"project_subvencion"`
	FunderID          *int64                  `json:"funder_id,omitempty"`
	FunderCode        string                  `json:"funder_code,omitempty"`
	FunderName        string                  `json:"funder_name,omitempty"`
	AuditRequired     bool                    `json:"audit_required"`
	HasBudget         bool                    `json:"has_budget"`
	Lines             []BudgetLineView        `json:"lines"`
	CategorySubtotals []CategorySubtotal      `json:"category_subtotals"`
	Totals            BudgetTotals            `json:"totals"`
	ValidationAlerts  []BudgetValidationAlert `json:"validation_alerts"`
}
