package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense execution locations.
const (
	UbicacionEspana  = "espana"
	UbicacionTerreno = "terreno"
)

// Expense lifecycle states.
const (
	GastoBorrador    = "borrador"
	GastoPendiente   = "pendiente_revision"
	GastoValidado    = "validado"
	GastoRechazado   = "rechazado"
	GastoJustificado = "justificado"
)

// Expense is one invoice charged against a project budget line. Only the
// validado and justificado states have been posted to the line's ledger.
type Expense struct {
	ID               int64               `json:"id"`
	ProjectID        int64               `json:"project_id"`
	BudgetLineID     int64               `json:"budget_line_id"`
	FechaFactura     time.Time           `json:"fecha_factura"`
	Concepto         string              `json:"concepto"`
	Expedidor        string              `json:"expedidor"`
	Persona          string              `json:"persona,omitempty"`
	CantidadOriginal decimal.Decimal     `json:"cantidad_original"`
	MonedaOriginal   string              `json:"moneda_original"`
	TipoCambio       decimal.NullDecimal `json:"tipo_cambio"`
	CantidadEuros    decimal.Decimal     `json:"cantidad_euros"`
	Porcentaje       decimal.Decimal     `json:"porcentaje"`
	Ubicacion        string              `json:"ubicacion"`
	Estado           string              `json:"estado"`
	FundingSourceID  *int64              `json:"funding_source_id,omitempty"`
	FechaRevision    *time.Time          `json:"fecha_revision,omitempty"`
	Observaciones    string              `json:"observaciones,omitempty"`
	DocumentoPath    string              `json:"documento_path,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// CantidadImputable is the EUR amount attributable to the funder: the
// converted amount weighted by the expense's attribution percentage.
func (e *Expense) CantidadImputable() decimal.Decimal {
	return e.CantidadEuros.Mul(e.Porcentaje).Div(decimal.NewFromInt(100))
}

// Posted reports whether the expense currently counts against the ledger.
func (e *Expense) Posted() bool {
	return e.Estado == GastoValidado || e.Estado == GastoJustificado
}

type CreateExpenseRequest struct {
	BudgetLineID     int64               `json:"budget_line_id" binding:"required"`
	FechaFactura     time.Time           `json:"fecha_factura" binding:"required"`
	Concepto         string              `json:"concepto" binding:"required"`
	Expedidor        string              `json:"expedidor" binding:"required"`
	Persona          string              `json:"persona"`
	CantidadOriginal decimal.Decimal     `json:"cantidad_original"`
	MonedaOriginal   string              `json:"moneda_original"`
	TipoCambio       decimal.NullDecimal `json:"tipo_cambio"`
	CantidadEuros    decimal.Decimal     `json:"cantidad_euros"`
	Porcentaje       *decimal.Decimal    `json:"porcentaje"`
	Ubicacion        string              `json:"ubicacion" binding:"required"`
	FundingSourceID  *int64              `json:"funding_source_id"`
	Observaciones    string              `json:"observaciones"`
}

type UpdateExpenseRequest struct {
	BudgetLineID     *int64               `json:"budget_line_id"`
	FechaFactura     *time.Time           `json:"fecha_factura"`
	Concepto         *string              `json:"concepto"`
	Expedidor        *string              `json:"expedidor"`
	Persona          *string              `json:"persona"`
	CantidadOriginal *decimal.Decimal     `json:"cantidad_original"`
	MonedaOriginal   *string              `json:"moneda_original"`
	TipoCambio       *decimal.NullDecimal `json:"tipo_cambio"`
	CantidadEuros    *decimal.Decimal     `json:"cantidad_euros"`
	Porcentaje       *decimal.Decimal     `json:"porcentaje"`
	Ubicacion        *string              `json:"ubicacion"`
	FundingSourceID  *int64               `json:"funding_source_id"`
	Observaciones    *string              `json:"observaciones"`
}

// ExpenseFilters narrows an expense listing.
type ExpenseFilters struct {
	BudgetLineID int64
	Estado       string
	Ubicacion    string
	FechaDesde   *time.Time
	FechaHasta   *time.Time
}

// ExpenseSummary aggregates a project's expenses per state and location.
type ExpenseSummary struct {
	TotalRegistrados   int             `json:"total_registrados"`
	TotalBorradores    int             `json:"total_borradores"`
	TotalPendientes    int             `json:"total_pendientes"`
	TotalValidados     int             `json:"total_validados"`
	TotalRechazados    int             `json:"total_rechazados"`
	TotalJustificados  int             `json:"total_justificados"`
	ImporteTotal       decimal.Decimal `json:"importe_total"`
	ImporteValidado    decimal.Decimal `json:"importe_validado"`
	ImporteEspana      decimal.Decimal `json:"importe_espana"`
	ImporteTerreno     decimal.Decimal `json:"importe_terreno"`
}

// BudgetLineBalance is the per-line availability view used when entering
// expenses.
type BudgetLineBalance struct {
	ID                int64           `json:"id"`
	Code              string          `json:"code"`
	Name              string          `json:"name"`
	IsSpainOnly       bool            `json:"is_spain_only"`
	Aprobado          decimal.Decimal `json:"aprobado"`
	EjecutadoEspana   decimal.Decimal `json:"ejecutado_espana"`
	EjecutadoTerreno  decimal.Decimal `json:"ejecutado_terreno"`
	DisponibleEspana  decimal.Decimal `json:"disponible_espana"`
	DisponibleTerreno decimal.Decimal `json:"disponible_terreno"`
}
