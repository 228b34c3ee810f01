package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Co-financier types.
const (
	FuenteAgencia     = "agencia"
	FuentePropia      = "propia"
	FuenteContraparte = "contraparte"
	FuenteOtro        = "otro"
)

// FuenteNames maps source types to display names.
var FuenteNames = map[string]string{
	FuenteAgencia:     "Agencia financiadora",
	FuentePropia:      "Fondos propios",
	FuenteContraparte: "Contraparte local",
	FuenteOtro:        "Otro co-financiador",
}

// FundingSource is a named co-financier scoped to one project. Names are
// unique per project.
type FundingSource struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	Nombre    string    `json:"nombre"`
	Tipo      string    `json:"tipo"`
	Orden     int       `json:"orden"`
	CreatedAt time.Time `json:"created_at"`
}

// AllocationEntry assigns part of a budget line's approved amount to one
// funding source. The sum over a line is advisory, not enforced on write.
type AllocationEntry struct {
	ID              int64           `json:"id"`
	BudgetLineID    int64           `json:"budget_line_id"`
	FundingSourceID int64           `json:"funding_source_id"`
	Aprobado        decimal.Decimal `json:"aprobado"`
}

type CreateFundingSourceRequest struct {
	Nombre string `json:"nombre" binding:"required"`
	Tipo   string `json:"tipo" binding:"required"`
}

type DistributionEntry struct {
	FundingSourceID int64           `json:"funding_source_id" binding:"required"`
	Aprobado        decimal.Decimal `json:"aprobado"`
}

type UpdateDistributionRequest struct {
	Allocations []DistributionEntry `json:"allocations" binding:"required"`
}

// FundingSummaryRow totals one source's allocated and executed money
// across the whole project.
type FundingSummaryRow struct {
	SourceID       int64           `json:"source_id"`
	SourceNombre   string          `json:"source_nombre"`
	SourceTipo     string          `json:"source_tipo"`
	TotalAprobado  decimal.Decimal `json:"total_aprobado"`
	TotalEjecutado decimal.Decimal `json:"total_ejecutado"`
	Disponible     decimal.Decimal `json:"disponible"`
	Porcentaje     float64         `json:"porcentaje"`
}
