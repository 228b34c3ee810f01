package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Project lifecycle states.
const (
	ProyectoFormulacion   = "formulacion"
	ProyectoAprobado      = "aprobado"
	ProyectoEjecucion     = "ejecucion"
	ProyectoJustificacion = "justificacion"
	ProyectoCerrado       = "cerrado"
)

// Declared funder labels as they appear on project records. The budget
// engine maps these to Funder catalog entries via their code.
const (
	FinanciadorAACID = "AACID"
	FinanciadorAECID = "AECID"
	FinanciadorDIPU  = "Diputación de Málaga"
	FinanciadorAYTO  = "Ayuntamiento de Málaga"
)

type Project struct {
	ID              int64           `json:"id"`
	CodigoContable  string          `json:"codigo_contable"`
	Titulo          string          `json:"titulo"`
	Pais            string          `json:"pais"`
	Estado          string          `json:"estado"`
	Financiador     string          `json:"financiador"`
	Subvencion      decimal.Decimal `json:"subvencion"`
	CuentaBancaria  string          `json:"cuenta_bancaria"`
	FechaInicio     *time.Time      `json:"fecha_inicio,omitempty"`
	FechaFin        *time.Time      `json:"fecha_finalizacion,omitempty"`
	FunderID        *int64          `json:"funder_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type CreateProjectRequest struct {
	CodigoContable string          `json:"codigo_contable" binding:"required"`
	Titulo         string          `json:"titulo" binding:"required"`
	Pais           string          `json:"pais" binding:"required"`
	Estado         string          `json:"estado"`
	Financiador    string          `json:"financiador" binding:"required"`
	Subvencion     decimal.Decimal `json:"subvencion"`
	CuentaBancaria string          `json:"cuenta_bancaria"`
	FechaInicio    *time.Time      `json:"fecha_inicio"`
	FechaFin       *time.Time      `json:"fecha_finalizacion"`
}

type UpdateProjectRequest struct {
	Titulo         *string          `json:"titulo"`
	Pais           *string          `json:"pais"`
	Estado         *string          `json:"estado"`
	Financiador    *string          `json:"financiador"`
	Subvencion     *decimal.Decimal `json:"subvencion"`
	CuentaBancaria *string          `json:"cuenta_bancaria"`
	FechaInicio    *time.Time       `json:"fecha_inicio"`
	FechaFin       *time.Time       `json:"fecha_finalizacion"`
}
