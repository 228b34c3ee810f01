package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Transfer lifecycle states, strictly linear.
const (
	TransferenciaSolicitada = "solicitada"
	TransferenciaAprobada   = "aprobada"
	TransferenciaEmitida    = "emitida"
	TransferenciaRecibida   = "recibida"
	TransferenciaCerrada    = "cerrada"
)

// PaisMoneda maps project countries to their local currency code, used to
// default moneda_local on transfer creation.
var PaisMoneda = map[string]string{
	"Haiti":                "HTG",
	"Haití":                "HTG",
	"Marruecos":            "MAD",
	"Morocco":              "MAD",
	"Rep. Dominicana":      "DOP",
	"República Dominicana": "DOP",
	"Republica Dominicana": "DOP",
	"Dominican Republic":   "DOP",
	"Senegal":              "XOF",
	"Sénégal":              "XOF",
}

// CountryToLocalCurrency returns the local currency for a country, or ""
// when unknown.
func CountryToLocalCurrency(pais string) string {
	return PaisMoneda[pais]
}

// Transfer is one inter-country bank transfer of grant money from the
// home-office account to the field account.
type Transfer struct {
	ID                      int64               `json:"id"`
	ProjectID               int64               `json:"project_id"`
	Numero                  int                 `json:"numero"`
	TotalPrevistas          int                 `json:"total_previstas"`
	FechaPeticion           *time.Time          `json:"fecha_peticion,omitempty"`
	FechaEmision            *time.Time          `json:"fecha_emision,omitempty"`
	FechaRecepcion          *time.Time          `json:"fecha_recepcion,omitempty"`
	ImporteEuros            decimal.Decimal     `json:"importe_euros"`
	GastosTransferencia     decimal.Decimal     `json:"gastos_transferencia"`
	UsaMonedaIntermedia     bool                `json:"usa_moneda_intermedia"`
	MonedaIntermedia        string              `json:"moneda_intermedia,omitempty"`
	ImporteMonedaIntermedia decimal.NullDecimal `json:"importe_moneda_intermedia"`
	TipoCambioIntermedio    decimal.NullDecimal `json:"tipo_cambio_intermedio"`
	MonedaLocal             string              `json:"moneda_local,omitempty"`
	ImporteMonedaLocal      decimal.NullDecimal `json:"importe_moneda_local"`
	TipoCambioLocal         decimal.NullDecimal `json:"tipo_cambio_local"`
	CuentaOrigen            string              `json:"cuenta_origen,omitempty"`
	CuentaDestino           string              `json:"cuenta_destino,omitempty"`
	EntidadBancaria         string              `json:"entidad_bancaria,omitempty"`
	Estado                  string              `json:"estado"`
	EsUltima                bool                `json:"es_ultima"`
	Observaciones           string              `json:"observaciones,omitempty"`
	DocumentoEmisionPath    string              `json:"documento_emision_path,omitempty"`
	DocumentoRecepcionPath  string              `json:"documento_recepcion_path,omitempty"`
	CreatedAt               time.Time           `json:"created_at"`
	UpdatedAt               time.Time           `json:"updated_at"`
}

// NumeroDisplay renders the sequence position, e.g. "2/3".
func (t *Transfer) NumeroDisplay() string {
	return fmt.Sprintf("%d/%d", t.Numero, t.TotalPrevistas)
}

// ImporteNeto is the EUR amount net of bank fees.
func (t *Transfer) ImporteNeto() decimal.Decimal {
	return t.ImporteEuros.Sub(t.GastosTransferencia)
}

// Sent reports whether the transfer counts toward total_enviado.
func (t *Transfer) Sent() bool {
	switch t.Estado {
	case TransferenciaEmitida, TransferenciaRecibida, TransferenciaCerrada:
		return true
	}
	return false
}

type CreateTransferRequest struct {
	TotalPrevistas          int                 `json:"total_previstas"`
	FechaPeticion           *time.Time          `json:"fecha_peticion"`
	ImporteEuros            decimal.Decimal     `json:"importe_euros" binding:"required"`
	GastosTransferencia     decimal.Decimal     `json:"gastos_transferencia"`
	UsaMonedaIntermedia     bool                `json:"usa_moneda_intermedia"`
	MonedaIntermedia        string              `json:"moneda_intermedia"`
	ImporteMonedaIntermedia decimal.NullDecimal `json:"importe_moneda_intermedia"`
	TipoCambioIntermedio    decimal.NullDecimal `json:"tipo_cambio_intermedio"`
	MonedaLocal             string              `json:"moneda_local"`
	ImporteMonedaLocal      decimal.NullDecimal `json:"importe_moneda_local"`
	TipoCambioLocal         decimal.NullDecimal `json:"tipo_cambio_local"`
	CuentaOrigen            string              `json:"cuenta_origen"`
	CuentaDestino           string              `json:"cuenta_destino"`
	EntidadBancaria         string              `json:"entidad_bancaria"`
	EsUltima                bool                `json:"es_ultima"`
	Observaciones           string              `json:"observaciones"`
}

type UpdateTransferRequest struct {
	TotalPrevistas          *int                 `json:"total_previstas"`
	FechaPeticion           *time.Time           `json:"fecha_peticion"`
	ImporteEuros            *decimal.Decimal     `json:"importe_euros"`
	GastosTransferencia     *decimal.Decimal     `json:"gastos_transferencia"`
	UsaMonedaIntermedia     *bool                `json:"usa_moneda_intermedia"`
	MonedaIntermedia        *string              `json:"moneda_intermedia"`
	ImporteMonedaIntermedia *decimal.NullDecimal `json:"importe_moneda_intermedia"`
	TipoCambioIntermedio    *decimal.NullDecimal `json:"tipo_cambio_intermedio"`
	MonedaLocal             *string              `json:"moneda_local"`
	ImporteMonedaLocal      *decimal.NullDecimal `json:"importe_moneda_local"`
	TipoCambioLocal         *decimal.NullDecimal `json:"tipo_cambio_local"`
	CuentaOrigen            *string              `json:"cuenta_origen"`
	CuentaDestino           *string              `json:"cuenta_destino"`
	EntidadBancaria         *string              `json:"entidad_bancaria"`
	EsUltima                *bool                `json:"es_ultima"`
	Observaciones           *string              `json:"observaciones"`
}

// ConfirmReceptionRequest optionally records what arrived in local currency.
type ConfirmReceptionRequest struct {
	FechaRecepcion     *time.Time          `json:"fecha_recepcion"`
	ImporteMonedaLocal decimal.NullDecimal `json:"importe_moneda_local"`
	TipoCambioLocal    decimal.NullDecimal `json:"tipo_cambio_local"`
}

// TransferSummary reconciles transfer capacity against validated
// home-office spend.
type TransferSummary struct {
	PresupuestoTotal          decimal.Decimal `json:"presupuesto_total"`
	GastosEspanaValidados     decimal.Decimal `json:"gastos_espana_validados"`
	PresupuestoATransferir    decimal.Decimal `json:"presupuesto_a_transferir"`
	TotalEnviado              decimal.Decimal `json:"total_enviado"`
	TotalPendiente            decimal.Decimal `json:"total_pendiente"`
	TotalGastosTransferencia  decimal.Decimal `json:"total_gastos_transferencia"`
	TransferenciasRealizadas  int             `json:"transferencias_realizadas"`
	TransferenciasPrevistas   int             `json:"transferencias_previstas"`
	PorcentajeTransferido     float64         `json:"porcentaje_transferido"`
}
