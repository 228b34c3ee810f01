package services

import (
	"errors"
	"testing"

	"github.com/prodiversa/coop-api/models"
)

func TestBuildTransferSummary(t *testing.T) {
	transfers := []models.Transfer{
		{Numero: 1, TotalPrevistas: 3, Estado: models.TransferenciaCerrada, ImporteEuros: dec("20000"), GastosTransferencia: dec("40")},
		{Numero: 2, TotalPrevistas: 3, Estado: models.TransferenciaEmitida, ImporteEuros: dec("30000"), GastosTransferencia: dec("50")},
		{Numero: 3, TotalPrevistas: 3, Estado: models.TransferenciaSolicitada, ImporteEuros: dec("10000")},
	}

	summary := BuildTransferSummary(dec("100000"), dec("20000"), transfers)

	if !summary.PresupuestoATransferir.Equal(dec("80000")) {
		t.Fatalf("PresupuestoATransferir = %s, want 80000", summary.PresupuestoATransferir)
	}
	// Only emitida/recibida/cerrada count as sent.
	if !summary.TotalEnviado.Equal(dec("50000")) {
		t.Fatalf("TotalEnviado = %s, want 50000", summary.TotalEnviado)
	}
	if !summary.TotalPendiente.Equal(dec("30000")) {
		t.Fatalf("TotalPendiente = %s, want 30000", summary.TotalPendiente)
	}
	if !summary.TotalGastosTransferencia.Equal(dec("90")) {
		t.Fatalf("TotalGastosTransferencia = %s, want 90", summary.TotalGastosTransferencia)
	}
	if summary.TransferenciasRealizadas != 2 {
		t.Fatalf("TransferenciasRealizadas = %d, want 2", summary.TransferenciasRealizadas)
	}
	if summary.TransferenciasPrevistas != 3 {
		t.Fatalf("TransferenciasPrevistas = %d, want 3", summary.TransferenciasPrevistas)
	}
	if summary.PorcentajeTransferido != 62.5 {
		t.Fatalf("PorcentajeTransferido = %v, want 62.5", summary.PorcentajeTransferido)
	}
}

func TestBuildTransferSummaryOverspentHomeOffice(t *testing.T) {
	// Validated home-office spend exceeding the grant leaves nothing to
	// transfer; the percentage stays at zero rather than dividing by a
	// negative capacity.
	summary := BuildTransferSummary(dec("10000"), dec("12000"), nil)
	if !summary.PresupuestoATransferir.Equal(dec("-2000")) {
		t.Fatalf("PresupuestoATransferir = %s, want -2000", summary.PresupuestoATransferir)
	}
	if summary.PorcentajeTransferido != 0 {
		t.Fatalf("PorcentajeTransferido = %v, want 0", summary.PorcentajeTransferido)
	}
}

func TestCheckTransferBalance(t *testing.T) {
	// 100000 grant, 20000 validated at home, 50000 already sent: 30000 left.
	if err := checkTransferBalance(dec("100000"), dec("20000"), dec("50000"), dec("30000")); err != nil {
		t.Fatalf("importe at exactly the balance must pass, got %v", err)
	}
	err := checkTransferBalance(dec("100000"), dec("20000"), dec("50000"), dec("30000.01"))
	if !errors.Is(err, ErrBusinessRule) {
		t.Fatalf("importe over the balance must fail with ErrBusinessRule, got %v", err)
	}
}

func TestCheckTransferUpdateBalance(t *testing.T) {
	// 100000 grant, nothing validated at home, 90000 already sent by other
	// transfers. A solicitada transfer of 8000 is being edited: its own
	// amount is headroom, so anything up to 18000 must pass.
	subvencion := dec("100000")
	gastos := dec("0")
	enviado := dec("90000")
	current := dec("8000")

	if err := checkTransferUpdateBalance(subvencion, gastos, enviado, current, dec("12000")); err != nil {
		t.Fatalf("raising 8000 to 12000 within the balance must pass, got %v", err)
	}
	if err := checkTransferUpdateBalance(subvencion, gastos, enviado, current, dec("18000")); err != nil {
		t.Fatalf("raising to exactly the available 18000 must pass, got %v", err)
	}
	err := checkTransferUpdateBalance(subvencion, gastos, enviado, current, dec("18000.01"))
	if !errors.Is(err, ErrBusinessRule) {
		t.Fatalf("raising past the available balance must fail with ErrBusinessRule, got %v", err)
	}
}

func TestCheckEmissionReady(t *testing.T) {
	// An aprobada transfer cannot be emitted until the emission document
	// is on file; once uploaded the same transfer goes through.
	transfer := &models.Transfer{Estado: models.TransferenciaAprobada}
	if err := checkEmissionReady(transfer); !errors.Is(err, ErrBusinessRule) {
		t.Fatalf("emission without document must fail with ErrBusinessRule, got %v", err)
	}

	transfer.DocumentoEmisionPath = "uploads/transfers/justificante.pdf"
	if err := checkEmissionReady(transfer); err != nil {
		t.Fatalf("emission with document must pass, got %v", err)
	}

	transfer.Estado = models.TransferenciaSolicitada
	if err := checkEmissionReady(transfer); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("emission from solicitada must fail with ErrInvalidState, got %v", err)
	}
}

func TestCheckReceptionReady(t *testing.T) {
	transfer := &models.Transfer{Estado: models.TransferenciaEmitida}
	if err := checkReceptionReady(transfer); !errors.Is(err, ErrBusinessRule) {
		t.Fatalf("reception without document must fail with ErrBusinessRule, got %v", err)
	}

	transfer.DocumentoRecepcionPath = "uploads/transfers/recibo.pdf"
	if err := checkReceptionReady(transfer); err != nil {
		t.Fatalf("reception with document must pass, got %v", err)
	}

	transfer.Estado = models.TransferenciaAprobada
	if err := checkReceptionReady(transfer); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("reception before emission must fail with ErrInvalidState, got %v", err)
	}
}

func TestPreviousTransferState(t *testing.T) {
	tests := []struct {
		estado    string
		previous  string
		clearDate string
	}{
		{models.TransferenciaAprobada, models.TransferenciaSolicitada, ""},
		{models.TransferenciaEmitida, models.TransferenciaAprobada, "fecha_emision"},
		{models.TransferenciaRecibida, models.TransferenciaEmitida, "fecha_recepcion"},
		{models.TransferenciaCerrada, models.TransferenciaRecibida, ""},
	}
	for _, tt := range tests {
		previous, clearDate, err := PreviousTransferState(tt.estado)
		if err != nil {
			t.Fatalf("PreviousTransferState(%s): %v", tt.estado, err)
		}
		if previous != tt.previous || clearDate != tt.clearDate {
			t.Fatalf("PreviousTransferState(%s) = (%s, %s), want (%s, %s)",
				tt.estado, previous, clearDate, tt.previous, tt.clearDate)
		}
	}

	if _, _, err := PreviousTransferState(models.TransferenciaSolicitada); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("solicitada has no previous state, got %v", err)
	}
}
