package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/utils"
)

// TransferService manages inter-country transfers. Balance checks on
// create and update run against the project reconciliation under a
// project row lock, so two concurrent transfers cannot both pass a stale
// check.
type TransferService struct {
	db *sql.DB
}

func NewTransferService(db *sql.DB) *TransferService {
	return &TransferService{db: db}
}

const transferColumns = `id, project_id, numero, total_previstas, fecha_peticion, fecha_emision, fecha_recepcion,
	importe_euros, gastos_transferencia, usa_moneda_intermedia, COALESCE(moneda_intermedia, ''),
	importe_moneda_intermedia, tipo_cambio_intermedio, COALESCE(moneda_local, ''),
	importe_moneda_local, tipo_cambio_local, COALESCE(cuenta_origen, ''), COALESCE(cuenta_destino, ''),
	COALESCE(entidad_bancaria, ''), estado, es_ultima, COALESCE(observaciones, ''),
	COALESCE(documento_emision_path, ''), COALESCE(documento_recepcion_path, ''), created_at, updated_at`

func scanTransfer(row interface{ Scan(...interface{}) error }) (*models.Transfer, error) {
	var t models.Transfer
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Numero,
		&t.TotalPrevistas,
		&t.FechaPeticion,
		&t.FechaEmision,
		&t.FechaRecepcion,
		&t.ImporteEuros,
		&t.GastosTransferencia,
		&t.UsaMonedaIntermedia,
		&t.MonedaIntermedia,
		&t.ImporteMonedaIntermedia,
		&t.TipoCambioIntermedio,
		&t.MonedaLocal,
		&t.ImporteMonedaLocal,
		&t.TipoCambioLocal,
		&t.CuentaOrigen,
		&t.CuentaDestino,
		&t.EntidadBancaria,
		&t.Estado,
		&t.EsUltima,
		&t.Observaciones,
		&t.DocumentoEmisionPath,
		&t.DocumentoRecepcionPath,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transfer", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *TransferService) GetTransferByID(ctx context.Context, transferID int64) (*models.Transfer, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1`, transferID)
	return scanTransfer(row)
}

func getTransferForUpdate(ctx context.Context, tx *sql.Tx, transferID int64) (*models.Transfer, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+transferColumns+` FROM transfers WHERE id = $1 FOR UPDATE`, transferID)
	return scanTransfer(row)
}

func (s *TransferService) GetProjectTransfers(ctx context.Context, projectID int64) ([]models.Transfer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transferColumns+` FROM transfers WHERE project_id = $1 ORDER BY numero`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []models.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

// lockProjectForTransfer locks the project row and returns the fields
// transfer creation needs.
func lockProjectForTransfer(ctx context.Context, tx *sql.Tx, projectID int64) (subvencion decimal.Decimal, pais, cuentaBancaria string, err error) {
	err = tx.QueryRowContext(ctx, `
		SELECT subvencion, pais, COALESCE(cuenta_bancaria, '')
		FROM projects WHERE id = $1 FOR UPDATE
	`, projectID).Scan(&subvencion, &pais, &cuentaBancaria)
	if err == sql.ErrNoRows {
		err = fmt.Errorf("%w: project", ErrNotFound)
	}
	return
}

// gastosEspanaValidados sums the imputable amounts of the project's
// posted home-office expenses.
func gastosEspanaValidados(ctx context.Context, q dbtx, projectID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(cantidad_euros * porcentaje / 100), 0)
		FROM expenses
		WHERE project_id = $1 AND ubicacion = $2 AND estado IN ($3, $4)
	`, projectID, models.UbicacionEspana, models.GastoValidado, models.GastoJustificado).Scan(&total)
	return total, err
}

// totalEnviado sums importe_euros over transfers already sent.
func totalEnviado(ctx context.Context, q dbtx, projectID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(importe_euros), 0)
		FROM transfers
		WHERE project_id = $1 AND estado IN ($2, $3, $4)
	`, projectID,
		models.TransferenciaEmitida, models.TransferenciaRecibida, models.TransferenciaCerrada).Scan(&total)
	return total, err
}

// checkTransferBalance rejects an importe that would push the project's
// sent total past its transferable budget.
func checkTransferBalance(subvencion, gastosEspana, enviado, importe decimal.Decimal) error {
	disponible := subvencion.Sub(gastosEspana).Sub(enviado)
	if importe.GreaterThan(disponible) {
		return fmt.Errorf("%w: importe %s exceeds transferable balance %s",
			ErrBusinessRule, importe.StringFixed(2), disponible.StringFixed(2))
	}
	return nil
}

// checkTransferUpdateBalance re-checks the balance for an amount edit.
// The transfer's current importe is headroom the edit may reuse, so it
// is credited back before comparing against the transferable budget.
func checkTransferUpdateBalance(subvencion, gastosEspana, enviado, current, nuevo decimal.Decimal) error {
	return checkTransferBalance(subvencion, gastosEspana, enviado.Sub(current), nuevo)
}

// CreateTransfer registers a new transfer in solicitada state with the
// next sequential numero. The EUR amount must fit the transferable
// balance at creation time.
func (s *TransferService) CreateTransfer(ctx context.Context, projectID int64, req models.CreateTransferRequest) (*models.Transfer, error) {
	if !req.ImporteEuros.IsPositive() {
		return nil, fmt.Errorf("%w: importe_euros must be positive", ErrBusinessRule)
	}

	var id int64
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		subvencion, pais, cuentaBancaria, err := lockProjectForTransfer(ctx, tx, projectID)
		if err != nil {
			return err
		}

		gastosEspana, err := gastosEspanaValidados(ctx, tx, projectID)
		if err != nil {
			return err
		}
		enviado, err := totalEnviado(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if err := checkTransferBalance(subvencion, gastosEspana, enviado, req.ImporteEuros); err != nil {
			return err
		}

		var numero int
		err = tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(numero), 0) + 1 FROM transfers WHERE project_id = $1`, projectID,
		).Scan(&numero)
		if err != nil {
			return err
		}

		totalPrevistas := req.TotalPrevistas
		if totalPrevistas < numero {
			totalPrevistas = numero
		}
		monedaLocal := req.MonedaLocal
		if monedaLocal == "" {
			monedaLocal = models.CountryToLocalCurrency(pais)
		}
		cuentaOrigen := req.CuentaOrigen
		if cuentaOrigen == "" {
			cuentaOrigen = cuentaBancaria
		}

		return tx.QueryRowContext(ctx, `
			INSERT INTO transfers
				(project_id, numero, total_previstas, fecha_peticion, importe_euros,
				 gastos_transferencia, usa_moneda_intermedia, moneda_intermedia,
				 importe_moneda_intermedia, tipo_cambio_intermedio, moneda_local,
				 importe_moneda_local, tipo_cambio_local, cuenta_origen, cuenta_destino,
				 entidad_bancaria, estado, es_ultima, observaciones)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			RETURNING id
		`, projectID, numero, totalPrevistas, req.FechaPeticion, req.ImporteEuros,
			req.GastosTransferencia, req.UsaMonedaIntermedia, nullString(req.MonedaIntermedia),
			req.ImporteMonedaIntermedia, req.TipoCambioIntermedio, nullString(monedaLocal),
			req.ImporteMonedaLocal, req.TipoCambioLocal, nullString(cuentaOrigen),
			nullString(req.CuentaDestino), nullString(req.EntidadBancaria),
			models.TransferenciaSolicitada, req.EsUltima, nullString(req.Observaciones)).Scan(&id)
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransferByID(ctx, id)
}

// UpdateTransfer edits a transfer still in solicitada or aprobada. A
// changed importe_euros is re-validated with the transfer's own current
// amount added back to the available balance.
func (s *TransferService) UpdateTransfer(ctx context.Context, transferID int64, req models.UpdateTransferRequest) (*models.Transfer, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		t, err := getTransferForUpdate(ctx, tx, transferID)
		if err != nil {
			return err
		}
		if t.Estado != models.TransferenciaSolicitada && t.Estado != models.TransferenciaAprobada {
			return fmt.Errorf("%w: only solicitada or aprobada transfers can be edited", ErrInvalidState)
		}

		if req.ImporteEuros != nil && !req.ImporteEuros.Equal(t.ImporteEuros) {
			if !req.ImporteEuros.IsPositive() {
				return fmt.Errorf("%w: importe_euros must be positive", ErrBusinessRule)
			}
			subvencion, _, _, err := lockProjectForTransfer(ctx, tx, t.ProjectID)
			if err != nil {
				return err
			}
			gastosEspana, err := gastosEspanaValidados(ctx, tx, t.ProjectID)
			if err != nil {
				return err
			}
			enviado, err := totalEnviado(ctx, tx, t.ProjectID)
			if err != nil {
				return err
			}
			if err := checkTransferUpdateBalance(subvencion, gastosEspana, enviado, t.ImporteEuros, *req.ImporteEuros); err != nil {
				return err
			}
			t.ImporteEuros = *req.ImporteEuros
		}

		if req.TotalPrevistas != nil && *req.TotalPrevistas >= t.Numero {
			t.TotalPrevistas = *req.TotalPrevistas
		}
		if req.FechaPeticion != nil {
			t.FechaPeticion = req.FechaPeticion
		}
		if req.GastosTransferencia != nil {
			t.GastosTransferencia = *req.GastosTransferencia
		}
		if req.UsaMonedaIntermedia != nil {
			t.UsaMonedaIntermedia = *req.UsaMonedaIntermedia
		}
		if req.MonedaIntermedia != nil {
			t.MonedaIntermedia = *req.MonedaIntermedia
		}
		if req.ImporteMonedaIntermedia != nil {
			t.ImporteMonedaIntermedia = *req.ImporteMonedaIntermedia
		}
		if req.TipoCambioIntermedio != nil {
			t.TipoCambioIntermedio = *req.TipoCambioIntermedio
		}
		if req.MonedaLocal != nil {
			t.MonedaLocal = *req.MonedaLocal
		}
		if req.ImporteMonedaLocal != nil {
			t.ImporteMonedaLocal = *req.ImporteMonedaLocal
		}
		if req.TipoCambioLocal != nil {
			t.TipoCambioLocal = *req.TipoCambioLocal
		}
		if req.CuentaOrigen != nil {
			t.CuentaOrigen = *req.CuentaOrigen
		}
		if req.CuentaDestino != nil {
			t.CuentaDestino = *req.CuentaDestino
		}
		if req.EntidadBancaria != nil {
			t.EntidadBancaria = *req.EntidadBancaria
		}
		if req.EsUltima != nil {
			t.EsUltima = *req.EsUltima
		}
		if req.Observaciones != nil {
			t.Observaciones = *req.Observaciones
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE transfers
			SET total_previstas = $1, fecha_peticion = $2, importe_euros = $3,
			    gastos_transferencia = $4, usa_moneda_intermedia = $5, moneda_intermedia = $6,
			    importe_moneda_intermedia = $7, tipo_cambio_intermedio = $8, moneda_local = $9,
			    importe_moneda_local = $10, tipo_cambio_local = $11, cuenta_origen = $12,
			    cuenta_destino = $13, entidad_bancaria = $14, es_ultima = $15,
			    observaciones = $16, updated_at = NOW()
			WHERE id = $17
		`, t.TotalPrevistas, t.FechaPeticion, t.ImporteEuros, t.GastosTransferencia,
			t.UsaMonedaIntermedia, nullString(t.MonedaIntermedia), t.ImporteMonedaIntermedia,
			t.TipoCambioIntermedio, nullString(t.MonedaLocal), t.ImporteMonedaLocal,
			t.TipoCambioLocal, nullString(t.CuentaOrigen), nullString(t.CuentaDestino),
			nullString(t.EntidadBancaria), t.EsUltima, nullString(t.Observaciones), transferID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransferByID(ctx, transferID)
}

// DeleteTransfer removes a transfer still in solicitada.
func (s *TransferService) DeleteTransfer(ctx context.Context, transferID int64) error {
	var emisionPath, recepcionPath string
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		t, err := getTransferForUpdate(ctx, tx, transferID)
		if err != nil {
			return err
		}
		if t.Estado != models.TransferenciaSolicitada {
			return fmt.Errorf("%w: only solicitada transfers can be deleted", ErrInvalidState)
		}
		emisionPath = t.DocumentoEmisionPath
		recepcionPath = t.DocumentoRecepcionPath

		_, err = tx.ExecContext(ctx, `DELETE FROM transfers WHERE id = $1`, transferID)
		return err
	})
	if err != nil {
		return err
	}

	utils.DeleteDocumentFile(emisionPath)
	utils.DeleteDocumentFile(recepcionPath)
	return nil
}

// ApproveTransfer moves solicitada to aprobada.
func (s *TransferService) ApproveTransfer(ctx context.Context, transferID int64) (*models.Transfer, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		t, err := getTransferForUpdate(ctx, tx, transferID)
		if err != nil {
			return err
		}
		if t.Estado != models.TransferenciaSolicitada {
			return fmt.Errorf("%w: only solicitada transfers can be approved", ErrInvalidState)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE transfers SET estado = $1, updated_at = NOW() WHERE id = $2
		`, models.TransferenciaAprobada, transferID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransferByID(ctx, transferID)
}

// checkEmissionReady gates the aprobada -> emitida step: the emission
// document must be on file before the money leaves the account.
func checkEmissionReady(t *models.Transfer) error {
	if t.Estado != models.TransferenciaAprobada {
		return fmt.Errorf("%w: only aprobada transfers can be emitted", ErrInvalidState)
	}
	if t.DocumentoEmisionPath == "" {
		return fmt.Errorf("%w: emission document must be uploaded before confirming emission", ErrBusinessRule)
	}
	return nil
}

// checkReceptionReady gates the emitida -> recibida step.
func checkReceptionReady(t *models.Transfer) error {
	if t.Estado != models.TransferenciaEmitida {
		return fmt.Errorf("%w: only emitida transfers can be received", ErrInvalidState)
	}
	if t.DocumentoRecepcionPath == "" {
		return fmt.Errorf("%w: reception document must be uploaded before confirming reception", ErrBusinessRule)
	}
	return nil
}

// ConfirmEmission moves aprobada to emitida. The emission document must
// already be uploaded; fecha_emision is stamped.
func (s *TransferService) ConfirmEmission(ctx context.Context, transferID int64) (*models.Transfer, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		t, err := getTransferForUpdate(ctx, tx, transferID)
		if err != nil {
			return err
		}
		if err := checkEmissionReady(t); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE transfers SET estado = $1, fecha_emision = CURRENT_DATE, updated_at = NOW() WHERE id = $2
		`, models.TransferenciaEmitida, transferID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransferByID(ctx, transferID)
}

// ConfirmReception moves emitida to recibida. The reception document must
// already be uploaded; the local-currency leg can be recorded here.
func (s *TransferService) ConfirmReception(ctx context.Context, transferID int64, req models.ConfirmReceptionRequest) (*models.Transfer, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		t, err := getTransferForUpdate(ctx, tx, transferID)
		if err != nil {
			return err
		}
		if err := checkReceptionReady(t); err != nil {
			return err
		}

		importeLocal := t.ImporteMonedaLocal
		if req.ImporteMonedaLocal.Valid {
			importeLocal = req.ImporteMonedaLocal
		}
		tipoCambioLocal := t.TipoCambioLocal
		if req.TipoCambioLocal.Valid {
			tipoCambioLocal = req.TipoCambioLocal
		}

		if req.FechaRecepcion != nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE transfers
				SET estado = $1, fecha_recepcion = $2, importe_moneda_local = $3,
				    tipo_cambio_local = $4, updated_at = NOW()
				WHERE id = $5
			`, models.TransferenciaRecibida, *req.FechaRecepcion, importeLocal, tipoCambioLocal, transferID)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE transfers
				SET estado = $1, fecha_recepcion = CURRENT_DATE, importe_moneda_local = $2,
				    tipo_cambio_local = $3, updated_at = NOW()
				WHERE id = $4
			`, models.TransferenciaRecibida, importeLocal, tipoCambioLocal, transferID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransferByID(ctx, transferID)
}

// CloseTransfer moves recibida to the terminal cerrada state.
func (s *TransferService) CloseTransfer(ctx context.Context, transferID int64) (*models.Transfer, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		t, err := getTransferForUpdate(ctx, tx, transferID)
		if err != nil {
			return err
		}
		if t.Estado != models.TransferenciaRecibida {
			return fmt.Errorf("%w: only recibida transfers can be closed", ErrInvalidState)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE transfers SET estado = $1, updated_at = NOW() WHERE id = $2
		`, models.TransferenciaCerrada, transferID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransferByID(ctx, transferID)
}

// PreviousTransferState gives the single step back from a state, with the
// date column cleared when the state being left stamped one.
func PreviousTransferState(estado string) (previous string, clearDateColumn string, err error) {
	switch estado {
	case models.TransferenciaAprobada:
		return models.TransferenciaSolicitada, "", nil
	case models.TransferenciaEmitida:
		return models.TransferenciaAprobada, "fecha_emision", nil
	case models.TransferenciaRecibida:
		return models.TransferenciaEmitida, "fecha_recepcion", nil
	case models.TransferenciaCerrada:
		return models.TransferenciaRecibida, "", nil
	}
	return "", "", fmt.Errorf("%w: solicitada transfers have no previous state", ErrInvalidState)
}

// RevertToPreviousState steps a transfer back exactly one state, clearing
// the date of the state being left.
func (s *TransferService) RevertToPreviousState(ctx context.Context, transferID int64) (*models.Transfer, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		t, err := getTransferForUpdate(ctx, tx, transferID)
		if err != nil {
			return err
		}
		previous, clearDate, err := PreviousTransferState(t.Estado)
		if err != nil {
			return err
		}

		query := `UPDATE transfers SET estado = $1, updated_at = NOW() WHERE id = $2`
		if clearDate != "" {
			query = `UPDATE transfers SET estado = $1, ` + clearDate + ` = NULL, updated_at = NOW() WHERE id = $2`
		}
		_, err = tx.ExecContext(ctx, query, previous, transferID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetTransferByID(ctx, transferID)
}

// AttachEmissionDocument stores the emission document path, replacing any
// previous file.
func (s *TransferService) AttachEmissionDocument(ctx context.Context, transferID int64, path string) (*models.Transfer, error) {
	return s.attachDocument(ctx, transferID, "documento_emision_path", path)
}

// AttachReceptionDocument stores the reception document path, replacing
// any previous file.
func (s *TransferService) AttachReceptionDocument(ctx context.Context, transferID int64, path string) (*models.Transfer, error) {
	return s.attachDocument(ctx, transferID, "documento_recepcion_path", path)
}

func (s *TransferService) attachDocument(ctx context.Context, transferID int64, column, path string) (*models.Transfer, error) {
	t, err := s.GetTransferByID(ctx, transferID)
	if err != nil {
		return nil, err
	}

	previous := t.DocumentoEmisionPath
	if column == "documento_recepcion_path" {
		previous = t.DocumentoRecepcionPath
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE transfers SET `+column+` = $1, updated_at = NOW() WHERE id = $2`, path, transferID)
	if err != nil {
		return nil, err
	}
	if previous != "" && previous != path {
		utils.DeleteDocumentFile(previous)
	}

	return s.GetTransferByID(ctx, transferID)
}

// RemoveEmissionDocument clears the emission document. Not permitted once
// the transfer has been emitted, since the document gated that transition.
func (s *TransferService) RemoveEmissionDocument(ctx context.Context, transferID int64) error {
	return s.removeDocument(ctx, transferID, "documento_emision_path")
}

func (s *TransferService) RemoveReceptionDocument(ctx context.Context, transferID int64) error {
	return s.removeDocument(ctx, transferID, "documento_recepcion_path")
}

func (s *TransferService) removeDocument(ctx context.Context, transferID int64, column string) error {
	t, err := s.GetTransferByID(ctx, transferID)
	if err != nil {
		return err
	}

	path := t.DocumentoEmisionPath
	if column == "documento_recepcion_path" {
		path = t.DocumentoRecepcionPath
	}
	if path == "" {
		return fmt.Errorf("%w: transfer document", ErrNotFound)
	}
	if column == "documento_emision_path" && t.Sent() {
		return fmt.Errorf("%w: emission document cannot be removed after emission", ErrInvalidState)
	}
	if column == "documento_recepcion_path" &&
		(t.Estado == models.TransferenciaRecibida || t.Estado == models.TransferenciaCerrada) {
		return fmt.Errorf("%w: reception document cannot be removed after reception", ErrInvalidState)
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE transfers SET `+column+` = NULL, updated_at = NOW() WHERE id = $1`, transferID)
	if err != nil {
		return err
	}

	utils.DeleteDocumentFile(path)
	return nil
}

// BuildTransferSummary reconciles transfer capacity: validated
// home-office spend shrinks the transferable budget, sent transfers
// consume it.
func BuildTransferSummary(subvencion, gastosEspana decimal.Decimal, transfers []models.Transfer) models.TransferSummary {
	summary := models.TransferSummary{
		PresupuestoTotal:       subvencion,
		GastosEspanaValidados:  gastosEspana,
		PresupuestoATransferir: subvencion.Sub(gastosEspana),
	}

	for i := range transfers {
		t := &transfers[i]
		if t.TotalPrevistas > summary.TransferenciasPrevistas {
			summary.TransferenciasPrevistas = t.TotalPrevistas
		}
		if !t.Sent() {
			continue
		}
		summary.TransferenciasRealizadas++
		summary.TotalEnviado = summary.TotalEnviado.Add(t.ImporteEuros)
		summary.TotalGastosTransferencia = summary.TotalGastosTransferencia.Add(t.GastosTransferencia)
	}

	summary.TotalPendiente = summary.PresupuestoATransferir.Sub(summary.TotalEnviado)
	if summary.PresupuestoATransferir.IsPositive() {
		pct, _ := summary.TotalEnviado.Mul(oneHundred).Div(summary.PresupuestoATransferir).Round(2).Float64()
		summary.PorcentajeTransferido = pct
	}
	return summary
}

// GetTransferSummary reconciles the project's transfer position against
// its validated home-office expenses.
func (s *TransferService) GetTransferSummary(ctx context.Context, projectID int64) (*models.TransferSummary, error) {
	var subvencion decimal.Decimal
	err := s.db.QueryRowContext(ctx,
		`SELECT subvencion FROM projects WHERE id = $1`, projectID).Scan(&subvencion)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	gastosEspana, err := gastosEspanaValidados(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}
	transfers, err := s.GetProjectTransfers(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summary := BuildTransferSummary(subvencion, gastosEspana, transfers)
	return &summary, nil
}
