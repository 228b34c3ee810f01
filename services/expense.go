package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/utils"
)

// ExpenseService owns the expense lifecycle. Every transition that posts
// to or reverses the budget line ledger runs as one transaction with the
// state change, so ledger and expense state can never diverge.
type ExpenseService struct {
	db *sql.DB
}

func NewExpenseService(db *sql.DB) *ExpenseService {
	return &ExpenseService{db: db}
}

const expenseColumns = `id, project_id, budget_line_id, fecha_factura, concepto, expedidor, COALESCE(persona, ''), cantidad_original, moneda_original, tipo_cambio, cantidad_euros, porcentaje, ubicacion, estado, funding_source_id, fecha_revision, COALESCE(observaciones, ''), COALESCE(documento_path, ''), created_at, updated_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (*models.Expense, error) {
	var e models.Expense
	err := row.Scan(
		&e.ID,
		&e.ProjectID,
		&e.BudgetLineID,
		&e.FechaFactura,
		&e.Concepto,
		&e.Expedidor,
		&e.Persona,
		&e.CantidadOriginal,
		&e.MonedaOriginal,
		&e.TipoCambio,
		&e.CantidadEuros,
		&e.Porcentaje,
		&e.Ubicacion,
		&e.Estado,
		&e.FundingSourceID,
		&e.FechaRevision,
		&e.Observaciones,
		&e.DocumentoPath,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: expense", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *ExpenseService) GetExpenseByID(ctx context.Context, expenseID int64) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, expenseID)
	return scanExpense(row)
}

// getExpenseForUpdate reads and row-locks an expense inside a transaction
// so concurrent transitions on the same expense serialize.
func getExpenseForUpdate(ctx context.Context, tx *sql.Tx, expenseID int64) (*models.Expense, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, expenseID)
	return scanExpense(row)
}

// Expense lifecycle actions.
type expenseAction string

const (
	expenseSubmit   expenseAction = "submit"
	expenseValidate expenseAction = "validate"
	expenseReject   expenseAction = "reject"
	expenseJustify  expenseAction = "justify"
	expenseRevert   expenseAction = "revert"
)

// nextExpenseState returns the target state for an action, or
// ErrInvalidState when the current state does not allow it.
func nextExpenseState(estado string, action expenseAction) (string, error) {
	switch action {
	case expenseSubmit:
		if estado == models.GastoBorrador {
			return models.GastoPendiente, nil
		}
		return "", fmt.Errorf("%w: only borrador expenses can be submitted for review", ErrInvalidState)
	case expenseValidate:
		if estado == models.GastoBorrador || estado == models.GastoPendiente {
			return models.GastoValidado, nil
		}
		return "", fmt.Errorf("%w: only borrador or pendiente_revision expenses can be validated", ErrInvalidState)
	case expenseReject:
		switch estado {
		case models.GastoBorrador, models.GastoPendiente, models.GastoValidado:
			return models.GastoRechazado, nil
		}
		return "", fmt.Errorf("%w: justificado and rechazado expenses cannot be rejected", ErrInvalidState)
	case expenseJustify:
		if estado == models.GastoValidado {
			return models.GastoJustificado, nil
		}
		return "", fmt.Errorf("%w: only validado expenses can be justified", ErrInvalidState)
	case expenseRevert:
		if estado == models.GastoValidado || estado == models.GastoRechazado {
			return models.GastoBorrador, nil
		}
		return "", fmt.Errorf("%w: only validado or rechazado expenses can be reverted to borrador", ErrInvalidState)
	}
	return "", fmt.Errorf("%w: unknown expense action %q", ErrInvalidState, action)
}

func expensePosted(estado string) bool {
	return estado == models.GastoValidado || estado == models.GastoJustificado
}

// expenseLedgerDelta is the signed amount a state change posts to the
// budget line ledger: the imputable amount when entering a posted state,
// its negation when leaving one, zero otherwise. Reversal is exact: the
// delta of a transition and of its inverse always sum to zero.
func expenseLedgerDelta(from, to string, imputable decimal.Decimal) decimal.Decimal {
	switch {
	case !expensePosted(from) && expensePosted(to):
		return imputable
	case expensePosted(from) && !expensePosted(to):
		return imputable.Neg()
	}
	return decimal.Zero
}

// resolvePorcentaje defaults an omitted attribution percentage to 100.
// An explicit zero stays zero.
func resolvePorcentaje(p *decimal.Decimal) decimal.Decimal {
	if p == nil {
		return oneHundred
	}
	return *p
}

// GetProjectExpenses lists a project's expenses, newest invoice first,
// optionally narrowed by filters.
func (s *ExpenseService) GetProjectExpenses(ctx context.Context, projectID int64, filters *models.ExpenseFilters) ([]models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE project_id = $1`
	args := []interface{}{projectID}

	if filters != nil {
		if filters.BudgetLineID != 0 {
			args = append(args, filters.BudgetLineID)
			query += ` AND budget_line_id = $` + strconv.Itoa(len(args))
		}
		if filters.Estado != "" {
			args = append(args, filters.Estado)
			query += ` AND estado = $` + strconv.Itoa(len(args))
		}
		if filters.Ubicacion != "" {
			args = append(args, filters.Ubicacion)
			query += ` AND ubicacion = $` + strconv.Itoa(len(args))
		}
		if filters.FechaDesde != nil {
			args = append(args, *filters.FechaDesde)
			query += ` AND fecha_factura >= $` + strconv.Itoa(len(args))
		}
		if filters.FechaHasta != nil {
			args = append(args, *filters.FechaHasta)
			query += ` AND fecha_factura <= $` + strconv.Itoa(len(args))
		}
	}
	query += ` ORDER BY fecha_factura DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// verifyLineBelongsToProject guards cross-project budget line references.
func verifyLineBelongsToProject(ctx context.Context, q dbtx, lineID, projectID int64) error {
	var lineProject int64
	err := q.QueryRowContext(ctx,
		`SELECT project_id FROM project_budget_lines WHERE id = $1`, lineID,
	).Scan(&lineProject)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: budget line", ErrNotFound)
	}
	if err != nil {
		return err
	}
	if lineProject != projectID {
		return fmt.Errorf("%w: budget line belongs to another project", ErrNotFound)
	}
	return nil
}

// CreateExpense registers a new expense in borrador state. Nothing is
// posted to the ledger yet.
func (s *ExpenseService) CreateExpense(ctx context.Context, projectID int64, req models.CreateExpenseRequest) (*models.Expense, error) {
	if err := verifyLineBelongsToProject(ctx, s.db, req.BudgetLineID, projectID); err != nil {
		return nil, err
	}
	if req.Ubicacion != models.UbicacionEspana && req.Ubicacion != models.UbicacionTerreno {
		return nil, fmt.Errorf("%w: ubicacion must be espana or terreno", ErrBusinessRule)
	}

	moneda := req.MonedaOriginal
	if moneda == "" {
		moneda = "EUR"
	}
	porcentaje := resolvePorcentaje(req.Porcentaje)

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO expenses
			(project_id, budget_line_id, fecha_factura, concepto, expedidor, persona,
			 cantidad_original, moneda_original, tipo_cambio, cantidad_euros, porcentaje,
			 ubicacion, estado, funding_source_id, observaciones)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`, projectID, req.BudgetLineID, req.FechaFactura, req.Concepto, req.Expedidor,
		nullString(req.Persona), req.CantidadOriginal, moneda, req.TipoCambio,
		req.CantidadEuros, porcentaje, req.Ubicacion, models.GastoBorrador,
		req.FundingSourceID, nullString(req.Observaciones)).Scan(&id)
	if err != nil {
		return nil, err
	}

	return s.GetExpenseByID(ctx, id)
}

// UpdateExpense edits an expense. Only borrador expenses are editable, and
// a budget line change must stay within the expense's project.
func (s *ExpenseService) UpdateExpense(ctx context.Context, expenseID int64, req models.UpdateExpenseRequest) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Estado != models.GastoBorrador {
		return nil, fmt.Errorf("%w: only borrador expenses can be edited", ErrInvalidState)
	}

	if req.BudgetLineID != nil {
		if err := verifyLineBelongsToProject(ctx, s.db, *req.BudgetLineID, expense.ProjectID); err != nil {
			return nil, err
		}
		expense.BudgetLineID = *req.BudgetLineID
	}
	if req.FechaFactura != nil {
		expense.FechaFactura = *req.FechaFactura
	}
	if req.Concepto != nil {
		expense.Concepto = *req.Concepto
	}
	if req.Expedidor != nil {
		expense.Expedidor = *req.Expedidor
	}
	if req.Persona != nil {
		expense.Persona = *req.Persona
	}
	if req.CantidadOriginal != nil {
		expense.CantidadOriginal = *req.CantidadOriginal
	}
	if req.MonedaOriginal != nil {
		expense.MonedaOriginal = *req.MonedaOriginal
	}
	if req.TipoCambio != nil {
		expense.TipoCambio = *req.TipoCambio
	}
	if req.CantidadEuros != nil {
		expense.CantidadEuros = *req.CantidadEuros
	}
	if req.Porcentaje != nil {
		expense.Porcentaje = *req.Porcentaje
	}
	if req.Ubicacion != nil {
		if *req.Ubicacion != models.UbicacionEspana && *req.Ubicacion != models.UbicacionTerreno {
			return nil, fmt.Errorf("%w: ubicacion must be espana or terreno", ErrBusinessRule)
		}
		expense.Ubicacion = *req.Ubicacion
	}
	if req.FundingSourceID != nil {
		expense.FundingSourceID = req.FundingSourceID
	}
	if req.Observaciones != nil {
		expense.Observaciones = *req.Observaciones
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE expenses
		SET budget_line_id = $1, fecha_factura = $2, concepto = $3, expedidor = $4,
		    persona = $5, cantidad_original = $6, moneda_original = $7, tipo_cambio = $8,
		    cantidad_euros = $9, porcentaje = $10, ubicacion = $11, funding_source_id = $12,
		    observaciones = $13, updated_at = NOW()
		WHERE id = $14
	`, expense.BudgetLineID, expense.FechaFactura, expense.Concepto, expense.Expedidor,
		nullString(expense.Persona), expense.CantidadOriginal, expense.MonedaOriginal,
		expense.TipoCambio, expense.CantidadEuros, expense.Porcentaje, expense.Ubicacion,
		expense.FundingSourceID, nullString(expense.Observaciones), expenseID)
	if err != nil {
		return nil, err
	}

	return s.GetExpenseByID(ctx, expenseID)
}

// DeleteExpense removes an expense. A posted expense is reversed in the
// same transaction, so the ledger never keeps a posting for a deleted row.
func (s *ExpenseService) DeleteExpense(ctx context.Context, expenseID int64) error {
	var documentoPath string
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		expense, err := getExpenseForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		documentoPath = expense.DocumentoPath

		if delta := expenseLedgerDelta(expense.Estado, models.GastoBorrador, expense.CantidadImputable()); !delta.IsZero() {
			if err := postExecution(ctx, tx, expense.BudgetLineID, expense.Ubicacion, delta); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, expenseID)
		return err
	})
	if err != nil {
		return err
	}

	utils.DeleteDocumentFile(documentoPath)
	return nil
}

// SubmitForReview moves borrador to pendiente_revision. No ledger effect.
func (s *ExpenseService) SubmitForReview(ctx context.Context, expenseID int64) (*models.Expense, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		expense, err := getExpenseForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		next, err := nextExpenseState(expense.Estado, expenseSubmit)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE expenses SET estado = $1, updated_at = NOW() WHERE id = $2
		`, next, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetExpenseByID(ctx, expenseID)
}

// ValidateExpense posts the imputable amount to the line's ledger at the
// expense's location and stamps fecha_revision, all in one transaction.
func (s *ExpenseService) ValidateExpense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		expense, err := getExpenseForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		next, err := nextExpenseState(expense.Estado, expenseValidate)
		if err != nil {
			return err
		}

		if delta := expenseLedgerDelta(expense.Estado, next, expense.CantidadImputable()); !delta.IsZero() {
			if err := postExecution(ctx, tx, expense.BudgetLineID, expense.Ubicacion, delta); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE expenses SET estado = $1, fecha_revision = $2, updated_at = NOW() WHERE id = $3
		`, next, time.Now().UTC(), expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetExpenseByID(ctx, expenseID)
}

// RejectExpense flips a non-terminal expense to rechazado, reversing the
// posting first when it was validado.
func (s *ExpenseService) RejectExpense(ctx context.Context, expenseID int64, reason string) (*models.Expense, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		expense, err := getExpenseForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		next, err := nextExpenseState(expense.Estado, expenseReject)
		if err != nil {
			return err
		}

		if delta := expenseLedgerDelta(expense.Estado, next, expense.CantidadImputable()); !delta.IsZero() {
			if err := postExecution(ctx, tx, expense.BudgetLineID, expense.Ubicacion, delta); err != nil {
				return err
			}
		}

		observaciones := expense.Observaciones
		if reason != "" {
			observaciones = reason
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE expenses SET estado = $1, fecha_revision = $2, observaciones = $3, updated_at = NOW() WHERE id = $4
		`, next, time.Now().UTC(), nullString(observaciones), expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetExpenseByID(ctx, expenseID)
}

// MarkAsJustified closes a validado expense. The posting stays; the state
// is terminal.
func (s *ExpenseService) MarkAsJustified(ctx context.Context, expenseID int64) (*models.Expense, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		expense, err := getExpenseForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		next, err := nextExpenseState(expense.Estado, expenseJustify)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE expenses SET estado = $1, updated_at = NOW() WHERE id = $2
		`, next, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetExpenseByID(ctx, expenseID)
}

// RevertToDraft returns a validado or rechazado expense to borrador,
// reversing the posting and clearing fecha_revision when needed.
func (s *ExpenseService) RevertToDraft(ctx context.Context, expenseID int64) (*models.Expense, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		expense, err := getExpenseForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		next, err := nextExpenseState(expense.Estado, expenseRevert)
		if err != nil {
			return err
		}

		if delta := expenseLedgerDelta(expense.Estado, next, expense.CantidadImputable()); !delta.IsZero() {
			if err := postExecution(ctx, tx, expense.BudgetLineID, expense.Ubicacion, delta); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE expenses SET estado = $1, fecha_revision = NULL, updated_at = NOW() WHERE id = $2
		`, next, expenseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetExpenseByID(ctx, expenseID)
}

// AttachDocument records the stored file path for an expense, replacing
// and removing any previous file.
func (s *ExpenseService) AttachDocument(ctx context.Context, expenseID int64, path string) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	previous := expense.DocumentoPath
	_, err = s.db.ExecContext(ctx, `
		UPDATE expenses SET documento_path = $1, updated_at = NOW() WHERE id = $2
	`, path, expenseID)
	if err != nil {
		return nil, err
	}
	if previous != "" && previous != path {
		utils.DeleteDocumentFile(previous)
	}

	return s.GetExpenseByID(ctx, expenseID)
}

// RemoveDocument clears the expense's document reference and deletes the
// stored file.
func (s *ExpenseService) RemoveDocument(ctx context.Context, expenseID int64) error {
	expense, err := s.GetExpenseByID(ctx, expenseID)
	if err != nil {
		return err
	}
	if expense.DocumentoPath == "" {
		return fmt.Errorf("%w: expense document", ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE expenses SET documento_path = NULL, updated_at = NOW() WHERE id = $1
	`, expenseID)
	if err != nil {
		return err
	}

	utils.DeleteDocumentFile(expense.DocumentoPath)
	return nil
}

// GetBudgetLinesWithBalance returns each line's availability per location
// for expense entry.
func (s *ExpenseService) GetBudgetLinesWithBalance(ctx context.Context, projectID int64) ([]models.BudgetLineBalance, error) {
	lines, err := queryBudgetLines(ctx, s.db, projectID)
	if err != nil {
		return nil, err
	}

	balances := make([]models.BudgetLineBalance, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		balances = append(balances, models.BudgetLineBalance{
			ID:                l.ID,
			Code:              l.Code,
			Name:              l.Name,
			IsSpainOnly:       l.IsSpainOnly,
			Aprobado:          l.Aprobado,
			EjecutadoEspana:   l.EjecutadoEspana,
			EjecutadoTerreno:  l.EjecutadoTerreno,
			DisponibleEspana:  l.DisponibleEspana(),
			DisponibleTerreno: l.DisponibleTerreno(),
		})
	}
	return balances, nil
}

// GetExpenseSummary aggregates the project's expenses by state and
// location.
func (s *ExpenseService) GetExpenseSummary(ctx context.Context, projectID int64) (*models.ExpenseSummary, error) {
	expenses, err := s.GetProjectExpenses(ctx, projectID, nil)
	if err != nil {
		return nil, err
	}
	summary := SummarizeExpenses(expenses)
	return &summary, nil
}

// SummarizeExpenses folds expenses into per-state counts and totals.
func SummarizeExpenses(expenses []models.Expense) models.ExpenseSummary {
	summary := models.ExpenseSummary{TotalRegistrados: len(expenses)}

	for i := range expenses {
		e := &expenses[i]
		switch e.Estado {
		case models.GastoBorrador:
			summary.TotalBorradores++
		case models.GastoPendiente:
			summary.TotalPendientes++
		case models.GastoValidado:
			summary.TotalValidados++
		case models.GastoRechazado:
			summary.TotalRechazados++
		case models.GastoJustificado:
			summary.TotalJustificados++
		}

		imputable := e.CantidadImputable()
		summary.ImporteTotal = summary.ImporteTotal.Add(imputable)
		if e.Posted() {
			summary.ImporteValidado = summary.ImporteValidado.Add(imputable)
		}
		if e.Ubicacion == models.UbicacionEspana {
			summary.ImporteEspana = summary.ImporteEspana.Add(imputable)
		} else {
			summary.ImporteTerreno = summary.ImporteTerreno.Add(imputable)
		}
	}
	return summary
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
