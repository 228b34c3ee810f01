package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/utils"

	"github.com/shopspring/decimal"
)

// dbtx is satisfied by *sql.DB and *sql.Tx so read helpers can run inside
// or outside a transaction.
type dbtx interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// BudgetService owns budget instantiation, the budget line ledger and the
// budget read model.
type BudgetService struct {
	db      *sql.DB
	funders *FunderService
}

func NewBudgetService(db *sql.DB) *BudgetService {
	return &BudgetService{db: db, funders: NewFunderService(db)}
}

const budgetLineColumns = `id, project_id, template_id, parent_id, code, name, category, is_spain_only, line_order, max_percentage, aprobado, ejecutado_espana, ejecutado_terreno, created_at, updated_at`

func scanBudgetLine(row interface{ Scan(...interface{}) error }) (*models.ProjectBudgetLine, error) {
	var l models.ProjectBudgetLine
	err := row.Scan(
		&l.ID,
		&l.ProjectID,
		&l.TemplateID,
		&l.ParentID,
		&l.Code,
		&l.Name,
		&l.Category,
		&l.IsSpainOnly,
		&l.Order,
		&l.MaxPercentage,
		&l.Aprobado,
		&l.EjecutadoEspana,
		&l.EjecutadoTerreno,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: budget line", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func queryBudgetLines(ctx context.Context, q dbtx, projectID int64) ([]models.ProjectBudgetLine, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+budgetLineColumns+`
		FROM project_budget_lines
		WHERE project_id = $1
		ORDER BY line_order
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.ProjectBudgetLine
	for rows.Next() {
		l, err := scanBudgetLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, *l)
	}
	return lines, rows.Err()
}

// GetProjectBudget returns the project's budget lines in display order.
func (s *BudgetService) GetProjectBudget(ctx context.Context, projectID int64) ([]models.ProjectBudgetLine, error) {
	return queryBudgetLines(ctx, s.db, projectID)
}

func (s *BudgetService) GetBudgetLineByID(ctx context.Context, lineID int64) (*models.ProjectBudgetLine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+budgetLineColumns+` FROM project_budget_lines WHERE id = $1
	`, lineID)
	return scanBudgetLine(row)
}

// GetProjectBudgetSummary builds the full budget read model, recomputing
// the validation alerts from current ledger state.
func (s *BudgetService) GetProjectBudgetSummary(ctx context.Context, projectID int64) (*models.BudgetSummary, error) {
	var subvencion decimal.Decimal
	var funderID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT subvencion, funder_id FROM projects WHERE id = $1`, projectID,
	).Scan(&subvencion, &funderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	lines, err := s.GetProjectBudget(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var funder *models.Funder
	if funderID.Valid {
		funder, err = s.funders.GetFunderByID(ctx, funderID.Int64)
		if err != nil {
			return nil, err
		}
	}

	summary := BuildBudgetSummary(projectID, subvencion, lines, funder)
	return &summary, nil
}

// resolveParentIDs computes, per template ID, the parent line ID of its
// materialized copy. Templates whose parent was not materialized get none.
func resolveParentIDs(templates []models.BudgetLineTemplate, lineIDByTemplate map[int64]int64) map[int64]int64 {
	parents := make(map[int64]int64)
	for _, t := range templates {
		if t.ParentID == nil {
			continue
		}
		parentLineID, ok := lineIDByTemplate[*t.ParentID]
		if !ok {
			continue
		}
		parents[t.ID] = parentLineID
	}
	return parents
}

// createLinesFromTemplates copies the template forest into project budget
// lines at zero execution, resolving parent links in a second pass so a
// child can never point at a parent that does not exist yet.
func (s *BudgetService) createLinesFromTemplates(ctx context.Context, tx *sql.Tx, projectID int64, templates []models.BudgetLineTemplate) error {
	lineIDByTemplate := make(map[int64]int64, len(templates))

	for _, t := range templates {
		var lineID int64
		err := tx.QueryRowContext(ctx, `
			INSERT INTO project_budget_lines
				(project_id, template_id, code, name, category, is_spain_only, line_order, max_percentage, aprobado, ejecutado_espana, ejecutado_terreno)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, 0, 0)
			RETURNING id
		`, projectID, t.ID, t.Code, t.Name, t.Category, t.IsSpainOnly, t.Order, t.MaxPercentage).Scan(&lineID)
		if err != nil {
			return fmt.Errorf("create budget line %s: %w", t.Code, err)
		}
		lineIDByTemplate[t.ID] = lineID
	}

	for templateID, parentLineID := range resolveParentIDs(templates, lineIDByTemplate) {
		_, err := tx.ExecContext(ctx, `
			UPDATE project_budget_lines SET parent_id = $1 WHERE id = $2
		`, parentLineID, lineIDByTemplate[templateID])
		if err != nil {
			return fmt.Errorf("link budget line parent: %w", err)
		}
	}

	return nil
}

// InitializeProjectBudget materializes the funder's template tree for the
// project. At most once: when the project already has budget lines they
// are returned untouched.
func (s *BudgetService) InitializeProjectBudget(ctx context.Context, projectID, funderID int64) ([]models.ProjectBudgetLine, error) {
	templates, err := s.funders.GetFunderTemplates(ctx, funderID)
	if err != nil {
		return nil, err
	}

	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		// Lock the project row so two concurrent initializations cannot
		// both see an empty budget.
		var lockedID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM projects WHERE id = $1 FOR UPDATE`, projectID,
		).Scan(&lockedID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: project", ErrNotFound)
		}
		if err != nil {
			return err
		}

		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM project_budget_lines WHERE project_id = $1`, projectID,
		).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := s.createLinesFromTemplates(ctx, tx, projectID, templates); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE projects SET funder_id = $1, updated_at = NOW() WHERE id = $2`, funderID, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.GetProjectBudget(ctx, projectID)
}

// InitializeBudgetFromProject resolves the project's declared funder and
// instantiates its budget.
func (s *BudgetService) InitializeBudgetFromProject(ctx context.Context, projectID int64) ([]models.ProjectBudgetLine, error) {
	var financiador string
	err := s.db.QueryRowContext(ctx,
		`SELECT financiador FROM projects WHERE id = $1`, projectID,
	).Scan(&financiador)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	funder, err := s.funders.GetFunderForFinanciador(ctx, financiador)
	if err != nil {
		return nil, err
	}
	return s.InitializeProjectBudget(ctx, projectID, funder.ID)
}

// ReinitializeBudgetForNewFunder rebuilds the project budget after a
// funder change. No-op when the declared funder resolves to the project's
// current catalog entry. The delete and recreate run in one transaction so
// a failure can never leave the project without a budget.
func (s *BudgetService) ReinitializeBudgetForNewFunder(ctx context.Context, projectID int64) ([]models.ProjectBudgetLine, error) {
	var financiador string
	var currentFunderID sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT financiador, funder_id FROM projects WHERE id = $1`, projectID,
	).Scan(&financiador, &currentFunderID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	newFunder, err := s.funders.GetFunderForFinanciador(ctx, financiador)
	if err != nil {
		return nil, err
	}

	if currentFunderID.Valid && currentFunderID.Int64 == newFunder.ID {
		return s.GetProjectBudget(ctx, projectID)
	}

	templates, err := s.funders.GetFunderTemplates(ctx, newFunder.ID)
	if err != nil {
		return nil, err
	}

	err = utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		var lockedID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM projects WHERE id = $1 FOR UPDATE`, projectID,
		).Scan(&lockedID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: project", ErrNotFound)
		}
		if err != nil {
			return err
		}

		// Allocations cascade with their lines.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM project_budget_lines WHERE project_id = $1`, projectID); err != nil {
			return err
		}

		if err := s.createLinesFromTemplates(ctx, tx, projectID, templates); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE projects SET funder_id = $1, updated_at = NOW() WHERE id = $2`, newFunder.ID, projectID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.GetProjectBudget(ctx, projectID)
}

// UpdateBudgetLine is the administrative write on a line's approved amount
// and name. Approved amounts must stay non-negative; execution totals are
// off limits here.
func (s *BudgetService) UpdateBudgetLine(ctx context.Context, lineID int64, req models.UpdateBudgetLineRequest) (*models.ProjectBudgetLine, error) {
	line, err := s.GetBudgetLineByID(ctx, lineID)
	if err != nil {
		return nil, err
	}

	if req.Aprobado != nil {
		if req.Aprobado.IsNegative() {
			return nil, fmt.Errorf("%w: aprobado must not be negative", ErrBusinessRule)
		}
		line.Aprobado = *req.Aprobado
	}
	if req.Name != nil {
		line.Name = *req.Name
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE project_budget_lines
		SET aprobado = $1, name = $2, updated_at = NOW()
		WHERE id = $3
	`, line.Aprobado, line.Name, lineID)
	if err != nil {
		return nil, err
	}

	return s.GetBudgetLineByID(ctx, lineID)
}

// postExecution adds a signed amount to a line's executed total for one
// location. The only legal mutation of executed totals; always called
// inside the transaction of the expense transition that triggers it. The
// increment is a single SQL statement so concurrent postings serialize at
// the row.
func postExecution(ctx context.Context, tx *sql.Tx, lineID int64, ubicacion string, amount decimal.Decimal) error {
	column := "ejecutado_terreno"
	if ubicacion == models.UbicacionEspana {
		column = "ejecutado_espana"
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE project_budget_lines
		SET `+column+` = `+column+` + $1, updated_at = NOW()
		WHERE id = $2
	`, amount, lineID)
	if err != nil {
		return fmt.Errorf("post execution: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: budget line", ErrNotFound)
	}
	return nil
}
