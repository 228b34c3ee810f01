package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/utils"
)

// ProjectService manages project records. Budget instantiation on create
// and funder changes are delegated to the budget service.
type ProjectService struct {
	db     *sql.DB
	budget *BudgetService
}

func NewProjectService(db *sql.DB, budget *BudgetService) *ProjectService {
	return &ProjectService{db: db, budget: budget}
}

const projectColumns = `id, codigo_contable, titulo, pais, estado, financiador, subvencion,
	COALESCE(cuenta_bancaria, ''), fecha_inicio, fecha_finalizacion, funder_id, created_at, updated_at`

func scanProject(row interface{ Scan(...interface{}) error }) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID,
		&p.CodigoContable,
		&p.Titulo,
		&p.Pais,
		&p.Estado,
		&p.Financiador,
		&p.Subvencion,
		&p.CuentaBancaria,
		&p.FechaInicio,
		&p.FechaFin,
		&p.FunderID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: project", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProjectService) GetAllProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY codigo_contable`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *ProjectService) GetProjectByID(ctx context.Context, projectID int64) (*models.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, projectID)
	return scanProject(row)
}

// CreateProject registers a project and instantiates its budget from the
// declared funder's template catalog.
func (s *ProjectService) CreateProject(ctx context.Context, req models.CreateProjectRequest) (*models.Project, error) {
	estado := req.Estado
	if estado == "" {
		estado = models.ProyectoFormulacion
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO projects
			(codigo_contable, titulo, pais, estado, financiador, subvencion,
			 cuenta_bancaria, fecha_inicio, fecha_finalizacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`, req.CodigoContable, req.Titulo, req.Pais, estado, req.Financiador,
		req.Subvencion, nullString(req.CuentaBancaria), req.FechaInicio, req.FechaFin).Scan(&id)
	if err != nil {
		return nil, err
	}

	if _, err := s.budget.InitializeBudgetFromProject(ctx, id); err != nil {
		utils.SafeWarn("budget instantiation deferred for project %d: %v", id, err)
	}

	return s.GetProjectByID(ctx, id)
}

// UpdateProject edits a project. Changing the declared funder rebuilds
// the budget from the new funder's templates, discarding existing lines.
func (s *ProjectService) UpdateProject(ctx context.Context, projectID int64, req models.UpdateProjectRequest) (*models.Project, error) {
	project, err := s.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	financiadorChanged := req.Financiador != nil && *req.Financiador != project.Financiador

	if req.Titulo != nil {
		project.Titulo = *req.Titulo
	}
	if req.Pais != nil {
		project.Pais = *req.Pais
	}
	if req.Estado != nil {
		project.Estado = *req.Estado
	}
	if req.Financiador != nil {
		project.Financiador = *req.Financiador
	}
	if req.Subvencion != nil {
		project.Subvencion = *req.Subvencion
	}
	if req.CuentaBancaria != nil {
		project.CuentaBancaria = *req.CuentaBancaria
	}
	if req.FechaInicio != nil {
		project.FechaInicio = req.FechaInicio
	}
	if req.FechaFin != nil {
		project.FechaFin = req.FechaFin
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE projects
		SET titulo = $1, pais = $2, estado = $3, financiador = $4, subvencion = $5,
		    cuenta_bancaria = $6, fecha_inicio = $7, fecha_finalizacion = $8, updated_at = NOW()
		WHERE id = $9
	`, project.Titulo, project.Pais, project.Estado, project.Financiador,
		project.Subvencion, nullString(project.CuentaBancaria),
		project.FechaInicio, project.FechaFin, projectID)
	if err != nil {
		return nil, err
	}

	if financiadorChanged {
		if _, err := s.budget.ReinitializeBudgetForNewFunder(ctx, projectID); err != nil {
			return nil, err
		}
	}

	return s.GetProjectByID(ctx, projectID)
}

// DeleteProject removes a project. Budget lines, funding sources,
// allocations, expenses and transfers go with it by cascade.
func (s *ProjectService) DeleteProject(ctx context.Context, projectID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, projectID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: project", ErrNotFound)
	}
	return nil
}
