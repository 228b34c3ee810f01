package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/prodiversa/coop-api/models"
	"github.com/prodiversa/coop-api/utils"
)

// FundingService manages a project's co-financiers and the allocation of
// budget line amounts across them.
type FundingService struct {
	db *sql.DB
}

func NewFundingService(db *sql.DB) *FundingService {
	return &FundingService{db: db}
}

func (s *FundingService) GetProjectFundingSources(ctx context.Context, projectID int64) ([]models.FundingSource, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, project_id, nombre, tipo, orden, created_at
		FROM project_funding_sources
		WHERE project_id = $1
		ORDER BY orden, id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []models.FundingSource
	for rows.Next() {
		var fs models.FundingSource
		if err := rows.Scan(&fs.ID, &fs.ProjectID, &fs.Nombre, &fs.Tipo, &fs.Orden, &fs.CreatedAt); err != nil {
			return nil, err
		}
		sources = append(sources, fs)
	}
	return sources, rows.Err()
}

func (s *FundingService) GetFundingSourceByID(ctx context.Context, sourceID int64) (*models.FundingSource, error) {
	var fs models.FundingSource
	err := s.db.QueryRowContext(ctx, `
		SELECT id, project_id, nombre, tipo, orden, created_at
		FROM project_funding_sources
		WHERE id = $1
	`, sourceID).Scan(&fs.ID, &fs.ProjectID, &fs.Nombre, &fs.Tipo, &fs.Orden, &fs.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: funding source", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &fs, nil
}

// CreateFundingSource adds a co-financier to a project. Names are unique
// within the project; the new source is appended at the end of the order.
func (s *FundingService) CreateFundingSource(ctx context.Context, projectID int64, req models.CreateFundingSourceRequest) (*models.FundingSource, error) {
	if _, ok := models.FuenteNames[req.Tipo]; !ok {
		return nil, fmt.Errorf("%w: unknown funding source type %q", ErrBusinessRule, req.Tipo)
	}

	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO project_funding_sources (project_id, nombre, tipo, orden)
		VALUES ($1, $2, $3,
			(SELECT COALESCE(MAX(orden), 0) + 1 FROM project_funding_sources WHERE project_id = $1))
		RETURNING id
	`, projectID, req.Nombre, req.Tipo).Scan(&id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, req.Nombre)
		}
		return nil, err
	}

	return s.GetFundingSourceByID(ctx, id)
}

// DeleteFundingSource removes a co-financier. Sources referenced by any
// expense are protected; their line allocations are removed by cascade.
func (s *FundingService) DeleteFundingSource(ctx context.Context, sourceID int64) error {
	return utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		var inUse bool
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM expenses WHERE funding_source_id = $1)`, sourceID,
		).Scan(&inUse)
		if err != nil {
			return err
		}
		if inUse {
			return fmt.Errorf("%w: funding source is referenced by expenses", ErrSourceInUse)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM project_funding_sources WHERE id = $1`, sourceID)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return fmt.Errorf("%w: funding source", ErrNotFound)
		}
		return nil
	})
}

func (s *FundingService) GetLineDistribution(ctx context.Context, lineID int64) ([]models.AllocationEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT blf.id, blf.budget_line_id, blf.funding_source_id, blf.aprobado
		FROM budget_line_funding blf
		JOIN project_funding_sources pfs ON pfs.id = blf.funding_source_id
		WHERE blf.budget_line_id = $1
		ORDER BY pfs.orden, pfs.id
	`, lineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.AllocationEntry
	for rows.Next() {
		var a models.AllocationEntry
		if err := rows.Scan(&a.ID, &a.BudgetLineID, &a.FundingSourceID, &a.Aprobado); err != nil {
			return nil, err
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

// UpdateLineDistribution replaces a budget line's allocation across
// funding sources. Old entries are deleted and the new set inserted in one
// transaction. Each source must belong to the line's project. The sum of
// allocations against the line's approved amount is left to the funding
// summary to surface, not enforced here.
func (s *FundingService) UpdateLineDistribution(ctx context.Context, lineID int64, req models.UpdateDistributionRequest) ([]models.AllocationEntry, error) {
	err := utils.WithTransaction(s.db, func(tx *sql.Tx) error {
		var projectID int64
		err := tx.QueryRowContext(ctx,
			`SELECT project_id FROM project_budget_lines WHERE id = $1`, lineID,
		).Scan(&projectID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: budget line", ErrNotFound)
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM budget_line_funding WHERE budget_line_id = $1`, lineID); err != nil {
			return err
		}

		for _, entry := range req.Allocations {
			if entry.Aprobado.IsNegative() {
				return fmt.Errorf("%w: allocation cannot be negative", ErrBusinessRule)
			}

			var sourceProject int64
			err := tx.QueryRowContext(ctx,
				`SELECT project_id FROM project_funding_sources WHERE id = $1`, entry.FundingSourceID,
			).Scan(&sourceProject)
			if err == sql.ErrNoRows {
				return fmt.Errorf("%w: funding source", ErrNotFound)
			}
			if err != nil {
				return err
			}
			if sourceProject != projectID {
				return fmt.Errorf("%w: funding source belongs to another project", ErrBusinessRule)
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO budget_line_funding (budget_line_id, funding_source_id, aprobado)
				VALUES ($1, $2, $3)
			`, lineID, entry.FundingSourceID, entry.Aprobado); err != nil {
				if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
					return fmt.Errorf("%w: funding source listed twice", ErrDuplicateSource)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetLineDistribution(ctx, lineID)
}

// GetFundingSummary totals, per source, the approved money allocated to
// it across all budget lines and the executed money of posted expenses
// charged to it.
func (s *FundingService) GetFundingSummary(ctx context.Context, projectID int64) ([]models.FundingSummaryRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pfs.id, pfs.nombre, pfs.tipo,
			COALESCE((SELECT SUM(blf.aprobado)
				FROM budget_line_funding blf
				JOIN project_budget_lines pbl ON pbl.id = blf.budget_line_id
				WHERE blf.funding_source_id = pfs.id AND pbl.project_id = pfs.project_id), 0),
			COALESCE((SELECT SUM(e.cantidad_euros * e.porcentaje / 100)
				FROM expenses e
				WHERE e.funding_source_id = pfs.id
				  AND e.project_id = pfs.project_id
				  AND e.estado IN ('validado', 'justificado')), 0)
		FROM project_funding_sources pfs
		WHERE pfs.project_id = $1
		ORDER BY pfs.orden, pfs.id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summary []models.FundingSummaryRow
	for rows.Next() {
		var row models.FundingSummaryRow
		if err := rows.Scan(&row.SourceID, &row.SourceNombre, &row.SourceTipo,
			&row.TotalAprobado, &row.TotalEjecutado); err != nil {
			return nil, err
		}
		row.Disponible = row.TotalAprobado.Sub(row.TotalEjecutado)
		if row.TotalAprobado.IsPositive() {
			pct, _ := row.TotalEjecutado.Mul(oneHundred).Div(row.TotalAprobado).Round(2).Float64()
			row.Porcentaje = pct
		}
		summary = append(summary, row)
	}
	return summary, rows.Err()
}
