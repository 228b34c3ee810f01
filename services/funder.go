package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/prodiversa/coop-api/models"

	"github.com/shopspring/decimal"
)

// FunderService is the read-only funder catalog: per-funder rules and the
// chart-of-accounts template tree, created once by seeding.
type FunderService struct {
	db *sql.DB
}

func NewFunderService(db *sql.DB) *FunderService {
	return &FunderService{db: db}
}

// financiadorToFunderCode maps the project's declared funder label to a
// catalog code.
var financiadorToFunderCode = map[string]string{
	models.FinanciadorAACID: "AACID",
	models.FinanciadorAECID: "AECID",
	models.FinanciadorDIPU:  "DIPU",
	models.FinanciadorAYTO:  "AYTO",
}

type funderSeed struct {
	code                   string
	name                   string
	maxIndirectPercentage  string
	maxPersonnelPercentage string
	minAmountForAudit      string
}

var fundersData = []funderSeed{
	{"AACID", "Agencia Andaluza de Cooperacion Internacional para el Desarrollo", "", "", ""},
	{"AECID", "Agencia Espanola de Cooperacion Internacional para el Desarrollo", "10.00", "", ""},
	{"DIPU", "Diputacion Provincial de Malaga", "8.00", "", ""},
	{"AYTO", "Ayuntamiento de Malaga", "7.00", "50.00", "30000.00"},
}

type templateSeed struct {
	code        string
	name        string
	category    string
	isSpainOnly bool
	order       int
}

var funderTemplates = map[string][]templateSeed{
	"AACID": {
		{"A.I.1", "Identificacion y formulacion", models.CategoriaServicios, false, 1},
		{"A.I.2", "Evaluacion externa", models.CategoriaServicios, false, 2},
		{"A.I.3", "Auditoria externa", models.CategoriaServicios, false, 3},
		{"A.I.4", "Otros servicios tecnicos", models.CategoriaServicios, false, 4},
		{"A.I.5", "Arrendamientos", models.CategoriaGastosDirectos, false, 5},
		{"A.I.6", "Materiales y suministros", models.CategoriaGastosDirectos, false, 6},
		{"A.I.7", "Gastos de funcionamiento", models.CategoriaGastosDirectos, false, 7},
		{"A.I.8", "Viajes y dietas", models.CategoriaGastosDirectos, true, 8},
		{"A.I.9.a", "Personal local", models.CategoriaPersonal, false, 9},
		{"A.I.9.b", "Personal expatriado", models.CategoriaPersonal, true, 10},
		{"A.I.9.c", "Personal sede", models.CategoriaPersonal, true, 11},
		{"A.I.10", "Voluntariado", models.CategoriaPersonal, false, 12},
		{"A.I.11", "Testimonio", models.CategoriaGastosDirectos, false, 13},
		{"A.I.12", "Sensibilizacion", models.CategoriaGastosDirectos, false, 14},
		{"A.I.13", "Gastos bancarios", models.CategoriaGastosDirectos, false, 15},
		{"A.I.14", "Fondo rotatorio", models.CategoriaGastosDirectos, false, 16},
		{"A.II.1", "Terrenos", models.CategoriaInversiones, false, 17},
		{"A.II.2", "Obras", models.CategoriaInversiones, false, 18},
		{"A.II.3", "Equipos", models.CategoriaInversiones, false, 19},
		{"B", "Costes indirectos", models.CategoriaIndirectos, true, 20},
	},
	"AECID": {
		{"AI.1", "Personal local", models.CategoriaPersonal, false, 1},
		{"AI.2", "Personal expatriado", models.CategoriaPersonal, true, 2},
		{"AI.3", "Personal voluntario", models.CategoriaPersonal, true, 3},
		{"AI.4", "Personal en sede en Espana", models.CategoriaPersonal, true, 4},
		{"AI.5", "Viajes, alojamientos y dietas", models.CategoriaGastosDirectos, true, 5},
		{"AI.6", "Equipos, materiales y suministros", models.CategoriaGastosDirectos, false, 6},
		{"AI.7", "Servicios tecnicos y profesionales", models.CategoriaServicios, false, 7},
		{"AI.8", "Funcionamiento", models.CategoriaGastosDirectos, false, 8},
		{"AI.9", "Auditorias", models.CategoriaServicios, true, 9},
		{"AI.10", "Evaluaciones", models.CategoriaServicios, true, 10},
		{"AI.11", "Otros gastos directos", models.CategoriaGastosDirectos, false, 11},
		{"B", "Costes indirectos", models.CategoriaIndirectos, true, 12},
	},
	"DIPU": {
		{"1", "Personal local", models.CategoriaPersonal, false, 1},
		{"2", "Personal expatriado", models.CategoriaPersonal, true, 2},
		{"3", "Personal en sede", models.CategoriaPersonal, true, 3},
		{"4", "Dietas y desplazamientos", models.CategoriaGastosDirectos, true, 4},
		{"5", "Equipamientos y suministros", models.CategoriaGastosDirectos, false, 5},
		{"6", "Ejecucion tecnica (obras, servicios)", models.CategoriaServicios, false, 6},
		{"7", "Funcionamiento y mantenimiento", models.CategoriaGastosDirectos, false, 7},
		{"8", "Auditoria y evaluacion", models.CategoriaServicios, true, 8},
		{"9", "Gastos administrativos/indirectos", models.CategoriaIndirectos, true, 9},
	},
	"AYTO": {
		{"1", "Gastos de personal", models.CategoriaPersonal, false, 1},
		{"2", "Gastos corrientes", models.CategoriaGastosDirectos, false, 2},
		{"3", "Gastos de inversion", models.CategoriaInversiones, false, 3},
		{"4", "Gastos de viaje y desplazamiento", models.CategoriaGastosDirectos, true, 4},
		{"5", "Gastos de auditoria/evaluacion", models.CategoriaServicios, true, 5},
		{"6", "Costes indirectos", models.CategoriaIndirectos, true, 6},
	},
}

const funderColumns = `id, code, name, max_indirect_percentage, max_personnel_percentage, min_amount_for_audit, created_at`

func scanFunder(row interface{ Scan(...interface{}) error }) (*models.Funder, error) {
	var f models.Funder
	err := row.Scan(
		&f.ID,
		&f.Code,
		&f.Name,
		&f.MaxIndirectPercentage,
		&f.MaxPersonnelPercentage,
		&f.MinAmountForAudit,
		&f.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: funder", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FunderService) GetAllFunders(ctx context.Context) ([]models.Funder, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+funderColumns+` FROM funders ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var funders []models.Funder
	for rows.Next() {
		f, err := scanFunder(rows)
		if err != nil {
			return nil, err
		}
		funders = append(funders, *f)
	}
	return funders, rows.Err()
}

func (s *FunderService) GetFunderByID(ctx context.Context, id int64) (*models.Funder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+funderColumns+` FROM funders WHERE id = $1`, id)
	return scanFunder(row)
}

func (s *FunderService) GetFunderByCode(ctx context.Context, code string) (*models.Funder, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+funderColumns+` FROM funders WHERE code = $1`, code)
	return scanFunder(row)
}

// GetFunderForFinanciador resolves a project's declared funder label to a
// catalog entry, or ErrNotFound when the label has no catalog mapping.
func (s *FunderService) GetFunderForFinanciador(ctx context.Context, financiador string) (*models.Funder, error) {
	code, ok := financiadorToFunderCode[financiador]
	if !ok {
		return nil, fmt.Errorf("%w: funder for financiador %q", ErrNotFound, financiador)
	}
	return s.GetFunderByCode(ctx, code)
}

// GetFunderTemplates returns the funder's template forest ordered by
// line_order.
func (s *FunderService) GetFunderTemplates(ctx context.Context, funderID int64) ([]models.BudgetLineTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, funder_id, parent_id, code, name, category, is_spain_only, line_order, max_percentage
		FROM budget_line_templates
		WHERE funder_id = $1
		ORDER BY line_order
	`, funderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []models.BudgetLineTemplate
	for rows.Next() {
		var t models.BudgetLineTemplate
		err := rows.Scan(
			&t.ID,
			&t.FunderID,
			&t.ParentID,
			&t.Code,
			&t.Name,
			&t.Category,
			&t.IsSpainOnly,
			&t.Order,
			&t.MaxPercentage,
		)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// SeedCatalog inserts the funders and their template trees if missing.
// Safe to call on every startup.
func (s *FunderService) SeedCatalog(ctx context.Context) error {
	if err := s.seedFunders(ctx); err != nil {
		return err
	}
	for code := range funderTemplates {
		if err := s.seedTemplates(ctx, code); err != nil {
			return err
		}
	}
	return nil
}

func (s *FunderService) seedFunders(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM funders`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, f := range fundersData {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO funders (code, name, max_indirect_percentage, max_personnel_percentage, min_amount_for_audit)
			VALUES ($1, $2, $3, $4, $5)
		`, f.code, f.name, nullDecimalFromString(f.maxIndirectPercentage), nullDecimalFromString(f.maxPersonnelPercentage), nullDecimalFromString(f.minAmountForAudit))
		if err != nil {
			return fmt.Errorf("seed funder %s: %w", f.code, err)
		}
	}
	return nil
}

func (s *FunderService) seedTemplates(ctx context.Context, funderCode string) error {
	funder, err := s.GetFunderByCode(ctx, funderCode)
	if err != nil {
		return err
	}

	var count int
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM budget_line_templates WHERE funder_id = $1`, funder.ID,
	).Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for _, t := range funderTemplates[funderCode] {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO budget_line_templates (funder_id, code, name, category, is_spain_only, line_order)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, funder.ID, t.code, t.name, t.category, t.isSpainOnly, t.order)
		if err != nil {
			return fmt.Errorf("seed template %s/%s: %w", funderCode, t.code, err)
		}
	}
	return nil
}

func nullDecimalFromString(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}
