package config

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

func InitDB() (*sql.DB, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return db, nil
}

func RunMigrations(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS funders (
			id BIGSERIAL PRIMARY KEY,
			code VARCHAR(50) UNIQUE NOT NULL,
			name VARCHAR(200) NOT NULL,
			max_indirect_percentage NUMERIC(5,2),
			max_personnel_percentage NUMERIC(5,2),
			min_amount_for_audit NUMERIC(15,2),
			created_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS projects (
			id BIGSERIAL PRIMARY KEY,
			codigo_contable VARCHAR(50) UNIQUE NOT NULL,
			titulo VARCHAR(500) NOT NULL,
			pais VARCHAR(100) NOT NULL,
			estado VARCHAR(30) NOT NULL DEFAULT 'formulacion',
			financiador VARCHAR(100) NOT NULL,
			subvencion NUMERIC(15,2) NOT NULL DEFAULT 0,
			cuenta_bancaria VARCHAR(34),
			fecha_inicio DATE,
			fecha_finalizacion DATE,
			funder_id BIGINT REFERENCES funders(id) ON DELETE SET NULL,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS budget_line_templates (
			id BIGSERIAL PRIMARY KEY,
			funder_id BIGINT NOT NULL REFERENCES funders(id) ON DELETE CASCADE,
			parent_id BIGINT REFERENCES budget_line_templates(id) ON DELETE CASCADE,
			code VARCHAR(20) NOT NULL,
			name VARCHAR(200) NOT NULL,
			category VARCHAR(30) NOT NULL,
			is_spain_only BOOLEAN NOT NULL DEFAULT FALSE,
			line_order INTEGER NOT NULL DEFAULT 0,
			max_percentage NUMERIC(5,2)
		)`,

		`CREATE TABLE IF NOT EXISTS project_budget_lines (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			template_id BIGINT REFERENCES budget_line_templates(id) ON DELETE SET NULL,
			parent_id BIGINT REFERENCES project_budget_lines(id) ON DELETE CASCADE,
			code VARCHAR(20) NOT NULL,
			name VARCHAR(200) NOT NULL,
			category VARCHAR(30) NOT NULL,
			is_spain_only BOOLEAN NOT NULL DEFAULT FALSE,
			line_order INTEGER NOT NULL DEFAULT 0,
			max_percentage NUMERIC(5,2),
			aprobado NUMERIC(15,2) NOT NULL DEFAULT 0 CHECK (aprobado >= 0),
			ejecutado_espana NUMERIC(15,2) NOT NULL DEFAULT 0,
			ejecutado_terreno NUMERIC(15,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS project_funding_sources (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			nombre VARCHAR(200) NOT NULL,
			tipo VARCHAR(30) NOT NULL,
			orden INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT NOW(),
			UNIQUE(project_id, nombre)
		)`,

		`CREATE TABLE IF NOT EXISTS budget_line_funding (
			id BIGSERIAL PRIMARY KEY,
			budget_line_id BIGINT NOT NULL REFERENCES project_budget_lines(id) ON DELETE CASCADE,
			funding_source_id BIGINT NOT NULL REFERENCES project_funding_sources(id) ON DELETE CASCADE,
			aprobado NUMERIC(15,2) NOT NULL DEFAULT 0,
			UNIQUE(budget_line_id, funding_source_id)
		)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			budget_line_id BIGINT NOT NULL REFERENCES project_budget_lines(id) ON DELETE RESTRICT,
			fecha_factura DATE NOT NULL,
			concepto VARCHAR(500) NOT NULL,
			expedidor VARCHAR(200) NOT NULL,
			persona VARCHAR(200),
			cantidad_original NUMERIC(12,2) NOT NULL DEFAULT 0,
			moneda_original VARCHAR(3) NOT NULL DEFAULT 'EUR',
			tipo_cambio NUMERIC(10,6),
			cantidad_euros NUMERIC(12,2) NOT NULL DEFAULT 0,
			porcentaje NUMERIC(5,2) NOT NULL DEFAULT 100 CHECK (porcentaje >= 0 AND porcentaje <= 100),
			ubicacion VARCHAR(10) NOT NULL,
			estado VARCHAR(30) NOT NULL DEFAULT 'borrador',
			funding_source_id BIGINT REFERENCES project_funding_sources(id) ON DELETE SET NULL,
			fecha_revision TIMESTAMP,
			observaciones TEXT,
			documento_path VARCHAR(500),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS transfers (
			id BIGSERIAL PRIMARY KEY,
			project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			numero INTEGER NOT NULL DEFAULT 1,
			total_previstas INTEGER NOT NULL DEFAULT 1,
			fecha_peticion DATE,
			fecha_emision DATE,
			fecha_recepcion DATE,
			importe_euros NUMERIC(15,2) NOT NULL DEFAULT 0,
			gastos_transferencia NUMERIC(15,2) NOT NULL DEFAULT 0,
			usa_moneda_intermedia BOOLEAN NOT NULL DEFAULT FALSE,
			moneda_intermedia VARCHAR(3),
			importe_moneda_intermedia NUMERIC(15,2),
			tipo_cambio_intermedio NUMERIC(15,6),
			moneda_local VARCHAR(3),
			importe_moneda_local NUMERIC(15,2),
			tipo_cambio_local NUMERIC(15,6),
			cuenta_origen VARCHAR(34),
			cuenta_destino VARCHAR(100),
			entidad_bancaria VARCHAR(50),
			estado VARCHAR(30) NOT NULL DEFAULT 'solicitada',
			es_ultima BOOLEAN NOT NULL DEFAULT FALSE,
			observaciones TEXT,
			documento_emision_path VARCHAR(500),
			documento_recepcion_path VARCHAR(500),
			created_at TIMESTAMP DEFAULT NOW(),
			updated_at TIMESTAMP DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_templates_funder_id ON budget_line_templates(funder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_budget_lines_project_id ON project_budget_lines(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_funding_sources_project_id ON project_funding_sources(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_line_funding_line_id ON budget_line_funding(budget_line_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_project_id ON expenses(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_budget_line_id ON expenses(budget_line_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_estado ON expenses(estado)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_project_id ON transfers(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_estado ON transfers(estado)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}
