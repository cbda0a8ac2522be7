package snapshot

import "fmt"

// Data tables in the order they are cleared and written.
var dataTables = []string{
	"quality",
	"project_organisations",
	"adoptions",
	"organisations",
	"awards",
	"funds",
	"interventions",
	"products",
	"projects",
}

// schemaStatements returns the DDL shared by the SQLite snapshot and the
// Postgres mirror. prefix is "" or "<schema>.".
func schemaStatements(prefix string) []string {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS %[1]sruns (
			id TEXT PRIMARY KEY,
			generated_at TEXT NOT NULL,
			tag TEXT,
			organisations INTEGER NOT NULL DEFAULT 0,
			awards INTEGER NOT NULL DEFAULT 0,
			total_amount BIGINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]sorganisations (
			organisation TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			entity TEXT,
			name TEXT,
			role TEXT,
			end_date TEXT,
			local_planning_authority TEXT,
			local_authority_district TEXT,
			region TEXT,
			area_name TEXT,
			dataset TEXT,
			score BIGINT DEFAULT 0,
			data_score INTEGER DEFAULT 0,
			providing INTEGER DEFAULT 0,
			data_ready INTEGER DEFAULT 0,
			adoption_status TEXT,
			amount BIGINT DEFAULT 0,
			proptech_amount BIGINT DEFAULT 0,
			software_amount BIGINT DEFAULT 0,
			planmaking_amount BIGINT DEFAULT 0,
			bucket TEXT,
			interventions TEXT,
			volume TEXT,
			percentage TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]sprojects (
			project TEXT PRIMARY KEY,
			name TEXT,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]sproducts (
			product TEXT PRIMARY KEY,
			name TEXT,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]sadoptions (
			id INTEGER PRIMARY KEY,
			start_date TEXT,
			organisation TEXT,
			product TEXT,
			adoption_status TEXT,
			documentation_url TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]sawards (
			award TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			start_date TEXT,
			end_date TEXT,
			organisation TEXT,
			intervention TEXT,
			fund TEXT,
			amount BIGINT,
			organisations_list TEXT,
			notes TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]sinterventions (
			intervention TEXT PRIMARY KEY,
			name TEXT,
			description TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]sfunds (
			fund TEXT PRIMARY KEY,
			name TEXT,
			description TEXT,
			start_date TEXT,
			documentation_url TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]sproject_organisations (
			project TEXT,
			organisation TEXT,
			start_date TEXT,
			end_date TEXT,
			PRIMARY KEY (project, organisation)
		)`,
		`CREATE TABLE IF NOT EXISTS %[1]squality (
			organisation TEXT,
			dataset TEXT,
			status TEXT,
			ready_for_odp_adoption INTEGER DEFAULT 0,
			PRIMARY KEY (organisation, dataset)
		)`,
	}
	out := make([]string, len(ddl))
	for i, stmt := range ddl {
		out[i] = fmt.Sprintf(stmt, prefix)
	}
	return out
}
