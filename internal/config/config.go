// Package config loads the performance tool's YAML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"planning-performance/internal/reference"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "performance.yaml"

// Config holds all performance tool configuration.
type Config struct {
	Inputs    InputsConfig    `yaml:"inputs"`
	Output    OutputConfig    `yaml:"output"`
	Programme ProgrammeConfig `yaml:"programme"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Logging   LoggingConfig   `yaml:"logging"`
	Serve     ServeConfig     `yaml:"serve"`
}

// InputsConfig names every reference file and map template.
type InputsConfig struct {
	Organisations            string `yaml:"organisations"`
	LocalPlanningAuthorities string `yaml:"local_planning_authorities"`
	Interventions            string `yaml:"interventions"`
	Funds                    string `yaml:"funds"`
	Awards                   string `yaml:"awards"`
	Quality                  string `yaml:"quality"`
	Adoptions                string `yaml:"adoptions"`
	ProjectOrganisations     string `yaml:"project_organisations"`
	RoleOrganisations        string `yaml:"role_organisations"`
	P153                     string `yaml:"p153"`
	ShapesMap                string `yaml:"shapes_map"`
	PointsMap                string `yaml:"points_map"`
}

type OutputConfig struct {
	Docs     string `yaml:"docs"`
	Snapshot string `yaml:"snapshot"`
	// BasePath prefixes every site link, e.g. "/performance".
	BasePath string `yaml:"base_path"`
}

type ProgrammeConfig struct {
	// Awards starting before this date are ignored.
	StartDate string `yaml:"start_date"`
}

type PostgresConfig struct {
	URL    string `yaml:"url"`
	Schema string `yaml:"schema"`
	Tag    string `yaml:"tag"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

type ServeConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig returns the layout used by the programme's data repository.
func DefaultConfig() *Config {
	return &Config{
		Inputs: InputsConfig{
			Organisations:            "var/cache/organisation.csv",
			LocalPlanningAuthorities: "var/cache/local-planning-authority.csv",
			Interventions:            "specification/intervention.csv",
			Funds:                    "specification/fund.csv",
			Awards:                   "specification/award.csv",
			Quality:                  "data/quality.csv",
			Adoptions:                "data/adoption.csv",
			ProjectOrganisations:     "specification/project-organisation.csv",
			RoleOrganisations:        "specification/role-organisation.csv",
			P153:                     "data/p153.csv",
			ShapesMap:                "var/cache/local-planning-authority.svg",
			PointsMap:                "var/cache/point.svg",
		},
		Output: OutputConfig{
			Docs:     "docs",
			Snapshot: "dataset/performance.sqlite3",
		},
		Programme: ProgrammeConfig{
			StartDate: "2021-06-01",
		},
		Postgres: PostgresConfig{
			Schema: "performance",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Serve: ServeConfig{
			Address: "127.0.0.1:8080",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if url := strings.TrimSpace(os.Getenv("PERFORMANCE_DB_URL")); url != "" {
		c.Postgres.URL = url
	} else if url := strings.TrimSpace(os.Getenv("DATABASE_URL")); url != "" && c.Postgres.URL == "" {
		c.Postgres.URL = url
	}
	if docs := strings.TrimSpace(os.Getenv("PERFORMANCE_DOCS")); docs != "" {
		c.Output.Docs = docs
	}
}

// Sources maps the configured inputs onto the reference loader's sources.
func (c *Config) Sources() reference.Sources {
	in := c.Inputs
	return reference.Sources{
		Organisations:            in.Organisations,
		LocalPlanningAuthorities: in.LocalPlanningAuthorities,
		Interventions:            in.Interventions,
		Funds:                    in.Funds,
		Awards:                   in.Awards,
		Quality:                  in.Quality,
		Adoptions:                in.Adoptions,
		ProjectOrganisations:     in.ProjectOrganisations,
		RoleOrganisations:        in.RoleOrganisations,
		P153:                     in.P153,
	}
}
