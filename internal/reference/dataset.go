package reference

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"
)

// Sources names the CSV files making up one programme snapshot. The local
// planning authority and P153 files are optional.
type Sources struct {
	Organisations            string
	LocalPlanningAuthorities string
	Interventions            string
	Funds                    string
	Awards                   string
	Quality                  string
	Adoptions                string
	ProjectOrganisations     string
	RoleOrganisations        string
	P153                     string
}

// Dataset is every reference table loaded for a run. Slices keep file order.
type Dataset struct {
	Organisations map[string]Organisation
	LPAs          map[string]LocalPlanningAuthority
	Interventions []Intervention
	Funds         []Fund
	Awards        []Award
	Quality       map[string]QualityRecord
	Adoptions     []Adoption
	Memberships   []ProjectMembership
	Roles         []RoleAssignment
	P153          map[string]P153
	Projects      []Project
	Products      []Product
}

// NewDataset returns an empty dataset carrying the fixed project and product
// lists.
func NewDataset() *Dataset {
	return &Dataset{
		Organisations: make(map[string]Organisation),
		LPAs:          make(map[string]LocalPlanningAuthority),
		Quality:       make(map[string]QualityRecord),
		P153:          make(map[string]P153),
		Projects:      append([]Project(nil), Projects...),
		Products:      append([]Product(nil), Products...),
	}
}

// Organisation returns the reference record for id. Unknown ids come back as
// a bare record named after the id.
func (d *Dataset) Organisation(id string) (Organisation, bool) {
	org, ok := d.Organisations[id]
	if !ok {
		return Organisation{Organisation: id, Name: id}, false
	}
	return org, true
}

func (d *Dataset) HasRole(id, role string) bool {
	for _, assignment := range d.Roles {
		if assignment.Organisation == id && assignment.Role == role {
			return true
		}
	}
	return false
}

// LoadDataset reads every source into a Dataset. Awards starting before
// programmeStart are dropped.
func LoadDataset(src Sources, programmeStart string, logger *zap.Logger) (*Dataset, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ds := NewDataset()

	logger.Info("loading organisations", zap.String("path", src.Organisations))
	orgs, err := Load(src.Organisations, "organisation", nil)
	if err != nil {
		return nil, err
	}
	for _, row := range orgs.Rows() {
		org := organisationFromRow(row)
		ds.Organisations[org.Organisation] = org
	}

	logger.Info("loading local planning authorities", zap.String("path", src.LocalPlanningAuthorities))
	lpas, err := loadOptional(src.LocalPlanningAuthorities, "reference", logger)
	if err != nil {
		return nil, err
	}
	for _, row := range lpas.Rows() {
		ds.LPAs[row.Get("reference")] = LocalPlanningAuthority{Reference: row.Get("reference"), Name: row.Get("name")}
	}

	logger.Info("loading interventions", zap.String("path", src.Interventions))
	interventions, err := Load(src.Interventions, "intervention", nil)
	if err != nil {
		return nil, err
	}
	for _, row := range interventions.Rows() {
		ds.Interventions = append(ds.Interventions, interventionFromRow(row))
	}

	logger.Info("loading funds", zap.String("path", src.Funds))
	funds, err := Load(src.Funds, "fund", nil)
	if err != nil {
		return nil, err
	}
	for _, row := range funds.Rows() {
		ds.Funds = append(ds.Funds, fundFromRow(row))
	}

	logger.Info("loading awards", zap.String("path", src.Awards))
	awards, err := Load(src.Awards, "award", nil)
	if err != nil {
		return nil, err
	}
	for _, row := range awards.Rows() {
		if row.Get("start-date") < programmeStart {
			logger.Debug("skipping award before programme start",
				zap.String("award", row.Get("award")),
				zap.String("start_date", row.Get("start-date")))
			continue
		}
		award, err := awardFromRow(row)
		if err != nil {
			return nil, err
		}
		ds.Awards = append(ds.Awards, award)
	}

	logger.Info("loading quality", zap.String("path", src.Quality))
	quality, err := Load(src.Quality, "organisation", nil)
	if err != nil {
		return nil, err
	}
	for _, row := range quality.Rows() {
		record := qualityFromRow(row)
		ds.Quality[record.Organisation] = record
	}

	logger.Info("loading organisation roles", zap.String("path", src.RoleOrganisations))
	roles, err := ReadRows(src.RoleOrganisations, "role", "organisation")
	if err != nil {
		return nil, err
	}
	for _, row := range roles {
		ds.Roles = append(ds.Roles, RoleAssignment{Role: row.Get("role"), Organisation: row.Get("organisation")})
	}

	logger.Info("loading project organisations", zap.String("path", src.ProjectOrganisations))
	members, err := ReadRows(src.ProjectOrganisations, "project", "organisation")
	if err != nil {
		return nil, err
	}
	for _, row := range members {
		ds.Memberships = append(ds.Memberships, membershipFromRow(row))
	}

	logger.Info("loading adoptions", zap.String("path", src.Adoptions))
	adoptions, err := ReadRows(src.Adoptions, "organisation", "product")
	if err != nil {
		return nil, err
	}
	for _, row := range adoptions {
		ds.Adoptions = append(ds.Adoptions, adoptionFromRow(row))
	}

	logger.Info("loading P153 statistics", zap.String("path", src.P153))
	p153, err := loadOptional(src.P153, "organisation", logger)
	if err != nil {
		return nil, err
	}
	for _, row := range p153.Rows() {
		ds.P153[row.Get("organisation")] = P153{
			Organisation: row.Get("organisation"),
			Volume:       row.Get("volume"),
			Percentage:   row.Get("percentage"),
		}
	}

	for _, award := range ds.Awards {
		for _, id := range append([]string{award.Organisation}, award.Partners...) {
			if _, ok := ds.Organisations[id]; !ok {
				logger.Warn("award references unknown organisation",
					zap.String("award", award.Award),
					zap.String("organisation", id))
			}
		}
	}

	return ds, nil
}

func loadOptional(path, key string, logger *zap.Logger) (*Table, error) {
	if path == "" {
		return NewTable(), nil
	}
	table, err := Load(path, key, nil)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("optional source not found, skipping", zap.String("path", path))
		return NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return table, nil
}
