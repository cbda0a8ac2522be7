package reference

import (
	"fmt"
	"strconv"
	"strings"
)

type Organisation struct {
	Organisation           string
	Name                   string
	Entity                 string
	EndDate                string
	LocalPlanningAuthority string
	LocalAuthorityDistrict string
	Region                 string
	Dataset                string
}

// Ended reports whether the organisation has been dissolved.
func (o Organisation) Ended() bool {
	return o.EndDate != ""
}

// Areas lists the organisation's map area codes in lookup order: local
// planning authority, local authority district, region. Empty codes are kept
// so callers can see which fallback matched.
func (o Organisation) Areas() []string {
	return []string{o.LocalPlanningAuthority, o.LocalAuthorityDistrict, o.Region}
}

type LocalPlanningAuthority struct {
	Reference string
	Name      string
}

type Intervention struct {
	Intervention string
	Name         string
	Description  string
}

type Fund struct {
	Fund             string
	Name             string
	Description      string
	StartDate        string
	DocumentationURL string
}

type Award struct {
	Award        string
	StartDate    string
	EndDate      string
	Organisation string
	Intervention string
	Fund         string
	Amount       int64
	Partners     []string
	Notes        string
}

// PartnerList renders the partners the way the award table stores them.
func (a Award) PartnerList() string {
	return strings.Join(a.Partners, ";")
}

type QualityRecord struct {
	Organisation     string
	Statuses         map[string]string
	ReadyForAdoption bool
}

// Status returns the normalised quality status for dataset, or "".
func (q QualityRecord) Status(dataset string) string {
	return q.Statuses[dataset]
}

type Adoption struct {
	StartDate        string
	Organisation     string
	Product          string
	Status           string
	DocumentationURL string
}

type ProjectMembership struct {
	Project      string
	Organisation string
	StartDate    string
	EndDate      string
}

func (m ProjectMembership) Active() bool {
	return m.EndDate == ""
}

type RoleAssignment struct {
	Role         string
	Organisation string
}

// P153 carries the planning application statistics joined onto organisations.
type P153 struct {
	Organisation string
	Volume       string
	Percentage   string
}

type Project struct {
	Project     string
	Name        string
	Description string
}

type Product struct {
	Product     string
	Name        string
	Description string
}

func organisationFromRow(row Row) Organisation {
	return Organisation{
		Organisation:           row.Get("organisation"),
		Name:                   row.Get("name"),
		Entity:                 row.Get("entity"),
		EndDate:                row.Get("end-date"),
		LocalPlanningAuthority: row.Get("local-planning-authority"),
		LocalAuthorityDistrict: row.Get("local-authority-district"),
		Region:                 row.Get("region"),
		Dataset:                row.Get("dataset"),
	}
}

func interventionFromRow(row Row) Intervention {
	return Intervention{
		Intervention: row.Get("intervention"),
		Name:         row.Get("name"),
		Description:  row.Get("description"),
	}
}

func fundFromRow(row Row) Fund {
	return Fund{
		Fund:             row.Get("fund"),
		Name:             row.Get("name"),
		Description:      row.Get("description"),
		StartDate:        row.Get("start-date"),
		DocumentationURL: row.Get("documentation-url"),
	}
}

func awardFromRow(row Row) (Award, error) {
	id := row.Get("award")
	amount, err := parseAmount(row.Get("amount"))
	if err != nil {
		return Award{}, fmt.Errorf("award %s: %w", id, err)
	}
	return Award{
		Award:        id,
		StartDate:    row.Get("start-date"),
		EndDate:      row.Get("end-date"),
		Organisation: row.Get("organisation"),
		Intervention: row.Get("intervention"),
		Fund:         row.Get("fund"),
		Amount:       amount,
		Partners:     SplitPartners(row.Get("organisations")),
		Notes:        row.Get("notes"),
	}, nil
}

func parseAmount(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	amount, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", value)
	}
	if amount < 0 {
		return 0, fmt.Errorf("negative amount %d", amount)
	}
	return amount, nil
}

// SplitPartners splits a semicolon separated organisation list, dropping
// empty and repeated entries and keeping order.
func SplitPartners(value string) []string {
	var partners []string
	seen := make(map[string]bool)
	for _, item := range strings.Split(value, ";") {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		partners = append(partners, item)
	}
	return partners
}

func qualityFromRow(row Row) QualityRecord {
	record := QualityRecord{
		Organisation:     row.Get("organisation"),
		Statuses:         make(map[string]string, len(QualityDatasets)),
		ReadyForAdoption: strings.EqualFold(row.Get("ready_for_ODP_adoption"), "yes"),
	}
	for _, dataset := range QualityDatasets {
		record.Statuses[dataset.Dataset] = QualityStatus(row.Get(dataset.Dataset))
	}
	return record
}

func adoptionFromRow(row Row) Adoption {
	return Adoption{
		StartDate:        row.Get("start-date"),
		Organisation:     row.Get("organisation"),
		Product:          row.Get("product"),
		Status:           row.Get("adoption-status"),
		DocumentationURL: row.Get("documentation-url"),
	}
}

func membershipFromRow(row Row) ProjectMembership {
	return ProjectMembership{
		Project:      row.Get("project"),
		Organisation: row.Get("organisation"),
		StartDate:    row.Get("start-date"),
		EndDate:      row.Get("end-date"),
	}
}
