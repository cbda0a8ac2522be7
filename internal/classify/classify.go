package classify

import (
	"fmt"
	"sort"
	"strings"

	"planning-performance/internal/ledger"
	"planning-performance/internal/reference"
)

// Roles recorded on a profile.
const (
	RoleLPA   = reference.RoleLocalPlanningAuthority
	RoleOther = "other"
)

// odpInterventions make both primary and partner organisations members of
// Open Digital Planning.
var odpInterventions = map[string]bool{
	"engagement":  true,
	"innovation":  true,
	"software":    true,
	"integration": true,
	"improvement": true,
}

// knownProjects bounds the membership count so it stays below the
// LocalGov Drupal tier.
var knownProjects = func() map[string]bool {
	known := make(map[string]bool, len(reference.Projects))
	for _, p := range reference.Projects {
		known[p.Project] = true
	}
	return known
}()

// Profile is the classified view of one organisation.
type Profile struct {
	Organisation     string
	Entity           string
	Name             string
	Role             string
	EndDate          string
	LPA              string
	LAD              string
	Region           string
	AreaName         string
	Dataset          string
	Score            int64
	DataScore        int
	Providing        bool
	DataReady        bool
	AdoptionStatus   string
	Amount           int64
	PropTechAmount   int64
	SoftwareAmount   int64
	PlanMakingAmount int64
	Bucket           string
	Interventions    []string
	Volume           string
	Percentage       string
}

// Funded reports whether the organisation holds any funding.
func (p Profile) Funded() bool {
	return p.Amount > 0
}

type candidate struct {
	organisation string
	role         string
}

// Classify profiles every organisation that is an active local planning
// authority, an active project member or credited on an award. Profiles are
// returned by descending score; ties keep discovery order.
func Classify(ds *reference.Dataset, l *ledger.Ledger) ([]Profile, error) {
	var order []candidate
	index := make(map[string]int)
	add := func(organisation, role string) {
		if _, ok := index[organisation]; ok {
			return
		}
		index[organisation] = len(order)
		order = append(order, candidate{organisation: organisation, role: role})
	}

	for _, assignment := range ds.Roles {
		if assignment.Role != RoleLPA {
			continue
		}
		org, _ := ds.Organisation(assignment.Organisation)
		if org.Ended() {
			continue
		}
		add(assignment.Organisation, RoleLPA)
	}

	members := make(map[string]map[string]bool)
	enrol := func(project, organisation string) {
		if members[organisation] == nil {
			members[organisation] = make(map[string]bool)
		}
		members[organisation][project] = true
	}
	memberships := make(map[string]int)
	for _, m := range ds.Memberships {
		if !m.Active() {
			continue
		}
		role := RoleOther
		if ds.HasRole(m.Organisation, RoleLPA) {
			role = RoleLPA
		}
		add(m.Organisation, role)
		if knownProjects[m.Project] && !members[m.Organisation][m.Project] {
			memberships[m.Organisation]++
		}
		enrol(m.Project, m.Organisation)
	}

	for _, award := range ds.Awards {
		if !odpInterventions[award.Intervention] {
			continue
		}
		enrol(reference.ProjectOpenDigitalPlanning, award.Organisation)
		for _, partner := range award.Partners {
			enrol(reference.ProjectOpenDigitalPlanning, partner)
		}
	}

	for _, e := range l.Entries() {
		add(e.Organisation, "")
	}

	stages := make(map[string]map[string]bool)
	latest := make(map[string]string)
	for _, a := range ds.Adoptions {
		if stages[a.Organisation] == nil {
			stages[a.Organisation] = make(map[string]bool)
		}
		stages[a.Organisation][a.Status] = true
		latest[a.Organisation] = a.Status
	}

	profiles := make([]Profile, 0, len(order))
	for _, c := range order {
		org, _ := ds.Organisation(c.organisation)
		p := Profile{
			Organisation:   c.organisation,
			Entity:         org.Entity,
			Name:           org.Name,
			Role:           c.role,
			EndDate:        org.EndDate,
			LPA:            org.LocalPlanningAuthority,
			LAD:            org.LocalAuthorityDistrict,
			Region:         org.Region,
			Dataset:        org.Dataset,
			AreaName:       areaName(ds, org),
			AdoptionStatus: latest[c.organisation],
		}

		if e := l.Entry(c.organisation); e != nil {
			p.Amount = e.Amount
			p.Interventions = e.InterventionList()
			bucket, err := Bucket(p.Interventions)
			if err != nil {
				return nil, fmt.Errorf("classify %s: %w", c.organisation, err)
			}
			p.Bucket = bucket
			for intervention, amount := range e.ByIntervention {
				tag, err := Tag(intervention)
				if err != nil {
					return nil, fmt.Errorf("classify %s: %w", c.organisation, err)
				}
				switch tag {
				case PropTech:
					p.PropTechAmount += amount
				case Software:
					p.SoftwareAmount += amount
				case PlanMaking:
					p.PlanMakingAmount += amount
				}
			}
		}

		if record, ok := ds.Quality[c.organisation]; ok {
			p.DataScore = DataScore(record)
			p.DataReady = record.ReadyForAdoption
			p.Providing = p.DataScore-readyBonus(record) >= 4
		}

		if stats, ok := ds.P153[c.organisation]; ok {
			p.Volume = stats.Volume
			p.Percentage = stats.Percentage
		}

		p.Score = Score(ScoreInput{
			Memberships: memberships[c.organisation],
			Projects:    members[c.organisation],
			Funded:      p.Funded(),
			DataScore:   p.DataScore,
			Stages:      stages[c.organisation],
		})
		profiles = append(profiles, p)
	}

	SortByScore(profiles)
	return profiles, nil
}

// SortByScore orders profiles by descending score, keeping the existing
// order for ties.
func SortByScore(profiles []Profile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		return profiles[i].Score > profiles[j].Score
	})
}

func readyBonus(record reference.QualityRecord) int {
	if record.ReadyForAdoption {
		return ReadyBonus
	}
	return 0
}

func areaName(ds *reference.Dataset, org reference.Organisation) string {
	if org.LocalPlanningAuthority != "" {
		if lpa, ok := ds.LPAs[org.LocalPlanningAuthority]; ok && lpa.Name != "" {
			return strings.ReplaceAll(lpa.Name, " LPA", "")
		}
	}
	return org.Name
}

// Buckets derives the bucket of every ledger entry, keyed by organisation.
func Buckets(l *ledger.Ledger) (map[string]string, error) {
	out := make(map[string]string, l.Len())
	for _, e := range l.Entries() {
		bucket, err := Bucket(e.InterventionList())
		if err != nil {
			return nil, fmt.Errorf("classify %s: %w", e.Organisation, err)
		}
		out[e.Organisation] = bucket
	}
	return out, nil
}
