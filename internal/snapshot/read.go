package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"planning-performance/internal/classify"
	"planning-performance/internal/reference"
)

// AwardRow is an award with the display names of what it points at.
type AwardRow struct {
	reference.Award
	OrganisationName string
	InterventionName string
	FundName         string
}

type InterventionSummary struct {
	reference.Intervention
	Awards int
	Total  int64
}

type FundSummary struct {
	reference.Fund
	Awards        int
	Total         int64
	Interventions []reference.Intervention
}

type ProjectSummary struct {
	reference.Project
	Members int
}

type AdoptionRow struct {
	reference.Adoption
	Name     string
	AreaName string
}

// ProductCounts is the adoption funnel shown on the product page.
type ProductCounts struct {
	LPA                  int
	ODP                  int
	Funded               int
	Software             int
	Providing            int
	DataReady            int
	InterestedOrAdopting int
	Live                 int
}

type TimelineEntry struct {
	Date     string
	AreaName string
}

func (s *Snapshot) query(ctx context.Context, q sq.Sqlizer) (*sql.Rows, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("snapshot query: %w", err)
	}
	return rows, nil
}

func (s *Snapshot) count(ctx context.Context, q sq.SelectBuilder) (int, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("snapshot count: %w", err)
	}
	return n, nil
}

// LatestRun returns the most recent run recorded.
func (s *Snapshot) LatestRun(ctx context.Context) (Run, error) {
	query, args, err := s.builder.
		Select("id", "generated_at", "tag", "organisations", "awards", "total_amount").
		From("runs").
		OrderBy("generated_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return Run{}, err
	}
	var run Run
	var id, generated string
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&id, &generated, &run.Tag, &run.Organisations, &run.Awards, &run.Total)
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	if run.ID, err = uuid.Parse(id); err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	if run.GeneratedAt, err = time.Parse(time.RFC3339, generated); err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	return run, nil
}

// Profiles returns every classified organisation, highest score first.
func (s *Snapshot) Profiles(ctx context.Context) ([]classify.Profile, error) {
	rows, err := s.query(ctx, s.builder.
		Select("organisation", "entity", "name", "role", "end_date",
			"local_planning_authority", "local_authority_district", "region", "area_name", "dataset",
			"score", "data_score", "providing", "data_ready", "adoption_status",
			"amount", "proptech_amount", "software_amount", "planmaking_amount",
			"bucket", "interventions", "volume", "percentage").
		From("organisations").
		OrderBy("position"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []classify.Profile
	for rows.Next() {
		var p classify.Profile
		var providing, ready int
		var interventions string
		if err := rows.Scan(&p.Organisation, &p.Entity, &p.Name, &p.Role, &p.EndDate,
			&p.LPA, &p.LAD, &p.Region, &p.AreaName, &p.Dataset,
			&p.Score, &p.DataScore, &providing, &ready, &p.AdoptionStatus,
			&p.Amount, &p.PropTechAmount, &p.SoftwareAmount, &p.PlanMakingAmount,
			&p.Bucket, &interventions, &p.Volume, &p.Percentage); err != nil {
			return nil, err
		}
		p.Providing = providing == 1
		p.DataReady = ready == 1
		p.Interventions = reference.SplitPartners(interventions)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// Awards returns every award by start date, with names resolved. Names fall
// back to the reference when the target is missing.
func (s *Snapshot) Awards(ctx context.Context) ([]AwardRow, error) {
	return s.awards(ctx, "a.start_date", "a.award")
}

// AwardsInFileOrder returns the awards in the order the award file listed
// them. Aggregation depends on that order when organisations share an LPA.
func (s *Snapshot) AwardsInFileOrder(ctx context.Context) ([]AwardRow, error) {
	return s.awards(ctx, "a.position")
}

func (s *Snapshot) awards(ctx context.Context, orderBy ...string) ([]AwardRow, error) {
	rows, err := s.query(ctx, s.builder.
		Select("a.award", "a.start_date", "a.end_date", "a.organisation", "a.intervention", "a.fund",
			"a.amount", "a.organisations_list", "a.notes",
			"COALESCE(o.name, a.organisation)",
			"COALESCE(i.name, a.intervention)",
			"COALESCE(f.name, a.fund)").
		From("awards a").
		LeftJoin("organisations o ON o.organisation = a.organisation").
		LeftJoin("interventions i ON i.intervention = a.intervention").
		LeftJoin("funds f ON f.fund = a.fund").
		OrderBy(orderBy...))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var awards []AwardRow
	for rows.Next() {
		var a AwardRow
		var partners string
		if err := rows.Scan(&a.Award.Award, &a.StartDate, &a.EndDate, &a.Organisation, &a.Intervention, &a.Fund,
			&a.Amount, &partners, &a.Notes,
			&a.OrganisationName, &a.InterventionName, &a.FundName); err != nil {
			return nil, err
		}
		a.Partners = reference.SplitPartners(partners)
		awards = append(awards, a)
	}
	return awards, rows.Err()
}

// Interventions returns each intervention with its award count and total,
// by name.
func (s *Snapshot) Interventions(ctx context.Context) ([]InterventionSummary, error) {
	rows, err := s.query(ctx, s.builder.
		Select("i.intervention", "i.name", "i.description", "COUNT(a.award)", "COALESCE(SUM(a.amount), 0)").
		From("interventions i").
		LeftJoin("awards a ON a.intervention = i.intervention").
		GroupBy("i.intervention", "i.name", "i.description").
		OrderBy("i.name"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InterventionSummary
	for rows.Next() {
		var i InterventionSummary
		if err := rows.Scan(&i.Intervention.Intervention, &i.Name, &i.Description, &i.Awards, &i.Total); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Funds returns each fund with its award count, total and the interventions
// it paid for, by start date.
func (s *Snapshot) Funds(ctx context.Context) ([]FundSummary, error) {
	rows, err := s.query(ctx, s.builder.
		Select("f.fund", "f.name", "f.description", "f.start_date", "f.documentation_url",
			"COUNT(a.award)", "COALESCE(SUM(a.amount), 0)").
		From("funds f").
		LeftJoin("awards a ON a.fund = f.fund").
		GroupBy("f.fund", "f.name", "f.description", "f.start_date", "f.documentation_url").
		OrderBy("f.start_date", "f.fund"))
	if err != nil {
		return nil, err
	}
	var out []FundSummary
	for rows.Next() {
		var f FundSummary
		if err := rows.Scan(&f.Fund.Fund, &f.Name, &f.Description, &f.StartDate, &f.DocumentationURL, &f.Awards, &f.Total); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, f)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		interventions, err := s.fundInterventions(ctx, out[i].Fund.Fund)
		if err != nil {
			return nil, err
		}
		out[i].Interventions = interventions
	}
	return out, nil
}

func (s *Snapshot) fundInterventions(ctx context.Context, fund string) ([]reference.Intervention, error) {
	rows, err := s.query(ctx, s.builder.
		Select("DISTINCT i.intervention", "i.name").
		From("awards a").
		Join("interventions i ON i.intervention = a.intervention").
		Where(sq.Eq{"a.fund": fund}).
		OrderBy("i.name"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reference.Intervention
	for rows.Next() {
		var i reference.Intervention
		if err := rows.Scan(&i.Intervention, &i.Name); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// Projects returns each project with its active member count, by name.
func (s *Snapshot) Projects(ctx context.Context) ([]ProjectSummary, error) {
	rows, err := s.query(ctx, s.builder.
		Select("p.project", "p.name", "p.description", "COUNT(po.organisation)").
		From("projects p").
		LeftJoin("project_organisations po ON po.project = p.project").
		GroupBy("p.project", "p.name", "p.description").
		OrderBy("p.name"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectSummary
	for rows.Next() {
		var p ProjectSummary
		if err := rows.Scan(&p.Project.Project, &p.Name, &p.Description, &p.Members); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Snapshot) Products(ctx context.Context) ([]reference.Product, error) {
	rows, err := s.query(ctx, s.builder.
		Select("product", "name", "description").
		From("products").
		OrderBy("product"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reference.Product
	for rows.Next() {
		var p reference.Product
		if err := rows.Scan(&p.Product, &p.Name, &p.Description); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Memberships returns the active project memberships.
func (s *Snapshot) Memberships(ctx context.Context) ([]reference.ProjectMembership, error) {
	rows, err := s.query(ctx, s.builder.
		Select("project", "organisation", "start_date", "end_date").
		From("project_organisations").
		OrderBy("project", "organisation"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []reference.ProjectMembership
	for rows.Next() {
		var m reference.ProjectMembership
		if err := rows.Scan(&m.Project, &m.Organisation, &m.StartDate, &m.EndDate); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Adoptions returns every adoption by start date. Organisations missing from
// the snapshot are named by their reference.
func (s *Snapshot) Adoptions(ctx context.Context) ([]AdoptionRow, error) {
	rows, err := s.query(ctx, s.builder.
		Select("a.start_date", "a.organisation", "a.product", "a.adoption_status", "a.documentation_url",
			"COALESCE(o.name, a.organisation)", "COALESCE(o.area_name, a.organisation)").
		From("adoptions a").
		LeftJoin("organisations o ON o.organisation = a.organisation").
		OrderBy("a.start_date", "a.id"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AdoptionRow
	for rows.Next() {
		var a AdoptionRow
		if err := rows.Scan(&a.StartDate, &a.Organisation, &a.Product, &a.Status, &a.DocumentationURL,
			&a.Name, &a.AreaName); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Quality returns the non-empty quality statuses keyed by organisation and
// dataset.
func (s *Snapshot) Quality(ctx context.Context) (map[string]map[string]string, error) {
	rows, err := s.query(ctx, s.builder.
		Select("organisation", "dataset", "status").
		From("quality").
		Where(sq.NotEq{"status": ""}))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]map[string]string)
	for rows.Next() {
		var org, dataset, status string
		if err := rows.Scan(&org, &dataset, &status); err != nil {
			return nil, err
		}
		if out[org] == nil {
			out[org] = make(map[string]string)
		}
		out[org][dataset] = status
	}
	return out, rows.Err()
}

type countStep struct {
	dst *int
	q   sq.SelectBuilder
}

// ProductCounts computes the adoption funnel over classified organisations.
func (s *Snapshot) ProductCounts(ctx context.Context) (ProductCounts, error) {
	var c ProductCounts
	orgs := s.builder.Select("COUNT(*)").From("organisations")
	steps := []countStep{
		{&c.LPA, orgs.Where(sq.Eq{"role": classify.RoleLPA})},
		{&c.ODP, s.builder.Select("COUNT(DISTINCT organisation)").From("project_organisations").
			Where(sq.Eq{"project": reference.ProjectOpenDigitalPlanning})},
		{&c.Funded, orgs.Where(sq.Gt{"amount": 0})},
		{&c.Software, orgs.Where(sq.Gt{"software_amount": 0})},
		{&c.Providing, orgs.Where(sq.Eq{"providing": 1})},
		{&c.DataReady, orgs.Where(sq.Eq{"data_ready": 1})},
		{&c.InterestedOrAdopting, orgs.Where(sq.Eq{"adoption_status": []string{"interested", "adopting"}})},
		{&c.Live, orgs.Where(sq.Eq{"adoption_status": "live"})},
	}
	for _, step := range steps {
		n, err := s.count(ctx, step.q)
		if err != nil {
			return ProductCounts{}, err
		}
		*step.dst = n
	}
	return c, nil
}

// LiveTimeline lists the areas live on product, in go-live order.
func (s *Snapshot) LiveTimeline(ctx context.Context, product string) ([]TimelineEntry, error) {
	rows, err := s.query(ctx, s.builder.
		Select("a.start_date", "o.area_name").
		From("adoptions a").
		Join("organisations o ON o.organisation = a.organisation").
		Where(sq.Eq{"a.product": product, "a.adoption_status": "live"}).
		OrderBy("a.start_date", "o.area_name"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineEntry
	for rows.Next() {
		var e TimelineEntry
		if err := rows.Scan(&e.Date, &e.AreaName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
