package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"planning-performance/internal/classify"
	"planning-performance/internal/reference"
)

// Write stores the dataset and profiles in one transaction and records run.
func (s *Snapshot) Write(ctx context.Context, ds *reference.Dataset, profiles []classify.Profile, run Run) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot write: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	w := writer{tx: tx, builder: s.builder}
	if err = w.writeAll(ctx, ds, profiles, run); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

type writer struct {
	tx      *sql.Tx
	builder sq.StatementBuilderType
	prefix  string
}

func (w writer) table(name string) string {
	return w.prefix + name
}

func (w writer) exec(ctx context.Context, q sq.Sqlizer) error {
	query, args, err := q.ToSql()
	if err != nil {
		return err
	}
	if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("snapshot %s: %w", statementTarget(query), err)
	}
	return nil
}

func statementTarget(query string) string {
	fields := strings.Fields(query)
	if len(fields) < 3 {
		return query
	}
	return strings.ToLower(fields[0]) + " " + fields[2]
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func (w writer) writeAll(ctx context.Context, ds *reference.Dataset, profiles []classify.Profile, run Run) error {
	for _, name := range dataTables {
		if err := w.exec(ctx, w.builder.Delete(w.table(name))); err != nil {
			return err
		}
	}

	if err := w.exec(ctx, w.builder.Insert(w.table("runs")).
		Columns("id", "generated_at", "tag", "organisations", "awards", "total_amount").
		Values(run.ID.String(), run.GeneratedAt.Format(time.RFC3339), run.Tag, run.Organisations, run.Awards, run.Total)); err != nil {
		return err
	}

	for _, i := range ds.Interventions {
		if err := w.exec(ctx, w.builder.Insert(w.table("interventions")).
			Columns("intervention", "name", "description").
			Values(i.Intervention, i.Name, i.Description)); err != nil {
			return err
		}
	}

	for _, f := range ds.Funds {
		if err := w.exec(ctx, w.builder.Insert(w.table("funds")).
			Columns("fund", "name", "description", "start_date", "documentation_url").
			Values(f.Fund, f.Name, f.Description, f.StartDate, f.DocumentationURL)); err != nil {
			return err
		}
	}

	for i, a := range ds.Awards {
		if err := w.exec(ctx, w.builder.Insert(w.table("awards")).
			Columns("award", "position", "start_date", "end_date", "organisation", "intervention", "fund", "amount", "organisations_list", "notes").
			Values(a.Award, i, a.StartDate, a.EndDate, a.Organisation, a.Intervention, a.Fund, a.Amount, a.PartnerList(), a.Notes)); err != nil {
			return err
		}
	}

	for _, p := range ds.Projects {
		if err := w.exec(ctx, w.builder.Insert(w.table("projects")).
			Columns("project", "name", "description").
			Values(p.Project, p.Name, p.Description)); err != nil {
			return err
		}
	}

	for _, p := range ds.Products {
		if err := w.exec(ctx, w.builder.Insert(w.table("products")).
			Columns("product", "name", "description").
			Values(p.Product, p.Name, p.Description)); err != nil {
			return err
		}
	}

	for pos, p := range profiles {
		if err := w.exec(ctx, w.builder.Insert(w.table("organisations")).
			Columns("organisation", "position", "entity", "name", "role", "end_date",
				"local_planning_authority", "local_authority_district", "region", "area_name", "dataset",
				"score", "data_score", "providing", "data_ready", "adoption_status",
				"amount", "proptech_amount", "software_amount", "planmaking_amount",
				"bucket", "interventions", "volume", "percentage").
			Values(p.Organisation, pos, p.Entity, p.Name, p.Role, p.EndDate,
				p.LPA, p.LAD, p.Region, p.AreaName, p.Dataset,
				p.Score, p.DataScore, boolInt(p.Providing), boolInt(p.DataReady), p.AdoptionStatus,
				p.Amount, p.PropTechAmount, p.SoftwareAmount, p.PlanMakingAmount,
				p.Bucket, strings.Join(p.Interventions, ";"), p.Volume, p.Percentage)); err != nil {
			return err
		}
	}

	for i, a := range ds.Adoptions {
		if err := w.exec(ctx, w.builder.Insert(w.table("adoptions")).
			Columns("id", "start_date", "organisation", "product", "adoption_status", "documentation_url").
			Values(i+1, a.StartDate, a.Organisation, a.Product, a.Status, a.DocumentationURL)); err != nil {
			return err
		}
	}

	for _, m := range activeMemberships(ds.Memberships) {
		if err := w.exec(ctx, w.builder.Insert(w.table("project_organisations")).
			Columns("project", "organisation", "start_date", "end_date").
			Values(m.Project, m.Organisation, m.StartDate, m.EndDate)); err != nil {
			return err
		}
	}

	organisations := make([]string, 0, len(ds.Quality))
	for id := range ds.Quality {
		organisations = append(organisations, id)
	}
	sort.Strings(organisations)
	for _, id := range organisations {
		record := ds.Quality[id]
		for _, dataset := range reference.QualityDatasets {
			if err := w.exec(ctx, w.builder.Insert(w.table("quality")).
				Columns("organisation", "dataset", "status", "ready_for_odp_adoption").
				Values(id, dataset.Dataset, record.Status(dataset.Dataset), boolInt(record.ReadyForAdoption))); err != nil {
				return err
			}
		}
	}
	return nil
}

// activeMemberships drops ended memberships and keeps the last row for each
// project and organisation pair, in first-seen order.
func activeMemberships(memberships []reference.ProjectMembership) []reference.ProjectMembership {
	type key struct{ project, organisation string }
	index := make(map[key]int)
	var out []reference.ProjectMembership
	for _, m := range memberships {
		if !m.Active() {
			continue
		}
		k := key{m.Project, m.Organisation}
		if i, ok := index[k]; ok {
			out[i] = m
			continue
		}
		index[k] = len(out)
		out = append(out, m)
	}
	return out
}

// Count fills the run totals from the data about to be written.
func (r *Run) Count(ds *reference.Dataset, profiles []classify.Profile) {
	r.Organisations = len(profiles)
	r.Awards = len(ds.Awards)
	r.Total = 0
	for _, a := range ds.Awards {
		r.Total += a.Amount
	}
}
