// Package render writes the static transparency site from a snapshot.
package render

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"planning-performance/internal/classify"
	"planning-performance/internal/reference"
	"planning-performance/internal/snapshot"
	"planning-performance/internal/svgmap"
)

//go:embed templates/*.html static/site.css
var siteFS embed.FS

type Options struct {
	Docs      string
	BasePath  string
	ShapesMap string
	PointsMap string
	Logger    *zap.Logger
}

type Renderer struct {
	snap   *snapshot.Snapshot
	docs   string
	base   string
	shapes *svgmap.Template
	points *svgmap.Template
	tmpl   *template.Template
	money  Money
	notes  Notes
	logger *zap.Logger
}

func New(snap *snapshot.Snapshot, opts Options) (*Renderer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Docs == "" {
		return nil, fmt.Errorf("docs directory is required")
	}

	r := &Renderer{
		snap:   snap,
		docs:   opts.Docs,
		base:   strings.TrimSuffix(opts.BasePath, "/"),
		money:  NewMoney(),
		notes:  NewNotes(),
		logger: logger,
	}

	var err error
	if r.shapes, err = loadTemplate(opts.ShapesMap, logger); err != nil {
		return nil, err
	}
	if r.points, err = loadTemplate(opts.PointsMap, logger); err != nil {
		return nil, err
	}

	r.tmpl, err = template.New("site").Funcs(template.FuncMap{
		"money":   r.money.Format,
		"href":    r.href,
		"notes":   r.notes.Sanitize,
		"percent": percent,
		"dot":     dot,
	}).ParseFS(siteFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return r, nil
}

func (r *Renderer) href(path string) string {
	return r.base + path
}

// Render writes every page of the site under the docs directory.
func (r *Renderer) Render(ctx context.Context) error {
	s, err := r.load(ctx)
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		fn   func(*site) error
	}{
		{"static", r.renderStatic},
		{"index", r.renderIndex},
		{"planx", r.renderPlanX},
		{"awards", r.renderAwards},
		{"interventions", r.renderInterventions},
		{"funds", r.renderFunds},
		{"organisations", r.renderOrganisations},
		{"projects", r.renderProjects},
		{"products", r.renderProducts},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step.fn(s); err != nil {
			return fmt.Errorf("render %s: %w", step.name, err)
		}
	}
	r.logger.Info("site rendered", zap.String("docs", r.docs), zap.Int("pages", s.pages))
	return nil
}

// site is the snapshot content shared by every page.
type site struct {
	run           snapshot.Run
	profiles      []classify.Profile
	byID          map[string]classify.Profile
	orgs          map[string]reference.Organisation
	awards        []snapshot.AwardRow
	rawAwards     []reference.Award // award file order, for the map ledgers
	interventions []snapshot.InterventionSummary
	funds         []snapshot.FundSummary
	projects      []snapshot.ProjectSummary
	products      []reference.Product
	adoptions     []snapshot.AdoptionRow
	quality       map[string]map[string]string
	members       map[string]map[string]bool
	projectsOf    map[string][]string
	counts        snapshot.ProductCounts
	timeline      []snapshot.TimelineEntry
	pages         int
}

func (s *site) name(org string) string {
	if p, ok := s.byID[org]; ok && p.Name != "" {
		return p.Name
	}
	if o, ok := s.orgs[org]; ok && o.Name != "" {
		return o.Name
	}
	return org
}

func (r *Renderer) load(ctx context.Context) (*site, error) {
	s := &site{
		byID:       make(map[string]classify.Profile),
		orgs:       make(map[string]reference.Organisation),
		members:    make(map[string]map[string]bool),
		projectsOf: make(map[string][]string),
	}

	var err error
	if s.run, err = r.snap.LatestRun(ctx); err != nil {
		return nil, err
	}
	if s.profiles, err = r.snap.Profiles(ctx); err != nil {
		return nil, err
	}
	for _, p := range s.profiles {
		s.byID[p.Organisation] = p
		s.orgs[p.Organisation] = reference.Organisation{
			Organisation:           p.Organisation,
			Name:                   p.Name,
			Entity:                 p.Entity,
			EndDate:                p.EndDate,
			LocalPlanningAuthority: p.LPA,
			LocalAuthorityDistrict: p.LAD,
			Region:                 p.Region,
			Dataset:                p.Dataset,
		}
	}

	if s.awards, err = r.snap.Awards(ctx); err != nil {
		return nil, err
	}
	listed, err := r.snap.AwardsInFileOrder(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range listed {
		s.rawAwards = append(s.rawAwards, a.Award)
	}
	for _, a := range s.awards {
		if _, ok := s.orgs[a.Organisation]; !ok {
			s.orgs[a.Organisation] = reference.Organisation{Organisation: a.Organisation, Name: a.OrganisationName}
		}
	}

	if s.interventions, err = r.snap.Interventions(ctx); err != nil {
		return nil, err
	}
	if s.funds, err = r.snap.Funds(ctx); err != nil {
		return nil, err
	}
	if s.projects, err = r.snap.Projects(ctx); err != nil {
		return nil, err
	}
	if s.products, err = r.snap.Products(ctx); err != nil {
		return nil, err
	}
	if s.adoptions, err = r.snap.Adoptions(ctx); err != nil {
		return nil, err
	}
	if s.quality, err = r.snap.Quality(ctx); err != nil {
		return nil, err
	}
	if s.counts, err = r.snap.ProductCounts(ctx); err != nil {
		return nil, err
	}
	if s.timeline, err = r.snap.LiveTimeline(ctx, productPlanX); err != nil {
		return nil, err
	}

	memberships, err := r.snap.Memberships(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range memberships {
		if s.members[m.Project] == nil {
			s.members[m.Project] = make(map[string]bool)
		}
		if !s.members[m.Project][m.Organisation] {
			s.members[m.Project][m.Organisation] = true
			s.projectsOf[m.Organisation] = append(s.projectsOf[m.Organisation], m.Project)
		}
	}
	return s, nil
}

// write executes the named template into docs/rel/index.html.
func (r *Renderer) write(s *site, rel, name string, data any) error {
	path := filepath.Join(r.docs, filepath.FromSlash(rel), "index.html")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	r.logger.Debug("creating", zap.String("path", path))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := r.tmpl.ExecuteTemplate(w, name, data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	s.pages++
	return f.Close()
}

func (r *Renderer) renderStatic(*site) error {
	css, err := siteFS.ReadFile("static/site.css")
	if err != nil {
		return err
	}
	path := filepath.Join(r.docs, "static", "site.css")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	r.logger.Debug("creating", zap.String("path", path))
	return os.WriteFile(path, css, 0644)
}

func organisationPath(org string) string {
	return "/organisation/" + org + "/"
}
