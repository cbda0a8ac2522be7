package render

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"planning-performance/internal/classify"
	"planning-performance/internal/ledger"
	"planning-performance/internal/reference"
	"planning-performance/internal/snapshot"
)

const productPlanX = "planx"

var planXStatus = map[string]string{
	"":           "Not yet declared interest",
	"interested": "Have expressed interest in adopting PlanX",
	"adopting":   "Adopting PlanX",
	"live":       "Have adopted PlanX",
}

type Page struct {
	Title       string
	Section     string
	Tag         string
	GeneratedAt string
}

func page(s *site, title, section string) Page {
	return Page{
		Title:       title,
		Section:     section,
		Tag:         s.run.Tag,
		GeneratedAt: s.run.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"),
	}
}

type Link struct {
	Path string
	Name string
}

func (s *site) organisationLink(org string) Link {
	return Link{Path: organisationPath(org), Name: s.name(org)}
}

type AwardView struct {
	Award        string
	StartDate    string
	Organisation Link
	Intervention Link
	Fund         Link
	Amount       int64
	Partners     []Link
	Notes        string
}

func (s *site) awardView(a snapshot.AwardRow) AwardView {
	v := AwardView{
		Award:        a.Award.Award,
		StartDate:    a.StartDate,
		Organisation: Link{Path: organisationPath(a.Organisation), Name: a.OrganisationName},
		Intervention: Link{Path: "/intervention/" + a.Intervention + "/", Name: a.InterventionName},
		Fund:         Link{Path: "/fund/" + a.Fund + "/", Name: a.FundName},
		Amount:       a.Amount,
		Notes:        a.Notes,
	}
	for _, partner := range a.Partners {
		v.Partners = append(v.Partners, s.organisationLink(partner))
	}
	return v
}

func (s *site) awardViews(keep func(reference.Award) bool) (views []AwardView, total int64, orgs []Link) {
	seen := make(map[string]bool)
	for _, a := range s.awards {
		if !keep(a.Award) {
			continue
		}
		views = append(views, s.awardView(a))
		total += a.Amount
		if !seen[a.Organisation] {
			seen[a.Organisation] = true
			orgs = append(orgs, s.organisationLink(a.Organisation))
		}
	}
	sort.SliceStable(orgs, func(i, j int) bool { return orgs[i].Name < orgs[j].Name })
	return views, total, orgs
}

func (r *Renderer) renderIndex(s *site) error {
	return r.write(s, "", "index.html", struct {
		Page
		Run    snapshot.Run
		Counts snapshot.ProductCounts
	}{page(s, "Planning performance", ""), s.run, s.counts})
}

type FunnelStep struct {
	Label string
	Count int
	Total int
}

type TimelineView struct {
	Year     int
	Month    int
	Day      int
	Date     string
	AreaName string
}

type TreemapCell struct {
	Organisation Link
	Bucket       string
	Amount       int64
	Status       string
}

type LegendTotal struct {
	classify.Legend
	Amount int64
}

type QualityCell struct {
	Dataset      string
	Abbreviation string
	Status       string
	Mark         string
}

type PlanXRow struct {
	Organisation   Link
	AreaName       string
	LPA            bool
	Drupal         bool
	LocalLand      bool
	ODP            bool
	Quality        []QualityCell
	DataReady      bool
	AdoptionStatus string
	Amount         int64
	PropTech       int64
	Software       int64
	PlanMaking     int64
	Bucket         string
	Score          int64
}

func (r *Renderer) renderPlanX(s *site) error {
	if err := r.write(s, "adoption/planx", "redirect.html", struct {
		Page
		Target string
	}{page(s, "PlanX adoption", "product"), "/product/planx/"}); err != nil {
		return err
	}

	c := s.counts
	funnel := []FunnelStep{
		{"Local planning authorities", c.LPA, c.LPA},
		{"Open Digital Planning members", c.ODP, c.LPA},
		{"Funded", c.Funded, c.LPA},
		{"Funded for software", c.Software, c.LPA},
		{"Providing data", c.Providing, c.LPA},
		{"Data ready for adoption", c.DataReady, c.LPA},
		{"Interested or adopting", c.InterestedOrAdopting, c.LPA},
		{"Live", c.Live, c.LPA},
	}

	var timeline []TimelineView
	for _, e := range s.timeline {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			r.logger.Warn("skipping timeline entry", zap.String("date", e.Date), zap.String("area", e.AreaName))
			continue
		}
		timeline = append(timeline, TimelineView{
			Year:     d.Year(),
			Month:    int(d.Month()) - 1,
			Day:      d.Day(),
			Date:     e.Date,
			AreaName: e.AreaName,
		})
	}

	totals := make([]LegendTotal, len(classify.Legends))
	index := make(map[string]int, len(classify.Legends))
	for i, legend := range classify.Legends {
		totals[i] = LegendTotal{Legend: legend}
		index[legend.Reference] = i
	}
	var treemap []TreemapCell
	var rows []PlanXRow
	for _, p := range s.profiles {
		if p.Funded() && p.Bucket != "" {
			treemap = append(treemap, TreemapCell{
				Organisation: s.organisationLink(p.Organisation),
				Bucket:       p.Bucket,
				Amount:       p.Amount,
				Status:       planXStatus[p.AdoptionStatus],
			})
			if i, ok := index[p.Bucket]; ok {
				totals[i].Amount += p.Amount
			}
		}
		rows = append(rows, s.planXRow(p))
	}

	return r.write(s, "product/planx", "planx.html", struct {
		Page
		Funnel   []FunnelStep
		Timeline []TimelineView
		Treemap  []TreemapCell
		Totals   []LegendTotal
		Datasets []reference.QualityDataset
		Rows     []PlanXRow
	}{page(s, "PlanX", "product"), funnel, timeline, treemap, totals, reference.QualityDatasets, rows})
}

func (s *site) planXRow(p classify.Profile) PlanXRow {
	row := PlanXRow{
		Organisation:   s.organisationLink(p.Organisation),
		AreaName:       p.AreaName,
		LPA:            p.Role == classify.RoleLPA,
		Drupal:         s.members[reference.ProjectLocalGovDrupal][p.Organisation],
		LocalLand:      s.members[reference.ProjectLocalLandCharges][p.Organisation],
		ODP:            s.members[reference.ProjectOpenDigitalPlanning][p.Organisation],
		DataReady:      p.DataReady,
		AdoptionStatus: p.AdoptionStatus,
		Amount:         p.Amount,
		PropTech:       p.PropTechAmount,
		Software:       p.SoftwareAmount,
		PlanMaking:     p.PlanMakingAmount,
		Bucket:         p.Bucket,
		Score:          p.Score,
	}
	for _, d := range reference.QualityDatasets {
		status := s.quality[p.Organisation][d.Dataset]
		cell := QualityCell{Dataset: d.Dataset, Abbreviation: d.Abbreviation, Status: status}
		if status != "" && status != reference.QualityNone {
			cell.Mark = "█"
		}
		row.Quality = append(row.Quality, cell)
	}
	return row
}

func (r *Renderer) renderAwards(s *site) error {
	l, buckets, err := r.mapLedger(s, nil)
	if err != nil {
		return err
	}
	awards, total, _ := s.awardViews(func(reference.Award) bool { return true })
	counts, _ := classify.Tally(bucketValues(buckets))

	return r.write(s, "award", "awards.html", struct {
		Page
		Awards []AwardView
		Amount int64
		Counts []classify.LegendCount
		Total  int
		Maps   Maps
	}{page(s, "Awards", "award"), awards, total, counts, s.counts.LPA, r.maps(s, "award", l, buckets)})
}

func (r *Renderer) renderInterventions(s *site) error {
	if err := r.write(s, "intervention", "interventions.html", struct {
		Page
		Interventions []snapshot.InterventionSummary
	}{page(s, "Interventions", "intervention"), s.interventions}); err != nil {
		return err
	}

	for _, i := range s.interventions {
		keep := ledger.ByIntervention(i.Intervention.Intervention)
		if err := r.renderDetail(s, "intervention", i.Intervention.Intervention, i.Name, i.Description, keep); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderFunds(s *site) error {
	if err := r.write(s, "fund", "funds.html", struct {
		Page
		Funds []snapshot.FundSummary
	}{page(s, "Funds", "fund"), s.funds}); err != nil {
		return err
	}

	for _, f := range s.funds {
		if err := r.renderDetail(s, "fund", f.Fund.Fund, f.Name, f.Description, ledger.ByFund(f.Fund.Fund)); err != nil {
			return err
		}
	}
	return nil
}

// renderDetail writes an intervention or fund page: its awards, total,
// funded organisations and maps restricted to those awards.
func (r *Renderer) renderDetail(s *site, section, id, name, description string, keep func(reference.Award) bool) error {
	l, buckets, err := r.mapLedger(s, keep)
	if err != nil {
		return err
	}
	awards, total, orgs := s.awardViews(keep)
	return r.write(s, section+"/"+id, "detail.html", struct {
		Page
		Description   string
		Awards        []AwardView
		Amount        int64
		Organisations []Link
		Maps          Maps
	}{page(s, name, section), description, awards, total, orgs, r.maps(s, section+"/"+id, l, buckets)})
}

type ProjectLink struct {
	Link
	Description string
}

type AdoptionView struct {
	StartDate        string
	Product          string
	Organisation     Link
	Status           string
	DocumentationURL string
}

func (r *Renderer) renderOrganisations(s *site) error {
	projectNames := make(map[string]string, len(s.projects))
	for _, p := range s.projects {
		projectNames[p.Project.Project] = p.Name
	}
	productNames := make(map[string]string, len(s.products))
	for _, p := range s.products {
		productNames[p.Product] = p.Name
	}

	for _, p := range s.profiles {
		var projects []Link
		for _, id := range s.projectsOf[p.Organisation] {
			projects = append(projects, Link{Path: "/project/" + id + "/", Name: projectNames[id]})
		}

		var adoptions []AdoptionView
		for _, a := range s.adoptions {
			if a.Organisation != p.Organisation {
				continue
			}
			adoptions = append(adoptions, AdoptionView{
				StartDate:        a.StartDate,
				Product:          productNames[a.Product],
				Status:           a.Status,
				DocumentationURL: a.DocumentationURL,
			})
		}

		var direct, partnered []AwardView
		for _, a := range s.awards {
			if a.Organisation == p.Organisation {
				direct = append(direct, s.awardView(a))
				continue
			}
			for _, partner := range a.Partners {
				if partner == p.Organisation {
					partnered = append(partnered, s.awardView(a))
					break
				}
			}
		}

		var quality []QualityCell
		for _, d := range reference.QualityDatasets {
			if status := s.quality[p.Organisation][d.Dataset]; status != "" {
				quality = append(quality, QualityCell{Dataset: d.Dataset, Abbreviation: d.Abbreviation, Status: status})
			}
		}

		if err := r.write(s, "organisation/"+p.Organisation, "organisation.html", struct {
			Page
			Profile   classify.Profile
			Projects  []Link
			Adoptions []AdoptionView
			Awards    []AwardView
			Partnered []AwardView
			Quality   []QualityCell
		}{page(s, p.Name, "organisation"), p, projects, adoptions, direct, partnered, quality}); err != nil {
			return err
		}
	}
	return nil
}

type MemberView struct {
	Organisation  Link
	Bucket        string
	Amount        int64
	Interventions []string
}

func (r *Renderer) renderProjects(s *site) error {
	if err := r.write(s, "project", "projects.html", struct {
		Page
		Projects []snapshot.ProjectSummary
	}{page(s, "Projects", "project"), s.projects}); err != nil {
		return err
	}

	for _, project := range s.projects {
		id := project.Project.Project
		members := s.members[id]
		l, buckets, err := r.mapLedger(s, ledger.ByPrimary(members))
		if err != nil {
			return err
		}

		var views []MemberView
		var memberBuckets []string
		for _, p := range s.profiles {
			if !members[p.Organisation] {
				continue
			}
			v := MemberView{Organisation: s.organisationLink(p.Organisation)}
			if e := l.Entry(p.Organisation); e != nil {
				v.Bucket = buckets[p.Organisation]
				v.Amount = e.Amount
				v.Interventions = e.InterventionList()
			}
			views = append(views, v)
			memberBuckets = append(memberBuckets, v.Bucket)
		}
		counts, total := classify.Tally(memberBuckets)

		if err := r.write(s, "project/"+id, "project.html", struct {
			Page
			Description string
			Members     []MemberView
			Counts      []classify.LegendCount
			Total       int
			Amount      int64
			Maps        Maps
		}{page(s, project.Name, "project"), project.Description, views, counts, total, l.Total(), r.maps(s, "project/"+id, l, buckets)}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderProducts(s *site) error {
	for _, product := range s.products {
		// PlanX has its own dashboard.
		if product.Product == productPlanX {
			continue
		}
		var adoptions []AdoptionView
		for _, a := range s.adoptions {
			if a.Product != product.Product {
				continue
			}
			adoptions = append(adoptions, AdoptionView{
				StartDate:        a.StartDate,
				Organisation:     Link{Path: organisationPath(a.Organisation), Name: a.Name},
				Status:           a.Status,
				DocumentationURL: a.DocumentationURL,
			})
		}
		if err := r.write(s, "product/"+product.Product, "product.html", struct {
			Page
			Description string
			Adoptions   []AdoptionView
		}{page(s, product.Name, "product"), product.Description, adoptions}); err != nil {
			return err
		}
	}
	return nil
}

func bucketValues(buckets map[string]string) []string {
	out := make([]string, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b)
	}
	return out
}
