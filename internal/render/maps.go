package render

import (
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"planning-performance/internal/classify"
	"planning-performance/internal/ledger"
	"planning-performance/internal/reference"
	"planning-performance/internal/svgmap"
)

// Maps holds the annotated choropleth and point map for one page.
type Maps struct {
	Shapes template.HTML
	Points template.HTML
}

// mapLedger aggregates the awards accepted by keep, or every award when keep
// is nil, and derives each organisation's bucket.
func (r *Renderer) mapLedger(s *site, keep func(reference.Award) bool) (*ledger.Ledger, map[string]string, error) {
	var l *ledger.Ledger
	if keep == nil {
		l = ledger.Aggregate(s.rawAwards, s.orgs)
	} else {
		l = ledger.Filter(s.rawAwards, s.orgs, keep)
	}
	buckets, err := classify.Buckets(l)
	if err != nil {
		return nil, nil, err
	}
	return l, buckets, nil
}

func (r *Renderer) maps(s *site, name string, l *ledger.Ledger, buckets map[string]string) Maps {
	var out Maps

	if r.shapes != nil {
		bindings := make(map[string]svgmap.Binding)
		for _, e := range l.Entries() {
			org := s.orgs[e.Organisation]
			if org.LocalPlanningAuthority == "" {
				continue
			}
			if _, ok := bindings[org.LocalPlanningAuthority]; ok {
				continue
			}
			bindings[org.LocalPlanningAuthority] = svgmap.Binding{
				Organisation: e.Organisation,
				Name:         s.name(e.Organisation),
				Bucket:       buckets[e.Organisation],
				Href:         r.href(organisationPath(e.Organisation)),
			}
		}
		svg, diags := svgmap.Shapes(r.shapes, bindings)
		r.report(name, "shapes", diags)
		out.Shapes = template.HTML(svg)
	}

	if r.points != nil {
		var circles []svgmap.Circle
		for _, e := range l.Entries() {
			if !e.Funded() {
				continue
			}
			circles = append(circles, svgmap.Circle{
				Organisation: e.Organisation,
				Areas:        s.orgs[e.Organisation].Areas(),
				Amount:       e.Amount,
				Classes:      e.InterventionList(),
			})
		}
		svg, diags := svgmap.Points(r.points, circles)
		r.report(name, "points", diags)
		out.Points = template.HTML(svg)
	}
	return out
}

func (r *Renderer) report(page, kind string, diags []svgmap.Diagnostic) {
	for _, d := range diags {
		r.logger.Warn("map annotation",
			zap.String("page", page),
			zap.String("map", kind),
			zap.String("diagnostic", d.String()))
	}
}

// loadTemplate reads a map template. A missing file gives an empty map.
func loadTemplate(path string, logger *zap.Logger) (*svgmap.Template, error) {
	if path == "" {
		return nil, nil
	}
	t, err := svgmap.ParseFile(path)
	if err != nil {
		logger.Warn("map template unavailable, rendering empty map", zap.String("path", path), zap.Error(err))
		return nil, nil
	}
	if len(t.Elements) == 0 {
		return nil, fmt.Errorf("map template %s is empty", path)
	}
	return t, nil
}
