package svgmap

import (
	"html"
	"sort"
	"strings"
)

const (
	shapeClass       = `class="local-planning-authority"`
	shapeClassClosed = `class="local-planning-authority"/>`
)

// Binding ties a map area to the organisation drawn there.
type Binding struct {
	Organisation string
	Name         string
	Bucket       string
	Href         string
}

// Shapes renders the choropleth. Bound areas are linked, titled and classed
// with their bucket; every other area keeps the neutral class.
func Shapes(t *Template, bindings map[string]Binding) (string, []Diagnostic) {
	var out strings.Builder
	var diags []Diagnostic
	found := make(map[string]bool)
	var current *Binding

	for _, e := range t.Elements {
		line := e.Raw
		if e.Kind == KindRoot {
			line = fixRoot(line)
		}
		line = strings.ReplaceAll(line, ` fill-rule="evenodd"`, "")
		line = strings.ReplaceAll(line, `class="polygon `, `class="`)

		if e.ID != "" {
			if found[e.ID] {
				diags = append(diags, Diagnostic{Area: e.ID, Message: "area already found"})
			}
			if b, ok := bindings[e.ID]; ok {
				found[e.ID] = true
				current = &b
			} else {
				current = nil
			}
		}

		if current != nil && strings.Contains(line, shapeClass) {
			line = strings.Replace(line, "<path", `<a href="`+html.EscapeString(current.Href)+`"><path`, 1)
			class := strings.TrimSpace("local-planning-authority " + current.Bucket)
			line = strings.Replace(line, shapeClassClosed,
				`class="`+class+`"><title>`+html.EscapeString(current.Name)+`</title></path></a>`, 1)
		}
		out.WriteString(line)
	}

	var missing []string
	for area := range bindings {
		if !found[area] {
			missing = append(missing, area)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		diags = append(diags, Diagnostic{Area: strings.Join(missing, ", "), Message: "areas not found"})
	}
	return out.String(), diags
}
