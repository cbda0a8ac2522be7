package svgmap

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Circle is one organisation's funding marker.
type Circle struct {
	Organisation string
	// Areas are tried in order; the first present in the template wins.
	Areas   []string
	Amount  int64
	Classes []string
}

// Radius gives a circle whose area is proportional to amount.
func Radius(amount int64) float64 {
	return math.Sqrt(float64(amount)/math.Pi) / 25
}

type legendItem struct {
	amount int64
	y      string
	label  string
}

var legendItems = []legendItem{
	{1_000_000, "62.5", "£1m"},
	{500_000, "81", "£500k"},
	{100_000, "100", "£100k"},
}

func legend() string {
	var b strings.Builder
	for _, item := range legendItems {
		r := Radius(item.amount)
		fmt.Fprintf(&b, `<circle cx="50" cy="%s" r="%s" /><text x="75" y="%s" class="key" style="font-size: 11px">%s</text>`+"\n",
			formatFloat(100-r), formatFloat(r), item.y, item.label)
	}
	return b.String()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Points renders the proportional circle map. Resolved circles replace the
// template's circles at the position of the first one; the scale legend
// follows the root element.
func Points(t *Template, circles []Circle) (string, []Diagnostic) {
	var diags []Diagnostic
	lines := make(map[string]string)
	for _, e := range t.Elements {
		if e.Kind != KindCircle || e.ID == "" {
			continue
		}
		if _, ok := lines[e.ID]; ok {
			diags = append(diags, Diagnostic{Area: e.ID, Message: "area already found"})
			continue
		}
		lines[e.ID] = e.Raw
	}

	var drawn []string
	for _, c := range circles {
		line, area := resolve(lines, c.Areas)
		if area == "" {
			diags = append(diags, Diagnostic{Organisation: c.Organisation, Message: "no map area for organisation"})
			continue
		}
		classes := append([]string(nil), c.Classes...)
		sort.Strings(classes)
		line = strings.Replace(line, `r="1"`, fmt.Sprintf(`r="%.2f"`, Radius(c.Amount)), 1)
		line = strings.Replace(line, `class="point"`, `class="`+strings.Join(classes, " ")+`"`, 1)
		drawn = append(drawn, line)
	}

	var out strings.Builder
	first := true
	for _, e := range t.Elements {
		switch e.Kind {
		case KindCircle:
			if first {
				for _, line := range drawn {
					out.WriteString(line)
				}
				first = false
			}
		case KindRoot:
			out.WriteString(fixRoot(e.Raw))
			out.WriteString(legend())
		default:
			out.WriteString(e.Raw)
		}
	}
	return out.String(), diags
}

func resolve(lines map[string]string, areas []string) (string, string) {
	for _, area := range areas {
		if area == "" {
			continue
		}
		if line, ok := lines[area]; ok {
			return line, area
		}
	}
	return "", ""
}
