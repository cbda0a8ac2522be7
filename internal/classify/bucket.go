// Package classify derives funding buckets and ranking scores for
// organisations from their ledger entries and reference data.
package classify

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUnknownIntervention = errors.New("unknown intervention")

// Bucket tags.
const (
	PlanMaking = "Plan-making"
	PropTech   = "PropTech"
	Software   = "Software"
)

var interventionTags = map[string]string{
	"innovation":  PropTech,
	"engagement":  PropTech,
	"software":    Software,
	"integration": Software,
	"improvement": Software,
	"plan-making": PlanMaking,
}

// Tag returns the bucket tag an intervention contributes.
func Tag(intervention string) (string, error) {
	tag, ok := interventionTags[intervention]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownIntervention, intervention)
	}
	return tag, nil
}

// Bucket joins the distinct tags of interventions, sorted, with "_". No
// interventions gives "".
func Bucket(interventions []string) (string, error) {
	seen := make(map[string]bool, 3)
	for _, intervention := range interventions {
		tag, err := Tag(intervention)
		if err != nil {
			return "", err
		}
		seen[tag] = true
	}
	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return strings.Join(tags, "_"), nil
}

type Legend struct {
	Reference     string
	Name          string
	Colour        string
	Description   string
	Interventions []string
}

var (
	softwareInterventions   = []string{"software", "integration", "improvement"}
	propTechInterventions   = []string{"engagement", "innovation"}
	planMakingInterventions = []string{"plan-making"}
)

func join(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		out = append(out, list...)
	}
	return out
}

// Legends lists every bucket in display order with its map colour.
var Legends = []Legend{
	{"Software", "Software", "#22d0b6", "Funded for Software", softwareInterventions},
	{"PropTech_Software", "PropTech and Software", "#a8bd3a", "Funded for Software and PropTech",
		join(softwareInterventions, propTechInterventions)},
	{"Plan-making_Software", "Plan-making and Software", "#118c7b", "Funded for Software and Plan-making",
		join(softwareInterventions, planMakingInterventions)},
	{"Plan-making_PropTech_Software", "Plan-making, PropTech and Software", "#746cb1", "Funded for Software, PropTech and Plan-making",
		join(softwareInterventions, propTechInterventions, planMakingInterventions)},
	{"PropTech", "PropTech", "#27a0cc", "Funded for PropTech", propTechInterventions},
	{"Plan-making_PropTech", "PropTech and Plan-making", "#206095", "Funded for PropTech and Plan-making",
		join(propTechInterventions, planMakingInterventions)},
	{"Plan-making", "Plan-making", "#eee", "Funded for Plan-making", planMakingInterventions},
}

type LegendCount struct {
	Legend
	Count int
}

// Tally counts buckets against the legend order. Empty and unlisted buckets
// are ignored; total is the number counted.
func Tally(buckets []string) (counts []LegendCount, total int) {
	index := make(map[string]int, len(Legends))
	counts = make([]LegendCount, len(Legends))
	for i, legend := range Legends {
		counts[i] = LegendCount{Legend: legend}
		index[legend.Reference] = i
	}
	for _, bucket := range buckets {
		i, ok := index[bucket]
		if !ok {
			continue
		}
		counts[i].Count++
		total++
	}
	return counts, total
}
