// Package ledger folds funding awards into per-organisation totals.
package ledger

import (
	"sort"

	"planning-performance/internal/reference"
)

// Entry accumulates everything credited to one organisation.
type Entry struct {
	Organisation   string
	Amount         int64
	ByIntervention map[string]int64
	Interventions  map[string]bool
	Direct         map[string]bool
	Partners       map[string]bool
	Funds          map[string]bool
	Awards         []string
	StartDate      string
	EndDate        string
}

func newEntry(organisation string) *Entry {
	return &Entry{
		Organisation:   organisation,
		ByIntervention: make(map[string]int64),
		Interventions:  make(map[string]bool),
		Direct:         make(map[string]bool),
		Partners:       make(map[string]bool),
		Funds:          make(map[string]bool),
	}
}

// InterventionList returns the interventions credited, sorted.
func (e *Entry) InterventionList() []string {
	return sortedKeys(e.Interventions)
}

func (e *Entry) PartnerList() []string {
	return sortedKeys(e.Partners)
}

func (e *Entry) FundList() []string {
	return sortedKeys(e.Funds)
}

// Funded reports whether the organisation was primary on any award with a
// nonzero amount.
func (e *Entry) Funded() bool {
	return e.Amount > 0
}

func (e *Entry) credit(award reference.Award, amount int64, candidate string) {
	e.Amount += amount
	e.ByIntervention[award.Intervention] += amount
	e.Interventions[award.Intervention] = true
	if award.Fund != "" {
		e.Funds[award.Fund] = true
	}
	e.Awards = append(e.Awards, award.Award)
	if e.StartDate == "" || (award.StartDate != "" && award.StartDate < e.StartDate) {
		e.StartDate = award.StartDate
	}
	if candidate > e.EndDate {
		e.EndDate = candidate
	}
}

// Ledger holds entries in the order organisations were first credited.
type Ledger struct {
	order   []string
	entries map[string]*Entry
}

func New() *Ledger {
	return &Ledger{entries: make(map[string]*Entry)}
}

func (l *Ledger) entry(organisation string) *Entry {
	e, ok := l.entries[organisation]
	if !ok {
		e = newEntry(organisation)
		l.entries[organisation] = e
		l.order = append(l.order, organisation)
	}
	return e
}

// Entry returns the accumulator for organisation, or nil.
func (l *Ledger) Entry(organisation string) *Entry {
	return l.entries[organisation]
}

// Entries returns every entry in first-credit order.
func (l *Ledger) Entries() []*Entry {
	out := make([]*Entry, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.entries[id])
	}
	return out
}

func (l *Ledger) Len() int {
	return len(l.order)
}

// Total is the sum of all primary amounts.
func (l *Ledger) Total() int64 {
	var total int64
	for _, e := range l.entries {
		total += e.Amount
	}
	return total
}

// Aggregate credits each award's primary organisation with its amount and
// each partner with the same intervention and fund at zero amount. A partner
// listed twice on one award is credited once. Partners and the primary are
// recorded against each other.
func Aggregate(awards []reference.Award, organisations map[string]reference.Organisation) *Ledger {
	l := New()
	for _, award := range awards {
		primary := l.entry(award.Organisation)
		primary.credit(award, award.Amount, endCandidate(award, organisations[award.Organisation]))
		primary.Direct[award.Intervention] = true

		seen := make(map[string]bool, len(award.Partners))
		for _, partner := range award.Partners {
			if seen[partner] {
				continue
			}
			seen[partner] = true
			e := l.entry(partner)
			e.credit(award, 0, endCandidate(award, organisations[partner]))
			if partner == award.Organisation {
				continue
			}
			e.Partners[award.Organisation] = true
			primary.Partners[partner] = true
		}
	}
	return l
}

// Filter aggregates only the awards accepted by keep.
func Filter(awards []reference.Award, organisations map[string]reference.Organisation, keep func(reference.Award) bool) *Ledger {
	var selected []reference.Award
	for _, award := range awards {
		if keep(award) {
			selected = append(selected, award)
		}
	}
	return Aggregate(selected, organisations)
}

// ByFund keeps awards from one fund.
func ByFund(fund string) func(reference.Award) bool {
	return func(a reference.Award) bool { return a.Fund == fund }
}

func ByIntervention(intervention string) func(reference.Award) bool {
	return func(a reference.Award) bool { return a.Intervention == intervention }
}

// ByPrimary keeps awards whose primary organisation is in members.
func ByPrimary(members map[string]bool) func(reference.Award) bool {
	return func(a reference.Award) bool { return members[a.Organisation] }
}

func endCandidate(award reference.Award, org reference.Organisation) string {
	if award.EndDate != "" {
		return award.EndDate
	}
	if org.EndDate != "" {
		return org.EndDate
	}
	return award.StartDate
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
