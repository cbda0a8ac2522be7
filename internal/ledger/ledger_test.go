package ledger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planning-performance/internal/reference"
)

func buildAward(id, org, intervention, fund string, amount int64, partners ...string) reference.Award {
	return reference.Award{
		Award:        id,
		StartDate:    "2022-01-01",
		Organisation: org,
		Intervention: intervention,
		Fund:         fund,
		Amount:       amount,
		Partners:     partners,
	}
}

func TestAggregateCreditsPrimaryAndPartners(t *testing.T) {
	awards := []reference.Award{
		buildAward("a1", "x", "software", "f1", 100000, "y"),
		buildAward("a2", "x", "engagement", "f2", 50000),
	}

	l := Aggregate(awards, nil)
	require.Equal(t, 2, l.Len())

	x := l.Entry("x")
	require.NotNil(t, x)
	assert.Equal(t, int64(150000), x.Amount)
	assert.Equal(t, []string{"engagement", "software"}, x.InterventionList())
	assert.Equal(t, []string{"f1", "f2"}, x.FundList())
	if diff := cmp.Diff(map[string]int64{"software": 100000, "engagement": 50000}, x.ByIntervention); diff != "" {
		t.Fatalf("by intervention mismatch (-want +got):\n%s", diff)
	}

	y := l.Entry("y")
	require.NotNil(t, y)
	assert.Equal(t, int64(0), y.Amount)
	assert.False(t, y.Funded())
	assert.Equal(t, []string{"software"}, y.InterventionList())
	assert.Empty(t, y.Direct)
	assert.Equal(t, int64(150000), l.Total())
}

func TestPartnershipIsSymmetric(t *testing.T) {
	l := Aggregate([]reference.Award{buildAward("a1", "x", "software", "f1", 10, "y", "z")}, nil)

	assert.Equal(t, []string{"y", "z"}, l.Entry("x").PartnerList())
	assert.Equal(t, []string{"x"}, l.Entry("y").PartnerList())
	assert.Equal(t, []string{"x"}, l.Entry("z").PartnerList())
}

func TestRepeatedPartnerCreditedOnce(t *testing.T) {
	l := Aggregate([]reference.Award{buildAward("a1", "x", "software", "f1", 10, "y", "y")}, nil)

	y := l.Entry("y")
	require.NotNil(t, y)
	assert.Equal(t, []string{"a1"}, y.Awards)
	assert.Equal(t, []string{"a1"}, l.Entry("x").Awards)
	assert.Equal(t, []string{"x"}, y.PartnerList())
}

func TestEntriesKeepFirstCreditOrder(t *testing.T) {
	l := Aggregate([]reference.Award{
		buildAward("a1", "b", "software", "f1", 1, "c"),
		buildAward("a2", "a", "software", "f1", 1),
		buildAward("a3", "c", "software", "f1", 1),
	}, nil)

	var order []string
	for _, e := range l.Entries() {
		order = append(order, e.Organisation)
	}
	assert.Equal(t, []string{"b", "c", "a"}, order)
}

func TestDates(t *testing.T) {
	orgs := map[string]reference.Organisation{
		"dissolved": {Organisation: "dissolved", EndDate: "2023-03-31"},
	}
	early := buildAward("a1", "dissolved", "software", "f1", 1)
	early.StartDate = "2021-07-01"
	late := buildAward("a2", "open", "software", "f1", 1)
	late.StartDate = "2024-01-01"
	ended := buildAward("a3", "open", "software", "f1", 1)
	ended.StartDate = "2022-01-01"
	ended.EndDate = "2022-12-31"

	l := Aggregate([]reference.Award{early, late, ended}, orgs)

	assert.Equal(t, "2021-07-01", l.Entry("dissolved").StartDate)
	assert.Equal(t, "2023-03-31", l.Entry("dissolved").EndDate)
	assert.Equal(t, "2022-01-01", l.Entry("open").StartDate)
	assert.Equal(t, "2024-01-01", l.Entry("open").EndDate)
}

func TestFilter(t *testing.T) {
	awards := []reference.Award{
		buildAward("a1", "x", "software", "f1", 10),
		buildAward("a2", "y", "engagement", "f2", 20),
		buildAward("a3", "z", "plan-making", "f2", 30),
	}

	assert.Equal(t, int64(50), Filter(awards, nil, ByFund("f2")).Total())
	assert.Equal(t, int64(20), Filter(awards, nil, ByIntervention("engagement")).Total())

	members := Filter(awards, nil, ByPrimary(map[string]bool{"x": true}))
	assert.Equal(t, 1, members.Len())
	assert.Nil(t, members.Entry("y"))
}
