package classify

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planning-performance/internal/ledger"
	"planning-performance/internal/reference"
)

func TestBucket(t *testing.T) {
	cases := []struct {
		name          string
		interventions []string
		want          string
	}{
		{"empty", nil, ""},
		{"plan-making only", []string{"plan-making"}, "Plan-making"},
		{"software and engagement", []string{"software", "engagement"}, "PropTech_Software"},
		{"order independent", []string{"engagement", "software"}, "PropTech_Software"},
		{"all three", []string{"improvement", "plan-making", "innovation"}, "Plan-making_PropTech_Software"},
		{"repeated tag", []string{"software", "integration"}, "Software"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Bucket(tc.interventions)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBucketUnknownIntervention(t *testing.T) {
	_, err := Bucket([]string{"software", "catering"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownIntervention)
}

func TestEveryLegendIsABucket(t *testing.T) {
	for _, legend := range Legends {
		got, err := Bucket(legend.Interventions)
		require.NoError(t, err)
		assert.Equal(t, legend.Reference, got)
	}
}

func TestTally(t *testing.T) {
	counts, total := Tally([]string{"Software", "", "Software", "Plan-making", "Both"})
	assert.Equal(t, 3, total)
	assert.Equal(t, "Software", counts[0].Reference)
	assert.Equal(t, 2, counts[0].Count)
	assert.Equal(t, 1, counts[len(counts)-1].Count)
}

func TestTierWeightsDominateLowerTiers(t *testing.T) {
	var lower int64
	for _, tier := range TierWeights() {
		assert.Greater(t, tier.Weight, lower, "tier %s", tier.Name)
		lower += tier.Max
	}
}

func TestScoreIsLexicographic(t *testing.T) {
	maxData := ScoreInput{
		Memberships: 5,
		Projects: map[string]bool{
			reference.ProjectLocalGovDrupal:      true,
			reference.ProjectLocalLandCharges:    true,
			reference.ProjectPropTech:            true,
			reference.ProjectOpenDigitalPlanning: true,
		},
		Funded:    true,
		DataScore: MaxDataScore,
	}
	assert.Equal(t, Score(ScoreInput{Memberships: len(reference.Projects)}), Score(ScoreInput{Memberships: 40}))

	adopting := ScoreInput{Stages: map[string]bool{"interested": true}}
	assert.Greater(t, Score(adopting), Score(maxData))

	funded := ScoreInput{Funded: true}
	projects := ScoreInput{Memberships: 5, Projects: maxData.Projects}
	assert.Greater(t, Score(funded), Score(projects))

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		a := ScoreInput{DataScore: rng.Intn(MaxDataScore + 1), Funded: rng.Intn(2) == 1}
		b := a
		b.Stages = map[string]bool{"live": true}
		a.Stages = map[string]bool{"interested": true, "adopting": true}
		assert.Greater(t, Score(b), Score(a))
	}
}

func TestDataScore(t *testing.T) {
	record := reference.QualityRecord{
		Statuses: map[string]string{
			"conservation-area": reference.QualityTrustworthy,
			"tree":              reference.QualitySome,
		},
		ReadyForAdoption: true,
	}
	assert.Equal(t, 107, DataScore(record))
	assert.Equal(t, 148, MaxDataScore)
}

func testDataset() *reference.Dataset {
	ds := reference.NewDataset()
	ds.Organisations = map[string]reference.Organisation{
		"lpa-a":    {Organisation: "lpa-a", Name: "Alpha Council", LocalPlanningAuthority: "E60000001"},
		"lpa-b":    {Organisation: "lpa-b", Name: "Beta Council", LocalPlanningAuthority: "E60000002"},
		"ended":    {Organisation: "ended", Name: "Gone Council", EndDate: "2020-04-01"},
		"partner":  {Organisation: "partner", Name: "Partner Park"},
		"member":   {Organisation: "member", Name: "Member Body"},
		"assessed": {Organisation: "assessed", Name: "Quality Only"},
	}
	ds.LPAs = map[string]reference.LocalPlanningAuthority{
		"E60000001": {Reference: "E60000001", Name: "Alpha LPA"},
	}
	ds.Roles = []reference.RoleAssignment{
		{Role: RoleLPA, Organisation: "lpa-a"},
		{Role: RoleLPA, Organisation: "lpa-b"},
		{Role: RoleLPA, Organisation: "ended"},
	}
	ds.Memberships = []reference.ProjectMembership{
		{Project: reference.ProjectLocalGovDrupal, Organisation: "member"},
		{Project: reference.ProjectLocalLandCharges, Organisation: "member", EndDate: "2023-01-01"},
	}
	ds.Awards = []reference.Award{
		{Award: "a1", Organisation: "lpa-a", Intervention: "software", Fund: "f1", Amount: 100000, Partners: []string{"partner"}},
		{Award: "a2", Organisation: "lpa-a", Intervention: "engagement", Fund: "f1", Amount: 50000},
	}
	ds.Quality = map[string]reference.QualityRecord{
		"lpa-b":    {Organisation: "lpa-b", Statuses: map[string]string{"tree": reference.QualityAuthoritative}},
		"assessed": {Organisation: "assessed", Statuses: map[string]string{"tree": reference.QualityTrustworthy}},
	}
	ds.Adoptions = []reference.Adoption{
		{Organisation: "lpa-b", Product: "planx", Status: "interested"},
		{Organisation: "lpa-b", Product: "planx", Status: "adopting"},
	}
	return ds
}

func TestClassify(t *testing.T) {
	ds := testDataset()
	profiles, err := Classify(ds, ledger.Aggregate(ds.Awards, ds.Organisations))
	require.NoError(t, err)

	byID := make(map[string]Profile)
	var order []string
	for _, p := range profiles {
		byID[p.Organisation] = p
		order = append(order, p.Organisation)
	}

	assert.Equal(t, []string{"lpa-b", "lpa-a", "partner", "member"}, order)
	assert.NotContains(t, byID, "ended")
	assert.NotContains(t, byID, "assessed")

	a := byID["lpa-a"]
	assert.Equal(t, RoleLPA, a.Role)
	assert.Equal(t, "Alpha", a.AreaName)
	assert.Equal(t, "PropTech_Software", a.Bucket)
	assert.Equal(t, int64(150000), a.Amount)
	assert.Equal(t, int64(100000), a.SoftwareAmount)
	assert.Equal(t, int64(50000), a.PropTechAmount)
	assert.Equal(t, WeightOpenDigitalPlanning+WeightFunded, a.Score)

	b := byID["lpa-b"]
	assert.Equal(t, "Beta Council", b.AreaName)
	assert.Equal(t, "adopting", b.AdoptionStatus)
	assert.Equal(t, 4, b.DataScore)
	assert.True(t, b.Providing)
	assert.Equal(t, "", b.Bucket)
	assert.False(t, b.Funded())

	partner := byID["partner"]
	assert.Equal(t, "", partner.Role)
	assert.Equal(t, int64(0), partner.Amount)
	assert.Equal(t, []string{"software"}, partner.Interventions)
	assert.Equal(t, "Software", partner.Bucket)
	assert.Equal(t, WeightOpenDigitalPlanning, partner.Score)

	member := byID["member"]
	assert.Equal(t, RoleOther, member.Role)
	assert.Equal(t, int64(1)+WeightLocalGovDrupal, member.Score)
}

func TestUnlistedProjectsDoNotOutrankDrupal(t *testing.T) {
	ds := testDataset()
	ds.Organisations["many"] = reference.Organisation{Organisation: "many", Name: "Many Projects"}
	for i := 0; i < 12; i++ {
		ds.Memberships = append(ds.Memberships, reference.ProjectMembership{
			Project:      fmt.Sprintf("unlisted-%d", i),
			Organisation: "many",
		})
	}
	profiles, err := Classify(ds, ledger.Aggregate(ds.Awards, ds.Organisations))
	require.NoError(t, err)

	rank := make(map[string]int)
	scores := make(map[string]int64)
	for i, p := range profiles {
		rank[p.Organisation] = i
		scores[p.Organisation] = p.Score
	}
	require.Contains(t, rank, "many")
	assert.Equal(t, int64(0), scores["many"])
	assert.Less(t, rank["member"], rank["many"])
}

func TestClassifyIsDeterministic(t *testing.T) {
	ds := testDataset()
	l := ledger.Aggregate(ds.Awards, ds.Organisations)
	first, err := Classify(ds, l)
	require.NoError(t, err)
	second, err := Classify(ds, l)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClassifyRejectsUnknownIntervention(t *testing.T) {
	ds := testDataset()
	ds.Awards = append(ds.Awards, reference.Award{Award: "a3", Organisation: "lpa-b", Intervention: "catering"})
	_, err := Classify(ds, ledger.Aggregate(ds.Awards, ds.Organisations))
	assert.ErrorIs(t, err, ErrUnknownIntervention)
}
