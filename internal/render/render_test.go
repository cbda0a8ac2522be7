package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planning-performance/internal/classify"
	"planning-performance/internal/ledger"
	"planning-performance/internal/reference"
	"planning-performance/internal/snapshot"
)

const shapesSource = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 400 455">
<g id="E60000001">
<path d="M0 0" class="local-planning-authority"/>
</g>
<g id="E60000002">
<path d="M1 1" class="local-planning-authority"/>
</g>
</svg>
`

func testDataset() *reference.Dataset {
	ds := reference.NewDataset()
	ds.Organisations = map[string]reference.Organisation{
		"lpa-a":   {Organisation: "lpa-a", Name: "Alpha Council", LocalPlanningAuthority: "E60000001"},
		"lpa-b":   {Organisation: "lpa-b", Name: "Beta Council", LocalPlanningAuthority: "E60000002"},
		"partner": {Organisation: "partner", Name: "Partner Park"},
	}
	ds.Interventions = []reference.Intervention{
		{Intervention: "software", Name: "Software"},
		{Intervention: "engagement", Name: "Engagement"},
	}
	ds.Funds = []reference.Fund{
		{Fund: "f1", Name: "First Fund", StartDate: "2021-06-01"},
		{Fund: "f2", Name: "Later Fund", StartDate: "2023-01-01"},
	}
	ds.Roles = []reference.RoleAssignment{
		{Role: classify.RoleLPA, Organisation: "lpa-a"},
		{Role: classify.RoleLPA, Organisation: "lpa-b"},
	}
	ds.Memberships = []reference.ProjectMembership{
		{Project: reference.ProjectOpenDigitalPlanning, Organisation: "lpa-a", StartDate: "2022-01-01"},
	}
	ds.Awards = []reference.Award{
		{Award: "a1", StartDate: "2022-01-01", Organisation: "lpa-a", Intervention: "software", Fund: "f1", Amount: 100000, Partners: []string{"partner"}},
		{Award: "a2", StartDate: "2023-02-01", Organisation: "lpa-a", Intervention: "engagement", Fund: "f2", Amount: 50000,
			Notes: `<b>bold</b><script>alert(1)</script>`},
	}
	ds.Quality = map[string]reference.QualityRecord{
		"lpa-b": {Organisation: "lpa-b", Statuses: map[string]string{"tree": reference.QualityAuthoritative}},
	}
	ds.Adoptions = []reference.Adoption{
		{StartDate: "2023-05-01", Organisation: "lpa-b", Product: "planx", Status: "live"},
		{StartDate: "2023-03-01", Organisation: "lpa-a", Product: "bops", Status: "adopting"},
	}
	return ds
}

func renderSite(t *testing.T, base string) string {
	t.Helper()
	return renderDataset(t, testDataset(), base)
}

func renderDataset(t *testing.T, ds *reference.Dataset, base string) string {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	profiles, err := classify.Classify(ds, ledger.Aggregate(ds.Awards, ds.Organisations))
	require.NoError(t, err)

	snap, err := snapshot.Create(ctx, filepath.Join(dir, "performance.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { snap.Close() })
	run := snapshot.NewRun("test")
	run.Count(ds, profiles)
	require.NoError(t, snap.Write(ctx, ds, profiles, run))

	shapes := filepath.Join(dir, "local-planning-authority.svg")
	require.NoError(t, os.WriteFile(shapes, []byte(shapesSource), 0644))

	docs := filepath.Join(dir, "docs")
	r, err := New(snap, Options{
		Docs:      docs,
		BasePath:  base,
		ShapesMap: shapes,
		PointsMap: filepath.Join(dir, "absent.svg"),
	})
	require.NoError(t, err)
	require.NoError(t, r.Render(ctx))
	return docs
}

func readPage(t *testing.T, docs, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(docs, filepath.FromSlash(rel), "index.html"))
	require.NoError(t, err)
	return string(data)
}

func TestRenderWritesEveryPage(t *testing.T) {
	docs := renderSite(t, "")

	for _, rel := range []string{
		"",
		"adoption/planx",
		"product/planx",
		"product/bops",
		"award",
		"intervention",
		"intervention/software",
		"intervention/engagement",
		"fund",
		"fund/f1",
		"fund/f2",
		"organisation/lpa-a",
		"organisation/lpa-b",
		"organisation/partner",
		"project",
		"project/open-digital-planning",
	} {
		t.Run("page "+rel, func(t *testing.T) {
			assert.FileExists(t, filepath.Join(docs, filepath.FromSlash(rel), "index.html"))
		})
	}
	assert.FileExists(t, filepath.Join(docs, "static", "site.css"))
}

func TestAwardPage(t *testing.T) {
	page := readPage(t, renderSite(t, "/performance"), "award")

	assert.Contains(t, page, "£150,000")
	assert.Contains(t, page, `<a href="/performance/organisation/partner/">Partner Park</a>`)
	assert.Contains(t, page, "<b>bold</b>")
	assert.NotContains(t, page, "<script>alert")
	assert.Contains(t, page, `<a href="/performance/organisation/lpa-a/"><path`)
	assert.Contains(t, page, "<title>Alpha Council</title>")
}

func TestSharedLPAFollowsAwardFileOrder(t *testing.T) {
	ds := testDataset()
	ds.Organisations["county"] = reference.Organisation{Organisation: "county", Name: "County Council", LocalPlanningAuthority: "E60000001"}
	county := reference.Award{Award: "c1", StartDate: "2023-06-01", Organisation: "county", Intervention: "software", Fund: "f2", Amount: 1000}
	ds.Awards = append([]reference.Award{county}, ds.Awards...)

	page := readPage(t, renderDataset(t, ds, "/performance"), "award")

	assert.Contains(t, page, `<a href="/performance/organisation/county/"><path`)
	assert.NotContains(t, page, `<a href="/performance/organisation/lpa-a/"><path`)
	assert.Less(t, strings.Index(page, `id="a1"`), strings.Index(page, `id="c1"`))
}

func TestWriteRemovesPartialPage(t *testing.T) {
	docs := t.TempDir()
	r, err := New(nil, Options{Docs: docs})
	require.NoError(t, err)

	err = r.write(&site{}, "broken", "no-such-template.html", nil)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(docs, "broken", "index.html"))
}

func TestDetailPagesFilterAwards(t *testing.T) {
	docs := renderSite(t, "")

	engagement := readPage(t, docs, "intervention/engagement")
	assert.Contains(t, engagement, `id="a2"`)
	assert.NotContains(t, engagement, `id="a1"`)
	assert.Contains(t, engagement, "£50,000")

	fund := readPage(t, docs, "fund/f1")
	assert.Contains(t, fund, `id="a1"`)
	assert.NotContains(t, fund, `id="a2"`)
}

func TestPlanXPages(t *testing.T) {
	docs := renderSite(t, "/performance")

	redirect := readPage(t, docs, "adoption/planx")
	assert.Contains(t, redirect, `href="/performance/product/planx/"`)

	planx := readPage(t, docs, "product/planx")
	assert.Contains(t, planx, `<time datetime="2023-05-01">2023-05-01</time> Beta Council`)
	assert.Contains(t, planx, `data-month="4"`)
	assert.Contains(t, planx, "Adopting PlanX")
	assert.Contains(t, planx, "█")
}

func TestOrganisationPage(t *testing.T) {
	docs := renderSite(t, "")

	partner := readPage(t, docs, "organisation/partner")
	assert.Contains(t, partner, "Awards as a partner")
	assert.Contains(t, partner, `id="a1"`)

	alpha := readPage(t, docs, "organisation/lpa-a")
	assert.Contains(t, alpha, `<a href="/project/open-digital-planning/">Open Digital Planning</a>`)
	assert.Contains(t, alpha, "£150,000")
}

func TestNewRequiresDocs(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestMoney(t *testing.T) {
	m := NewMoney()
	assert.Equal(t, "", m.Format(0))
	assert.Equal(t, "£950", m.Format(950))
	assert.Equal(t, "£1,234,567", m.Format(1234567))
}
