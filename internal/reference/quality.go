package reference

// Quality status levels, lowest to highest.
const (
	QualityNone          = "none"
	QualitySome          = "some"
	QualityAuthoritative = "authoritative"
	QualityReady         = "ready"
	QualityTrustworthy   = "trustworthy"
)

var qualityLabels = map[string]string{
	"0. no data":                         QualityNone,
	"1. some data":                       QualitySome,
	"2. authoritative data from the LPA": QualityAuthoritative,
	"3. data that is good for ODP":       QualityReady,
	"4. data that is trustworthy":        QualityTrustworthy,
}

// QualityStatus maps the free-text label used in the quality sheet to a
// status level. Unknown labels map to "".
func QualityStatus(label string) string {
	return qualityLabels[label]
}

type QualityDataset struct {
	Dataset      string
	Abbreviation string
}

// QualityDatasets are the datasets assessed for Open Digital Planning, in
// column order.
var QualityDatasets = []QualityDataset{
	{"conservation-area", "CA"},
	{"conservation-area-document", "CAD"},
	{"article-4-direction", "A4"},
	{"article-4-direction-area", "A4A"},
	{"listed-building-outline", "LBO"},
	{"tree-preservation-order", "TPO"},
	{"tree", "Tree"},
	{"tree-preservation-zone", "TPZ"},
}

// Projects are the community projects an organisation can belong to.
var Projects = []Project{
	{Project: "open-digital-planning", Name: "Open Digital Planning"},
	{Project: "local-land-charges", Name: "Local Land Charges"},
	{Project: "localgov-drupal", Name: "LocalGov Drupal"},
	{Project: "proptech", Name: "PropTech"},
	{Project: "software", Name: "Software"},
}

var Products = []Product{
	{Product: "planx", Name: "PlanX"},
	{Product: "bops", Name: "BOPS"},
	{Product: "dsn/dpr", Name: "Digital Site Notice / Digital Planning Register"},
}

const (
	ProjectOpenDigitalPlanning = "open-digital-planning"
	ProjectLocalLandCharges    = "local-land-charges"
	ProjectLocalGovDrupal      = "localgov-drupal"
	ProjectPropTech            = "proptech"

	RoleLocalPlanningAuthority = "local-planning-authority"
)
