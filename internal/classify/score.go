package classify

import "planning-performance/internal/reference"

// Score tier weights, lowest to highest. The membership count sits below
// all of them.
const (
	WeightLocalGovDrupal      int64 = 10
	WeightLocalLandCharges    int64 = 100
	WeightPropTechProject     int64 = 1_000
	WeightOpenDigitalPlanning int64 = 10_000
	WeightFunded              int64 = 100_000
	WeightDataPoint           int64 = 1_000_000
	WeightInterested          int64 = 1_000_000_000
	WeightAdopting            int64 = 10_000_000_000
	WeightLive                int64 = 100_000_000_000
)

// ReadyBonus is added to the data score of organisations flagged ready for
// adoption.
const ReadyBonus = 100

var qualityWeights = map[string]int{
	"":                             0,
	reference.QualityNone:          0,
	reference.QualitySome:          1,
	reference.QualityAuthoritative: 4,
	reference.QualityReady:         5,
	reference.QualityTrustworthy:   6,
}

// QualityWeight returns the score weight of a quality status.
func QualityWeight(status string) int {
	return qualityWeights[status]
}

// MaxDataScore is the highest data score any organisation can reach.
var MaxDataScore = len(reference.QualityDatasets)*QualityWeight(reference.QualityTrustworthy) + ReadyBonus

// DataScore sums the quality weights over the assessed datasets, plus the
// ready bonus.
func DataScore(record reference.QualityRecord) int {
	score := 0
	for _, dataset := range reference.QualityDatasets {
		score += QualityWeight(record.Status(dataset.Dataset))
	}
	if record.ReadyForAdoption {
		score += ReadyBonus
	}
	return score
}

// ScoreInput gathers the facts that rank an organisation.
type ScoreInput struct {
	Memberships int
	Projects    map[string]bool
	Funded      bool
	DataScore   int
	Stages      map[string]bool
}

type Tier struct {
	Name   string
	Weight int64
	// Max is the largest contribution the tier can make.
	Max int64
}

var projectTiers = []struct {
	project string
	weight  int64
}{
	{reference.ProjectLocalGovDrupal, WeightLocalGovDrupal},
	{reference.ProjectLocalLandCharges, WeightLocalLandCharges},
	{reference.ProjectPropTech, WeightPropTechProject},
	{reference.ProjectOpenDigitalPlanning, WeightOpenDigitalPlanning},
}

var stageTiers = []struct {
	stage  string
	weight int64
}{
	{"interested", WeightInterested},
	{"adopting", WeightAdopting},
	{"live", WeightLive},
}

// TierWeights lists the score tiers from lowest to highest.
func TierWeights() []Tier {
	tiers := []Tier{{Name: "memberships", Weight: 1, Max: int64(len(reference.Projects))}}
	for _, p := range projectTiers {
		tiers = append(tiers, Tier{Name: p.project, Weight: p.weight, Max: p.weight})
	}
	tiers = append(tiers,
		Tier{Name: "funded", Weight: WeightFunded, Max: WeightFunded},
		Tier{Name: "data", Weight: WeightDataPoint, Max: WeightDataPoint * int64(MaxDataScore)},
	)
	for _, s := range stageTiers {
		tiers = append(tiers, Tier{Name: s.stage, Weight: s.weight, Max: s.weight})
	}
	return tiers
}

// Score ranks an organisation. Any flag in a higher tier outweighs every
// combination of lower tiers.
func Score(in ScoreInput) int64 {
	score := int64(min(in.Memberships, len(reference.Projects)))
	for _, p := range projectTiers {
		if in.Projects[p.project] {
			score += p.weight
		}
	}
	if in.Funded {
		score += WeightFunded
	}
	score += int64(in.DataScore) * WeightDataPoint
	for _, s := range stageTiers {
		if in.Stages[s.stage] {
			score += s.weight
		}
	}
	return score
}
