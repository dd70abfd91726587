package entitlement

// Check and Cross render boolean capabilities in the comparison table.
const (
	Check = "✓"
	Cross = "✗"
)

// ComparisonRow is one feature across the three tiers.
type ComparisonRow struct {
	Feature string `json:"feature"`
	Free    string `json:"free"`
	Pro     string `json:"pro"`
	Elite   string `json:"elite"`
}

type comparisonFeature struct {
	label  string
	render func(Limits) string
}

func flag(v bool) string {
	if v {
		return Check
	}
	return Cross
}

var comparisonFeatures = []comparisonFeature{
	{"Daily Gradings", func(l Limits) string { return l.DailyGradings.String() }},
	{"Oracle Questions", func(l Limits) string { return l.DailyOracleQuestions.String() }},
	{"Portfolio Cards", func(l Limits) string { return l.PortfolioCards.String() }},
	{"Advanced Analytics", func(l Limits) string { return flag(l.AdvancedFeatures) }},
	{"Priority Support", func(l Limits) string { return flag(l.PrioritySupport) }},
	{"API Access", func(l Limits) string { return flag(l.APIAccess) }},
	{"AR Card Viewer", func(l Limits) string { return flag(l.ARViewer) }},
	{"Custom AI Models", func(l Limits) string { return flag(l.CustomAI) }},
}

// FeatureComparison renders every tier's value for each compared feature.
func FeatureComparison() []ComparisonRow {
	free, _ := Lookup(Free)
	pro, _ := Lookup(Pro)
	elite, _ := Lookup(Elite)

	rows := make([]ComparisonRow, 0, len(comparisonFeatures))
	for _, f := range comparisonFeatures {
		rows = append(rows, ComparisonRow{
			Feature: f.label,
			Free:    f.render(free.Limits),
			Pro:     f.render(pro.Limits),
			Elite:   f.render(elite.Limits),
		})
	}
	return rows
}

// FeatureComparison returns the tier comparison table.
func (g *Gate) FeatureComparison() []ComparisonRow {
	return FeatureComparison()
}
