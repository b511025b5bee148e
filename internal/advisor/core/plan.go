package core

// StructuredPlan is the final validated report produced for one scenario.
// Field names, required/optional status and nesting depth are the
// compatibility contract for downstream consumers. All amounts remain
// free-form strings ("$50,000-$75,000"); source data is qualitative
// estimation, so no numeric coercion is performed.
type StructuredPlan struct {
	BusinessName              string              `json:"business_name,omitempty"`
	Industry                  string              `json:"industry"`
	MarketAnalysis            MarketAnalysis      `json:"market_analysis"`
	Competitors               []CompetitorInfo    `json:"competitors"`
	RecommendedBusinessModels []BusinessModel     `json:"recommended_business_models"`
	FinancialProjections      FinancialProjection `json:"financial_projections"`
	NextSteps                 []string            `json:"next_steps"`
	Resources                 []string            `json:"resources,omitempty"`
}

// MarketAnalysis summarizes the market a venture would enter
type MarketAnalysis struct {
	MarketSize         string   `json:"market_size"`
	GrowthRate         string   `json:"growth_rate"`
	KeyTrends          []string `json:"key_trends"`
	TargetDemographics []string `json:"target_demographics"`
	BarriersToEntry    []string `json:"barriers_to_entry"`
	Opportunities      []string `json:"opportunities"`
}

// CompetitorInfo describes one existing competitor
type CompetitorInfo struct {
	Name                string   `json:"name"`
	Description         string   `json:"description"`
	Strengths           []string `json:"strengths"`
	Weaknesses          []string `json:"weaknesses"`
	MarketShare         string   `json:"market_share,omitempty"`
	PricingStrategy     string   `json:"pricing_strategy,omitempty"`
	UniqueSellingPoints []string `json:"unique_selling_points"`
	Website             string   `json:"website,omitempty"`
}

// BusinessModel describes one candidate operating model for the venture
type BusinessModel struct {
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	RevenueStreams   []string `json:"revenue_streams"`
	CostStructure    []string `json:"cost_structure"`
	KeyResources     []string `json:"key_resources"`
	KeyActivities    []string `json:"key_activities"`
	ValueProposition string   `json:"value_proposition"`
	Scalability      string   `json:"scalability"`
	Risks            []string `json:"risks"`
}

// FinancialProjection estimates the money side of the venture. The three
// mapping fields go from a label ("kitchen equipment", "year 1") to an
// amount expressed as text.
type FinancialProjection struct {
	StartupCosts          map[string]string `json:"startup_costs"`
	MonthlyOperatingCosts map[string]string `json:"monthly_operating_costs"`
	RevenueProjections    map[string]string `json:"revenue_projections"`
	BreakEvenAnalysis     string            `json:"break_even_analysis"`
	FundingRequirements   string            `json:"funding_requirements,omitempty"`
	PotentialROI          string            `json:"potential_roi,omitempty"`
}
