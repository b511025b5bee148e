package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Assembler merges specialist findings into a StructuredPlan and validates
// the result against the plan schema. Assembly is deterministic: the same
// findings always produce the same plan and the same field errors.
type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// marketResearchPayload mirrors the market_research response contract
type marketResearchPayload struct {
	Industry       string          `json:"industry"`
	MarketAnalysis *MarketAnalysis `json:"market_analysis"`
}

type competitorPayload struct {
	Competitors []CompetitorInfo `json:"competitors"`
}

type businessModelPayload struct {
	BusinessName   string          `json:"business_name"`
	BusinessModels []BusinessModel `json:"recommended_business_models"`
}

type financialPayload struct {
	FinancialProjections *FinancialProjection `json:"financial_projections"`
}

type legalPayload struct {
	NextSteps []string `json:"next_steps"`
	Resources []string `json:"resources"`
}

// Assemble builds a plan from the findings accumulated so far. Field errors
// describe which parts of the plan are missing or invalid; an empty slice
// means the plan is complete. Findings are routed by role, and when a role
// reported more than once the latest finding wins, so repaired sections
// override earlier partial results.
func (a *Assembler) Assemble(findings []Finding) (StructuredPlan, FieldErrors, error) {
	latest := make(map[string]Finding)
	for _, f := range findings {
		latest[f.Role] = f
	}

	plan := StructuredPlan{}
	var fieldErrs FieldErrors

	if f, ok := latest[RoleMarketResearch]; ok {
		var payload marketResearchPayload
		if err := decodeFinding(f, &payload); err != nil {
			fieldErrs = append(fieldErrs, parseErrors(RoleMarketResearch, []string{"industry", "market_analysis"}, err)...)
		} else {
			plan.Industry = payload.Industry
			if payload.MarketAnalysis != nil {
				plan.MarketAnalysis = *payload.MarketAnalysis
			}
		}
	} else {
		fieldErrs = append(fieldErrs, missingSectionErrors(RoleMarketResearch, []string{"industry", "market_analysis"})...)
	}

	if f, ok := latest[RoleCompetitorAnalysis]; ok {
		var payload competitorPayload
		if err := decodeFinding(f, &payload); err != nil {
			fieldErrs = append(fieldErrs, parseErrors(RoleCompetitorAnalysis, []string{"competitors"}, err)...)
		} else {
			plan.Competitors = payload.Competitors
		}
	} else {
		fieldErrs = append(fieldErrs, missingSectionErrors(RoleCompetitorAnalysis, []string{"competitors"})...)
	}

	if f, ok := latest[RoleBusinessModel]; ok {
		var payload businessModelPayload
		if err := decodeFinding(f, &payload); err != nil {
			fieldErrs = append(fieldErrs, parseErrors(RoleBusinessModel, []string{"recommended_business_models"}, err)...)
		} else {
			plan.BusinessName = payload.BusinessName
			plan.RecommendedBusinessModels = payload.BusinessModels
		}
	} else {
		fieldErrs = append(fieldErrs, missingSectionErrors(RoleBusinessModel, []string{"recommended_business_models"})...)
	}

	if f, ok := latest[RoleFinancialAnalysis]; ok {
		var payload financialPayload
		if err := decodeFinding(f, &payload); err != nil {
			fieldErrs = append(fieldErrs, parseErrors(RoleFinancialAnalysis, []string{"financial_projections"}, err)...)
		} else if payload.FinancialProjections != nil {
			plan.FinancialProjections = *payload.FinancialProjections
		}
	} else {
		fieldErrs = append(fieldErrs, missingSectionErrors(RoleFinancialAnalysis, []string{"financial_projections"})...)
	}

	if f, ok := latest[RoleLegalCompliance]; ok {
		var payload legalPayload
		if err := decodeFinding(f, &payload); err != nil {
			fieldErrs = append(fieldErrs, parseErrors(RoleLegalCompliance, []string{"next_steps"}, err)...)
		} else {
			plan.NextSteps = payload.NextSteps
			plan.Resources = payload.Resources
		}
	} else {
		fieldErrs = append(fieldErrs, missingSectionErrors(RoleLegalCompliance, []string{"next_steps"})...)
	}

	normalizePlan(&plan)

	data, err := json.Marshal(plan)
	if err != nil {
		return plan, nil, fmt.Errorf("marshaling assembled plan: %w", err)
	}
	schemaErrs, err := ValidatePlanDocument(data)
	if err != nil {
		return plan, nil, fmt.Errorf("validating assembled plan: %w", err)
	}

	fieldErrs = append(fieldErrs, schemaErrs...)
	sortFieldErrors(fieldErrs)
	return plan, dedupeFieldErrors(fieldErrs), nil
}

// decodeFinding extracts the strict-JSON payload from a finding's text.
// Specialists are prompted to respond with JSON only, but models sometimes
// wrap it in prose or code fences, so we locate the first JSON object.
func decodeFinding(f Finding, out interface{}) error {
	raw := extractFirstJSON(f.Text)
	if raw == "" {
		return fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("parsing response JSON: %w", err)
	}
	return nil
}

func parseErrors(role string, sections []string, err error) FieldErrors {
	errs := make(FieldErrors, 0, len(sections))
	for _, section := range sections {
		errs = append(errs, FieldError{
			Path:   section,
			Reason: fmt.Sprintf("%s finding could not be parsed: %v", role, err),
		})
	}
	return errs
}

func missingSectionErrors(role string, sections []string) FieldErrors {
	errs := make(FieldErrors, 0, len(sections))
	for _, section := range sections {
		errs = append(errs, FieldError{
			Path:   section,
			Reason: fmt.Sprintf("no finding from %s", role),
		})
	}
	return errs
}

// normalizePlan replaces nil slices and maps with empty ones so schema
// validation reports minItems/minProperties violations instead of type errors,
// and so the serialized plan never contains JSON null for a collection.
func normalizePlan(plan *StructuredPlan) {
	if plan.MarketAnalysis.KeyTrends == nil {
		plan.MarketAnalysis.KeyTrends = []string{}
	}
	if plan.MarketAnalysis.TargetDemographics == nil {
		plan.MarketAnalysis.TargetDemographics = []string{}
	}
	if plan.MarketAnalysis.BarriersToEntry == nil {
		plan.MarketAnalysis.BarriersToEntry = []string{}
	}
	if plan.MarketAnalysis.Opportunities == nil {
		plan.MarketAnalysis.Opportunities = []string{}
	}
	if plan.Competitors == nil {
		plan.Competitors = []CompetitorInfo{}
	}
	for i := range plan.Competitors {
		c := &plan.Competitors[i]
		if c.Strengths == nil {
			c.Strengths = []string{}
		}
		if c.Weaknesses == nil {
			c.Weaknesses = []string{}
		}
		if c.UniqueSellingPoints == nil {
			c.UniqueSellingPoints = []string{}
		}
	}
	if plan.RecommendedBusinessModels == nil {
		plan.RecommendedBusinessModels = []BusinessModel{}
	}
	for i := range plan.RecommendedBusinessModels {
		m := &plan.RecommendedBusinessModels[i]
		if m.RevenueStreams == nil {
			m.RevenueStreams = []string{}
		}
		if m.CostStructure == nil {
			m.CostStructure = []string{}
		}
		if m.KeyResources == nil {
			m.KeyResources = []string{}
		}
		if m.KeyActivities == nil {
			m.KeyActivities = []string{}
		}
		if m.Risks == nil {
			m.Risks = []string{}
		}
	}
	if plan.FinancialProjections.StartupCosts == nil {
		plan.FinancialProjections.StartupCosts = map[string]string{}
	}
	if plan.FinancialProjections.MonthlyOperatingCosts == nil {
		plan.FinancialProjections.MonthlyOperatingCosts = map[string]string{}
	}
	if plan.FinancialProjections.RevenueProjections == nil {
		plan.FinancialProjections.RevenueProjections = map[string]string{}
	}
	if plan.NextSteps == nil {
		plan.NextSteps = []string{}
	}
}

// extractFirstJSON returns the first balanced JSON object found in s,
// skipping braces inside string literals
func extractFirstJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
