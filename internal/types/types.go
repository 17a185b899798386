// Package types holds the records shared by the matching, selection, pricing
// and workflow packages.
package types

// RFP is a request for proposal. Requirement order is meaningful.
type RFP struct {
	ID                 string   `json:"id" validate:"required"`
	Title              string   `json:"title" validate:"required"`
	Description        string   `json:"description"`
	Requirements       []string `json:"requirements"`
	Deadline           string   `json:"deadline,omitempty"`
	Budget             *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	EvaluationCriteria []string `json:"evaluation_criteria,omitempty"`
}

// BudgetOrZero returns the budget or 0 when the RFP has none.
func (r *RFP) BudgetOrZero() float64 {
	if r == nil || r.Budget == nil {
		return 0
	}
	return *r.Budget
}

// Product is a catalog entry.
type Product struct {
	ID        string   `json:"id" validate:"required"`
	Name      string   `json:"name" validate:"required"`
	Specs     []string `json:"specs"`
	BasePrice float64  `json:"base_price" validate:"gte=0"`
}

// Products is an ordered catalog. Catalog order is the tie-break order for
// equal match scores.
type Products struct {
	Items []*Product
}

func (p *Products) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// FindByID returns the product with the given id or nil.
func (p *Products) FindByID(id string) *Product {
	if p == nil {
		return nil
	}
	for _, product := range p.Items {
		if product != nil && product.ID == id {
			return product
		}
	}
	return nil
}

// IDs returns product ids in catalog order.
func (p *Products) IDs() []string {
	if p == nil {
		return nil
	}
	ids := make([]string, 0, len(p.Items))
	for _, product := range p.Items {
		if product != nil {
			ids = append(ids, product.ID)
		}
	}
	return ids
}

// MatchResult is the score of one product against one RFP.
// Every requirement ends up either contributing to MatchedSpecs or in
// MissingRequirements.
type MatchResult struct {
	ProductID           string   `json:"product_id"`
	ProductName         string   `json:"product_name"`
	MatchScore          float64  `json:"match_score"`
	MatchedSpecs        []string `json:"matched_specs"`
	MissingRequirements []string `json:"missing_requirements"`
}

// Suitability is the coarse verdict for the selected product.
type Suitability string

const (
	Suitable    Suitability = "suitable"
	Partial     Suitability = "partial"
	NotSuitable Suitability = "not_suitable"
)

func (s Suitability) String() string { return string(s) }

// RejectedCandidate describes a scored product that was not selected.
type RejectedCandidate struct {
	ProductName string  `json:"product_name"`
	MatchScore  float64 `json:"match_score"`
	Reason      string  `json:"reason"`
}

// TestCost is an entry of the pricing-test catalog.
type TestCost struct {
	TestName    string  `json:"test_name" mapstructure:"test_name" validate:"required"`
	Cost        float64 `json:"cost" mapstructure:"cost" validate:"gte=0"`
	Description string  `json:"description" mapstructure:"description"`
}

// Breakdown keys handed to the pricing explanation.
const (
	BreakdownBasePrice = "base_price"
	BreakdownTestCosts = "test_costs"
	BreakdownSubtotal  = "subtotal"
	BreakdownMarkup    = "markup"
	BreakdownTotal     = "total"
)

// PricingBreakdown is the cost computation for one product.
// Subtotal = BasePrice + TotalTestCost and
// TotalPrice = Subtotal * (1 + MarkupPercentage/100).
type PricingBreakdown struct {
	ProductID        string             `json:"product_id"`
	ProductName      string             `json:"product_name"`
	BasePrice        float64            `json:"base_price"`
	TestCosts        []TestCost         `json:"test_costs"`
	TotalTestCost    float64            `json:"total_test_cost"`
	Subtotal         float64            `json:"subtotal"`
	MarkupPercentage float64            `json:"markup_percentage"`
	MarkupAmount     float64            `json:"markup_amount"`
	TotalPrice       float64            `json:"total_price"`
	Breakdown        map[string]float64 `json:"breakdown"`
}
