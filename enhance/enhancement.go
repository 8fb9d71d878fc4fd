package enhance

// Category groups enhancements for pipeline ordering: safety rules run
// before performance rules, which run before everything else.
type Category string

const (
	CategorySafety      Category = "safety"
	CategoryPerformance Category = "performance"
	CategoryOther       Category = "other"
)

func categoryRank(c Category) int {
	switch c {
	case CategorySafety:
		return 0
	case CategoryPerformance:
		return 1
	default:
		return 2
	}
}

// Severity of a single detected issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Enhancement is the static catalog entry for one rule. Instances are
// created once at startup and never mutated.
type Enhancement struct {
	ID                   string
	Name                 string
	Description          string
	Category             Category
	Priority             int // higher = more urgent within a category
	RequiresConfirmation bool
	Tags                 []string
}

// Impact summarizes what applying a rule buys and costs. The three scores
// are fixed per-module constants reflecting the nature of the rule.
type Impact struct {
	RiskReduction          float64
	PerformanceImprovement float64
	ComplexityAdded        float64
	Description            string
}

// Issue is one risky construct found during analysis.
//
// Line is 1-based and advisory only: it is valid against the content as it
// was at analysis time, and insertions made by later Apply calls shift it.
type Issue struct {
	Severity       Severity
	Description    string
	Location       string
	Line           int
	Recommendation string
}

// Analysis is the outcome of running one module's analyzer. When Applicable
// is false the rest of the struct is the canonical zero no-op shape.
type Analysis struct {
	Applicable bool
	Confidence float64 // 0.0-1.0
	Issues     []Issue
	Impact     Impact
}

// ChangeType classifies one edit made by Apply.
type ChangeType string

const (
	ChangeAdded    ChangeType = "ADDED"
	ChangeModified ChangeType = "MODIFIED"
	ChangeWrapped  ChangeType = "WRAPPED"
)

// Change records one edit made to the script text.
type Change struct {
	Type     ChangeType
	Original string
	Modified string
	Line     int
	Reason   string
}

// Result is the outcome of one module's Apply. If Applied is false,
// ModifiedContent is the input content byte for byte.
type Result struct {
	Enhancement     *Enhancement
	Applied         bool
	ModifiedContent string
	Warnings        []string
	Changes         []Change
}
