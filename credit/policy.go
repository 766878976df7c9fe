/*
Package credit defines publisher goals and the credit-hour cap.

PURPOSE:
  Some logged time is "credit" rather than standard service: reports marked
  LDC, or reports carrying a tag flagged as credit. Credit counts toward the
  monthly goal only up to a limit; anything beyond it is surfaced as overage
  so the UI can warn instead of silently dropping time.

CAP RULES:
  Default limit:   half of the monthly goal (in minutes)
  Override:        OverrideCreditLimit + CustomLimitHours replaces the default
  No goal:         a publisher type without a monthly goal is not capped,
                   unless an override is configured

OUTPUT:
  Adjusted{Value, Credit, Standard, CreditOverage}
    Value         = Standard + min(Credit, cap)
    CreditOverage = max(0, Credit - cap)

EXAMPLE:
  policy := credit.Policy{GoalHours: 50}     // cap = 25h = 1500 minutes
  adj := policy.Apply(40*60, 30*60)
  // adj.Value = 65h, adj.CreditOverage = 5h

SEE ALSO:
  - report/adjusted.go: splits a month's reports into standard and credit
  - factory/preferences.go: JSON preferences -> Preferences
*/
package credit

import "github.com/shopspring/decimal"

// =============================================================================
// PUBLISHER TYPES & GOALS
// =============================================================================

type PublisherType string

const (
	Publisher        PublisherType = "publisher"
	RegularAuxiliary PublisherType = "regularAuxiliary"
	RegularPioneer   PublisherType = "regularPioneer"
	SpecialPioneer   PublisherType = "specialPioneer"
	CircuitOverseer  PublisherType = "circuitOverseer"
	Custom           PublisherType = "custom"
)

// Valid reports whether p is a known publisher type.
func (p PublisherType) Valid() bool {
	_, ok := DefaultGoals[p]
	return ok
}

// Goal is the hour target for a publisher type. AnnualHours is 0 when the
// type has no service-year goal.
type Goal struct {
	Hours       int
	AnnualHours int
}

// DefaultGoals are used unless Preferences.PublisherHours overrides them.
var DefaultGoals = map[PublisherType]Goal{
	Publisher:        {Hours: 0},
	RegularAuxiliary: {Hours: 30},
	RegularPioneer:   {Hours: 50, AnnualHours: 600},
	SpecialPioneer:   {Hours: 100, AnnualHours: 1200},
	CircuitOverseer:  {Hours: 0},
	Custom:           {Hours: 0},
}

// =============================================================================
// PREFERENCES - Read-only inputs from the preferences store
// =============================================================================

// Preferences mirrors the fields of the app's preferences store that the
// engine reads.
type Preferences struct {
	Publisher              PublisherType         `json:"publisher"`
	PublisherHours         map[PublisherType]int `json:"publisherHours,omitempty"`
	OverrideCreditLimit    bool                  `json:"overrideCreditLimit"`
	CustomCreditLimitHours float64               `json:"customCreditLimitHours"`
	TimeDisplayFormat      string                `json:"timeDisplayFormat,omitempty"`
}

// GoalHours returns the monthly goal for the configured publisher type.
func (p Preferences) GoalHours() int {
	if h, ok := p.PublisherHours[p.Publisher]; ok {
		return h
	}
	return DefaultGoals[p.Publisher].Hours
}

// AnnualGoalHours returns the service-year goal, 0 if none. A custom monthly
// goal on a type with an annual goal scales the annual goal to twelve months.
func (p Preferences) AnnualGoalHours() int {
	def := DefaultGoals[p.Publisher]
	if def.AnnualHours == 0 {
		return 0
	}
	if h, ok := p.PublisherHours[p.Publisher]; ok && h != def.Hours {
		return h * 12
	}
	return def.AnnualHours
}

// Policy derives the credit policy for these preferences.
func (p Preferences) Policy() Policy {
	return Policy{
		GoalHours:           p.GoalHours(),
		OverrideCreditLimit: p.OverrideCreditLimit,
		CustomLimitHours:    p.CustomCreditLimitHours,
	}
}

// =============================================================================
// POLICY - Credit cap
// =============================================================================

// Policy caps how much credit time counts toward GoalHours.
type Policy struct {
	GoalHours           int
	OverrideCreditLimit bool
	CustomLimitHours    float64
}

// Capped is false when there is no goal and no override.
func (p Policy) Capped() bool {
	return p.OverrideCreditLimit || p.GoalHours > 0
}

// LimitMinutes is the most credit time that counts toward the goal.
func (p Policy) LimitMinutes() int {
	if p.OverrideCreditLimit {
		return int(decimal.NewFromFloat(p.CustomLimitHours).Mul(decimal.NewFromInt(60)).Floor().IntPart())
	}
	return p.GoalHours * 60 / 2
}

// Adjusted splits a month's minutes into what counts toward the goal.
type Adjusted struct {
	Value         int `json:"value"`
	Credit        int `json:"credit"`
	Standard      int `json:"standard"`
	CreditOverage int `json:"creditOverage"`
}

// Apply caps credit minutes and reports the overage.
func (p Policy) Apply(standard, creditMinutes int) Adjusted {
	adj := Adjusted{Credit: creditMinutes, Standard: standard}

	counted := creditMinutes
	if p.Capped() {
		limit := p.LimitMinutes()
		if counted > limit {
			adj.CreditOverage = counted - limit
			counted = limit
		}
	}

	adj.Value = standard + counted
	return adj
}
