package plans

import (
	"strings"

	"github.com/jobtrackr/jobtrackr/internal/pkg/env"
)

type PlanID string

const (
	PlanFree     PlanID = "free"
	PlanStandard PlanID = "standard"
	PlanPremium  PlanID = "premium"
)

// Unlimited marks a metered resource without a ceiling.
const Unlimited = -1

// Plan is an immutable catalog entry. Changing a plan's limits is an
// operational event requiring a deploy, not a data mutation.
type Plan struct {
	ID                 PlanID
	Name               string
	Price              int // monthly, whole currency units
	ApplicationsLimit  int
	AIGenerationsLimit int
	Features           []string
}

var catalog = map[PlanID]Plan{
	PlanFree: {
		ID:                 PlanFree,
		Name:               "Free",
		Price:              0,
		ApplicationsLimit:  5,
		AIGenerationsLimit: 10,
		Features: []string{
			"5 job applications per month",
			"10 AI resume generations",
			"Basic job tracking",
			"Email support",
		},
	},
	PlanStandard: {
		ID:                 PlanStandard,
		Name:               "Standard",
		Price:              29,
		ApplicationsLimit:  50,
		AIGenerationsLimit: 100,
		Features: []string{
			"50 job applications per month",
			"100 AI resume generations",
			"Advanced job tracking",
			"ATS integration",
			"Priority support",
		},
	},
	PlanPremium: {
		ID:                 PlanPremium,
		Name:               "Premium",
		Price:              79,
		ApplicationsLimit:  Unlimited,
		AIGenerationsLimit: Unlimited,
		Features: []string{
			"Unlimited job applications",
			"Unlimited AI generations",
			"Advanced analytics",
			"ATS auto-apply",
			"Dedicated support",
		},
	},
}

// GetPlan returns the catalog entry for id. Unknown or empty ids degrade to
// the free plan so a corrupted plan reference never blocks basic usage.
func GetPlan(id string) Plan {
	if p, ok := catalog[Normalize(id)]; ok {
		return p
	}
	return catalog[PlanFree]
}

// Normalize maps an arbitrary plan string onto a known PlanID, defaulting
// to free.
func Normalize(id string) PlanID {
	switch strings.ToLower(strings.TrimSpace(id)) {
	case string(PlanStandard):
		return PlanStandard
	case string(PlanPremium):
		return PlanPremium
	default:
		return PlanFree
	}
}

// StripePriceID resolves the external price reference configured for a plan.
func StripePriceID(id PlanID) string {
	switch id {
	case PlanStandard:
		return env.GetEnv("STRIPE_STANDARD_PRICE_ID", "")
	case PlanPremium:
		return env.GetEnv("STRIPE_PREMIUM_PRICE_ID", "")
	default:
		return env.GetEnv("STRIPE_FREE_PRICE_ID", "")
	}
}

// PlanForPriceID maps an external price reference back onto a catalog plan.
// Unknown references degrade to free.
func PlanForPriceID(priceID string) PlanID {
	switch strings.TrimSpace(priceID) {
	case "":
		return PlanFree
	case env.GetEnv("STRIPE_STANDARD_PRICE_ID", ""):
		return PlanStandard
	case env.GetEnv("STRIPE_PREMIUM_PRICE_ID", ""):
		return PlanPremium
	default:
		return PlanFree
	}
}

func rank(id PlanID) int {
	switch id {
	case PlanPremium:
		return 2
	case PlanStandard:
		return 1
	default:
		return 0
	}
}

// Outranks reports whether plan a sits above plan b in the tier ladder.
func Outranks(a, b string) bool {
	return rank(Normalize(a)) > rank(Normalize(b))
}
