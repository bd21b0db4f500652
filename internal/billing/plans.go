package billing

// Unlimited is the sentinel limit value for an unmetered dimension
const Unlimited = -1

// PlanLimits holds the numeric caps for each tracked dimension.
// A value of -1 means unlimited.
type PlanLimits struct {
	Users    int `json:"users"`
	Sites    int `json:"sites"`
	APICalls int `json:"api_calls"`
}

// Plan represents a subscription plan
type Plan struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Price    int        `json:"price"`
	Interval string     `json:"interval"`
	Features []string   `json:"features"`
	Limits   PlanLimits `json:"limits"`
}

// Plans is the subscription plan catalog, keyed by plan ID
var Plans = map[string]Plan{
	"starter": {
		ID:       "starter",
		Name:     "Starter",
		Price:    29,
		Interval: "month",
		Features: []string{
			"Up to 5 team members",
			"Up to 10 sites",
			"Basic reporting",
			"Mobile app access",
			"Email support",
		},
		Limits: PlanLimits{Users: 5, Sites: 10, APICalls: 1000},
	},
	"professional": {
		ID:       "professional",
		Name:     "Professional",
		Price:    99,
		Interval: "month",
		Features: []string{
			"Up to 25 team members",
			"Unlimited sites",
			"Advanced analytics",
			"API access",
			"Priority support",
			"Custom integrations",
		},
		Limits: PlanLimits{Users: 25, Sites: Unlimited, APICalls: 10000},
	},
	"enterprise": {
		ID:       "enterprise",
		Name:     "Enterprise",
		Price:    299,
		Interval: "month",
		Features: []string{
			"Unlimited team members",
			"Unlimited sites",
			"White-label solution",
			"Custom integrations",
			"Dedicated support",
			"SLA guarantee",
			"Advanced security",
		},
		Limits: PlanLimits{Users: Unlimited, Sites: Unlimited, APICalls: 100000},
	},
}

// GetPlan looks up a plan by ID. Unknown or empty IDs fall back to the
// starter plan so an organization without a subscription still gets
// sensible limits.
func GetPlan(id string) Plan {
	if plan, ok := Plans[id]; ok {
		return plan
	}
	return Plans["starter"]
}
