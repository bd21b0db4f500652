package billing

// Band is the presentation hint for a usage level. Bands signal, they
// never block: enforcement is the caller's responsibility.
type Band string

const (
	BandNormal   Band = "normal"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
)

// DimensionUsage reports consumption of one plan dimension
type DimensionUsage struct {
	Current    int     `json:"current"`
	Limit      int     `json:"limit"`
	Percentage float64 `json:"percentage"`
	Band       Band    `json:"band"`
	OverLimit  bool    `json:"over_limit"`
}

// Usage reports consumption across all tracked dimensions
type Usage struct {
	Plan     string         `json:"plan"`
	Users    DimensionUsage `json:"users"`
	Sites    DimensionUsage `json:"sites"`
	APICalls DimensionUsage `json:"api_calls"`
}

// Counts holds the current counts per dimension
type Counts struct {
	Users    int
	Sites    int
	APICalls int
}

// ComputeUsage maps current counts against a plan's limits. Percentage
// is clamped to [0, 100]. An unlimited dimension (limit -1) always
// reports 0% in the normal band and is never over limit.
func ComputeUsage(plan Plan, counts Counts) Usage {
	return Usage{
		Plan:     plan.ID,
		Users:    computeDimension(counts.Users, plan.Limits.Users),
		Sites:    computeDimension(counts.Sites, plan.Limits.Sites),
		APICalls: computeDimension(counts.APICalls, plan.Limits.APICalls),
	}
}

func computeDimension(current, limit int) DimensionUsage {
	usage := DimensionUsage{
		Current: current,
		Limit:   limit,
		Band:    BandNormal,
	}

	if limit == Unlimited || limit == 0 {
		return usage
	}

	pct := float64(current) / float64(limit) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	usage.Percentage = pct
	usage.OverLimit = current > limit

	switch {
	case pct >= 90:
		usage.Band = BandCritical
	case pct >= 75:
		usage.Band = BandWarning
	}

	return usage
}
