package domain

import "github.com/shopspring/decimal"

// ProjectionOverview is a projection as shown on the dashboard
type ProjectionOverview struct {
	*ProjectionResult
	ProjectedNet decimal.Decimal `json:"projectedNet"`
	// Shortfall is set when projected expenses exceed projected income
	Shortfall bool `json:"shortfall"`
}

// NewProjectionOverview derives the dashboard view of p
func NewProjectionOverview(p *ProjectionResult) *ProjectionOverview {
	net := p.Net()
	return &ProjectionOverview{
		ProjectionResult: p,
		ProjectedNet:     net,
		Shortfall:        net.IsNegative(),
	}
}
