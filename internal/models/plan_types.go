package models

// TierLimits caps how many agents and tasks a tier may own. -1 means unlimited.
type TierLimits struct {
	Agents int `json:"agents"`
	Tasks  int `json:"tasks"`
}

// TierDefinition is one row of the static tier table. It is not user data.
type TierDefinition struct {
	Name         Tier       `json:"name"`
	MonthlyPrice float64    `json:"monthlyPrice"`
	YearlyPrice  float64    `json:"yearlyPrice"`
	Tokens       int        `json:"tokens"` // monthly allotment, -1 = unlimited
	Limits       TierLimits `json:"limits"`
}

// Unlimited is the limits sentinel shared by agents, tasks and tokens.
const Unlimited = -1
