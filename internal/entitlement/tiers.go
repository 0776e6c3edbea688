package entitlement

import (
	"sort"

	"github.com/01moynul/quillcraft-golang/internal/models"
)

// TierTable maps a tier name to its definition. It is read-only after startup.
type TierTable map[models.Tier]models.TierDefinition

// DefaultTiers returns the production tier table.
func DefaultTiers() TierTable {
	return TierTable{
		models.TierFree: {
			Name:         models.TierFree,
			MonthlyPrice: 0,
			YearlyPrice:  0,
			Tokens:       10000,
			Limits:       models.TierLimits{Agents: 1, Tasks: 10},
		},
		models.TierPro: {
			Name:         models.TierPro,
			MonthlyPrice: 29,
			YearlyPrice:  290,
			Tokens:       500000,
			Limits:       models.TierLimits{Agents: models.Unlimited, Tasks: models.Unlimited},
		},
	}
}

// Lookup returns the definition for tier.
func (t TierTable) Lookup(tier models.Tier) (models.TierDefinition, bool) {
	def, ok := t[tier]
	return def, ok
}

// List returns the definitions ordered by monthly price.
func (t TierTable) List() []models.TierDefinition {
	out := make([]models.TierDefinition, 0, len(t))
	for _, def := range t {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthlyPrice != out[j].MonthlyPrice {
			return out[i].MonthlyPrice < out[j].MonthlyPrice
		}
		return out[i].Name < out[j].Name
	})
	return out
}
