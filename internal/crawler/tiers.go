package crawler

import (
	"fmt"
	"strings"
)

// TierClass tells the seed collector which upstream sub-protocol a ladder
// band uses: the top bands are served by a single unpaginated endpoint, the
// rest are paginated per division.
type TierClass int

// Tier classes.
const (
	TierClassHigh TierClass = iota
	TierClassLow
)

// Tier is a classified ladder band.
type Tier struct {
	Name  string
	Class TierClass
}

// Divisions are the per-tier division codes used by the paginated endpoint,
// strongest first.
var Divisions = []string{"I", "II", "III", "IV"}

var highTierNames = []string{"CHALLENGER", "GRANDMASTER", "MASTER"}

var lowTierNames = []string{"DIAMOND", "EMERALD", "PLATINUM", "GOLD", "SILVER", "BRONZE", "IRON"}

// ClassifyTier resolves a tier name into its classified form. Matching is
// case-insensitive; the returned name is uppercase-normalized.
func ClassifyTier(name string) (Tier, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for _, t := range highTierNames {
		if t == upper {
			return Tier{Name: upper, Class: TierClassHigh}, nil
		}
	}
	for _, t := range lowTierNames {
		if t == upper {
			return Tier{Name: upper, Class: TierClassLow}, nil
		}
	}
	return Tier{}, fmt.Errorf("unknown tier %q", name)
}

// AllTiers returns every ladder band, highest first.
func AllTiers() []Tier {
	tiers := make([]Tier, 0, len(highTierNames)+len(lowTierNames))
	for _, name := range highTierNames {
		tiers = append(tiers, Tier{Name: name, Class: TierClassHigh})
	}
	for _, name := range lowTierNames {
		tiers = append(tiers, Tier{Name: name, Class: TierClassLow})
	}
	return tiers
}

// ParseTiers expands CLI tier arguments into classified tiers. The literal
// "all" (alone or among other names) selects every band. Duplicates are
// collapsed; unknown names are rejected.
func ParseTiers(args []string) ([]Tier, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one tier name is required")
	}
	for _, arg := range args {
		if strings.EqualFold(strings.TrimSpace(arg), "all") {
			return AllTiers(), nil
		}
	}
	seen := make(map[string]struct{}, len(args))
	tiers := make([]Tier, 0, len(args))
	for _, arg := range args {
		tier, err := ClassifyTier(arg)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[tier.Name]; dup {
			continue
		}
		seen[tier.Name] = struct{}{}
		tiers = append(tiers, tier)
	}
	return tiers, nil
}
