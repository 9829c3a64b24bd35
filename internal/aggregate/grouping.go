package aggregate

import (
	"sort"

	"protocolLens/internal/model"
)

// GroupKind selects how protocols are folded into groups.
type GroupKind string

const (
	GroupByProtocol GroupKind = "protocol"
	GroupByCategory GroupKind = "category"
	GroupByChain    GroupKind = "chain"
	GroupByTotal    GroupKind = "total"
)

// TotalGroup is the single group name used by TotalMarket.
const TotalGroup = "total"

// Grouping maps group names to the protocols summed into them.
type Grouping struct {
	Kind   GroupKind
	Groups []model.Group
}

// ByProtocol puts every protocol in a group of its own.
func ByProtocol(protocols []string) Grouping {
	groups := make([]model.Group, 0, len(protocols))
	for _, p := range protocols {
		key := model.NormalizeKey(p)
		groups = append(groups, model.Group{Name: key, Protocols: []string{key}})
	}
	return Grouping{Kind: GroupByProtocol, Groups: groups}
}

// ByCategory groups protocols by taxonomy category.
func ByCategory(tax model.Taxonomy) Grouping {
	return Grouping{Kind: GroupByCategory, Groups: tax.Categories}
}

// ByChain groups protocols by chain.
func ByChain(tax model.Taxonomy) Grouping {
	return Grouping{Kind: GroupByChain, Groups: tax.Chains}
}

// TotalMarket is one group holding the whole universe.
func TotalMarket(universe []string) Grouping {
	return Grouping{Kind: GroupByTotal, Groups: []model.Group{{Name: TotalGroup, Protocols: universe}}}
}

// NewGrouping builds the grouping of a kind.
func NewGrouping(kind GroupKind, tax model.Taxonomy, universe []string) Grouping {
	switch kind {
	case GroupByCategory:
		return ByCategory(tax)
	case GroupByChain:
		return ByChain(tax)
	case GroupByTotal:
		return TotalMarket(universe)
	default:
		return ByProtocol(universe)
	}
}

// Names returns the group names in grouping order.
func (g Grouping) Names() []string {
	names := make([]string, 0, len(g.Groups))
	for _, group := range g.Groups {
		names = append(names, group.Name)
	}
	return names
}

// Universe returns the normalized protocol list the engine works over: the
// configured list when given, otherwise every protocol seen in the records.
func Universe(records []model.DailyRecord, configured []string) []string {
	if len(configured) == 0 {
		return model.ProtocolKeys(records)
	}
	set := make(map[string]struct{}, len(configured))
	out := make([]string, 0, len(configured))
	for _, p := range configured {
		key := model.NormalizeKey(p)
		if key == "" {
			continue
		}
		if _, ok := set[key]; ok {
			continue
		}
		set[key] = struct{}{}
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
