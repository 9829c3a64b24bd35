package model

import (
	"fmt"
	"sort"
)

// Group is a named set of protocol identifiers.
type Group struct {
	Name      string   `json:"name" mapstructure:"name"`
	Protocols []string `json:"protocols" mapstructure:"protocols"`
}

// Taxonomy partitions protocols into categories and chains. A protocol may
// appear in at most one category and at most one chain; protocols listed
// nowhere are left out of the roll-ups.
type Taxonomy struct {
	Categories []Group `json:"categories"`
	Chains     []Group `json:"chains"`
}

// NewGroups builds a name-sorted group list from a name -> protocols map.
func NewGroups(m map[string][]string) []Group {
	groups := make([]Group, 0, len(m))
	for name, protocols := range m {
		members := make([]string, 0, len(protocols))
		for _, p := range protocols {
			if key := NormalizeKey(p); key != "" {
				members = append(members, key)
			}
		}
		groups = append(groups, Group{Name: NormalizeKey(name), Protocols: members})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}

// Validate checks that group names are set and unique and that no protocol
// belongs to two groups of the same partition.
func (t Taxonomy) Validate() error {
	if err := validatePartition("category", t.Categories); err != nil {
		return err
	}
	return validatePartition("chain", t.Chains)
}

func validatePartition(kind string, groups []Group) error {
	names := make(map[string]struct{}, len(groups))
	owner := make(map[string]string)
	for _, g := range groups {
		if g.Name == "" {
			return fmt.Errorf("%s name is empty", kind)
		}
		if _, ok := names[g.Name]; ok {
			return fmt.Errorf("duplicate %s %q", kind, g.Name)
		}
		names[g.Name] = struct{}{}
		for _, p := range g.Protocols {
			key := NormalizeKey(p)
			if prev, ok := owner[key]; ok && prev != g.Name {
				return fmt.Errorf("protocol %q is in %s %q and %q", key, kind, prev, g.Name)
			}
			owner[key] = g.Name
		}
	}
	return nil
}

// CategoryOf returns the category a protocol belongs to.
func (t Taxonomy) CategoryOf(protocol string) (string, bool) {
	return groupOf(t.Categories, protocol)
}

// ChainOf returns the chain a protocol runs on.
func (t Taxonomy) ChainOf(protocol string) (string, bool) {
	return groupOf(t.Chains, protocol)
}

func groupOf(groups []Group, protocol string) (string, bool) {
	key := NormalizeKey(protocol)
	for _, g := range groups {
		for _, p := range g.Protocols {
			if NormalizeKey(p) == key {
				return g.Name, true
			}
		}
	}
	return "", false
}

// Protocols returns the sorted set of protocols named anywhere in the taxonomy.
func (t Taxonomy) Protocols() []string {
	set := make(map[string]struct{})
	for _, groups := range [][]Group{t.Categories, t.Chains} {
		for _, g := range groups {
			for _, p := range g.Protocols {
				set[NormalizeKey(p)] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
