package qc

import (
	"encoding/json"
	"strings"

	"qcgen/internal/errors"
)

// RuleID names one Westgard rule.
type RuleID string

const (
	Rule13s RuleID = "1-3s"
	Rule22s RuleID = "2-2s"
	RuleR4s RuleID = "R-4s"
	Rule31s RuleID = "3-1s"
	Rule41s RuleID = "4-1s"
	Rule7T  RuleID = "7-t"
	Rule10X RuleID = "10x"
)

var canonicalRules = [...]RuleID{Rule13s, Rule22s, RuleR4s, Rule31s, Rule41s, Rule7T, Rule10X}

// AllRules returns the seven rules in canonical report order.
func AllRules() []RuleID {
	out := make([]RuleID, len(canonicalRules))
	copy(out, canonicalRules[:])
	return out
}

func (id RuleID) String() string { return string(id) }

func (id RuleID) index() int {
	for i, r := range canonicalRules {
		if r == id {
			return i
		}
	}
	return -1
}

// Known reports whether id is one of the seven rules.
func (id RuleID) Known() bool { return id.index() >= 0 }

func normalizeRuleKey(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// ParseRuleID accepts canonical names and loose spellings like "13s", "r4s", "7T".
func ParseRuleID(s string) (RuleID, error) {
	key := normalizeRuleKey(s)
	for _, r := range canonicalRules {
		if normalizeRuleKey(string(r)) == key {
			return r, nil
		}
	}
	return "", errors.InvalidParameter("rules", "unknown Westgard rule %q", s)
}

// RuleSet is the enabled subset of rules, one bit per canonical position.
type RuleSet uint8

// AllRulesEnabled is the default configuration.
func AllRulesEnabled() RuleSet {
	return RuleSet(1<<len(canonicalRules) - 1)
}

// NewRuleSet enables exactly ids; unknown ids are ignored.
func NewRuleSet(ids ...RuleID) RuleSet {
	var s RuleSet
	for _, id := range ids {
		s = s.With(id)
	}
	return s
}

// ParseRuleSet reads a comma-separated list. "all" enables every rule and
// "none" or an empty string enables nothing.
func ParseRuleSet(s string) (RuleSet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return AllRulesEnabled(), nil
	case "", "none":
		return 0, nil
	}
	var set RuleSet
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := ParseRuleID(part)
		if err != nil {
			return 0, err
		}
		set = set.With(id)
	}
	return set, nil
}

func (s RuleSet) Enabled(id RuleID) bool {
	i := id.index()
	return i >= 0 && s&(1<<i) != 0
}

func (s RuleSet) With(id RuleID) RuleSet {
	if i := id.index(); i >= 0 {
		return s | 1<<i
	}
	return s
}

func (s RuleSet) Without(id RuleID) RuleSet {
	if i := id.index(); i >= 0 {
		return s &^ (1 << i)
	}
	return s
}

// IDs lists the enabled rules in canonical order.
func (s RuleSet) IDs() []RuleID {
	ids := make([]RuleID, 0, len(canonicalRules))
	for _, r := range canonicalRules {
		if s.Enabled(r) {
			ids = append(ids, r)
		}
	}
	return ids
}

func (s RuleSet) String() string {
	ids := s.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ",")
}

func (s RuleSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

func (s *RuleSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return errors.ParseFailure("rules", string(data), err)
	}
	var set RuleSet
	for _, name := range names {
		id, err := ParseRuleID(name)
		if err != nil {
			return err
		}
		set = set.With(id)
	}
	*s = set
	return nil
}
