// Package filter selects which manifest entries a pass synchronizes, using
// rsync-style include/exclude rules over the entry's relative path.
package filter

import "strings"

// Rule is one include or exclude pattern.
type Rule struct {
	Include bool
	pattern *pattern
}

func (r Rule) String() string {
	if r.Include {
		return "+ " + r.pattern.String()
	}
	return "- " + r.pattern.String()
}

// Chain is an ordered rule list. The first rule that matches a path
// decides; paths no rule matches are kept.
type Chain struct {
	rules []Rule
}

// NewChain returns an empty chain.
func NewChain() *Chain {
	return &Chain{}
}

// AddExclude appends a rule dropping paths that match pattern.
func (c *Chain) AddExclude(pattern string) error {
	return c.add(pattern, false)
}

// AddInclude appends a rule keeping paths that match pattern.
func (c *Chain) AddInclude(pattern string) error {
	return c.add(pattern, true)
}

func (c *Chain) add(text string, include bool) error {
	p, err := compilePattern(text)
	if err != nil {
		return err
	}
	c.rules = append(c.rules, Rule{Include: include, pattern: p})
	return nil
}

// Rules returns the chain's rules in evaluation order.
func (c *Chain) Rules() []Rule {
	if c == nil {
		return nil
	}
	return append([]Rule(nil), c.rules...)
}

// Empty reports whether the chain has no rules.
func (c *Chain) Empty() bool {
	return c == nil || len(c.rules) == 0
}

// Match reports whether the manifest path p should be synchronized. A rule
// matching any parent directory of p applies to p.
func (c *Chain) Match(p string) bool {
	if c.Empty() {
		return true
	}
	rel := strings.TrimPrefix(p, "/")
	for _, r := range c.rules {
		if r.pattern.matchFile(rel) {
			return r.Include
		}
	}
	return true
}
