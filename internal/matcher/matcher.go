// Package matcher evaluates ordered, labelled name patterns. A pattern is
// either a shell glob or a regular expression; the first rule that matches a
// name wins.
package matcher

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// Kind selects how a rule pattern is interpreted.
type Kind int

const (
	// Regex patterns are unanchored regular expressions.
	Regex Kind = iota
	// Glob patterns use path.Match syntax and must match the whole name.
	Glob
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Regex:
		return "regex"
	case Glob:
		return "glob"
	default:
		return "unknown"
	}
}

// Rule maps a pattern to a label.
type Rule struct {
	Pattern string
	Label   string
}

type compiled struct {
	rule Rule
	re   *regexp.Regexp
	glob string
}

// Table is an ordered list of compiled rules. Matching is case-insensitive.
type Table struct {
	kind  Kind
	rules []compiled
}

// Compile builds a table of rules of one kind.
func Compile(kind Kind, rules []Rule) (*Table, error) {
	t := &Table{kind: kind, rules: make([]compiled, 0, len(rules))}
	for i, r := range rules {
		c := compiled{rule: r}
		switch kind {
		case Regex:
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, r.Pattern, err)
			}
			c.re = re
		case Glob:
			c.glob = strings.ToLower(r.Pattern)
			if _, err := path.Match(c.glob, ""); err != nil {
				return nil, fmt.Errorf("rule %d: invalid pattern %q: %w", i, r.Pattern, err)
			}
		default:
			return nil, fmt.Errorf("unsupported pattern kind %v", kind)
		}
		t.rules = append(t.rules, c)
	}
	return t, nil
}

// Lookup returns the label of the first rule matching name.
func (t *Table) Lookup(name string) (string, bool) {
	if i := t.Index(name); i >= 0 {
		return t.rules[i].rule.Label, true
	}
	return "", false
}

// Index returns the position of the first rule matching name, or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	lower := strings.ToLower(name)
	for i, c := range t.rules {
		if c.re != nil {
			if c.re.MatchString(name) {
				return i
			}
			continue
		}
		if ok, _ := path.Match(c.glob, lower); ok {
			return i
		}
	}
	return -1
}

// Kind returns the kind the table was compiled with.
func (t *Table) Kind() Kind { return t.kind }

// Len returns the number of rules.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rules)
}
