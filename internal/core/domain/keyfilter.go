package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// KeyRule matches local keys that must never trigger a push.
type KeyRule interface {
	// Matches reports whether the key is covered by the rule.
	Matches(key string) bool

	// String describes the rule for diagnostics.
	String() string
}

// ExactRule matches one key exactly.
type ExactRule string

// Matches reports whether key equals the rule.
func (r ExactRule) Matches(key string) bool { return key == string(r) }

func (r ExactRule) String() string { return "exact:" + string(r) }

// PrefixRule matches every key starting with the prefix.
type PrefixRule string

// Matches reports whether key starts with the prefix.
func (r PrefixRule) Matches(key string) bool { return strings.HasPrefix(key, string(r)) }

func (r PrefixRule) String() string { return "prefix:" + string(r) }

// PatternRule matches keys against a regular expression.
type PatternRule struct {
	re *regexp.Regexp
}

// NewPatternRule compiles expr into a rule.
func NewPatternRule(expr string) (PatternRule, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return PatternRule{}, fmt.Errorf("%w: pattern %q: %v", ErrInvalidInput, expr, err)
	}
	return PatternRule{re: re}, nil
}

// MustPatternRule is like NewPatternRule but panics on a bad expression.
// Use only for compile-time constant patterns.
func MustPatternRule(expr string) PatternRule {
	r, err := NewPatternRule(expr)
	if err != nil {
		panic(err)
	}
	return r
}

// Matches reports whether the pattern matches key.
func (r PatternRule) Matches(key string) bool {
	return r.re != nil && r.re.MatchString(key)
}

func (r PatternRule) String() string {
	if r.re == nil {
		return "pattern:"
	}
	return "pattern:" + r.re.String()
}

// KeyFilter is an ordered set of deny rules.
type KeyFilter struct {
	rules []KeyRule
}

// NewKeyFilter creates a filter from the given rules.
func NewKeyFilter(rules ...KeyRule) *KeyFilter {
	return &KeyFilter{rules: append([]KeyRule(nil), rules...)}
}

// DefaultDenyList returns the built-in high-frequency and non-transferable keys.
func DefaultDenyList() *KeyFilter {
	return NewKeyFilter(
		ExactRule(PrefixSettings+"playback_speed"),
		ExactRule(PrefixSettings+"player_brightness"),
		MustPatternRule(`^result_season/`),
		MustPatternRule(`^result_episode/`),
		MustPatternRule(`^download_header_cache/`),
		MustPatternRule(`^download_episode_cache/`),
	)
}

// With returns a new filter with extra rules appended.
func (f *KeyFilter) With(rules ...KeyRule) *KeyFilter {
	if f == nil {
		return NewKeyFilter(rules...)
	}
	out := make([]KeyRule, 0, len(f.rules)+len(rules))
	out = append(out, f.rules...)
	out = append(out, rules...)
	return &KeyFilter{rules: out}
}

// Match returns the first rule matching key.
func (f *KeyFilter) Match(key string) (KeyRule, bool) {
	if f == nil {
		return nil, false
	}
	for _, r := range f.rules {
		if r.Matches(key) {
			return r, true
		}
	}
	return nil, false
}

// Denies reports whether any rule matches key.
func (f *KeyFilter) Denies(key string) bool {
	_, ok := f.Match(key)
	return ok
}

// Rules returns a copy of the configured rules.
func (f *KeyFilter) Rules() []KeyRule {
	if f == nil {
		return nil
	}
	return append([]KeyRule(nil), f.rules...)
}

// SkipReason explains why a local mutation did not schedule a push.
// The empty reason means the mutation is eligible.
type SkipReason string

// Skip reasons, in evaluation order.
const (
	SkipNone      SkipReason = ""
	SkipNotReady  SkipReason = "not_ready"
	SkipUnchanged SkipReason = "unchanged"
	SkipInternal  SkipReason = "sync_internal"
	SkipLocalOnly SkipReason = "local_only"
	SkipDenied    SkipReason = "denied"
)

// PushEligibility is the per-mutation predicate used by the change throttler.
type PushEligibility struct {
	Deny *KeyFilter
}

// Check evaluates one mutation. ready reports whether a remote connection is usable.
func (p PushEligibility) Check(ready bool, c KeyChange) SkipReason {
	switch {
	case !ready:
		return SkipNotReady
	case !c.Changed():
		return SkipUnchanged
	case IsSyncInternal(c.Key):
		return SkipInternal
	case IsLocalOnly(c.Key):
		return SkipLocalOnly
	case p.Deny.Denies(c.Key):
		return SkipDenied
	default:
		return SkipNone
	}
}
