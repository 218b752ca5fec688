package triage

import "errors"

// ErrInvalidInput is returned by Evaluate when the symptom argument is not a
// mapping. This is the only error the engine produces; malformed values for
// individual symptoms are absorbed as "no signal".
var ErrInvalidInput = errors.New("triage: symptoms must be a mapping")

// Engine evaluates symptom records against an ordered rule table. It is a
// pure function over the table: no I/O, no logging, no mutation of input,
// safe for any number of concurrent callers.
type Engine struct {
	rules []Rule
}

// NewEngine creates an engine over the default PMSMA rule table.
func NewEngine() *Engine {
	e, err := NewEngineWithRules(DefaultRules)
	if err != nil {
		// the default table is validated by tests; a bad table is a
		// programming error, not a runtime condition
		panic(err)
	}
	return e
}

// NewEngineWithRules creates an engine over a custom rule table, validating
// it once up front. The table is treated as immutable thereafter.
func NewEngineWithRules(rules []Rule) (*Engine, error) {
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Engine{rules: cp}, nil
}

// Rules returns a copy of the engine's rule table.
func (e *Engine) Rules() []Rule {
	cp := make([]Rule, len(e.rules))
	copy(cp, e.rules)
	return cp
}

// Evaluate classifies a symptom record into a triage verdict.
//
// The input must be a symptom mapping (SymptomRecord or map[string]any);
// anything else returns ErrInvalidInput. Unknown keys are ignored, absent
// keys are "not present", and values that are not exactly the trigger's
// type and value never match, so partial or malformed upstream data degrades
// to a lower risk signal instead of failing the call.
//
// Scan semantics: rules are scanned in declared order. The first RED match
// returns immediately. The first YELLOW match is remembered but scanning
// continues, since a later RED must still override it. With no RED match
// the remembered YELLOW wins, otherwise the canonical GREEN verdict.
func (e *Engine) Evaluate(input any) (Verdict, error) {
	symptoms, ok := asRecord(input)
	if !ok {
		return Verdict{}, ErrInvalidInput
	}

	var yellow *Rule
	for i := range e.rules {
		r := &e.rules[i]
		if !matches(symptoms[r.Symptom], r.Trigger) {
			continue
		}
		switch r.Tier {
		case TierRed:
			// RED is unconditionally highest severity
			return Verdict{Tier: r.Tier, Action: r.Action, Reason: r.Reason}, nil
		case TierYellow:
			if yellow == nil {
				yellow = r
			}
		}
	}

	if yellow != nil {
		return Verdict{Tier: yellow.Tier, Action: yellow.Action, Reason: yellow.Reason}, nil
	}
	return GreenVerdict, nil
}

// asRecord coerces the evaluate argument to a SymptomRecord. A nil typed map
// is a valid (empty) record; an untyped nil or any non-mapping value is not.
func asRecord(input any) (SymptomRecord, bool) {
	switch v := input.(type) {
	case SymptomRecord:
		return v, true
	case map[string]any:
		return SymptomRecord(v), true
	default:
		return nil, false
	}
}

// matches tests strict typed equality between a reported value and a rule
// trigger. true and 1 and "true" are all distinct; nil never matches.
func matches(got any, trigger any) bool {
	switch want := trigger.(type) {
	case bool:
		b, ok := got.(bool)
		return ok && b == want
	case string:
		s, ok := got.(string)
		return ok && s == want
	default:
		return false
	}
}
