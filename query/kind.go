package query

// Kind enumerates the DSL nodes a Builder can render. Each kind carries its
// keyword and what to do when its body is empty.
type Kind uint8

const (
	// KindRoot renders its fragments as a bare object, {...}. Search
	// request bodies and index bodies use it.
	KindRoot Kind = iota

	// aggregations
	KindCardinality
	KindReverseNested
	KindNested
	KindTermsAggregation
	KindFilter
	KindAvg
	KindSum
	KindMin
	KindMax
	KindValueCount

	// queries
	KindMatchAll
	KindMatch
	KindTerm
	KindTerms
	KindRange
	KindExists
	KindBool

	numKinds
)

// EmptyPolicy says how a kind renders with no registered fragments.
type EmptyPolicy uint8

const (
	// EmptyObject renders {"keyword": {}}.
	EmptyObject EmptyPolicy = iota
	// RequireBody fails the render with ErrEmptyRequiredFragment.
	RequireBody
)

var kindTable = [numKinds]struct {
	keyword string
	empty   EmptyPolicy
}{
	KindRoot:             {"", EmptyObject},
	KindCardinality:      {"cardinality", RequireBody},
	KindReverseNested:    {"reverse_nested", EmptyObject},
	KindNested:           {"nested", RequireBody},
	KindTermsAggregation: {"terms", RequireBody},
	KindFilter:           {"filter", RequireBody},
	KindAvg:              {"avg", RequireBody},
	KindSum:              {"sum", RequireBody},
	KindMin:              {"min", RequireBody},
	KindMax:              {"max", RequireBody},
	KindValueCount:       {"value_count", RequireBody},
	KindMatchAll:         {"match_all", EmptyObject},
	KindMatch:            {"match", RequireBody},
	KindTerm:             {"term", RequireBody},
	KindTerms:            {"terms", RequireBody},
	KindRange:            {"range", RequireBody},
	KindExists:           {"exists", RequireBody},
	KindBool:             {"bool", EmptyObject},
}

// Keyword is the DSL key the kind's body is wrapped in.
func (k Kind) Keyword() string {
	if k >= numKinds {
		return ""
	}
	return kindTable[k].keyword
}

// EmptyPolicy reports how the kind handles an empty body.
func (k Kind) EmptyPolicy() EmptyPolicy {
	if k >= numKinds {
		return RequireBody
	}
	return kindTable[k].empty
}

func (k Kind) String() string {
	if k == KindRoot {
		return "root"
	}
	if kw := k.Keyword(); kw != "" {
		return kw
	}
	return "unknown"
}
