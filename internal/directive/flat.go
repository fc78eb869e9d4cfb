package directive

import "github.com/lattice-tmpl/lattice/internal/ast"

// FlatKind tags one element of the flat directive list the tokenizer
// produces, before the builder pairs openers with their terminators.
type FlatKind int

const (
	FlatSpan FlatKind = iota
	FlatSubEsc
	FlatSubRaw
	FlatInclude
	FlatIf
	FlatElif
	FlatElse
	FlatSwitch
	FlatCase
	FlatDefault
	FlatForRangeExc
	FlatForRangeInc
	FlatForIter
	FlatWith
	FlatEnd
)

func (k FlatKind) String() string {
	switch k {
	case FlatSpan:
		return "span"
	case FlatSubEsc:
		return "sub_esc"
	case FlatSubRaw:
		return "sub_raw"
	case FlatInclude:
		return "include"
	case FlatIf:
		return "if"
	case FlatElif:
		return "elif"
	case FlatElse:
		return "else"
	case FlatSwitch:
		return "switch"
	case FlatCase:
		return "case"
	case FlatDefault:
		return "default"
	case FlatForRangeExc:
		return "for_range_exc"
	case FlatForRangeInc:
		return "for_range_inc"
	case FlatForIter:
		return "for_iter"
	case FlatWith:
		return "with"
	case FlatEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Flat is one element of the tokenizer's flat output list.
type Flat struct {
	Kind FlatKind
	Line int

	Text     string // span text, or include path
	Fallback string // include fallback path, "" if none

	Var string // for_* loop variable ("_" means anonymous)

	Expr   ast.Node // if/elif/switch/case/with expression
	Lo, Hi ast.Node // for_range_* bounds
}
