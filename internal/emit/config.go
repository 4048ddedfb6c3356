package emit

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind selects which artifact a document holds.
type Kind int

const (
	KindReflect Kind = iota + 1
	KindMeta
	KindEnumOstream
)

// Kinds lists every artifact kind in generation order.
var Kinds = []Kind{KindReflect, KindMeta, KindEnumOstream}

func (k Kind) String() string {
	switch k {
	case KindReflect:
		return "reflect"
	case KindMeta:
		return "meta"
	case KindEnumOstream:
		return "enum-ostream"
	default:
		return "unknown"
	}
}

// DefaultTarget is the target identifier used for guard derivation when an
// artifact goes to the console.
func (k Kind) DefaultTarget() string {
	return k.String() + ".hpp"
}

func (k Kind) guardSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(k.String(), "-", "_")) + "_HPP"
}

// ParseKind parses the String form of a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(s, k.String()) {
			return k, nil
		}
	}
	return 0, errors.Newf("unknown artifact kind %q", s)
}

// LabelStyle selects how enumerator labels are spelled by formatters.
type LabelStyle int

const (
	// LabelEnum spells "Color::RED".
	LabelEnum LabelStyle = iota
	// LabelFull spells "gfx::Color::RED".
	LabelFull
)

func (s LabelStyle) String() string {
	if s == LabelFull {
		return "full"
	}
	return "enum"
}

func ParseLabelStyle(s string) (LabelStyle, error) {
	switch strings.ToLower(s) {
	case "", "enum":
		return LabelEnum, nil
	case "full":
		return LabelFull, nil
	}
	return 0, errors.Newf("unknown label style %q", s)
}

// WrapperNaming selects how member-name wrapper identifiers are derived.
type WrapperNaming int

const (
	// WrapperQualified derives wrapper names from the full scope path, so
	// same-named classes under different scopes never collide.
	WrapperQualified WrapperNaming = iota
	// WrapperSimple derives wrapper names from the enclosing class's simple
	// name only.
	WrapperSimple
)

func (n WrapperNaming) String() string {
	if n == WrapperSimple {
		return "simple"
	}
	return "qualified"
}

func ParseWrapperNaming(s string) (WrapperNaming, error) {
	switch strings.ToLower(s) {
	case "", "qualified":
		return WrapperQualified, nil
	case "simple":
		return WrapperSimple, nil
	}
	return 0, errors.Newf("unknown wrapper naming %q", s)
}

// Config holds the emission flavors chosen for one generation run.
type Config struct {
	LabelStyle    LabelStyle
	WrapperNaming WrapperNaming
}

// Stats counts what an emitter produced.
type Stats struct {
	Classes      int // class specializations
	Enumerations int // enumeration formatters or name blocks
	Markers      int // member-existence markers
}

func (s *Stats) add(o Stats) {
	s.Classes += o.Classes
	s.Enumerations += o.Enumerations
	s.Markers += o.Markers
}
