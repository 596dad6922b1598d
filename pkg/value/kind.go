package value

import (
	"strings"
)

// Kind is a set of value kinds. A single-bit Kind names one kind; unions
// describe every kind an expression or parameter may carry.
type Kind uint16

const (
	KindBytes Kind = 1 << iota
	KindInteger
	KindFloat
	KindBoolean
	KindTimestamp
	KindRegex
	KindNull
	KindArray
	KindObject

	KindNever Kind = 0
	KindAny   Kind = KindBytes | KindInteger | KindFloat | KindBoolean |
		KindTimestamp | KindRegex | KindNull | KindArray | KindObject

	KindNumber = KindInteger | KindFloat
)

var kindNames = []struct {
	kind Kind
	name string
}{
	{KindBytes, "bytes"},
	{KindInteger, "integer"},
	{KindFloat, "float"},
	{KindBoolean, "boolean"},
	{KindTimestamp, "timestamp"},
	{KindRegex, "regex"},
	{KindNull, "null"},
	{KindArray, "array"},
	{KindObject, "object"},
}

// Contains reports whether every kind in other is also in k.
func (k Kind) Contains(other Kind) bool {
	return k&other == other
}

// Intersects reports whether k and other share at least one kind.
func (k Kind) Intersects(other Kind) bool {
	return k&other != 0
}

func (k Kind) Union(other Kind) Kind {
	return k | other
}

func (k Kind) Intersect(other Kind) Kind {
	return k & other
}

func (k Kind) IsEmpty() bool {
	return k&KindAny == 0
}

// IsExact reports whether k names exactly one kind.
func (k Kind) IsExact() bool {
	k &= KindAny
	return k != 0 && k&(k-1) == 0
}

// Kinds splits k into its single-kind members, in declaration order.
func (k Kind) Kinds() []Kind {
	var kinds []Kind
	for _, kn := range kindNames {
		if k.Contains(kn.kind) {
			kinds = append(kinds, kn.kind)
		}
	}
	return kinds
}

func (k Kind) String() string {
	switch {
	case k.IsEmpty():
		return "never"
	case k&KindAny == KindAny:
		return "any"
	}
	var names []string
	for _, kn := range kindNames {
		if k.Contains(kn.kind) {
			names = append(names, kn.name)
		}
	}
	return strings.Join(names, " or ")
}

// ParseKind parses a single kind name as rendered by String.
func ParseKind(name string) (Kind, bool) {
	if name == "any" {
		return KindAny, true
	}
	for _, kn := range kindNames {
		if kn.name == name {
			return kn.kind, true
		}
	}
	return KindNever, false
}
