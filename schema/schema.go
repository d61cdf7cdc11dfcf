// Package schema describes request and response shapes as a tree of validation
// nodes. A tree is pure data: it is never used to validate instances, only
// converted into OpenAPI schemas by the generator.
package schema

import "regexp"

// Kind is the discriminant of a Node.
type Kind string

const (
	KindString       Kind = "string"
	KindNumber       Kind = "number"
	KindInteger      Kind = "integer"
	KindBoolean      Kind = "boolean"
	KindDate         Kind = "date"
	KindEnum         Kind = "enum"
	KindNativeEnum   Kind = "nativeEnum"
	KindLiteral      Kind = "literal"
	KindObject       Kind = "object"
	KindArray        Kind = "array"
	KindRecord       Kind = "record"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
	KindOptional     Kind = "optional"
	KindNullable     Kind = "nullable"
	KindDefault      Kind = "default"
	KindEffects      Kind = "effects"
	KindAny          Kind = "any"
	KindUnknown      Kind = "unknown"
	KindVoid         Kind = "void"
	KindUndefined    Kind = "undefined"
)

// CheckKind names one constraint in a string or number check chain.
type CheckKind string

const (
	CheckMin        CheckKind = "min"
	CheckMax        CheckKind = "max"
	CheckLength     CheckKind = "length"
	CheckEmail      CheckKind = "email"
	CheckURL        CheckKind = "url"
	CheckUUID       CheckKind = "uuid"
	CheckCUID       CheckKind = "cuid"
	CheckCUID2      CheckKind = "cuid2"
	CheckULID       CheckKind = "ulid"
	CheckRegex      CheckKind = "regex"
	CheckDateTime   CheckKind = "datetime"
	CheckDate       CheckKind = "date"
	CheckTime       CheckKind = "time"
	CheckIP         CheckKind = "ip"
	CheckInt        CheckKind = "int"
	CheckMultipleOf CheckKind = "multipleOf"
)

// Check is a single constraint. Value is used by length and numeric bounds,
// Exclusive only by numeric min/max, Pattern by regex and Version by ip.
type Check struct {
	Kind      CheckKind `yaml:"kind"`
	Value     float64   `yaml:"value,omitempty"`
	Exclusive bool      `yaml:"exclusive,omitempty"`
	Pattern   string    `yaml:"pattern,omitempty"`
	Version   string    `yaml:"version,omitempty"`
}

// UnknownKeys is an object's policy for keys it does not declare.
type UnknownKeys string

const (
	UnknownKeysStrip       UnknownKeys = "strip"
	UnknownKeysStrict      UnknownKeys = "strict"
	UnknownKeysPassthrough UnknownKeys = "passthrough"
)

// Property is one declared object key. Properties keep declaration order.
type Property struct {
	Name string
	Node *Node
}

// EnumMember is one key/value pair of a native enum mapping.
type EnumMember struct {
	Key   string
	Value any
}

// Node is one node of a schema tree. Only the fields relevant to Kind are set.
type Node struct {
	Kind        Kind
	Description string

	// string, number, integer
	Checks []Check

	// enum
	Values []string
	// nativeEnum
	Members []EnumMember
	// literal
	Literal any

	// object
	Properties  []Property
	UnknownKeys UnknownKeys

	// array
	Element  *Node
	MinItems *int
	MaxItems *int

	// record
	ValueType *Node

	// union
	Options []*Node
	// intersection
	Left  *Node
	Right *Node

	// optional, nullable, default, effects
	Inner *Node
	// DefaultValue produces the default of a default node. It may fail.
	DefaultValue func() (any, error)
}

// --- Constructors ---

func String() *Node    { return &Node{Kind: KindString} }
func Number() *Node    { return &Node{Kind: KindNumber} }
func Integer() *Node   { return &Node{Kind: KindInteger} }
func Boolean() *Node   { return &Node{Kind: KindBoolean} }
func Date() *Node      { return &Node{Kind: KindDate} }
func Any() *Node       { return &Node{Kind: KindAny} }
func Unknown() *Node   { return &Node{Kind: KindUnknown} }
func Void() *Node      { return &Node{Kind: KindVoid} }
func Undefined() *Node { return &Node{Kind: KindUndefined} }

func Enum(values ...string) *Node { return &Node{Kind: KindEnum, Values: values} }
func NativeEnum(members ...EnumMember) *Node {
	return &Node{Kind: KindNativeEnum, Members: members}
}
func Literal(v any) *Node { return &Node{Kind: KindLiteral, Literal: v} }

// Field pairs a property name with its node, for use with Object.
func Field(name string, node *Node) Property { return Property{Name: name, Node: node} }

func Object(props ...Property) *Node {
	return &Node{Kind: KindObject, Properties: props, UnknownKeys: UnknownKeysStrip}
}
func Array(element *Node) *Node          { return &Node{Kind: KindArray, Element: element} }
func Record(value *Node) *Node           { return &Node{Kind: KindRecord, ValueType: value} }
func Union(options ...*Node) *Node       { return &Node{Kind: KindUnion, Options: options} }
func Intersection(left, right *Node) *Node {
	return &Node{Kind: KindIntersection, Left: left, Right: right}
}

// Effects wraps inner in a transform or refinement. The wire shape is inner's.
func Effects(inner *Node) *Node { return &Node{Kind: KindEffects, Inner: inner} }

// --- Wrappers ---

func (n *Node) Optional() *Node { return &Node{Kind: KindOptional, Inner: n} }
func (n *Node) Nullable() *Node { return &Node{Kind: KindNullable, Inner: n} }

// Default wraps n with a constant default value.
func (n *Node) Default(v any) *Node {
	return n.DefaultFunc(func() (any, error) { return v, nil })
}

// DefaultFunc wraps n with a producer that is invoked at conversion time.
func (n *Node) DefaultFunc(fn func() (any, error)) *Node {
	return &Node{Kind: KindDefault, Inner: n, DefaultValue: fn}
}

func (n *Node) Describe(d string) *Node { n.Description = d; return n }

// --- Checks ---

func (n *Node) addCheck(c Check) *Node { n.Checks = append(n.Checks, c); return n }

// Min is a minimum length for strings, a minimum item count for arrays and an
// inclusive lower bound for numbers.
func (n *Node) Min(v float64) *Node {
	if n.Kind == KindArray {
		i := int(v)
		n.MinItems = &i
		return n
	}
	return n.addCheck(Check{Kind: CheckMin, Value: v})
}

// Max mirrors Min for upper bounds.
func (n *Node) Max(v float64) *Node {
	if n.Kind == KindArray {
		i := int(v)
		n.MaxItems = &i
		return n
	}
	return n.addCheck(Check{Kind: CheckMax, Value: v})
}

// Length fixes a string length, or both item bounds of an array.
func (n *Node) Length(v float64) *Node {
	if n.Kind == KindArray {
		return n.Min(v).Max(v)
	}
	return n.addCheck(Check{Kind: CheckLength, Value: v})
}

func (n *Node) Gte(v float64) *Node { return n.Min(v) }
func (n *Node) Lte(v float64) *Node { return n.Max(v) }
func (n *Node) Gt(v float64) *Node {
	return n.addCheck(Check{Kind: CheckMin, Value: v, Exclusive: true})
}
func (n *Node) Lt(v float64) *Node {
	return n.addCheck(Check{Kind: CheckMax, Value: v, Exclusive: true})
}
func (n *Node) Int() *Node                 { return n.addCheck(Check{Kind: CheckInt}) }
func (n *Node) MultipleOf(v float64) *Node { return n.addCheck(Check{Kind: CheckMultipleOf, Value: v}) }

func (n *Node) Email() *Node    { return n.addCheck(Check{Kind: CheckEmail}) }
func (n *Node) URL() *Node      { return n.addCheck(Check{Kind: CheckURL}) }
func (n *Node) UUID() *Node     { return n.addCheck(Check{Kind: CheckUUID}) }
func (n *Node) CUID() *Node     { return n.addCheck(Check{Kind: CheckCUID}) }
func (n *Node) CUID2() *Node    { return n.addCheck(Check{Kind: CheckCUID2}) }
func (n *Node) ULID() *Node     { return n.addCheck(Check{Kind: CheckULID}) }
func (n *Node) DateTime() *Node { return n.addCheck(Check{Kind: CheckDateTime}) }
func (n *Node) DateOnly() *Node { return n.addCheck(Check{Kind: CheckDate}) }
func (n *Node) TimeOnly() *Node { return n.addCheck(Check{Kind: CheckTime}) }

// IP accepts an optional version marker, "v4" or "v6".
func (n *Node) IP(version ...string) *Node {
	c := Check{Kind: CheckIP}
	if len(version) > 0 {
		c.Version = version[0]
	}
	return n.addCheck(c)
}

// Regex records the source text of re.
func (n *Node) Regex(re *regexp.Regexp) *Node {
	return n.addCheck(Check{Kind: CheckRegex, Pattern: re.String()})
}

// --- Object policies ---

func (n *Node) Strict() *Node      { n.UnknownKeys = UnknownKeysStrict; return n }
func (n *Node) Passthrough() *Node { n.UnknownKeys = UnknownKeysPassthrough; return n }
func (n *Node) Strip() *Node       { n.UnknownKeys = UnknownKeysStrip; return n }

// IsOptional reports whether n itself is an optional, nullable or default
// wrapper. Nested wrappers are not inspected.
func (n *Node) IsOptional() bool {
	if n == nil {
		return false
	}
	switch n.Kind {
	case KindOptional, KindNullable, KindDefault:
		return true
	}
	return false
}

// Shape returns the properties of the object beneath any effects, optional,
// nullable or default wrappers, or nil if n is not an object.
func (n *Node) Shape() []Property {
	for cur := n; cur != nil; cur = cur.Inner {
		switch cur.Kind {
		case KindObject:
			return cur.Properties
		case KindEffects, KindOptional, KindNullable, KindDefault:
			continue
		default:
			return nil
		}
	}
	return nil
}
