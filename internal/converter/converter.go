// Package converter turns schema.Node trees into OpenAPI schema definitions.
package converter

import (
	"reflect"

	"github.com/Zachacious/schemabridge/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

// Convert is the main entry point for creating a schema from a node. It never
// fails: a nil node or one without a kind becomes an unconstrained object and
// an unrecognized kind becomes a plain string.
func Convert(n *schema.Node) *openapi3.Schema {
	if n == nil || n.Kind == "" {
		return openapi3.NewObjectSchema()
	}

	s := buildSchema(n)
	if n.Description != "" {
		s.Description = n.Description
	}
	return s
}

// ConvertRef wraps Convert for the places kin-openapi wants a *SchemaRef.
func ConvertRef(n *schema.Node) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("", Convert(n))
}

// buildSchema does the actual work of converting a node to a schema.
func buildSchema(n *schema.Node) *openapi3.Schema {
	switch n.Kind {
	case schema.KindString:
		return schemaForString(n)
	case schema.KindNumber, schema.KindInteger:
		return schemaForNumber(n)
	case schema.KindBoolean:
		return openapi3.NewBoolSchema()
	case schema.KindDate:
		return openapi3.NewDateTimeSchema()
	case schema.KindEnum:
		values := make([]any, len(n.Values))
		for i, v := range n.Values {
			values[i] = v
		}
		return openapi3.NewStringSchema().WithEnum(values...)
	case schema.KindNativeEnum:
		values := make([]any, len(n.Members))
		for i, m := range n.Members {
			values[i] = m.Value
		}
		return openapi3.NewStringSchema().WithEnum(values...)
	case schema.KindLiteral:
		return &openapi3.Schema{
			Type: &openapi3.Types{literalType(n.Literal)},
			Enum: []any{n.Literal},
		}
	case schema.KindObject:
		return schemaForObject(n)
	case schema.KindArray:
		s := openapi3.NewArraySchema()
		s.Items = ConvertRef(n.Element)
		if n.MinItems != nil {
			s.WithMinItems(int64(*n.MinItems))
		}
		if n.MaxItems != nil {
			s.WithMaxItems(int64(*n.MaxItems))
		}
		return s
	case schema.KindRecord:
		return openapi3.NewObjectSchema().WithAdditionalProperties(Convert(n.ValueType))
	case schema.KindOptional, schema.KindEffects:
		return Convert(n.Inner)
	case schema.KindNullable:
		return Convert(n.Inner).WithNullable()
	case schema.KindDefault:
		s := Convert(n.Inner)
		if v, ok := evalDefault(n.DefaultValue); ok {
			s.Default = v
		}
		return s
	case schema.KindUnion:
		s := openapi3.NewSchema()
		for _, opt := range n.Options {
			s.OneOf = append(s.OneOf, ConvertRef(opt))
		}
		return s
	case schema.KindIntersection:
		s := openapi3.NewSchema()
		s.AllOf = openapi3.SchemaRefs{ConvertRef(n.Left), ConvertRef(n.Right)}
		return s
	case schema.KindAny, schema.KindUnknown:
		return openapi3.NewSchema()
	case schema.KindVoid, schema.KindUndefined:
		return &openapi3.Schema{Type: &openapi3.Types{openapi3.TypeNull}}
	default:
		return openapi3.NewStringSchema()
	}
}

// schemaForString walks the check chain once; later checks of the same kind
// overwrite earlier ones.
func schemaForString(n *schema.Node) *openapi3.Schema {
	s := openapi3.NewStringSchema()
	for _, c := range n.Checks {
		switch c.Kind {
		case schema.CheckMin:
			s.WithMinLength(int64(c.Value))
		case schema.CheckMax:
			s.WithMaxLength(int64(c.Value))
		case schema.CheckLength:
			s.WithLength(int64(c.Value))
		case schema.CheckEmail:
			s.Format = "email"
		case schema.CheckURL:
			s.Format = "uri"
		case schema.CheckUUID:
			s.Format = "uuid"
		case schema.CheckCUID, schema.CheckCUID2:
			s.Format = "cuid"
		case schema.CheckULID:
			s.Format = "ulid"
		case schema.CheckRegex:
			s.Pattern = c.Pattern
		case schema.CheckDateTime:
			s.Format = "date-time"
		case schema.CheckDate:
			s.Format = "date"
		case schema.CheckTime:
			s.Format = "time"
		case schema.CheckIP:
			switch c.Version {
			case "v4":
				s.Format = "ipv4"
			case "v6":
				s.Format = "ipv6"
			default:
				s.Format = "ip"
			}
		}
	}
	return s
}

func schemaForNumber(n *schema.Node) *openapi3.Schema {
	s := openapi3.NewFloat64Schema()
	if n.Kind == schema.KindInteger {
		s = openapi3.NewIntegerSchema()
	}
	for _, c := range n.Checks {
		switch c.Kind {
		case schema.CheckMin:
			s.WithMin(c.Value).WithExclusiveMin(c.Exclusive)
		case schema.CheckMax:
			s.WithMax(c.Value).WithExclusiveMax(c.Exclusive)
		case schema.CheckInt:
			s.Type = &openapi3.Types{openapi3.TypeInteger}
		case schema.CheckMultipleOf:
			v := c.Value
			s.MultipleOf = &v
		}
	}
	return s
}

func schemaForObject(n *schema.Node) *openapi3.Schema {
	s := openapi3.NewObjectSchema()
	var required []string
	for _, p := range n.Properties {
		s.WithPropertyRef(p.Name, ConvertRef(p.Node))
		if !p.Node.IsOptional() {
			required = append(required, p.Name)
		}
	}
	if len(required) > 0 {
		s.Required = required
	}

	switch n.UnknownKeys {
	case schema.UnknownKeysPassthrough:
		s.WithAnyAdditionalProperties()
	case schema.UnknownKeysStrict:
		s.WithoutAdditionalProperties()
	}
	return s
}

// evalDefault invokes a default producer. Producer errors and panics both
// leave the default unset.
func evalDefault(fn func() (any, error)) (v any, ok bool) {
	if fn == nil {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			v, ok = nil, false
		}
	}()
	v, err := fn()
	if err != nil {
		return nil, false
	}
	return v, true
}

// literalType names the wire type of a literal value from its runtime type.
func literalType(v any) string {
	if v == nil {
		return openapi3.TypeObject
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.String:
		return openapi3.TypeString
	case reflect.Bool:
		return openapi3.TypeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return openapi3.TypeNumber
	case reflect.Slice, reflect.Array:
		return openapi3.TypeArray
	case reflect.Map, reflect.Struct, reflect.Pointer:
		return openapi3.TypeObject
	default:
		return openapi3.TypeString
	}
}
