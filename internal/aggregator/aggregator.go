// Package aggregator derives OpenAPI operations from route declarations.
package aggregator

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Zachacious/schemabridge/internal/assembler"
	"github.com/Zachacious/schemabridge/internal/converter"
	"github.com/Zachacious/schemabridge/internal/model"
	"github.com/Zachacious/schemabridge/route"
	"github.com/Zachacious/schemabridge/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

// DefaultTag is used for routes declared without tags.
const DefaultTag = "default"

// BuildDocument derives every operation in decls and assembles them into shell.
// The shell and the declarations are left untouched.
func BuildDocument(decls []route.Declaration, shell *openapi3.T) (*openapi3.T, error) {
	return assembler.BuildSpec(BuildModel(decls), shell)
}

// BuildModel derives one operation per declaration, in table order.
func BuildModel(decls []route.Declaration) *model.APIModel {
	m := &model.APIModel{Operations: make([]*model.Operation, 0, len(decls))}
	for _, d := range decls {
		m.Operations = append(m.Operations, BuildOperation(d))
	}
	return m
}

// BuildOperation derives the operation descriptor for a single declaration.
func BuildOperation(decl route.Declaration) *model.Operation {
	method := strings.ToLower(decl.Method)
	path := route.NormalizePath(decl.Path)

	op := openapi3.NewOperation()
	op.Summary = decl.Summary
	if op.Summary == "" {
		op.Summary = fmt.Sprintf("%s %s", strings.ToUpper(method), path)
	}
	op.Description = decl.Description
	if op.Description == "" {
		op.Description = op.Summary
	}
	op.Tags = append([]string(nil), decl.Tags...)
	if len(op.Tags) == 0 {
		op.Tags = []string{DefaultTag}
	}
	op.OperationID = OperationID(method, path)
	op.Deprecated = decl.Deprecated

	if decl.Auth {
		op.Security = openapi3.NewSecurityRequirements().
			With(openapi3.NewSecurityRequirement().Authenticate(model.BearerScheme))
	}

	if params := buildParameters(decl); len(params) > 0 {
		op.Parameters = params
	}

	if decl.Body != nil && acceptsBody(method) {
		body := openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchema(converter.Convert(decl.Body))
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	op.Responses = buildResponses(method, decl)

	return &model.Operation{HTTPMethod: method, FullPath: path, Spec: op}
}

// OperationID joins the lowercase method with the PascalCase path; a "{name}"
// segment becomes "ByName".
func OperationID(method, path string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			b.WriteString("By")
			b.WriteString(capitalize(seg[1 : len(seg)-1]))
			continue
		}
		b.WriteString(capitalize(seg))
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func acceptsBody(method string) bool {
	switch method {
	case "post", "put", "patch":
		return true
	}
	return false
}

func successStatus(method string) int {
	switch method {
	case "post":
		return 201
	case "delete":
		return 204
	}
	return 200
}

// buildParameters emits path parameters first, then query parameters, each in
// property declaration order.
func buildParameters(decl route.Declaration) openapi3.Parameters {
	var params openapi3.Parameters

	if decl.Params != nil {
		wire := converter.Convert(decl.Params)
		for _, name := range propertyOrder(decl.Params, wire) {
			prop := wire.Properties[name].Value
			p := openapi3.NewPathParameter(name).
				WithSchema(prop).
				WithDescription(prop.Description)
			params = append(params, &openapi3.ParameterRef{Value: p})
		}
	}

	if decl.Query != nil {
		wire := converter.Convert(decl.Query)
		for _, name := range propertyOrder(decl.Query, wire) {
			prop := wire.Properties[name].Value
			p := openapi3.NewQueryParameter(name).
				WithRequired(slices.Contains(wire.Required, name)).
				WithSchema(prop).
				WithDescription(prop.Description)
			params = append(params, &openapi3.ParameterRef{Value: p})
		}
	}

	return params
}

// propertyOrder lists the converted properties in the order the source object
// declared them. Shapes the source does not expose fall back to sorted names.
func propertyOrder(n *schema.Node, wire *openapi3.Schema) []string {
	names := make([]string, 0, len(wire.Properties))
	if shape := n.Shape(); shape != nil {
		for _, p := range shape {
			if _, ok := wire.Properties[p.Name]; ok {
				names = append(names, p.Name)
			}
		}
		return names
	}
	for name := range wire.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func buildResponses(method string, decl route.Declaration) *openapi3.Responses {
	responses := openapi3.NewResponsesWithCapacity(6)

	responses.Set(strconv.Itoa(successStatus(method)), &openapi3.ResponseRef{
		Value: successResponse(method, decl.Response),
	})

	if decl.Auth {
		responses.Set("401", &openapi3.ResponseRef{Ref: model.ResponseRef(model.UnauthorizedResp)})
		responses.Set("403", &openapi3.ResponseRef{Ref: model.ResponseRef(model.ForbiddenResp)})
	}
	if decl.Body != nil {
		responses.Set("422", errorResponse("Validation error"))
	}
	if decl.Params != nil {
		responses.Set("404", errorResponse("Resource not found"))
	}
	responses.Set("500", errorResponse("Internal server error"))

	for code, override := range decl.Responses {
		if override == nil {
			continue
		}
		responses.Set(strconv.Itoa(code), override)
	}
	return responses
}

func successResponse(method string, hint *route.ResponseHint) *openapi3.Response {
	switch {
	case method == "delete" && hint == nil:
		return openapi3.NewResponse().WithDescription("Resource deleted")
	case method == "delete":
		return openapi3.NewResponse().WithDescription("Resource deleted").WithJSONSchema(envelope(hint))
	case method == "post":
		return openapi3.NewResponse().WithDescription("Resource created").WithJSONSchema(envelope(hint))
	default:
		return openapi3.NewResponse().WithDescription("Successful response").WithJSONSchema(envelope(hint))
	}
}

// envelope wraps the payload as {success, data}. A placeholder hint documents
// nothing about the payload, so data stays an unconstrained object.
func envelope(hint *route.ResponseHint) *openapi3.Schema {
	data := openapi3.NewObjectSchema()
	if hint != nil && hint.Node != nil {
		data = converter.Convert(hint.Node)
	}
	return openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("data", data)
}

func errorResponse(description string) *openapi3.ResponseRef {
	return &openapi3.ResponseRef{
		Value: openapi3.NewResponse().
			WithDescription(description).
			WithJSONSchemaRef(openapi3.NewSchemaRef(model.SchemaRef(model.ErrorSchema), nil)),
	}
}
