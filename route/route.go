// Package route declares API endpoints for documentation. Declarations are
// static data: they are built once, usually next to the HTTP route table, and
// never mutated by the generator.
package route

import (
	"regexp"
	"strings"

	"github.com/Zachacious/schemabridge/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

// ResponseHint describes the success payload. Either Node is set, or the hint
// is a documentation-only Placeholder (e.g. the name of a handler's return type).
type ResponseHint struct {
	Node        *schema.Node
	Placeholder string
}

// Declaration is one API endpoint.
type Declaration struct {
	Method      string
	Path        string
	Summary     string
	Description string
	Tags        []string
	Auth        bool
	Deprecated  bool

	Body   *schema.Node
	Query  *schema.Node
	Params *schema.Node

	Response *ResponseHint
	// Responses are caller-supplied entries that replace computed ones.
	Responses map[int]*openapi3.ResponseRef
}

var expressParam = regexp.MustCompile(`:(\w+)`)

// NormalizePath rewrites Express-style ":name" segments to "{name}" and drops
// a trailing slash from any path other than the root.
func NormalizePath(path string) string {
	path = expressParam.ReplaceAllString(path, "{$1}")
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = path[:len(path)-1]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// --- Builder ---

type Builder struct {
	decl Declaration
}

func New(method, path string) *Builder {
	return &Builder{decl: Declaration{Method: method, Path: path}}
}

func GET(path string) *Builder    { return New("GET", path) }
func POST(path string) *Builder   { return New("POST", path) }
func PUT(path string) *Builder    { return New("PUT", path) }
func PATCH(path string) *Builder  { return New("PATCH", path) }
func DELETE(path string) *Builder { return New("DELETE", path) }

func (b *Builder) Summary(s string) *Builder        { b.decl.Summary = s; return b }
func (b *Builder) Description(d string) *Builder    { b.decl.Description = d; return b }
func (b *Builder) Tag(tags ...string) *Builder      { b.decl.Tags = append(b.decl.Tags, tags...); return b }
func (b *Builder) Auth() *Builder                   { b.decl.Auth = true; return b }
func (b *Builder) Deprecate(d bool) *Builder        { b.decl.Deprecated = d; return b }
func (b *Builder) Body(n *schema.Node) *Builder     { b.decl.Body = n; return b }
func (b *Builder) Query(n *schema.Node) *Builder    { b.decl.Query = n; return b }
func (b *Builder) Params(n *schema.Node) *Builder   { b.decl.Params = n; return b }
func (b *Builder) Returns(n *schema.Node) *Builder  { b.decl.Response = &ResponseHint{Node: n}; return b }
func (b *Builder) ReturnsDoc(name string) *Builder  { b.decl.Response = &ResponseHint{Placeholder: name}; return b }

// AddResponse registers an override for code. Overrides win over every
// computed response with the same code. A nil resp is ignored.
func (b *Builder) AddResponse(code int, resp *openapi3.ResponseRef) *Builder {
	if resp == nil {
		return b
	}
	if b.decl.Responses == nil {
		b.decl.Responses = make(map[int]*openapi3.ResponseRef)
	}
	b.decl.Responses[code] = resp
	return b
}

// Build returns the declaration. The builder can keep being used afterwards
// without affecting it.
func (b *Builder) Build() Declaration {
	d := b.decl
	d.Tags = append([]string(nil), b.decl.Tags...)
	if b.decl.Responses != nil {
		d.Responses = make(map[int]*openapi3.ResponseRef, len(b.decl.Responses))
		for code, resp := range b.decl.Responses {
			d.Responses[code] = resp
		}
	}
	return d
}
