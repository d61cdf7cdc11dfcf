// Package routefile reads route tables written in YAML.
//
// A file is a group: it may set a prefix, tags, auth and deprecated flags and
// holds routes and nested groups. Schemas are written as schema nodes.
//
//	prefix: /api
//	groups:
//	  - prefix: /users
//	    tags: [users]
//	    auth: true
//	    routes:
//	      - method: GET
//	        path: /:id
//	        params:
//	          kind: object
//	          properties:
//	            id: { kind: string, checks: [{ kind: uuid }] }
//	        responseDoc: UserDTO
package routefile

import (
	"os"
	"strings"

	"github.com/Zachacious/schemabridge/internal/converter"
	"github.com/Zachacious/schemabridge/internal/logger"
	"github.com/Zachacious/schemabridge/internal/model"
	"github.com/Zachacious/schemabridge/route"
	"github.com/Zachacious/schemabridge/schema"
	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

type responseEntry struct {
	// Ref names a component response, e.g. "Conflict".
	Ref         string       `yaml:"ref"`
	Description string       `yaml:"description"`
	Schema      *schema.Node `yaml:"schema"`
}

type routeEntry struct {
	Method      string                `yaml:"method"`
	Path        string                `yaml:"path"`
	Summary     string                `yaml:"summary"`
	Description string                `yaml:"description"`
	Tags        []string              `yaml:"tags"`
	Auth        bool                  `yaml:"auth"`
	Deprecated  bool                  `yaml:"deprecated"`
	Body        *schema.Node          `yaml:"body"`
	Query       *schema.Node          `yaml:"query"`
	Params      *schema.Node          `yaml:"params"`
	Response    *schema.Node          `yaml:"response"`
	ResponseDoc string                `yaml:"responseDoc"`
	Responses   map[int]responseEntry `yaml:"responses"`
}

type groupEntry struct {
	Prefix     string       `yaml:"prefix"`
	Tags       []string     `yaml:"tags"`
	Auth       bool         `yaml:"auth"`
	Deprecated bool         `yaml:"deprecated"`
	Routes     []routeEntry `yaml:"routes"`
	Groups     []groupEntry `yaml:"groups"`
}

// Load reads the route table at path and returns its flattened declarations.
func Load(path string) ([]route.Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(
				errors.Wrapf(err, "reading route table"),
				"create the file or point 'routes' in the configuration at it",
			)
		}
		return nil, errors.Wrapf(err, "reading route table %s", path)
	}

	decls, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	logger.Logger.Debugw("Route table loaded", "path", path, "routes", len(decls))
	return decls, nil
}

// Parse decodes a route table document.
func Parse(data []byte) ([]route.Declaration, error) {
	var root groupEntry
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "decoding route table")
	}

	g, err := root.toGroup("")
	if err != nil {
		return nil, err
	}
	return g.Flatten(), nil
}

func (e groupEntry) toGroup(where string) (*route.Group, error) {
	where += e.Prefix
	g := route.NewGroup(e.Prefix).Tag(e.Tags...).Deprecate(e.Deprecated)
	if e.Auth {
		g.Secure()
	}

	for i, r := range e.Routes {
		decl, err := r.toDeclaration()
		if err != nil {
			return nil, errors.Wrapf(err, "route %d in group %q", i, where)
		}
		g.Routes = append(g.Routes, decl)
	}
	for _, child := range e.Groups {
		sub, err := child.toGroup(where)
		if err != nil {
			return nil, err
		}
		g.Sub(sub)
	}
	return g, nil
}

func (r routeEntry) toDeclaration() (route.Declaration, error) {
	method := strings.ToUpper(r.Method)
	switch method {
	case "GET", "POST", "PUT", "PATCH", "DELETE":
	default:
		return route.Declaration{}, errors.WithHint(
			errors.Newf("unsupported method %q", r.Method),
			"use one of GET, POST, PUT, PATCH, DELETE",
		)
	}
	if r.Response != nil && r.ResponseDoc != "" {
		return route.Declaration{}, errors.New("response and responseDoc are mutually exclusive")
	}

	b := route.New(method, r.Path).
		Summary(r.Summary).
		Description(r.Description).
		Tag(r.Tags...).
		Deprecate(r.Deprecated).
		Body(r.Body).
		Query(r.Query).
		Params(r.Params)
	if r.Auth {
		b.Auth()
	}

	switch {
	case r.Response != nil:
		b.Returns(r.Response)
	case r.ResponseDoc != "":
		b.ReturnsDoc(r.ResponseDoc)
	}

	for code, entry := range r.Responses {
		b.AddResponse(code, entry.toResponse())
	}
	return b.Build(), nil
}

func (e responseEntry) toResponse() *openapi3.ResponseRef {
	if e.Ref != "" {
		return &openapi3.ResponseRef{Ref: model.ResponseRef(e.Ref)}
	}
	resp := openapi3.NewResponse().WithDescription(e.Description)
	if e.Schema != nil {
		resp = resp.WithJSONSchema(converter.Convert(e.Schema))
	}
	return &openapi3.ResponseRef{Value: resp}
}
