package model

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// APIModel is the top-level container for every operation derived from a route table.
type APIModel struct {
	// Operations keep the order of the route table they were built from.
	Operations []*Operation
}

// Operation represents a single API endpoint (e.g., GET /users/{id}).
type Operation struct {
	// HTTPMethod is the lowercase HTTP method (get, post, put, patch, delete).
	HTTPMethod string
	// FullPath is the OpenAPI path template of the endpoint.
	FullPath string
	// Spec is the OpenAPI operation object of the endpoint.
	Spec *openapi3.Operation
}

// Key identifies the operation within a document.
func (op *Operation) Key() string {
	return op.HTTPMethod + " " + op.FullPath
}

// Names of the reusable components every generated document carries.
const (
	BearerScheme      = "bearerAuth"
	ErrorSchema       = "ErrorResponse"
	UnauthorizedResp  = "Unauthorized"
	ForbiddenResp     = "Forbidden"
	schemaRefPrefix   = "#/components/schemas/"
	responseRefPrefix = "#/components/responses/"
)

// SchemaRef returns the document-local reference to a component schema.
func SchemaRef(name string) string { return schemaRefPrefix + name }

// ResponseRef returns the document-local reference to a component response.
func ResponseRef(name string) string { return responseRefPrefix + name }
