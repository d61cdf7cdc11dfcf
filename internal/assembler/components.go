package assembler

import (
	"github.com/Zachacious/schemabridge/internal/model"
	"github.com/getkin/kin-openapi/openapi3"
)

// DefaultComponents returns a fresh copy of the components every generated
// operation may reference: the error envelope, the shared 401/403 responses
// and the bearer security scheme.
func DefaultComponents() *openapi3.Components {
	errorSchema := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("message", openapi3.NewStringSchema()).
		WithPropertyRef("details", openapi3.NewSchemaRef("", openapi3.NewSchema().WithNullable())).
		WithRequired([]string{"success", "message"})

	errorRef := func() *openapi3.SchemaRef {
		return openapi3.NewSchemaRef(model.SchemaRef(model.ErrorSchema), nil)
	}

	return &openapi3.Components{
		Schemas: openapi3.Schemas{
			model.ErrorSchema: openapi3.NewSchemaRef("", errorSchema),
		},
		Responses: openapi3.ResponseBodies{
			model.UnauthorizedResp: &openapi3.ResponseRef{Value: openapi3.NewResponse().
				WithDescription("Authentication required").
				WithJSONSchemaRef(errorRef())},
			model.ForbiddenResp: &openapi3.ResponseRef{Value: openapi3.NewResponse().
				WithDescription("Insufficient permissions").
				WithJSONSchemaRef(errorRef())},
		},
		SecuritySchemes: openapi3.SecuritySchemes{
			model.BearerScheme: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
		},
	}
}
