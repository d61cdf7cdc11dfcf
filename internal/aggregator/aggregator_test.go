package aggregator

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/Zachacious/schemabridge/internal/model"
	"github.com/Zachacious/schemabridge/route"
	"github.com/Zachacious/schemabridge/schema"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responseCodes(op *openapi3.Operation) []string {
	codes := make([]string, 0, op.Responses.Len())
	for code := range op.Responses.Map() {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func userBody() *schema.Node {
	return schema.Object(
		schema.Field("email", schema.String().Email()),
		schema.Field("name", schema.String().Min(1).Optional()),
	)
}

func idParams() *schema.Node {
	return schema.Object(schema.Field("id", schema.String().UUID().Describe("User identifier")))
}

func TestOperationID(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   string
	}{
		{"GET", "/users/{id}/role", "getUsersByIdRole"},
		{"post", "/users", "postUsers"},
		{"DELETE", "/users/{userId}", "deleteUsersByUserId"},
		{"get", "/", "get"},
		{"patch", "/api/v1/order-items/{id}", "patchApiV1Order-itemsById"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, OperationID(tt.method, tt.path))
		})
	}
}

func TestBuildOperationDefaults(t *testing.T) {
	op := BuildOperation(route.GET("/users/:id/").Build())

	assert.Equal(t, "get", op.HTTPMethod)
	assert.Equal(t, "/users/{id}", op.FullPath)
	assert.Equal(t, "get /users/{id}", op.Key())
	assert.Equal(t, "GET /users/{id}", op.Spec.Summary)
	assert.Equal(t, op.Spec.Summary, op.Spec.Description)
	assert.Equal(t, []string{DefaultTag}, op.Spec.Tags)
	assert.Equal(t, "getUsersById", op.Spec.OperationID)
	assert.Nil(t, op.Spec.Security)
	assert.Nil(t, op.Spec.RequestBody)
	assert.Empty(t, op.Spec.Parameters)
	assert.False(t, op.Spec.Deprecated)
}

func TestBuildOperationMetadata(t *testing.T) {
	op := BuildOperation(route.PUT("/users/{id}").
		Summary("Replace user").
		Description("Replaces every field").
		Tag("users", "admin").
		Deprecate(true).
		Auth().
		Build())

	assert.Equal(t, "Replace user", op.Spec.Summary)
	assert.Equal(t, "Replaces every field", op.Spec.Description)
	assert.Equal(t, []string{"users", "admin"}, op.Spec.Tags)
	assert.True(t, op.Spec.Deprecated)

	require.NotNil(t, op.Spec.Security)
	require.Len(t, *op.Spec.Security, 1)
	scopes, ok := (*op.Spec.Security)[0][model.BearerScheme]
	require.True(t, ok)
	assert.Empty(t, scopes)
}

func TestBuildOperationResponseKeys(t *testing.T) {
	tests := []struct {
		name string
		decl route.Declaration
		want []string
	}{
		{
			name: "plain get",
			decl: route.GET("/health").Build(),
			want: []string{"200", "500"},
		},
		{
			name: "auth post with body",
			decl: route.POST("/users").Auth().Body(userBody()).Build(),
			want: []string{"201", "401", "403", "422", "500"},
		},
		{
			name: "auth patch with body",
			decl: route.PATCH("/users").Auth().Body(userBody()).Build(),
			want: []string{"200", "401", "403", "422", "500"},
		},
		{
			name: "auth delete with body",
			decl: route.DELETE("/users").Auth().Body(userBody()).Build(),
			want: []string{"204", "401", "403", "422", "500"},
		},
		{
			name: "params add 404",
			decl: route.GET("/users/{id}").Params(idParams()).Build(),
			want: []string{"200", "404", "500"},
		},
		{
			name: "override adds code",
			decl: route.POST("/users").Body(userBody()).
				AddResponse(409, &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Duplicate")}).
				Build(),
			want: []string{"201", "409", "422", "500"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := BuildOperation(tt.decl)
			assert.Equal(t, tt.want, responseCodes(op.Spec))
		})
	}
}

func TestBuildOperationAuthResponsesAreRefs(t *testing.T) {
	op := BuildOperation(route.GET("/me").Auth().Build())

	assert.Equal(t, "#/components/responses/Unauthorized", op.Spec.Responses.Value("401").Ref)
	assert.Equal(t, "#/components/responses/Forbidden", op.Spec.Responses.Value("403").Ref)

	internal := op.Spec.Responses.Value("500").Value
	require.NotNil(t, internal)
	assert.Equal(t, "Internal server error", *internal.Description)
	assert.Equal(t, "#/components/schemas/ErrorResponse", internal.Content.Get("application/json").Schema.Ref)
}

func TestBuildOperationOverrideReplacesComputed(t *testing.T) {
	override := &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Custom validation failure")}
	op := BuildOperation(route.GET("/search").AddResponse(422, override).Build())

	assert.Equal(t, []string{"200", "422", "500"}, responseCodes(op.Spec))
	assert.Same(t, override, op.Spec.Responses.Value("422"))
}

func TestBuildOperationOverrideReplacesValidationResponse(t *testing.T) {
	override := &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription("Malformed user payload")}
	op := BuildOperation(route.POST("/users").Body(userBody()).AddResponse(422, override).Build())

	assert.Equal(t, []string{"201", "422", "500"}, responseCodes(op.Spec))
	got := op.Spec.Responses.Value("422")
	assert.Same(t, override, got)
	assert.Equal(t, "Malformed user payload", *got.Value.Description)
	assert.Empty(t, got.Value.Content)
}

func TestBuildOperationSkipsNilOverride(t *testing.T) {
	decl := route.GET("/users/{id}").Params(idParams()).Build()
	decl.Responses = map[int]*openapi3.ResponseRef{404: nil, 410: nil}

	op := BuildOperation(decl)
	assert.Equal(t, []string{"200", "404", "500"}, responseCodes(op.Spec))
	require.NotNil(t, op.Spec.Responses.Value("404"))
	assert.Equal(t, "Resource not found", *op.Spec.Responses.Value("404").Value.Description)

	assert.NotPanics(t, func() {
		_, err := json.Marshal(op.Spec)
		require.NoError(t, err)
	})
}

func TestBuildOperationSuccessResponse(t *testing.T) {
	t.Run("delete without hint has no content", func(t *testing.T) {
		op := BuildOperation(route.DELETE("/users/{id}").Params(idParams()).Build())
		resp := op.Spec.Responses.Value("204").Value
		require.NotNil(t, resp)
		assert.Equal(t, "Resource deleted", *resp.Description)
		assert.Empty(t, resp.Content)
	})

	t.Run("delete with hint uses envelope", func(t *testing.T) {
		op := BuildOperation(route.DELETE("/users/{id}").Returns(schema.Boolean()).Build())
		resp := op.Spec.Responses.Value("204").Value
		require.NotNil(t, resp.Content.Get("application/json"))
		env := resp.Content.Get("application/json").Schema.Value
		assert.Equal(t, []string{"boolean"}, env.Properties["data"].Value.Type.Slice())
	})

	t.Run("post envelope", func(t *testing.T) {
		op := BuildOperation(route.POST("/users").Returns(schema.Object(schema.Field("id", schema.String()))).Build())
		resp := op.Spec.Responses.Value("201").Value
		assert.Equal(t, "Resource created", *resp.Description)

		raw, err := json.Marshal(resp.Content.Get("application/json").Schema.Value)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"type": "object",
			"properties": {
				"success": {"type": "boolean"},
				"data": {"type": "object", "properties": {"id": {"type": "string"}}, "required": ["id"]}
			}
		}`, string(raw))
	})

	t.Run("placeholder documents an object", func(t *testing.T) {
		op := BuildOperation(route.GET("/users").ReturnsDoc("[]UserDTO").Build())
		resp := op.Spec.Responses.Value("200").Value
		assert.Equal(t, "Successful response", *resp.Description)
		data := resp.Content.Get("application/json").Schema.Value.Properties["data"].Value
		assert.Equal(t, []string{"object"}, data.Type.Slice())
		assert.Empty(t, data.Properties)
	})

	t.Run("no hint documents an object", func(t *testing.T) {
		op := BuildOperation(route.GET("/users").Build())
		data := op.Spec.Responses.Value("200").Value.Content.Get("application/json").Schema.Value.Properties["data"].Value
		assert.Equal(t, []string{"object"}, data.Type.Slice())
	})
}

func TestBuildOperationParameters(t *testing.T) {
	query := schema.Object(
		schema.Field("sort", schema.Enum("asc", "desc").Default("asc")),
		schema.Field("page", schema.Number().Int().Min(1).Optional().Describe("Page number")),
		schema.Field("q", schema.String()),
	)
	params := schema.Object(
		schema.Field("orgId", schema.String()),
		schema.Field("id", schema.String().UUID().Describe("User identifier")),
	)

	op := BuildOperation(route.GET("/orgs/{orgId}/users/{id}").Query(query).Params(params).Build())

	type param struct {
		in       string
		name     string
		required bool
	}
	var got []param
	for _, p := range op.Spec.Parameters {
		got = append(got, param{p.Value.In, p.Value.Name, p.Value.Required})
	}
	assert.Equal(t, []param{
		{"path", "orgId", true},
		{"path", "id", true},
		{"query", "sort", false},
		{"query", "page", false},
		{"query", "q", true},
	}, got)

	id := op.Spec.Parameters[1].Value
	assert.Equal(t, "User identifier", id.Description)
	assert.Equal(t, "uuid", id.Schema.Value.Format)

	page := op.Spec.Parameters[3].Value
	assert.Equal(t, "Page number", page.Description)
	assert.Equal(t, []string{"integer"}, page.Schema.Value.Type.Slice())
}

func TestBuildOperationOptionalPathParamStaysRequired(t *testing.T) {
	params := schema.Object(schema.Field("id", schema.String().Optional()))
	op := BuildOperation(route.GET("/users/{id}").Params(params).Build())

	require.Len(t, op.Spec.Parameters, 1)
	assert.True(t, op.Spec.Parameters[0].Value.Required)
}

func TestBuildOperationRequestBody(t *testing.T) {
	tests := []struct {
		method   string
		wantBody bool
	}{
		{"POST", true},
		{"PUT", true},
		{"PATCH", true},
		{"GET", false},
		{"DELETE", false},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			op := BuildOperation(route.New(tt.method, "/users").Body(userBody()).Build())
			if !tt.wantBody {
				assert.Nil(t, op.Spec.RequestBody)
				return
			}
			require.NotNil(t, op.Spec.RequestBody)
			body := op.Spec.RequestBody.Value
			assert.True(t, body.Required)
			media := body.Content.Get("application/json")
			require.NotNil(t, media)
			assert.Equal(t, []string{"email"}, media.Schema.Value.Required)
		})
	}
}

func TestBuildDocument(t *testing.T) {
	decls := route.NewGroup("/users").Tag("users").Secure().Add(
		route.GET("/"),
		route.POST("/").Body(userBody()),
		route.GET("/:id").Params(idParams()),
	).Flatten()

	doc, err := BuildDocument(decls, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Paths.Len())
	users := doc.Paths.Value("/users")
	require.NotNil(t, users)
	assert.Equal(t, "getUsers", users.Get.OperationID)
	assert.Equal(t, "postUsers", users.Post.OperationID)
	assert.Equal(t, []string{"users"}, users.Get.Tags)
	assert.NotNil(t, users.Get.Security)
	assert.Equal(t, "getUsersById", doc.Paths.Value("/users/{id}").Get.OperationID)
	assert.Contains(t, doc.Components.SecuritySchemes, model.BearerScheme)
}

func TestBuildOperationDoesNotMutateDeclaration(t *testing.T) {
	decl := route.GET("/users/:id").Tag("users").Params(idParams()).Build()
	before := decl.Path

	op := BuildOperation(decl)
	op.Spec.Tags[0] = "changed"

	assert.Equal(t, before, decl.Path)
	assert.Equal(t, []string{"users"}, decl.Tags)
}
