package assembler

import (
	"maps"
	"strings"

	"dario.cat/mergo"
	"github.com/Zachacious/schemabridge/internal/model"
	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
)

// BuildSpec constructs the final openapi3.T document from the API model and a
// static document shell. The shell is copied, never modified, so one shell can
// back any number of concurrent builds.
func BuildSpec(apiModel *model.APIModel, shell *openapi3.T) (*openapi3.T, error) {
	// Initialize nested pointer fields to prevent nil pointer issues.
	spec := &openapi3.T{
		OpenAPI:    "3.0.3",
		Info:       &openapi3.Info{Title: "API Documentation", Version: "1.0.0"},
		Components: DefaultComponents(),
		Paths:      openapi3.NewPaths(),
	}

	if shell != nil {
		if err := applyShell(spec, shell); err != nil {
			return nil, err
		}
	}

	addOperationsToSpec(spec, apiModel)
	return spec, nil
}

func applyShell(spec, shell *openapi3.T) error {
	if shell.OpenAPI != "" {
		spec.OpenAPI = shell.OpenAPI
	}
	if shell.Info != nil {
		info := *shell.Info
		spec.Info = &info
	}
	spec.Servers = append(spec.Servers, shell.Servers...)
	spec.Tags = append(spec.Tags, shell.Tags...)
	spec.Security = append(spec.Security, shell.Security...)
	spec.ExternalDocs = shell.ExternalDocs
	if len(shell.Extensions) > 0 {
		spec.Extensions = maps.Clone(shell.Extensions)
	}

	if shell.Components != nil {
		if err := mergeComponents(spec.Components, shell.Components); err != nil {
			return err
		}
	}

	// Static paths from the shell are kept; generated operations are added to them.
	for path, item := range shell.Paths.Map() {
		if item == nil {
			continue
		}
		copied := *item
		spec.Paths.Set(path, &copied)
	}
	return nil
}

// mergeComponents lays the shell's components over the built-in ones. A shell
// entry replaces the built-in entry of the same name as a whole.
func mergeComponents(dst, shell *openapi3.Components) error {
	maps.Copy(dst.Schemas, shell.Schemas)
	maps.Copy(dst.Responses, shell.Responses)
	maps.Copy(dst.SecuritySchemes, shell.SecuritySchemes)

	// The remaining sections have no built-in entries.
	rest := *shell
	rest.Schemas = nil
	rest.Responses = nil
	rest.SecuritySchemes = nil
	if err := mergo.Merge(dst, &rest, mergo.WithOverride); err != nil {
		return errors.Wrap(err, "merging shell components")
	}
	return nil
}

// addOperationsToSpec adds every operation to the specification's Paths,
// creating path items on demand.
func addOperationsToSpec(spec *openapi3.T, apiModel *model.APIModel) {
	if apiModel == nil {
		return
	}
	for _, op := range apiModel.Operations {
		pathItem := spec.Paths.Value(op.FullPath)
		if pathItem == nil {
			pathItem = &openapi3.PathItem{}
			spec.Paths.Set(op.FullPath, pathItem)
		}
		pathItem.SetOperation(strings.ToUpper(op.HTTPMethod), op.Spec)
	}
}
