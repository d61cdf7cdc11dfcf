package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/Zachacious/schemabridge/internal/converter"
	"github.com/Zachacious/schemabridge/internal/logger"
	"github.com/Zachacious/schemabridge/schema"
	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the project directory.
const FileName = ".schemabridge.yaml"

// ComponentResponse is a reusable response declared in the configuration.
type ComponentResponse struct {
	Description string       `yaml:"description"`
	Schema      *schema.Node `yaml:"schema"`
}

// Config describes the static part of the generated document and where the
// route table lives.
type Config struct {
	Info            *openapi3.Info               `yaml:"info"`
	Servers         openapi3.Servers             `yaml:"servers"`
	Tags            openapi3.Tags                `yaml:"tags"`
	SecuritySchemes map[string]interface{}       `yaml:"securitySchemes"`
	Schemas         map[string]*schema.Node      `yaml:"schemas"`
	Responses       map[string]ComponentResponse `yaml:"responses"`

	// Routes is the route table file, relative to the project directory.
	Routes string `yaml:"routes"`
	// Output is the default output file, relative to the working directory.
	Output string `yaml:"output"`

	projectPath string
}

// Load returns the defaults overlaid with <projectPath>/.schemabridge.yaml.
// A missing file is not an error.
func Load(projectPath string) (*Config, error) {
	cfg := &Config{
		Info: &openapi3.Info{Title: "API Documentation", Version: "1.0.0"},
		SecuritySchemes: map[string]interface{}{
			"bearerAuth": map[string]interface{}{
				"type":         "http",
				"scheme":       "bearer",
				"bearerFormat": "JWT",
			},
		},
		Routes:      "routes.yaml",
		Output:      "openapi.yaml",
		projectPath: projectPath,
	}

	configPath := filepath.Join(projectPath, FileName)
	data, err := os.ReadFile(configPath)
	if err == nil {
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, errors.WithHint(
				errors.Wrapf(unmarshalErr, "parsing %s", configPath),
				"check the YAML syntax and the schema node kinds",
			)
		}
		logger.Logger.Debugw("Configuration file loaded", "path", configPath)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "reading %s", configPath)
	} else {
		logger.Logger.Debugw("No configuration file, using defaults", "path", configPath)
	}

	if cfg.Info == nil || cfg.Info.Title == "" || cfg.Info.Version == "" {
		return nil, errors.WithHint(
			errors.Newf("%s: info.title and info.version are required", configPath),
			"set both fields or remove the info block to use the defaults",
		)
	}

	return cfg, nil
}

// RoutesPath resolves the route table file against the project directory.
func (c *Config) RoutesPath() string {
	if filepath.IsAbs(c.Routes) {
		return c.Routes
	}
	return filepath.Join(c.projectPath, c.Routes)
}

// Shell builds the static document that generated operations are merged into.
func (c *Config) Shell() *openapi3.T {
	info := *c.Info
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &info,
		Servers: append(openapi3.Servers(nil), c.Servers...),
		Tags:    append(openapi3.Tags(nil), c.Tags...),
		Components: &openapi3.Components{
			Schemas:         make(openapi3.Schemas, len(c.Schemas)),
			Responses:       make(openapi3.ResponseBodies, len(c.Responses)),
			SecuritySchemes: c.securitySchemes(),
		},
		Paths: openapi3.NewPaths(),
	}

	for name, node := range c.Schemas {
		doc.Components.Schemas[name] = openapi3.NewSchemaRef("", converter.Convert(node))
	}
	for name, r := range c.Responses {
		resp := openapi3.NewResponse().WithDescription(r.Description)
		if r.Schema != nil {
			resp = resp.WithJSONSchema(converter.Convert(r.Schema))
		}
		doc.Components.Responses[name] = &openapi3.ResponseRef{Value: resp}
	}

	return doc
}

// securitySchemes builds valid SecurityScheme objects from the generic map.
// Entries that are not mappings are skipped.
func (c *Config) securitySchemes() openapi3.SecuritySchemes {
	sanitized := make(openapi3.SecuritySchemes, len(c.SecuritySchemes))

	names := make([]string, 0, len(c.SecuritySchemes))
	for name := range c.SecuritySchemes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		schemeMap, ok := c.SecuritySchemes[name].(map[string]interface{})
		if !ok {
			logger.Logger.Warnw("Ignoring malformed security scheme", "name", name)
			continue
		}

		scheme := &openapi3.SecurityScheme{}
		if t, ok := schemeMap["type"].(string); ok {
			scheme.Type = t
		}
		if d, ok := schemeMap["description"].(string); ok {
			scheme.Description = d
		}
		if s, ok := schemeMap["scheme"].(string); ok {
			scheme.Scheme = s
		}
		if bf, ok := schemeMap["bearerFormat"].(string); ok {
			scheme.BearerFormat = bf
		}
		if in, ok := schemeMap["in"].(string); ok {
			scheme.In = in
		}
		if n, ok := schemeMap["name"].(string); ok {
			scheme.Name = n
		}

		sanitized[name] = &openapi3.SecuritySchemeRef{Value: scheme}
	}
	return sanitized
}
