// Package generate runs the document pipeline: load the configuration and the
// route table, derive operations, assemble the document and write it out.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/Zachacious/schemabridge/internal/aggregator"
	"github.com/Zachacious/schemabridge/internal/config"
	"github.com/Zachacious/schemabridge/internal/logger"
	"github.com/Zachacious/schemabridge/internal/routefile"
	"github.com/cockroachdb/errors"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoRoutes is returned when the route table declares no routes.
	ErrNoRoutes = errors.New("route table declares no routes")
	// ErrUnsupportedFormat is returned for output formats other than yaml and json.
	ErrUnsupportedFormat = errors.New("unsupported output format")
	// ErrOutOfDate is returned in check mode when the output file would change.
	ErrOutOfDate = errors.New("generated document is out of date")
)

const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

type Options struct {
	// ProjectPath is the directory holding .schemabridge.yaml.
	ProjectPath string
	// Output overrides the configured output file.
	Output string
	// Format is "yaml" or "json". Empty picks by the output file extension.
	Format string
	// Check compares instead of writing and fails when the file would change.
	Check bool
}

type Result struct {
	Document *openapi3.T
	Output   string
	Format   string
	// Wrote is false when the file already had the generated content.
	Wrote bool
}

// Run executes the full pipeline.
func Run(opts Options) (*Result, error) {
	cfg, err := config.Load(opts.ProjectPath)
	if err != nil {
		return nil, err
	}
	logger.Logger.Infow("Configuration loaded", "title", cfg.Info.Title, "version", cfg.Info.Version)

	routesPath := cfg.RoutesPath()
	decls, err := routefile.Load(routesPath)
	if err != nil {
		return nil, err
	}
	if len(decls) == 0 {
		return nil, errors.WithHint(
			errors.Wrapf(ErrNoRoutes, "%s", routesPath),
			"declare at least one route under 'routes' or 'groups'",
		)
	}
	logger.Logger.Infow("Route table loaded", "path", routesPath, "routes", len(decls))

	doc, err := aggregator.BuildDocument(decls, cfg.Shell())
	if err != nil {
		return nil, err
	}
	logger.Logger.Infow("Document assembled", "paths", doc.Paths.Len())

	output := opts.Output
	if output == "" {
		output = cfg.Output
	}
	format, err := resolveFormat(opts.Format, output)
	if err != nil {
		return nil, err
	}

	data, err := Marshal(doc, format)
	if err != nil {
		return nil, err
	}

	wrote, err := writeFile(output, data, opts.Check)
	if err != nil {
		return nil, err
	}
	if wrote {
		logger.Logger.Infow("Document written", "path", output, "format", format)
	} else {
		logger.Logger.Infow("Document unchanged", "path", output)
	}

	return &Result{Document: doc, Output: output, Format: format, Wrote: wrote}, nil
}

// Marshal encodes doc in the given format.
func Marshal(doc *openapi3.T, format string) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, errors.Wrap(err, "marshaling document to YAML")
		}
		if err := enc.Close(); err != nil {
			return nil, errors.Wrap(err, "marshaling document to YAML")
		}
		return buf.Bytes(), nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "marshaling document to JSON")
		}
		return append(data, '\n'), nil
	}
	return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
}

// Validate loads a written document, resolving references, and validates it.
func Validate(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "validating %s", path),
			"void and undefined schemas render as type null, which OpenAPI 3.0 validators reject",
		)
	}
	return doc, nil
}

func resolveFormat(format, output string) (string, error) {
	format = strings.ToLower(format)
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			return FormatJSON, nil
		default:
			return FormatYAML, nil
		}
	}
	switch format {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", errors.WithHint(
		errors.Wrapf(ErrUnsupportedFormat, "%q", format),
		"use yaml or json",
	)
}

// writeFile replaces path atomically. Identical content is left untouched; in
// check mode any difference is an error.
func writeFile(path string, data []byte, check bool) (bool, error) {
	existing, readErr := os.ReadFile(path)
	if readErr == nil {
		if bytes.Equal(existing, data) {
			return false, nil
		}
	} else if !os.IsNotExist(readErr) {
		return false, errors.Wrapf(readErr, "reading existing %s", path)
	}

	if check {
		return false, errors.WithHint(
			errors.Wrapf(ErrOutOfDate, "%s", path),
			"run schemabridge without --check to regenerate it",
		)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, errors.Wrapf(err, "creating directory for %s", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return false, errors.Wrapf(err, "writing %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, errors.Wrapf(err, "renaming %s", tmp)
	}
	return true, nil
}
