package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/goliatone/go-regioncascade/pkg/cascade"
	"github.com/goliatone/go-regioncascade/pkg/regionapi"
	"github.com/goliatone/go-regioncascade/pkg/testsupport"
)

// EmbeddedFixture selects the bundled sample tree.
const EmbeddedFixture = "embedded"

// Source builds the region source: the upstream API when configured,
// otherwise the fixture tree.
func (c Config) Source(ctx context.Context, logger *slog.Logger) (cascade.Source, error) {
	if !c.HasUpstream() {
		return c.fixture()
	}

	endpoints := regionapi.Endpoints{
		ChildrenURL:   c.Upstream.ChildrenURL,
		AncestorsURL:  c.Upstream.AncestorsURL,
		ParentParam:   c.Upstream.ParentParam,
		AncestorParam: c.Upstream.AncestorParam,
	}
	if c.Upstream.OpenAPI != "" {
		data, err := os.ReadFile(c.Upstream.OpenAPI)
		if err != nil {
			return nil, fmt.Errorf("config: read openapi: %w", err)
		}
		endpoints, err = regionapi.EndpointsFromOpenAPI(ctx, data, c.Upstream.ChildrenOperation, c.Upstream.AncestorsOperation)
		if err != nil {
			return nil, err
		}
	}

	fns := endpoints.Options()
	if c.Upstream.Timeout > 0 {
		fns = append(fns, regionapi.WithTimeout(c.Upstream.Timeout))
	}
	for key, value := range c.Upstream.Headers {
		fns = append(fns, regionapi.WithHeader(key, value))
	}
	if logger != nil {
		fns = append(fns, regionapi.WithLogger(logger))
	}
	client, err := regionapi.New(fns...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (c Config) fixture() (cascade.Source, error) {
	var (
		tree *testsupport.Tree
		err  error
	)
	if c.Fixture == "" || c.Fixture == EmbeddedFixture {
		tree, err = testsupport.DefaultTree()
	} else {
		tree, err = testsupport.LoadTreeFile(c.Fixture)
	}
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// ControllerOptions returns the cascade options derived from the
// configuration.
func (c Config) ControllerOptions(logger *slog.Logger) []cascade.OptionFn {
	fns := []cascade.OptionFn{cascade.WithLevelCodes(c.LevelCodes())}
	if c.Cascade.Placeholder != "" {
		fns = append(fns, cascade.WithPlaceholder(c.Cascade.Placeholder))
	}
	if c.Cascade.ErrorServerMessage != "" {
		fns = append(fns, cascade.WithErrorServerMessage(c.Cascade.ErrorServerMessage))
	}
	if c.Cascade.RootLevel != "" {
		fns = append(fns, cascade.WithRootLevel(c.Cascade.RootLevel))
	}
	if logger != nil {
		fns = append(fns, cascade.WithLogger(logger))
	}
	return fns
}
