package regionapi

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Endpoints holds the upstream URLs and their query parameter names.
type Endpoints struct {
	ChildrenURL   string
	AncestorsURL  string
	ParentParam   string
	AncestorParam string
}

// Options returns client options applying the endpoints. Empty parameter
// names keep the client defaults.
func (e Endpoints) Options() []OptionFn {
	fns := []OptionFn{WithEndpoints(e)}
	if e.ParentParam != "" {
		fns = append(fns, WithParentParam(e.ParentParam))
	}
	if e.AncestorParam != "" {
		fns = append(fns, WithAncestorParam(e.AncestorParam))
	}
	return fns
}

// EndpointsFromOpenAPI resolves the children and ancestors endpoints from an
// OpenAPI 3 document by operation id. URLs join the first server URL with the
// operation path; the first query parameter of each operation becomes its
// parameter name.
func EndpointsFromOpenAPI(ctx context.Context, data []byte, childrenOpID, ancestorsOpID string) (Endpoints, error) {
	if len(data) == 0 {
		return Endpoints{}, errors.New("regionapi: openapi document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return Endpoints{}, fmt.Errorf("regionapi: load openapi document: %w", err)
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return Endpoints{}, errors.New("regionapi: openapi document does not contain any paths")
	}

	base := ""
	if len(doc.Servers) > 0 && doc.Servers[0] != nil {
		base = strings.TrimRight(doc.Servers[0].URL, "/")
	}

	var out Endpoints
	for path, item := range doc.Paths.Map() {
		if item == nil || item.Get == nil {
			continue
		}
		switch item.Get.OperationID {
		case childrenOpID:
			out.ChildrenURL = base + path
			out.ParentParam = firstQueryParam(item.Get)
		case ancestorsOpID:
			out.AncestorsURL = base + path
			out.AncestorParam = firstQueryParam(item.Get)
		}
	}

	if out.ChildrenURL == "" {
		return Endpoints{}, fmt.Errorf("regionapi: operation %q not found", childrenOpID)
	}
	if out.AncestorsURL == "" {
		return Endpoints{}, fmt.Errorf("regionapi: operation %q not found", ancestorsOpID)
	}
	return out, nil
}

func firstQueryParam(op *openapi3.Operation) string {
	for _, ref := range op.Parameters {
		if ref == nil || ref.Value == nil {
			continue
		}
		if ref.Value.In == openapi3.ParameterInQuery {
			return ref.Value.Name
		}
	}
	return ""
}
