package html

import (
	"embed"
	"io/fs"
)

//go:embed templates/*.tpl
var embeddedTemplates embed.FS

// TemplateName is the template rendered for the cascade fragment.
const TemplateName = "templates/cascade"

// TemplatesFS exposes the embedded templates so callers can copy or extend
// them.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}
