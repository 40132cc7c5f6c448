package enex

import (
	"os"
	"path/filepath"

	"photonotes/pkg/errors"
	"photonotes/pkg/logger"
)

// Renderer resolves templates and turns drafts into export documents.
type Renderer struct {
	logger logger.Logger
	dir    string
}

func NewRenderer(log logger.Logger) *Renderer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Renderer{logger: log}
}

// SetTemplateDir points the renderer at a directory whose files override
// the embedded templates by name.
func (r *Renderer) SetTemplateDir(dir string) {
	r.dir = dir
}

// Template returns the template content for a name like "photo-note.xml".
func (r *Renderer) Template(name string) (string, error) {
	if r.dir != "" {
		data, err := os.ReadFile(filepath.Join(r.dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", errors.Wrap(errors.ErrorTypeConfig, "cannot read template "+name, err)
		}
	}
	template, ok := embeddedTemplates[name]
	if !ok {
		return "", errors.New(errors.ErrorTypeConfig, "unknown template "+name)
	}
	return template, nil
}

// RenderedNote carries the documents produced for one note. ENEX stays
// empty when the body failed validation. When only the export wrapper
// fails, the document is kept with a diagnostic comment in front so it
// can still be inspected on disk.
type RenderedNote struct {
	Content    string
	ContentErr error
	ENEX       string
	ENEXErr    error
}

func (n *RenderedNote) OK() bool {
	return n.ContentErr == nil && n.ENEXErr == nil
}

// RenderNote renders the ENML body first and, when it validates, wraps
// it into the export document. The returned error covers template
// loading only; validation problems travel inside the RenderedNote.
func (r *Renderer) RenderNote(kind Kind, draft *Draft) (*RenderedNote, error) {
	bodyTemplate, err := r.Template(string(kind) + ".xml")
	if err != nil {
		return nil, err
	}
	rendered := &RenderedNote{}
	rendered.Content = FromTemplate(bodyTemplate, draft.Params(), r.logger)
	rendered.ContentErr = ValidateContent(rendered.Content)
	if rendered.ContentErr != nil {
		return rendered, nil
	}

	draft.Set("content", rendered.Content)
	exportTemplate, err := r.Template(string(kind) + ".enex")
	if err != nil {
		return nil, err
	}
	rendered.ENEX = FromTemplate(exportTemplate, draft.Params(), r.logger)
	rendered.ENEXErr = ValidateContent(rendered.ENEX)
	if rendered.ENEXErr != nil {
		rendered.ENEX = "<!-- " + rendered.ENEXErr.Error() + " -->\n" + rendered.ENEX
	}
	return rendered, nil
}
