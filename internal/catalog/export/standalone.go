package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/tztw/projectmap/internal/catalog/access"
	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/filter"
)

// StandaloneInput describes a self-contained offline snapshot. Permission
// fixes the audience at build time; a guest artifact carries only public
// fields of non-hidden projects.
type StandaloneInput struct {
	Title      string
	Permission string
	Projects   []domain.Project
	Types      []domain.ProjectTypeDef
	At         time.Time
}

// island is the JSON payload read by standalone.js.
type island struct {
	Permission string                  `json:"permission"`
	Title      string                  `json:"title"`
	Generated  string                  `json:"generatedAt"`
	Types      []domain.ProjectTypeDef `json:"types"`
	Cities     []string                `json:"cities"`
	Labels     []string                `json:"labels"`
	Projects   any                     `json:"projects"`
}

type standaloneView struct {
	Title         string
	DocumentTitle string
	Admin         bool
	Empty         bool
	Warning       string
	Data          template.JS
	CatalogJS     template.JS
	StandaloneJS  template.JS
}

var standaloneTmpl = template.Must(template.ParseFS(templateFS, "assets/standalone.html.tmpl"))

// Standalone renders the offline HTML page for in.
func Standalone(w io.Writer, in StandaloneInput) error {
	if !access.ValidPermission(in.Permission) {
		return fmt.Errorf("%w: unknown permission %q", domain.ErrInvalidInput, in.Permission)
	}
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	title := titleOr(in.Title, DefaultStandaloneTitle)

	data := island{
		Permission: in.Permission,
		Title:      title,
		Generated:  at.Format(time.RFC3339),
	}
	included := in.Projects
	if in.Permission == domain.PermissionGuest {
		included = make([]domain.Project, 0, len(in.Projects))
		for _, p := range in.Projects {
			if !p.IsHidden {
				included = append(included, p)
			}
		}
		data.Projects = access.Redact(included)
	} else {
		full := make([]domain.Project, len(included))
		for i, p := range included {
			full[i] = p.Clone()
		}
		data.Projects = full
	}
	data.Types = filter.UsedTypes(included, in.Types)
	opts := filter.OptionsFor(included)
	data.Cities = opts.Cities
	data.Labels = opts.Labels

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	view := standaloneView{
		Title:         title,
		DocumentTitle: DefaultDocumentTitle,
		Admin:         in.Permission == domain.PermissionAdmin,
		Empty:         len(included) == 0,
		Warning:       EmptySelectionWarning,
		Data:          template.JS(payload),
		CatalogJS:     template.JS(catalogJS),
		StandaloneJS:  template.JS(standaloneJS),
	}
	if err := standaloneTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render standalone: %w", err)
	}
	return nil
}
