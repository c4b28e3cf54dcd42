// Package export turns a project subset into shareable artifacts: a JSON
// interchange file, a PDF-ready HTML document and a standalone interactive
// HTML page with an embedded data snapshot.
package export

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tztw/projectmap/internal/catalog/domain"
)

// Artifact kinds, used for metrics, audit and archive naming.
const (
	KindJSON       = "json"
	KindDocument   = "pdf"
	KindStandalone = "html"
)

const (
	DefaultDocumentTitle   = "项目清单"
	DefaultStandaloneTitle = "项目考察备份"

	dateLayout = "2006-01-02"
)

//go:embed assets/catalog.js
var catalogJS []byte

//go:embed assets/standalone.js
var standaloneJS []byte

//go:embed assets/*.tmpl
var templateFS embed.FS

// CatalogJS returns the shared browser module, served verbatim to the live
// client and inlined into standalone exports.
func CatalogJS() []byte {
	return catalogJS
}

// Snapshot is a frozen copy of the data an artifact is built from. Later
// changes to the source slices do not reach it.
type Snapshot struct {
	Projects []domain.Project
	Types    []domain.ProjectTypeDef
	TakenAt  time.Time
}

func NewSnapshot(projects []domain.Project, types []domain.ProjectTypeDef, at time.Time) Snapshot {
	s := Snapshot{
		Projects: make([]domain.Project, len(projects)),
		Types:    make([]domain.ProjectTypeDef, len(types)),
		TakenAt:  at,
	}
	for i, p := range projects {
		s.Projects[i] = p.Clone()
	}
	copy(s.Types, types)
	return s
}

// JSON writes projects verbatim as an indented array. It is the backup and
// interchange format accepted by import; nothing is redacted.
func JSON(w io.Writer, projects []domain.Project) error {
	if projects == nil {
		projects = []domain.Project{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(projects); err != nil {
		return fmt.Errorf("encode projects: %w", err)
	}
	return nil
}

// DecodeProjects parses an import file. The payload must be a JSON array of
// project objects, each with an id; anything else is domain.ErrImportFormat.
func DecodeProjects(r io.Reader) ([]domain.Project, error) {
	var raw []json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrImportFormat, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", domain.ErrImportFormat)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after array", domain.ErrImportFormat)
	}

	projects := make([]domain.Project, 0, len(raw))
	for i, item := range raw {
		var p domain.Project
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", domain.ErrImportFormat, i, err)
		}
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("%w: record %d has no id", domain.ErrImportFormat, i)
		}
		if p.Images == nil {
			p.Images = []domain.ImageItem{}
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func JSONFilename(t time.Time) string {
	return "tztw_data_" + t.Format(dateLayout) + ".json"
}

// DocumentFilename is the name suggested to the client-side PDF rasterizer.
func DocumentFilename(title string) string {
	return safeName(titleOr(title, DefaultDocumentTitle)) + ".pdf"
}

func StandaloneFilename(title, permission string, t time.Time) string {
	return fmt.Sprintf("%s_%s_v%s.html", safeName(titleOr(title, DefaultStandaloneTitle)), permission, t.Format(dateLayout))
}

func titleOr(title, fallback string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	return fallback
}

var nameReplacer = strings.NewReplacer("/", "_", "\\", "_", "\x00", "", "\n", " ", "\r", " ")

// safeName keeps a title usable as a file name and archive key segment.
func safeName(s string) string {
	s = nameReplacer.Replace(s)
	s = strings.ReplaceAll(s, "..", "_")
	return s
}
