package export

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/tztw/projectmap/internal/catalog/access"
	"github.com/tztw/projectmap/internal/catalog/domain"
	"github.com/tztw/projectmap/internal/catalog/filter"
	"github.com/tztw/projectmap/internal/catalog/selection"
)

// EmptySelectionWarning is rendered in place of content when an export is
// produced from an empty selection.
const EmptySelectionWarning = "❌ 错误：请先在左侧列表勾选需要导出的项目。"

// DocumentInput is the subset to print, already narrowed to the selection.
// Internal sections are decided per project against Viewer.
type DocumentInput struct {
	Title    string
	Projects []domain.Project
	Types    []domain.ProjectTypeDef
	Viewer   *domain.User
	At       time.Time
}

type docView struct {
	Title       string
	GeneratedAt string
	Empty       bool
	Warning     string
	Groups      []docGroup
}

type docGroup struct {
	City     string
	Projects []docProject
}

type docProject struct {
	Index       int
	Name        string
	TypeLabel   string
	TypeClass   string
	Label       string
	Description template.HTML
	Images      []docImage
	Internal    *docInternal
}

type docInternal struct {
	Description template.HTML
	Images      []docImage
	Attachments []domain.Attachment
}

type docImage struct {
	Src     template.URL
	Caption string
}

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func getMarkdown() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		)
	})
	return markdown
}

// renderMarkdown converts a description to HTML. Raw HTML in the source is
// not passed through.
func renderMarkdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := getMarkdown().Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// imageSrc admits embedded images and http(s) links only.
func imageSrc(src string) template.URL {
	lower := strings.ToLower(strings.TrimSpace(src))
	if strings.HasPrefix(lower, "data:image/") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "http://") {
		return template.URL(src)
	}
	return ""
}

func docImages(images []domain.ImageItem) []docImage {
	out := make([]docImage, 0, len(images))
	for _, img := range images {
		out = append(out, docImage{Src: imageSrc(img.Src), Caption: img.Caption})
	}
	return out
}

var documentTmpl = template.Must(template.New("document.html.tmpl").Funcs(template.FuncMap{
	"kb": func(size int64) string { return fmt.Sprintf("%.1f", float64(size)/1024) },
}).ParseFS(templateFS, "assets/document.html.tmpl"))

// Document renders the PDF-ready document for in.
func Document(w io.Writer, in DocumentInput) error {
	at := in.At
	if at.IsZero() {
		at = time.Now()
	}
	view := docView{
		Title:       titleOr(in.Title, DefaultDocumentTitle),
		GeneratedAt: at.Format("2006-01-02 15:04"),
		Empty:       len(in.Projects) == 0,
		Warning:     EmptySelectionWarning,
	}

	for _, g := range selection.GroupByCity(in.Projects) {
		group := docGroup{City: g.City}
		for i, p := range g.Projects {
			dp := docProject{
				Index:       i + 1,
				Name:        p.Name,
				TypeLabel:   filter.TypeLabel(in.Types, p.Type),
				TypeClass:   typeClass(in.Types, p.Type),
				Label:       filter.LabelText(p.Label),
				Description: renderMarkdown(p.PublicDescription),
				Images:      docImages(p.Images),
			}
			if access.CanSeeInternal(p, in.Viewer) && hasInternal(p) {
				dp.Internal = &docInternal{
					Description: renderMarkdown(p.InternalDescription),
					Images:      docImages(p.InternalImages),
					Attachments: p.Attachments,
				}
			}
			group.Projects = append(group.Projects, dp)
		}
		view.Groups = append(view.Groups, group)
	}

	if err := documentTmpl.Execute(w, view); err != nil {
		return fmt.Errorf("render document: %w", err)
	}
	return nil
}

func hasInternal(p domain.Project) bool {
	return strings.TrimSpace(p.InternalDescription) != "" || len(p.InternalImages) > 0 || len(p.Attachments) > 0
}

func typeClass(types []domain.ProjectTypeDef, key string) string {
	for _, t := range types {
		if t.Key == key {
			return t.BgColorClass
		}
	}
	return ""
}
