// Package views holds the server-rendered HTML templates of the portal.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/template/html/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/maximo-portal/version-portal/internal/domain"
)

//go:embed templates
var templateFiles embed.FS

// Layout is the layout every page renders inside.
const Layout = "layouts/main"

var (
	markdownOnce sync.Once
	markdownConv goldmark.Markdown
)

func markdownConverter() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownConv = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
		)
	})
	return markdownConv
}

// New builds the template engine over the embedded templates.
func New() (*html.Engine, error) {
	sub, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFuncMap(Funcs())
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return engine, nil
}

// Funcs returns the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"markdown":    Markdown,
		"date":        formatDate,
		"deref":       deref,
		"statusClass": statusClass,
		"priorityClass": func(p domain.TicketPriority) string {
			return "priority-" + strings.ToLower(string(p))
		},
		"userName": func(users map[string]domain.User, id string) string {
			if user, ok := users[id]; ok {
				return user.Name
			}
			return id
		},
		"shortHash": func(hash string) string {
			return domain.Commit{ID: hash}.ShortID()
		},
		"join": strings.Join,
		"hasString": func(values []string, v string) bool {
			for _, candidate := range values {
				if candidate == v {
					return true
				}
			}
			return false
		},
	}
}

// Markdown renders user text to HTML. Raw HTML in the source is escaped.
func Markdown(source string) template.HTML {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownConverter().Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String()) //nolint:gosec // goldmark escapes raw HTML without WithUnsafe
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02/01/2006 15:04")
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func statusClass(status domain.TicketStatus) string {
	switch status {
	case domain.TicketStatusOpen, domain.TicketStatusReopened:
		return "status-open"
	case domain.TicketStatusInProgress, domain.TicketStatusInReview:
		return "status-active"
	case domain.TicketStatusPending:
		return "status-pending"
	default:
		return "status-done"
	}
}
