package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/db"
	"github.com/erazemk/logistika/internal/ledger"
	"github.com/erazemk/logistika/internal/logging"
	webembed "github.com/erazemk/logistika/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statusClass": func(status string) string {
			switch status {
			case "active", "delivered":
				return "ok"
			case "inactive", "pending", "packed":
				return "muted"
			case "archived", "cancelled", "exception":
				return "bad"
			default:
				return "info"
			}
		},
		"fmtTime": func(t any) string {
			switch v := t.(type) {
			case time.Time:
				if v.IsZero() {
					return ""
				}
				return v.Local().Format("2006-01-02 15:04")
			case *time.Time:
				if v == nil {
					return ""
				}
				return v.Local().Format("2006-01-02 15:04")
			}
			return ""
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"price": func(d decimal.Decimal, currency string) string {
			return d.StringFixed(2) + " " + currency
		},
		"prettyJSON": func(raw json.RawMessage) string {
			var buf bytes.Buffer
			if err := json.Indent(&buf, raw, "", "  "); err != nil {
				return string(raw)
			}
			return buf.String()
		},
		"add": func(a, b int) int { return a + b },
	}
}

// pages are rendered inside layout.html.
var pages = []string{
	"overview.html",
	"catalog.html",
	"product_detail.html",
	"warehouses.html",
	"stock.html",
	"mappings.html",
	"shipments.html",
	"shipment_detail.html",
	"api_keys.html",
	"audit.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl, err := template.New(page).Funcs(FuncMap()).Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		if tmpl, err = tmpl.Parse(string(pageBytes)); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a page. Output is buffered; a template error is answered
// with a 500 and nothing else.
func (ts *Templates) Render(w http.ResponseWriter, r *http.Request, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		logging.FromContext(r.Context()).Error("rendering template",
			zap.String("template", name),
			zap.Error(err),
		)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title   string
	Nav     string
	Error   string
	Success string
}

// Server holds all dependencies for page handlers.
type Server struct {
	DB        *db.DB
	Ledger    *ledger.Service
	Audit     *audit.Recorder
	Templates *Templates
}
