package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/jogardn/shop-console/internal/console"
	"github.com/jogardn/shop-console/pkg/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

var pages = []string{"products.html", "cart.html", "orders.html"}

type pageData struct {
	Tab       string
	View      console.View
	Alerts    []console.Alert
	CSRFField template.HTML
	CSRFToken string
	Statuses  []models.OrderStatus
	Edit      *models.Product
}

func (s *Server) pageData(r *http.Request, c *console.Console, tab string) pageData {
	return pageData{
		Tab:       tab,
		View:      c.Snapshot(),
		Alerts:    c.Alerts().Active(),
		CSRFField: csrf.TemplateField(r),
		CSRFToken: csrf.Token(r),
		Statuses:  models.OrderStatuses,
	}
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string {
		return d.StringFixed(2)
	},
	"statusColor": func(status models.OrderStatus) string {
		return status.Color()
	},
	"upper": strings.ToUpper,
	"add": func(a, b int) int {
		return a + b
	},
}

// parseTemplates pairs the layout with each page.
func parseTemplates() (map[string]*template.Template, error) {
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		tmpl, err := template.New(page).Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		templates[page] = tmpl
	}

	if _, err := fs.Stat(staticFS, "static/console.js"); err != nil {
		return nil, fmt.Errorf("missing console script: %w", err)
	}
	return templates, nil
}
