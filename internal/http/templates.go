package httpserver

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/Clark-Hu/moviewatch/internal/domain"
	"github.com/Clark-Hu/moviewatch/internal/watchlist"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w342"

// Templates holds one parsed template set per page, each sharing the layouts
// and partials.
type Templates struct {
	pages map[string]*template.Template
}

// NewTemplates parses layouts/*.html, partials/*.html and pages/*.html from fsys.
func NewTemplates(fsys fs.FS) (*Templates, error) {
	layouts, err := fs.Glob(fsys, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("finding layouts: %w", err)
	}
	partials, err := fs.Glob(fsys, "partials/*.html")
	if err != nil {
		return nil, fmt.Errorf("finding partials: %w", err)
	}
	pages, err := fs.Glob(fsys, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("finding pages: %w", err)
	}
	if len(layouts) == 0 || len(pages) == 0 {
		return nil, fmt.Errorf("no templates found")
	}

	common := append(append([]string{}, layouts...), partials...)
	t := &Templates{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		files := append([]string{page}, common...)
		tmpl, err := template.New(name).Funcs(templateFuncs()).ParseFS(fsys, files...)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.pages[name] = tmpl
	}
	return t, nil
}

// Render executes the page inside the base layout. Output is buffered so a
// template error never produces a half-written page.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"posterURL": func(p *string) string {
			if p == nil || *p == "" {
				return ""
			}
			if strings.HasPrefix(*p, "http://") || strings.HasPrefix(*p, "https://") {
				return *p
			}
			return posterBaseURL + *p
		},
		"stars": func(n int) string {
			if n < 0 {
				n = 0
			}
			if n > domain.MaxRating {
				n = domain.MaxRating
			}
			return strings.Repeat("★", n) + strings.Repeat("☆", domain.MaxRating-n)
		},
		"statusLabel": func(s domain.WatchStatus) string {
			if s == "" {
				return ""
			}
			return strings.ToUpper(string(s[:1])) + string(s[1:])
		},
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}
}

// PageData is shared by every page.
type PageData struct {
	Title string
	User  *domain.Identity
	Flash *Flash
	Query string
}

type moviesPage struct {
	PageData
	Heading string
	Movies  []domain.Movie
}

type moviePage struct {
	PageData
	Movie    domain.Movie
	Reviews  []domain.ReviewView
	Statuses []domain.WatchStatus
	Ratings  []int

	InWatchlist bool
}

type genresPage struct {
	PageData
	Genres []domain.GenreSummary
}

type watchlistPage struct {
	PageData
	Items    []watchlist.Item
	Statuses []domain.WatchStatus
}

type authPage struct {
	PageData
	Username string
	Email    string
}

type profilePage struct {
	PageData
	Account        domain.User
	WatchlistCount int64
	ReviewCount    int64
}

type errorPage struct {
	PageData
	Heading string
	Message string
}
