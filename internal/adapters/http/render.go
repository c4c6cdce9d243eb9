package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/domain/event"
	"eventbook/internal/domain/validation"
)

//go:embed templates/*.html static
var assets embed.FS

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

var funcMap = template.FuncMap{
	"markdown": renderMarkdown,
	"formatDate": func(t time.Time) string {
		return t.Format("Mon 2 Jan 2006, 15:04")
	},
	"dateInput": func(t time.Time) string {
		return t.Format(event.DateLayout)
	},
	"fieldErrors": func(errs validation.Errors, field string) []string {
		return errs[field]
	},
	"ms": func(d time.Duration) string {
		return strconv.FormatFloat(float64(d.Microseconds())/1000, 'f', 1, 64)
	},
}

var (
	pagesOnce sync.Once
	pages     map[string]*template.Template
	pagesErr  error
)

var pageNames = []string{
	"event_list.html",
	"event_form.html",
	"event_confirm_delete.html",
	"login.html",
	"register.html",
	"profile.html",
	"password_change.html",
	"my_bookings.html",
	"admin_perf.html",
	"admin_outbox.html",
	"error.html",
}

// loadPages parses every page together with the layout, once.
func loadPages() (map[string]*template.Template, error) {
	pagesOnce.Do(func() {
		pages = make(map[string]*template.Template, len(pageNames))
		for _, name := range pageNames {
			tpl, err := template.New("layout.html").Funcs(funcMap).
				ParseFS(assets, "templates/layout.html", "templates/"+name)
			if err != nil {
				pagesErr = err
				return
			}
			pages[name] = tpl
		}
	})
	return pages, pagesErr
}

// renderTemplate renders a page with the layout. The pending flash is popped
// unless data already carries one under "Flash".
// PRE: data is non-nil
// POST: either the full page is written with status, or a 500 is written
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	all, err := loadPages()
	if err != nil {
		internalError(w, r, err)
		return
	}
	tpl, ok := all[name]
	if !ok {
		internalError(w, r, errors.New("unknown template "+name))
		return
	}

	session, loggedIn := middleware.GetSessionFromContext(r.Context())
	data["LoggedIn"] = loggedIn
	data["User"] = session
	data["CSRFField"] = csrf.TemplateField(r)
	data["Path"] = r.URL.Path
	if _, set := data["Flash"]; !set && flasher != nil {
		if f, ok := flasher.Pop(w, r); ok {
			data["Flash"] = f
		}
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError writes an error page with status.
func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	renderTemplate(w, r, status, "error.html", map[string]any{
		"Status":  status,
		"Title":   http.StatusText(status),
		"Message": message,
	})
}

// internalError logs the real error and returns a generic page to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("internal_error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// setFlash queues a notification for the next page the client loads.
func setFlash(w http.ResponseWriter, level, message string) {
	if flasher != nil {
		flasher.Set(w, level, message)
	}
}

// redirectWithFlash queues a notification and redirects with 303.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, level, message string) {
	setFlash(w, level, message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
