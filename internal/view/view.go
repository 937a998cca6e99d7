// Package view はサーバーサイドHTMLテンプレートの描画を提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/hitoshi/postboard/internal/middleware"
	"github.com/hitoshi/postboard/internal/model"
)

//go:embed templates
var templateFS embed.FS

// 画面テンプレート名
const (
	PageHome       = "home"
	PagePostIndex  = "posts/index"
	PagePostCards  = "posts/page"
	PagePostNew    = "posts/new"
	PagePostShow   = "posts/show"
	PagePostEdit   = "posts/edit"
	PageLogin      = "users/login"
	PageRegister   = "users/register"
	pageError      = "error"
	layoutTemplate = "layout.html"
)

// Page はレイアウトに渡す共通の画面データ。
type Page struct {
	Title       string
	CurrentUser *model.User
	Success     []string
	Errors      []string
	CSRFToken   string
	CSRFField   string
	Data        any
}

// ErrorData はエラー画面のデータ。
type ErrorData struct {
	Status  int
	Message string
}

// Renderer は埋め込みテンプレートからHTMLを描画する。
type Renderer struct {
	pages map[string]*template.Template
}

var _ middleware.ErrorPageRenderer = (*Renderer)(nil)

var funcs = template.FuncMap{
	// bodyはサニタイズ済みの本文をエスケープせずに出力する
	"body": func(s string) template.HTML { return template.HTML(s) },
	"date": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"isAuthor": func(u *model.User, authorID string) bool {
		return u != nil && u.ID == authorID
	},
}

// NewRenderer は全画面テンプレートを解析したRendererを返す。
func NewRenderer() (*Renderer, error) {
	pages := make(map[string]*template.Template)

	err := fs.WalkDir(templateFS, "templates", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Base(p) == layoutTemplate {
			return nil
		}
		name := strings.TrimSuffix(strings.TrimPrefix(p, "templates/"), ".html")
		tmpl, err := template.New(layoutTemplate).Funcs(funcs).
			ParseFS(templateFS, "templates/"+layoutTemplate, p)
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Renderer{pages: pages}, nil
}

// Render は画面を描画する。セッションに溜まったフラッシュはここで消費される。
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	tmpl, ok := rd.pages[name]
	if !ok {
		slog.Error("template not found", slog.String("template", name))
		http.Error(w, middleware.MessageInternalError, http.StatusInternalServerError)
		return
	}

	page := rd.newPage(r, title, data)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		slog.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, middleware.MessageInternalError, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// RenderError はエラー画面を描画する。
func (rd *Renderer) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.Render(w, r, status, pageError, "Error", ErrorData{Status: status, Message: message})
}

func (rd *Renderer) newPage(r *http.Request, title string, data any) Page {
	ctx := r.Context()
	page := Page{
		Title:     title,
		CSRFToken: middleware.CSRFTokenFromContext(ctx),
		CSRFField: middleware.CSRFFormField,
		Data:      data,
	}

	s := middleware.SessionFromContext(ctx)
	if s == nil {
		return page
	}
	page.CurrentUser = s.User()

	flashes, err := s.PopFlashes(ctx)
	if err != nil {
		slog.Error("failed to pop flashes", slog.String("error", err.Error()))
	}
	page.Success = flashes[model.FlashSuccess]
	page.Errors = flashes[model.FlashError]
	return page
}
