package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mkaye/memorybox/internal/apperror"
	"github.com/mkaye/memorybox/internal/document"
	"github.com/mkaye/memorybox/internal/model"
	"github.com/mkaye/memorybox/internal/service"
)

// parseFailurePlaceholder is shown in place of content that does not parse.
// Bad stored content degrades to this visible notice; the page itself never
// fails.
const parseFailurePlaceholder = `<p class="content-error">This memory&#39;s content could not be displayed.</p>`

var memoryPageTemplate = template.Must(template.New("memory").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article class="memory">
<h1>{{.Title}}</h1>
{{if .CreatorNames}}<p class="creators">by {{.CreatorNames}}</p>{{end}}
{{if .MemoryDate}}<p class="memory-date">{{.MemoryDate}}</p>{{end}}
{{if .ShortDescription}}<p class="description">{{.ShortDescription}}</p>{{end}}
{{if .Locked}}
<section class="locked">
<p>This memory is password protected.</p>
</section>
{{else}}
<section class="content">
{{.Content}}
</section>
{{if .SpotifyEmbedURL}}<iframe class="spotify" src="{{.SpotifyEmbedURL}}" loading="lazy" allow="encrypted-media"></iframe>{{end}}
{{end}}
</article>
</body>
</html>
`))

type memoryPageData struct {
	Title            string
	CreatorNames     string
	ShortDescription string
	MemoryDate       string
	Locked           bool
	Content          template.HTML
	SpotifyEmbedURL  string
}

// PageHandler serves the server-rendered read-only memory page.
type PageHandler struct {
	memories *service.MemoryService
	logger   *slog.Logger
}

func NewPageHandler(memories *service.MemoryService, logger *slog.Logger) *PageHandler {
	return &PageHandler{memories: memories, logger: logger}
}

// HandleMemoryView renders one memory as HTML.
//
// HTTP: GET /memories/{slug}/view
//
// A protected memory renders its metadata and a locked notice, never its
// content. Stored content that fails to parse renders a placeholder
// paragraph instead; the failure is logged and contained here.
func (h *PageHandler) HandleMemoryView(w http.ResponseWriter, r *http.Request) {
	memory, err := h.memories.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		noStore(w)
		if errors.Is(err, apperror.ErrNotFound) {
			http.Error(w, "memory not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load memory page",
			slog.String("slug", r.PathValue("slug")),
			slog.String("error", err.Error()))
		http.Error(w, "something went wrong", http.StatusInternalServerError)
		return
	}

	data := memoryPageData{
		Title:            memory.Title,
		CreatorNames:     memory.CreatorNames,
		ShortDescription: memory.ShortDescription,
		Locked:           memory.IsProtected(),
	}
	if memory.MemoryDate != nil {
		data.MemoryDate = memory.MemoryDate.UTC().Format("January 2, 2006")
	}
	if !data.Locked {
		data.Content = renderContent(memory, h.logger)
		if memory.Spotify != nil {
			data.SpotifyEmbedURL = memory.Spotify.EmbedURL()
		}
	}

	noStore(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := memoryPageTemplate.Execute(w, data); err != nil {
		h.logger.Error("failed to render memory page",
			slog.String("slug", memory.Slug),
			slog.String("error", err.Error()))
	}
}

// renderContent parses and renders the stored document, degrading to the
// placeholder on a parse failure. document.RenderHTML escapes everything
// user-authored, so the template.HTML conversion does not bypass escaping.
func renderContent(memory *model.Memory, logger *slog.Logger) template.HTML {
	doc, err := document.Parse(memory.Content)
	if err != nil {
		logger.Warn("stored memory content does not parse",
			slog.String("slug", memory.Slug),
			slog.String("error", err.Error()))
		return template.HTML(parseFailurePlaceholder)
	}
	return template.HTML(document.RenderHTML(doc))
}
