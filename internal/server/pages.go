package server

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/newsverdict/internal/history"
	"github.com/ppiankov/newsverdict/internal/logging"
	"github.com/ppiankov/newsverdict/internal/model"
	"github.com/ppiankov/newsverdict/internal/news"
	"github.com/ppiankov/newsverdict/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultAutoRefreshSeconds = 60
	historyPageSize           = 50
)

var pageNames = []string{"home", "headlines", "keyword", "text", "history"}

type pages struct {
	byName map[string]*template.Template
}

var templateFuncs = template.FuncMap{
	"verdictClass": func(v model.Verdict) string {
		switch v {
		case model.VerdictReal:
			return "real"
		case model.VerdictFake:
			return "fake"
		default:
			return "none"
		}
	},
	"inc": func(i int) int { return i + 1 },
	"verdictCount": func(s *history.Stats, v string) int {
		if s == nil {
			return 0
		}
		return s.ByVerdict[model.Verdict(v)]
	},
	"isUpstream": func(b *model.BatchResult) bool {
		return b != nil && b.Outcome == model.OutcomeUpstreamFetchError
	},
}

func loadPages() (*pages, error) {
	p := &pages{byName: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/partials.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		p.byName[name] = t
	}
	return p, nil
}

// pageData is the view model shared by every page
type pageData struct {
	Title   string
	Active  string
	Warning string
	Error   string
	Refresh int

	Batch   *model.BatchResult
	Result  *model.CheckResult
	Query   string
	URL     string
	Text    string
	Entries []history.Entry
	Stats   *history.Stats
}

func (s *Server) render(c *gin.Context, status int, name string, data pageData) {
	t, ok := s.pages.byName[name]
	if !ok {
		s.apiError(c, http.StatusInternalServerError, "TEMPLATE_ERROR", errors.New("unknown page "+name))
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.log.Error("render page failed", logging.String("page", name), logging.Err(err))
		s.apiError(c, http.StatusInternalServerError, "TEMPLATE_ERROR", err)
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) homePage(c *gin.Context) {
	s.render(c, http.StatusOK, "home", pageData{Title: "Fake News Detector", Active: "home"})
}

func (s *Server) headlinesPage(c *gin.Context) {
	data := pageData{Title: "Latest Headlines", Active: "headlines"}
	if c.Query("auto") == "1" {
		data.Refresh = int(s.cfg.AutoRefresh.Seconds())
		if data.Refresh <= 0 {
			data.Refresh = defaultAutoRefreshSeconds
		}
	}

	batch, err := s.checker.CheckHeadlines(c.Request.Context())
	if err != nil {
		data.Error = err.Error()
		s.render(c, http.StatusInternalServerError, "headlines", data)
		return
	}
	data.Batch = &batch
	s.render(c, http.StatusOK, "headlines", data)
}

func (s *Server) urlPage(c *gin.Context) {
	data := pageData{Title: "Fake News Detector", Active: "home", URL: c.PostForm("url")}

	result, err := s.checker.CheckURL(c.Request.Context(), data.URL)
	status := s.pageResult(&data, result, err)
	if errors.Is(err, pipeline.ErrEmptyURL) {
		data.Warning = "Please enter a valid URL."
	}
	s.render(c, status, "home", data)
}

func (s *Server) keywordPage(c *gin.Context) {
	data := pageData{Title: "Check News by Keyword", Active: "keyword"}

	q, submitted := c.GetPostForm("q")
	if !submitted {
		q, submitted = c.GetQuery("q")
	}
	data.Query = q
	if !submitted {
		s.render(c, http.StatusOK, "keyword", data)
		return
	}

	batch, err := s.checker.CheckKeyword(c.Request.Context(), q)
	switch {
	case errors.Is(err, news.ErrEmptyQuery):
		data.Warning = "Please enter a keyword."
	case err != nil:
		data.Error = err.Error()
		s.render(c, http.StatusInternalServerError, "keyword", data)
		return
	default:
		data.Batch = &batch
	}
	s.render(c, http.StatusOK, "keyword", data)
}

func (s *Server) textPage(c *gin.Context) {
	data := pageData{Title: "Check News by Entering Text", Active: "text"}
	if c.Request.Method != http.MethodPost {
		s.render(c, http.StatusOK, "text", data)
		return
	}

	data.Text = c.PostForm("text")
	if strings.TrimSpace(data.Text) == "" {
		data.Warning = "Please enter text to analyze."
		s.render(c, http.StatusOK, "text", data)
		return
	}

	result, err := s.checker.CheckText(c.Request.Context(), data.Text)
	status := s.pageResult(&data, result, err)
	s.render(c, status, "text", data)
}

func (s *Server) historyPage(c *gin.Context) {
	data := pageData{Title: "Check History", Active: "history"}
	if s.history == nil {
		data.Warning = "History is disabled."
		s.render(c, http.StatusOK, "history", data)
		return
	}

	entries, err := s.history.Recent(historyPageSize)
	if err != nil {
		data.Error = err.Error()
		s.render(c, http.StatusInternalServerError, "history", data)
		return
	}
	stats, err := s.history.Stats()
	if err != nil {
		data.Error = err.Error()
		s.render(c, http.StatusInternalServerError, "history", data)
		return
	}
	data.Entries = entries
	data.Stats = &stats
	s.render(c, http.StatusOK, "history", data)
}

// pageResult fills data from a single check and returns the page status
func (s *Server) pageResult(data *pageData, result model.CheckResult, err error) int {
	var cerr *pipeline.ClassificationError
	switch {
	case errors.As(err, &cerr):
		data.Error = "The classifier failed on this input. This is a model or artifact problem, not a verdict."
		return http.StatusInternalServerError
	case errors.Is(err, pipeline.ErrEmptyURL):
		return http.StatusOK
	case err != nil:
		data.Error = err.Error()
		return http.StatusInternalServerError
	}
	data.Result = &result
	return http.StatusOK
}
