package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/singleflight"

	"aipedia/internal/article"
)

// Server wires handlers, templates, and the article generator together.
type Server struct {
	generator article.Generator
	renderer  *Renderer
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
	genGroup  singleflight.Group
}

// pageData is the model shared by every page template.
type pageData struct {
	Title      string
	Query      string
	Topic      string
	Article    ArticleView
	SocketPath string
	Message    string
}

// NewServer constructs an HTTP handler ready to serve article requests.
func NewServer(generator article.Generator) (*Server, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	srv := &Server{
		generator: generator,
		renderer:  renderer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		mux: http.NewServeMux(),
	}

	srv.mux.HandleFunc("/", srv.handleArticle)
	srv.mux.HandleFunc("/stream/", srv.handleStreamPage)
	srv.mux.HandleFunc("/ws/", srv.handleStream)
	srv.mux.HandleFunc("/search", srv.handleSearch)
	srv.mux.HandleFunc("/healthz", srv.handleHealth)
	srv.mux.HandleFunc("/favicon.ico", http.NotFound)

	return srv, nil
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Handler returns the server wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return logRequests(s)
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	topic, err := TopicFromPath(strings.TrimPrefix(r.URL.EscapedPath(), "/"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "html", "markdown", "json":
	default:
		http.Error(w, "unsupported format", http.StatusBadRequest)
		return
	}

	doc, err := s.generate(r.Context(), topic)
	if err != nil {
		log.Printf("generate %q (request %s): %v", topic, RequestID(r.Context()), err)
		s.renderError(w, topic, http.StatusBadGateway)
		return
	}

	switch format {
	case "json":
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			log.Printf("encode %q: %v", topic, err)
		}
	case "markdown":
		out, err := s.renderer.Markdown(*doc)
		if err != nil {
			log.Printf("render markdown %q: %v", topic, err)
			s.renderError(w, topic, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(out))
	default:
		view, err := s.renderer.View(*doc, true)
		if err != nil {
			log.Printf("render %q: %v", topic, err)
			s.renderError(w, topic, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := pageData{Title: doc.Title, Topic: topic, Article: view}
		if err := s.renderer.Execute(w, "page.gohtml", data); err != nil {
			log.Printf("render page %q: %v", topic, err)
		}
	}
}

// generate requests the article for topic. Concurrent requests for the same
// topic share one upstream call; nothing is kept once it returns.
func (s *Server) generate(ctx context.Context, topic string) (*article.Document, error) {
	key := strings.ToLower(topic)
	result, err, _ := s.genGroup.Do(key, func() (interface{}, error) {
		// shared by every waiter, so detached from this request's cancellation
		return s.generator.Generate(context.WithoutCancel(ctx), topic)
	})
	if err != nil {
		return nil, err
	}

	doc, ok := result.(*article.Document)
	if !ok {
		return nil, errors.New("generation result type mismatch")
	}
	copied := *doc
	return &copied, nil
}

func (s *Server) handleStreamPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	escaped := strings.TrimPrefix(r.URL.EscapedPath(), "/stream/")
	topic, err := TopicFromPath(escaped)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{
		Title:      topic,
		Topic:      topic,
		SocketPath: "/ws" + TopicPath(topic),
	}
	if err := s.renderer.Execute(w, "stream.gohtml", data); err != nil {
		log.Printf("render stream page %q: %v", topic, err)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.FormValue("q"))
	if query == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, TopicPath(truncateRunes(query, maxTopicRunes)), http.StatusFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) renderError(w http.ResponseWriter, topic string, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := pageData{
		Title:   "Error",
		Topic:   topic,
		Message: "The article could not be generated. Please try again later.",
	}
	if err := s.renderer.Execute(w, "error.gohtml", data); err != nil {
		log.Printf("render error page: %v", err)
	}
}
