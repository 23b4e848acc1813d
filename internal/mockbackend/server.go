// Package mockbackend serves the chat and diagram API with canned data so the
// wizard can run without the real backend.
package mockbackend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the mock backend HTTP server.
type Server struct {
	httpServer *http.Server
	metrics    *metrics
	host       string
	port       int
}

// NewServer creates a mock backend listening on host:port.
func NewServer(host string, port int) *Server {
	s := &Server{
		metrics: newMetrics(),
		host:    host,
		port:    port,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.metrics.middleware)

	r.Get("/api/health", s.handleHealth)
	r.Get("/metrics", s.metrics.handler().ServeHTTP)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(simulateErrors)
		r.Post("/chat/{agent_id}", s.handleChat)
		r.Post("/mermaid", s.handleMermaid)
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening. It blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	slog.Info("mock backend listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type chatRequest struct {
	Token string `json:"token"`
	Text  string `json:"text"`
}

type chatResponse struct {
	Token string `json:"token"`
	Text  string `json:"text"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	agentID, err := strconv.Atoi(chi.URLParam(r, "agent_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "agent_id must be a number")
		return
	}
	reply, ok := cannedReplies[agentID]
	if !ok {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Agent with id %d not found. Available agents: 1, 2, 3, 4", agentID))
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, `The "text" field is required`)
		return
	}

	slog.Debug("mock chat", "agent", agentID, "token", req.Token)
	writeJSON(w, http.StatusOK, chatResponse{
		Token: req.Token,
		Text:  fmt.Sprintf(reply, req.Text),
	})
}

type mermaidRequest struct {
	Token string   `json:"token"`
	Texts []string `json:"texts"`
}

type mermaidResponse struct {
	Images []string `json:"images"`
}

func (s *Server) handleMermaid(w http.ResponseWriter, r *http.Request) {
	var req mermaidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		writeError(w, http.StatusBadRequest, `The "token" field is required`)
		return
	}
	if len(req.Texts) == 0 {
		writeError(w, http.StatusBadRequest, `The "texts" field is required`)
		return
	}

	images := make([]string, 0, len(req.Texts))
	for _, text := range req.Texts {
		img, err := renderPlaceholder(text)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}
		images = append(images, img)
	}

	slog.Debug("mock mermaid", "token", req.Token, "diagrams", len(images))
	writeJSON(w, http.StatusOK, mermaidResponse{Images: images})
}

// simulateErrors honors ?error=validation|server|render and ?delay=<duration>.
func simulateErrors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if d, err := time.ParseDuration(q.Get("delay")); err == nil && d > 0 {
			select {
			case <-time.After(d):
			case <-r.Context().Done():
				return
			}
		}

		switch q.Get("error") {
		case "validation":
			writeError(w, http.StatusBadRequest, "[MOCK] validation error: invalid token or text")
		case "render":
			writeError(w, http.StatusBadRequest, "[MOCK] Mermaid render error")
		case "server":
			writeError(w, http.StatusInternalServerError, "[MOCK] internal server error")
		case "opaque":
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("bad gateway"))
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
