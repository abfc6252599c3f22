package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Server is the inspection HTTP+WebSocket API: a *http.ServeMux, a
// localhost-only CORS wrapper, and a thin routing table over action
// suffixes.
type Server struct {
	sessions    *SessionManager
	broadcaster *Broadcaster
	mux         *http.ServeMux
	server      *http.Server
	addr        string
}

// NewServer creates a server listening on addr (e.g. "127.0.0.1:8787").
func NewServer(addr string) *Server {
	broadcaster := NewBroadcaster()
	s := &Server{
		sessions:    NewSessionManager(broadcaster),
		broadcaster: broadcaster,
		mux:         http.NewServeMux(),
		addr:        addr,
	}
	s.registerRoutes()
	return s
}

// Handler returns the CORS-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/v1/ws", s.handleWebSocket)
	s.mux.HandleFunc("/api/v1/session", s.handleSession)
	s.mux.HandleFunc("/api/v1/session/", s.handleSessionRoute)
}

// Start blocks serving the API until the listener fails or Shutdown is
// called. No write timeout is set: the websocket endpoint holds its
// connections open indefinitely and paces itself with pings.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}
	log.Printf("inspect: serving on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown closes the broadcaster (ending every websocket subscription) and
// drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.broadcaster.Close()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// localOrigins are the browser origins allowed to call the API. The
// inspector is a local diagnostic surface, never an internet-facing one.
var localOrigins = []string{
	"http://localhost", "https://localhost",
	"http://127.0.0.1", "https://127.0.0.1",
}

func originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	for _, prefix := range localOrigins {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}

// corsMiddleware applies the localhost-only CORS policy and answers
// preflight requests without touching the routing table.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if origin := r.Header.Get("Origin"); origin != "" && originAllowed(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": s.sessions.Count(),
		"time":     time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSession(w, r)
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.sessions.ListSessions())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	session, err := s.sessions.CreateSession(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, SessionCreateResponse{SessionID: session.ID, CreatedAt: session.CreatedAt})
}

func (s *Server) handleSessionRoute(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/session/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "session id required")
		return
	}
	sessionID := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleStatus(w, r, sessionID)
		case http.MethodDelete:
			s.handleDestroy(w, r, sessionID)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	switch parts[1] {
	case "step":
		s.handleStep(w, r, sessionID)
	case "continue":
		s.handleContinue(w, r, sessionID)
	case "registers":
		s.handleRegisters(w, r, sessionID)
	case "pages":
		s.handlePages(w, r, sessionID)
	case "memory":
		s.handleMemory(w, r, sessionID)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown action: %s", parts[1]))
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	core := session.Machine.Core
	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID:  id,
		PC:         core.PC,
		Gas:        core.Gas,
		ResultCode: "RUNNING",
	})
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.sessions.DestroySession(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	out := session.Machine.Step()
	s.broadcastState(id, session)
	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID:  id,
		PC:         session.Machine.Core.PC,
		Gas:        session.Machine.Core.Gas,
		ResultCode: out.Code.String(),
		Halted:     !out.Running(),
	})
}

func (s *Server) handleContinue(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	out := session.Machine.Run()
	s.broadcastState(id, session)
	s.broadcaster.BroadcastExecutionEvent(id, "terminated", map[string]interface{}{"result": out.Code.String()})
	writeJSON(w, http.StatusOK, SessionStatusResponse{
		SessionID:  id,
		PC:         session.Machine.Core.PC,
		Gas:        session.Machine.Core.Gas,
		ResultCode: out.Code.String(),
		Halted:     true,
	})
}

func (s *Server) handleRegisters(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RegistersResponse{Registers: session.Machine.Core.Regs.R})
}

func (s *Server) handlePages(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	entries := session.Machine.Core.RAM.PageMap()
	resp := PageMapResponse{Pages: make([]PageMapEntryResponse, len(entries))}
	for i, e := range entries {
		resp.Pages[i] = PageMapEntryResponse{Address: e.Address, Rights: byte(e.Rights)}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request, id string) {
	session, err := s.sessions.GetSession(id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	q := r.URL.Query()
	var addr, length uint64
	fmt.Sscanf(q.Get("addr"), "%d", &addr)
	fmt.Sscanf(q.Get("len"), "%d", &length)

	data, err := session.Machine.Core.RAM.ReadOctets(uint32(addr), uint32(length))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MemoryResponse{Address: uint32(addr), Data: data})
}

func (s *Server) broadcastState(id string, session *Session) {
	core := session.Machine.Core
	s.broadcaster.BroadcastState(id, map[string]interface{}{
		"pc":  core.PC,
		"gas": core.Gas,
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("inspect: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: http.StatusText(status), Message: message, Code: status})
}

func readJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 16*1024*1024))
	return decoder.Decode(v)
}
