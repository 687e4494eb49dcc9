// Local HTTP control surface for the pipeline: enqueue and cancel jobs,
// pause/resume the processor, report user activity, and watch status
// over a websocket. Binds to loopback by default; there is no auth.

package control

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"go-easyapply-automation/internal/queue"
	"go-easyapply-automation/internal/safety"
	"go-easyapply-automation/internal/telemetry"
)

// Controller is the slice of the processor the HTTP surface drives.
type Controller interface {
	Process(ctx context.Context)
	Pause()
	Resume(ctx context.Context)
}

type Server struct {
	q        *queue.Queue
	proc     Controller
	activity *safety.ActivityTracker
	upgrader websocket.Upgrader
}

func NewServer(q *queue.Queue, proc Controller, activity *safety.ActivityTracker) *Server {
	return &Server{
		q:        q,
		proc:     proc,
		activity: activity,
		upgrader: websocket.Upgrader{
			//local control plane only, cross-origin pages are fine
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", telemetry.Handler())

	r.Route("/queue", func(r chi.Router) {
		r.Post("/", s.handleEnqueue)
		r.Delete("/{id}", s.handleRemove)
		r.Post("/clear", s.handleClear)
	})

	r.Post("/processor/start", s.handleStart)
	r.Post("/processor/pause", s.handlePause)
	r.Post("/processor/resume", s.handleResume)

	r.Post("/activity", s.handleActivity)
	r.Get("/status", s.handleStatus)
	r.Get("/history", s.handleHistory)
	r.Get("/ws", s.handleWS)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("🌐 Control server listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type enqueueRequest struct {
	Job      queue.JobRef `json:"job"`
	Priority string       `json:"priority"`
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := s.q.Enqueue(req.Job, queue.ParsePriority(req.Priority))
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	telemetry.EnqueuedTotal.Inc()
	telemetry.QueueDepthGauge.Set(float64(s.q.Len()))

	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.q.Remove(id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	telemetry.QueueDepthGauge.Set(float64(s.q.Len()))
	writeJSON(w, http.StatusOK, map[string]string{"removed": id})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.q.Clear(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	telemetry.QueueDepthGauge.Set(float64(s.q.Len()))
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	go s.proc.Process(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.proc.Pause()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paused"})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.proc.Resume(context.Background())
	writeJSON(w, http.StatusOK, map[string]string{"status": "resumed"})
}

// handleActivity is pinged by the browser-side helper whenever the user
// moves the mouse or types, feeding the user-presence safety check.
func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	s.activity.Touch()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.q.Status())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	writeJSON(w, http.StatusOK, s.q.History(limit))
}

// handleWS pushes a status snapshot every 2 seconds until the client
// disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("⚠️ Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := conn.WriteJSON(s.q.Status()); err != nil {
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
