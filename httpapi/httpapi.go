// Package httpapi implements the thin HTTP boundary spec.md §6 names as
// an external interface but leaves unspecified: submit a configuration,
// fetch the resulting snapshot, stream per-stage progress while a
// generation job runs. None of the rendering/projection work spec.md §1
// excludes lives here -- only the job lifecycle around Pipeline.Run.
package httpapi

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/pedrogalvao/worldgen/config"
	"github.com/pedrogalvao/worldgen/snapshot"
	"github.com/pedrogalvao/worldgen/stages"
	"github.com/pedrogalvao/worldgen/world"
)

// JobStatus is a generation job's lifecycle state.
type JobStatus string

const (
	StatusRunning JobStatus = "running"
	StatusDone    JobStatus = "done"
	StatusFailed  JobStatus = "failed"
)

// Job tracks one in-flight or completed generation run.
type Job struct {
	ID     uuid.UUID
	Status JobStatus
	Err    error

	mu        sync.Mutex
	world     *world.World
	timings   []world.StageTiming
	listeners []chan world.StageTiming
}

func (j *Job) snapshot() (*world.World, JobStatus, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.world, j.Status, j.Err
}

func (j *Job) broadcast(t world.StageTiming) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.timings = append(j.timings, t)
	for _, l := range j.listeners {
		select {
		case l <- t:
		default:
		}
	}
}

func (j *Job) subscribe() chan world.StageTiming {
	ch := make(chan world.StageTiming, 32)
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Status != StatusRunning {
		close(ch)
		return ch
	}
	j.listeners = append(j.listeners, ch)
	return ch
}

func (j *Job) finish(w *world.World, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.world = w
	if err != nil {
		j.Status = StatusFailed
		j.Err = err
	} else {
		j.Status = StatusDone
	}
	for _, l := range j.listeners {
		close(l)
	}
	j.listeners = nil
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server holds every in-flight and completed job, keyed by ID, and the
// chi router serving the boundary REST API.
type Server struct {
	mux    *chi.Mux
	logger zerolog.Logger

	mu   sync.Mutex
	jobs map[uuid.UUID]*Job
}

// NewServer builds a Server with its routes registered.
func NewServer(logger zerolog.Logger) *Server {
	s := &Server{
		logger: logger,
		jobs:   map[uuid.UUID]*Job{},
	}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Post("/jobs", s.submitJob)
	r.Get("/jobs/{id}", s.jobStatus)
	r.Get("/jobs/{id}/snapshot", s.jobSnapshot)
	r.Get("/jobs/{id}/progress", s.jobProgress)
	s.mux = r
}

// submitJob reads a TOML Configuration body, validates it, and starts a
// generation run in the background; the response carries the job ID the
// caller polls or streams progress from.
func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "reading request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	cfg, climate, err := config.LoadBytes(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	initial, stageList, err := stages.StandardRecipe(cfg, climate, 12)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := &Job{ID: uuid.New(), Status: StatusRunning}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	pipeline := stages.BuildPipeline(stageList, s.logger)
	pipeline.OnStage = func(t world.StageTiming, _ *world.World) { job.broadcast(t) }

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		final, _, err := pipeline.Run(ctx, initial)
		job.finish(final, err)
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"job_id":"` + job.ID.String() + `"}`))
}

func (s *Server) lookupJob(w http.ResponseWriter, r *http.Request) *Job {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return nil
	}
	s.mu.Lock()
	job, ok := s.jobs[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return nil
	}
	return job
}

func (s *Server) jobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	_, status, jobErr := job.snapshot()
	w.Header().Set("Content-Type", "application/json")
	if jobErr != nil {
		_, _ = w.Write([]byte(`{"status":"` + string(status) + `","error":"` + jobErr.Error() + `"}`))
		return
	}
	_, _ = w.Write([]byte(`{"status":"` + string(status) + `"}`))
}

// jobSnapshot streams the job's finished World through snapshot.Save.
func (s *Server) jobSnapshot(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	result, status, jobErr := job.snapshot()
	if status != StatusDone {
		http.Error(w, "job is "+string(status), http.StatusConflict)
		return
	}
	if jobErr != nil {
		http.Error(w, jobErr.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	if err := snapshot.Save(w, result); err != nil {
		s.logger.Error().Err(err).Msg("writing snapshot response")
	}
}

// jobProgress upgrades to a WebSocket connection and streams each
// StageTiming event as the pipeline completes stages, closing once the
// job finishes.
func (s *Server) jobProgress(w http.ResponseWriter, r *http.Request) {
	job := s.lookupJob(w, r)
	if job == nil {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch := job.subscribe()
	for t := range ch {
		if err := conn.WriteJSON(t); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job complete"))
}
