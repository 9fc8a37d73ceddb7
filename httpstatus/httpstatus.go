// Package httpstatus exposes a read-only HTTP view of in-progress and
// finished discovery runs.
package httpstatus

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shimmeringbee/cec"
	"github.com/shimmeringbee/cec/wsstream"
)

// RunSummary is one row of GET /runs.
type RunSummary struct {
	RunID       string `json:"run_id"`
	State       string `json:"state"`
	DeviceCount int    `json:"device_count"`
}

func (RunSummary) Render(http.ResponseWriter, *http.Request) error { return nil }

// RunDetail is the body of GET /runs/{id}.
type RunDetail struct {
	RunID   string           `json:"run_id"`
	State   string           `json:"state"`
	Devices []cec.DeviceInfo `json:"devices"`
}

func (RunDetail) Render(http.ResponseWriter, *http.Request) error { return nil }

// CacheDump is the body of GET /cache.
type CacheDump struct {
	Entries []cec.CacheEntry `json:"entries"`
}

func (CacheDump) Render(http.ResponseWriter, *http.Request) error { return nil }

type errResponse struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
}

func (e *errResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errNotFound(runID string) render.Renderer {
	return &errResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "no such run: " + runID}
}

// Registry is a read-only in-memory view of every discovery run, built
// entirely by observing a wsstream.Hub — it never drives discovery itself.
type Registry struct {
	mutex sync.RWMutex
	runs  map[string]*RunDetail

	cache cec.CacheInspector
}

// NewRegistry subscribes to hub and starts consuming events on its own
// goroutine. cache is optional; if nil, GET /cache always returns an empty
// list.
func NewRegistry(hub *wsstream.Hub, cache cec.CacheInspector) *Registry {
	reg := &Registry{
		runs:  map[string]*RunDetail{},
		cache: cache,
	}

	go reg.consume(hub.Subscribe())

	return reg
}

func (reg *Registry) consume(events chan wsstream.Event) {
	for ev := range events {
		reg.apply(ev)
	}
}

func (reg *Registry) apply(ev wsstream.Event) {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()

	detail, found := reg.runs[ev.RunID]
	if !found {
		detail = &RunDetail{RunID: ev.RunID}
		reg.runs[ev.RunID] = detail
	}

	if ev.State != "" {
		detail.State = ev.State
	}

	switch ev.Kind {
	case wsstream.EventDeviceDiscovered:
		if ev.Device != nil {
			detail.Devices = append(detail.Devices, *ev.Device)
		}
	case wsstream.EventRunFinished:
		if ev.Devices != nil {
			detail.Devices = ev.Devices
		}
	}
}

// Router builds the read-only chi.Router for the status API.
func (reg *Registry) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/runs", reg.listRuns)
	r.Get("/runs/{id}", reg.getRun)
	r.Get("/cache", reg.getCache)

	return r
}

func (reg *Registry) listRuns(w http.ResponseWriter, r *http.Request) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()

	summaries := make([]RunSummary, 0, len(reg.runs))
	for _, detail := range reg.runs {
		summaries = append(summaries, RunSummary{RunID: detail.RunID, State: detail.State, DeviceCount: len(detail.Devices)})
	}

	render.JSON(w, r, summaries)
}

func (reg *Registry) getRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	reg.mutex.RLock()
	detail, found := reg.runs[id]
	reg.mutex.RUnlock()

	if !found {
		render.Render(w, r, errNotFound(id))
		return
	}

	render.JSON(w, r, *detail)
}

func (reg *Registry) getCache(w http.ResponseWriter, r *http.Request) {
	dump := CacheDump{}
	if reg.cache != nil {
		dump.Entries = reg.cache.Dump()
	}
	render.JSON(w, r, dump)
}
