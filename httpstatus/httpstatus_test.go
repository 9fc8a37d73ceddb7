package httpstatus

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shimmeringbee/cec"
	"github.com/shimmeringbee/cec/wsstream"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_ListRunsReflectsPublishedEvents(t *testing.T) {
	hub := wsstream.NewHub()
	reg := NewRegistry(hub, nil)

	hub.Publish(wsstream.Event{Kind: wsstream.EventPollComplete, RunID: "run-1", State: "WaitingForPhysicalAddress"})
	waitForConsume()

	req := httptest.NewRequest(http.MethodGet, "/runs", nil)
	rec := httptest.NewRecorder()
	reg.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var summaries []RunSummary
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	assert.Len(t, summaries, 1)
	assert.Equal(t, "run-1", summaries[0].RunID)
	assert.Equal(t, "WaitingForPhysicalAddress", summaries[0].State)
}

func TestRegistry_GetRunAccumulatesDiscoveredDevices(t *testing.T) {
	hub := wsstream.NewHub()
	reg := NewRegistry(hub, nil)

	device := cec.DeviceInfo{LogicalAddress: 4, DisplayName: "Player"}
	hub.Publish(wsstream.Event{Kind: wsstream.EventDeviceDiscovered, RunID: "run-2", Device: &device})
	waitForConsume()

	req := httptest.NewRequest(http.MethodGet, "/runs/run-2", nil)
	rec := httptest.NewRecorder()
	reg.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var detail RunDetail
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Len(t, detail.Devices, 1)
	assert.Equal(t, "Player", detail.Devices[0].DisplayName)
}

func TestRegistry_GetRunUnknownIdIsNotFound(t *testing.T) {
	hub := wsstream.NewHub()
	reg := NewRegistry(hub, nil)

	req := httptest.NewRequest(http.MethodGet, "/runs/does-not-exist", nil)
	rec := httptest.NewRecorder()
	reg.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRegistry_GetCacheWithoutInspectorIsEmpty(t *testing.T) {
	hub := wsstream.NewHub()
	reg := NewRegistry(hub, nil)

	req := httptest.NewRequest(http.MethodGet, "/cache", nil)
	rec := httptest.NewRecorder()
	reg.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var dump CacheDump
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dump))
	assert.Empty(t, dump.Entries)
}

func TestRegistry_GetCacheDelegatesToInspector(t *testing.T) {
	hub := wsstream.NewHub()
	cache := cec.NewMessageCache()
	cache.Put(4, cec.OpcodeReportPhysicalAddress, cec.Frame{Opcode: cec.OpcodeReportPhysicalAddress, Source: 4})

	inspector := cache.(cec.CacheInspector)
	reg := NewRegistry(hub, inspector)

	req := httptest.NewRequest(http.MethodGet, "/cache", nil)
	rec := httptest.NewRecorder()
	reg.Router().ServeHTTP(rec, req)

	var dump CacheDump
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dump))
	assert.Len(t, dump.Entries, 1)
}

func waitForConsume() {
	time.Sleep(10 * time.Millisecond)
}
