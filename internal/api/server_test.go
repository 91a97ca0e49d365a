package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dgallion1/navdoc/internal/config"
	"github.com/dgallion1/navdoc/internal/pipeline"
	"github.com/dgallion1/navdoc/internal/source"
	"github.com/google/go-cmp/cmp"
)

const testAPIKey = "secret"

func siteFS() fstest.MapFS {
	return fstest.MapFS{
		"navtreedata.js": {Data: []byte(`var NAVTREE =
[
  [ "WHD", "index.html", [
    [ "Modules", "modules.html", "modules" ]
  ] ]
];

var NAVTREEINDEX =
[
"group__busapi.html"
];
`)},
		"modules.js": {Data: []byte(`var modules =
[
    [ "Bus API", "group__busapi.html", "group__busapi" ],
    [ "WiFi", "group__wifi.html", null ]
];
`)},
		"group__busapi.js": {Data: []byte(`var group__busapi =
[
    [ "whd_bus_sdio_attach", "group__busapi.html#ga9f", null ]
];
`)},
		"navtreeindex0.js": {Data: []byte(`var NAVTREEINDEX0 =
{
"group__busapi.html":[0,0],
"group__busapi.html#ga9f":[0,0,0],
"group__wifi.html":[0,1],
"index.html":[],
"modules.html":[0]
};
`)},
		"index.html":   {Data: []byte(`<html><head><title>WHD</title></head><body><div class="contents"><p>Main</p></div></body></html>`)},
		"modules.html": {Data: []byte(`<html><head><title>Modules</title></head><body><div class="contents"><p>All modules</p></div></body></html>`)},
		"group__busapi.html": {Data: []byte(`<html><head><title>Bus API</title></head><body>
<div class="header"><div class="title">Bus API</div></div>
<div class="contents"><a class="anchor" id="ga9f"></a><h2 class="memtitle">whd_bus_sdio_attach()</h2><p>Attach the bus.</p></div>
</body></html>`)},
	}
}

func newTestServer(t *testing.T, load bool) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	cfg := config.Config{
		Site:               "testdata",
		APIKey:             testAPIKey,
		WorkerCount:        1,
		MaxQueueSize:       4,
		MaxConcurrentLoads: 2,
		CheckConcurrency:   2,
		JobTTL:             time.Hour,
	}
	log := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(cfg, source.NewDirSource(siteFS()), log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)

	if load {
		job, err := orch.Reload("test")
		if err != nil {
			t.Fatalf("reload: %v", err)
		}
		select {
		case <-job.Done():
		case <-time.After(5 * time.Second):
			t.Fatal("initial load did not finish")
		}
		if st := job.Snapshot().Status; st != pipeline.StatusCompleted {
			t.Fatalf("expected completed load, got %s: %v", st, job.Snapshot().Progress.Errors)
		}
	}
	return NewServer(orch, log, cfg), orch
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthAndUnavailableBeforeLoad(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var health map[string]any
	decode(t, rec, &health)
	if health["loaded"] != false {
		t.Errorf("expected loaded=false, got %v", health)
	}

	rec = get(t, s, "/api/tree")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no site loaded") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestTreeFormats(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/tree?format=text")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}
	for _, want := range []string{"WHD  (index.html)", "    Bus API  (group__busapi.html)", "      whd_bus_sdio_attach"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("expected %q in:\n%s", want, rec.Body.String())
		}
	}

	rec = get(t, s, "/api/tree?format=text&depth=1")
	if strings.Contains(rec.Body.String(), "Bus API") {
		t.Errorf("depth=1 should stop at Modules:\n%s", rec.Body.String())
	}

	rec = get(t, s, "/api/tree?format=js")
	if !strings.HasPrefix(rec.Body.String(), "var NAVTREE =") {
		t.Errorf("unexpected js output:\n%s", rec.Body.String())
	}

	if rec := get(t, s, "/api/tree?format=pdf"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown format, got %d", rec.Code)
	}
	if rec := get(t, s, "/api/tree?depth=-1"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative depth, got %d", rec.Code)
	}
}

func TestNodeLookup(t *testing.T) {
	s, _ := newTestServer(t, true)

	var byPath struct {
		Path []int `json:"path"`
		Node struct {
			Label    string `json:"label"`
			Children []struct {
				Label    string `json:"label"`
				Children []any  `json:"children"`
			} `json:"children"`
		} `json:"node"`
	}
	rec := get(t, s, "/api/tree/node?path=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	decode(t, rec, &byPath)
	if byPath.Node.Label != "Modules" || len(byPath.Node.Children) != 2 {
		t.Fatalf("unexpected node %+v", byPath.Node)
	}
	if byPath.Node.Children[0].Children != nil {
		t.Errorf("depth=1 should drop grandchildren")
	}

	var byLink struct {
		Path []int `json:"path"`
	}
	rec = get(t, s, "/api/tree/node?link=group__busapi.html%23ga9f")
	decode(t, rec, &byLink)
	if diff := cmp.Diff([]int{0, 0, 0}, byLink.Path); diff != "" {
		t.Errorf("path mismatch (-want +got):\n%s", diff)
	}

	if rec := get(t, s, "/api/tree/node?path=5"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := get(t, s, "/api/tree/node?path=a"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if rec := get(t, s, "/api/tree/node"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestIndexAndLocate(t *testing.T) {
	s, _ := newTestServer(t, true)

	var idx struct {
		Index      []string `json:"index"`
		Partitions []struct {
			Number  int    `json:"number"`
			First   string `json:"first"`
			Entries int    `json:"entries"`
		} `json:"partitions"`
	}
	decode(t, get(t, s, "/api/index"), &idx)
	if len(idx.Partitions) != 1 || idx.Partitions[0].Entries != 5 || idx.Partitions[0].First != "group__busapi.html" {
		t.Fatalf("unexpected index %+v", idx)
	}

	rec := get(t, s, "/api/index?partition=0&format=js")
	if !strings.HasPrefix(rec.Body.String(), "var NAVTREEINDEX0 =") {
		t.Errorf("unexpected partition js:\n%s", rec.Body.String())
	}
	if rec := get(t, s, "/api/index?partition=3"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	var loc struct {
		Partition int    `json:"partition"`
		Label     string `json:"label"`
		Path      []int  `json:"path"`
	}
	decode(t, get(t, s, "/api/index/locate?url=group__wifi.html"), &loc)
	if loc.Partition != 0 || loc.Label != "WiFi" {
		t.Errorf("unexpected locate %+v", loc)
	}

	// Sorts before the only boundary.
	decode(t, get(t, s, "/api/index/locate?url=files.html"), &loc)
	if loc.Partition != -1 {
		t.Errorf("expected -1, got %d", loc.Partition)
	}
}

func TestTables(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/tables/modules?format=js")
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "var modules =") {
		t.Fatalf("unexpected table response %d:\n%s", rec.Code, rec.Body.String())
	}
	if rec := get(t, s, "/api/tables/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestSymbolsAndSearch(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/symbols?format=csv")
	want := "name,link\nwhd_bus_sdio_attach,group__busapi.html#ga9f\n"
	if rec.Body.String() != want {
		t.Errorf("csv mismatch:\n%s", rec.Body.String())
	}

	var grouped struct {
		Groups []struct {
			Key string `json:"key"`
		} `json:"groups"`
	}
	decode(t, get(t, s, "/api/symbols?table=group__busapi&group=true"), &grouped)
	if len(grouped.Groups) != 1 || grouped.Groups[0].Key != "w" {
		t.Errorf("unexpected groups %+v", grouped)
	}
	if rec := get(t, s, "/api/symbols?table=nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	var found struct {
		Results []struct {
			Table string `json:"table"`
			Entry struct {
				Name string `json:"name"`
			} `json:"entry"`
		} `json:"results"`
	}
	decode(t, get(t, s, "/api/symbols/search?q=sdio+attach"), &found)
	if len(found.Results) == 0 || found.Results[0].Entry.Name != "whd_bus_sdio_attach" {
		t.Fatalf("unexpected search results %+v", found)
	}
	if rec := get(t, s, "/api/symbols/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without q, got %d", rec.Code)
	}
}

func TestValidateAndCheck(t *testing.T) {
	s, _ := newTestServer(t, true)

	var v struct {
		OK bool `json:"ok"`
	}
	decode(t, get(t, s, "/api/validate"), &v)
	if !v.OK {
		t.Error("expected a clean report")
	}

	var res struct {
		Pages    int `json:"pages"`
		Problems []struct {
			Kind string `json:"kind"`
			Ref  struct {
				Link string `json:"link"`
			} `json:"ref"`
		} `json:"problems"`
	}
	decode(t, get(t, s, "/api/check"), &res)
	if res.Pages != 4 {
		t.Errorf("expected 4 pages, got %d", res.Pages)
	}
	if len(res.Problems) != 1 || res.Problems[0].Kind != "missing_page" || res.Problems[0].Ref.Link != "group__wifi.html" {
		t.Errorf("unexpected problems %+v", res.Problems)
	}
}

func TestPages(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/pages/group__busapi.html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Attach the bus.") {
		t.Errorf("unexpected markdown:\n%s", rec.Body.String())
	}

	var page struct {
		Title   string   `json:"title"`
		Anchors []string `json:"anchors"`
	}
	decode(t, get(t, s, "/api/pages/group__busapi.html?format=json"), &page)
	if page.Title != "Bus API" || len(page.Anchors) != 1 {
		t.Errorf("unexpected page %+v", page)
	}

	if rec := get(t, s, "/api/pages/group__wifi.html"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := get(t, s, "/api/pages/modules.js"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestReloadRequiresAPIKey(t *testing.T) {
	s, _ := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad key, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/reload?reason=hook", nil)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var accepted struct {
		JobID     string `json:"job_id"`
		StatusURL string `json:"status_url"`
	}
	decode(t, rec, &accepted)

	deadline := time.Now().Add(5 * time.Second)
	var status pipeline.JobSnapshot
	for time.Now().Before(deadline) {
		decode(t, get(t, s, accepted.StatusURL), &status)
		if status.Status.Done() {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if status.Status != pipeline.StatusUnchanged || status.Reason != "hook" {
		t.Errorf("expected an unchanged reload, got %s (%s)", status.Status, status.Reason)
	}

	if rec := get(t, s, "/api/reload/nope/status"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestLoadStatsAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, true)

	var stats struct {
		Stats struct {
			Count int `json:"count"`
		} `json:"stats"`
		Recent []pipeline.JobSnapshot `json:"recent"`
		Site   struct {
			Nodes int `json:"nodes"`
		} `json:"site"`
	}
	decode(t, get(t, s, "/api/stats/loads"), &stats)
	if stats.Stats.Count != 1 || len(stats.Recent) != 1 || stats.Site.Nodes != 5 {
		t.Errorf("unexpected stats %+v", stats)
	}

	rec := get(t, s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "navdoc_site_loads_total") {
		t.Error("expected load counter in metrics output")
	}
}
