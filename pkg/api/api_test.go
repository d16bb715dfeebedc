package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/changeover/pkg/errors"
	"github.com/matzehuels/changeover/pkg/observability"
	"github.com/matzehuels/changeover/pkg/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st := store.NewMemory()
	srv := httptest.NewServer(New(Config{Store: st, Debug: true}).Handler())
	t.Cleanup(srv.Close)
	return srv, st
}

func post(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/v1/sequence", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

const twoJobs = `{
  "jobs": [
    {"item_code": "X", "layer": "Top", "common_count": 1, "individual_materials": ["m1", "m2"]},
    {"item_code": "Y", "layer": "Bottom", "qty": 5, "individual_materials": ["m2", "m3", "c1"]}
  ],
  "common_materials": ["c1"],
  "quality": "fast"`

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestSequence(t *testing.T) {
	srv, st := newTestServer(t)
	resp := post(t, srv, twoJobs+`, "layer_mode": "bt"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	out := decode[SequenceResponse](t, resp)

	if len(out.Rows) != 2 || out.Rows[0].ItemCode != "Y" || out.Rows[1].ItemCode != "X" {
		t.Fatalf("rows = %+v, want Y then X", out.Rows)
	}
	y := out.Rows[0]
	if y.IndividualCount != 2 || y.CommonCount != 1 || y.TotalCount != 3 {
		t.Errorf("common material not purged: %+v", y)
	}
	if y.Qty == nil || *y.Qty != 5 {
		t.Errorf("qty not carried: %+v", y.Qty)
	}
	if out.Rows[1].TransitionSharedCount != 1 {
		t.Errorf("shared = %d, want 1", out.Rows[1].TransitionSharedCount)
	}
	if out.Warnings == nil {
		t.Error("warnings should be an empty list, not null")
	}

	run, err := st.Get(context.Background(), out.RunID)
	if err != nil {
		t.Fatalf("run not recorded: %v", err)
	}
	if run.Source != store.SourceAPI || run.Controls.LayerMode != "BT" {
		t.Errorf("stored run = %+v", run)
	}
}

func TestSequenceFatal(t *testing.T) {
	srv, st := newTestServer(t)

	tests := []struct {
		name string
		body string
		code errors.Code
		warn int
	}{
		{"no jobs", `{"jobs": []}`, errors.ErrCodeNoJobs, 0},
		{"manual miss", twoJobs + `, "manual": [{"item_code": "Z", "layer": "Top"}]}`, errors.ErrCodeEmptyManualSequence, 1},
		{"manual empty", twoJobs + `, "manual": []}`, errors.ErrCodeEmptyManualSequence, 0},
	}
	for _, tt := range tests {
		resp := post(t, srv, tt.body)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("%s: status = %d, want 422", tt.name, resp.StatusCode)
			continue
		}
		out := decode[ErrorResponse](t, resp)
		if out.Error.Code != tt.code || len(out.Warnings) != tt.warn {
			t.Errorf("%s: body = %+v", tt.name, out)
		}
		if out.RunID == "" {
			t.Errorf("%s: fatal runs should still report a run id", tt.name)
		}
	}
	if runs, _ := st.List(context.Background(), 0); len(runs) != 0 {
		t.Errorf("failed runs were recorded: %d", len(runs))
	}
}

func TestSequenceOpaqueItemCodes(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := post(t, srv, `{"jobs": [
		{"item_code": "PCB(A),rev2", "layer": "Top", "individual_materials": ["m1"]},
		{"item_code": "B", "layer": "Top", "individual_materials": ["m1", "m2"]}
	], "quality": "fast"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out := decode[SequenceResponse](t, resp)
	if len(out.Rows) != 2 {
		t.Fatalf("rows = %+v", out.Rows)
	}
	found := false
	for _, r := range out.Rows {
		found = found || r.ItemCode == "PCB(A),rev2"
	}
	if !found {
		t.Errorf("item code with separators not sequenced: %+v", out.Rows)
	}
}

func TestSequenceBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"bad json", `{"jobs": [`, errors.ErrCodeInvalidInput},
		{"unknown field", `{"jobz": []}`, errors.ErrCodeInvalidInput},
		{"layer mode", twoJobs + `, "layer_mode": "LR"}`, errors.ErrCodeInvalidLayerMode},
		{"quality", `{"jobs": [{"item_code": "A", "layer": "Top"}], "quality": "best"}`, errors.ErrCodeInvalidQuality},
		{"item code", `{"jobs": [{"item_code": "", "layer": "Top"}]}`, errors.ErrCodeInvalidInput},
		{"material", `{"jobs": [{"item_code": "A", "individual_materials": ["a,b"]}]}`, errors.ErrCodeInvalidInput},
		{"timeout", twoJobs + `, "timeout_ms": -5}`, errors.ErrCodeInvalidInput},
		{"manual code", twoJobs + `, "manual": [{"item_code": "", "layer": "Top"}]}`, errors.ErrCodeInvalidManualSequence},
		{"manual separator", twoJobs + `, "manual": [{"item_code": "X,Y", "layer": "Top"}]}`, errors.ErrCodeInvalidManualSequence},
	}
	for _, tt := range tests {
		resp := post(t, srv, tt.body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.name, resp.StatusCode)
			continue
		}
		if out := decode[ErrorResponse](t, resp); out.Error.Code != tt.code {
			t.Errorf("%s: code = %s, want %s", tt.name, out.Error.Code, tt.code)
		}
	}
}

func TestSequenceTooManyJobs(t *testing.T) {
	srv := httptest.NewServer(New(Config{MaxJobs: 1}).Handler())
	defer srv.Close()
	resp := post(t, srv, twoJobs+`}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRuns(t *testing.T) {
	srv, _ := newTestServer(t)
	first := decode[SequenceResponse](t, post(t, srv, twoJobs+`}`))
	time.Sleep(2 * time.Millisecond)
	second := decode[SequenceResponse](t, post(t, srv, twoJobs+`, "priority": ["X", "nope"]}`))

	resp, err := http.Get(srv.URL + "/v1/runs")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	list := decode[RunList](t, resp)
	if len(list.Runs) != 2 || list.Runs[0].ID != second.RunID || list.Runs[1].ID != first.RunID {
		t.Fatalf("runs = %+v", list.Runs)
	}
	if list.Runs[0].Warnings != 1 {
		t.Errorf("warnings = %d, want 1 unmatched priority", list.Runs[0].Warnings)
	}

	resp2, err := http.Get(srv.URL + "/v1/runs?limit=1")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if l := decode[RunList](t, resp2); len(l.Runs) != 1 {
		t.Errorf("limit=1 returned %d runs", len(l.Runs))
	}

	resp3, err := http.Get(srv.URL + "/v1/runs/" + first.RunID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp3.Body.Close()
	run := decode[store.Run](t, resp3)
	if run.ID != first.RunID || len(run.Rows) != 2 {
		t.Errorf("run = %+v", run)
	}
}

func TestRunsErrors(t *testing.T) {
	srv, _ := newTestServer(t)
	for path, status := range map[string]int{
		"/v1/runs/does-not-exist": http.StatusNotFound,
		"/v1/runs?limit=x":        http.StatusBadRequest,
		"/v1/nothing":             http.StatusNotFound,
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != status {
			t.Errorf("GET %s = %d, want %d", path, resp.StatusCode, status)
		}
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
	errors   int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	h.statuses = append(h.statuses, status)
	h.mu.Unlock()
}

func (h *recordingHooks) OnError(context.Context, string, string, error) {
	h.mu.Lock()
	h.errors++
	h.mu.Unlock()
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	h := New(Config{}).Handler()
	for _, body := range []string{twoJobs + `}`, `{"jobs": []}`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sequence", bytes.NewBufferString(body)))
	}

	hooks.mu.Lock()
	defer hooks.mu.Unlock()
	if len(hooks.statuses) != 2 || hooks.statuses[0] != http.StatusOK || hooks.statuses[1] != http.StatusUnprocessableEntity {
		t.Errorf("statuses = %v", hooks.statuses)
	}
	if hooks.errors != 1 {
		t.Errorf("errors = %d, want 1", hooks.errors)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidLayerMode, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeNoJobs, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeRunNotFound, "x"), http.StatusNotFound},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
