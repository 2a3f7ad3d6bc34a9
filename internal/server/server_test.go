package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scottgpt/career-cli/internal/company"
	"github.com/scottgpt/career-cli/internal/config"
	"github.com/scottgpt/career-cli/internal/dedupe"
	"github.com/scottgpt/career-cli/internal/merge"
	"github.com/scottgpt/career-cli/internal/mergeops"
	"github.com/scottgpt/career-cli/internal/model"
	"github.com/scottgpt/career-cli/internal/store"
	"github.com/scottgpt/career-cli/internal/temporal"
)

var serverNow = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu      sync.Mutex
	rows    []model.Position
	listErr error
}

func (f *fakeStore) ListPositions(_ context.Context, _ store.PositionFilter) ([]model.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Position(nil), f.rows...), nil
}

func (f *fakeStore) GetPosition(_ context.Context, id string) (*model.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.rows {
		if p.ID == id {
			c := p.Clone()
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdatePosition(_ context.Context, p model.Position, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == p.ID {
			f.rows[i] = p
			return nil
		}
	}
	return model.NewNotFoundError("position", p.ID)
}

func (f *fakeStore) DeletePosition(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return model.NewNotFoundError("position", id)
}

func seedRows() []model.Position {
	return []model.Position{
		{ID: "a1", Title: "Software Engineer", Org: "Acme Corp", DateStart: "2016-01-01", DateEnd: "2018-12-31", Skills: []string{"Go"}},
		{ID: "a2", Title: "Senior Software Engineer", Org: "Acme", DateStart: "2019-01-01", Skills: []string{"Go", "Kafka"}},
		{ID: "g1", Title: "Analyst", Org: "Globex", DateStart: "2014-01-01", DateEnd: "2015-12-31"},
		{ID: "g2", Title: "Analyst", Org: "Globex Inc", DateStart: "2014-01-01", DateEnd: "2015-12-31", Location: "Boston, MA"},
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) (*httptest.Server, *fakeStore, *mergeops.Service) {
	t.Helper()
	ta := temporal.NewAnalyzer().WithNow(serverNow)
	fs := &fakeStore{rows: seedRows()}
	svc := mergeops.NewService(
		merge.NewEngine(merge.DefaultMergeConfig(), merge.WithTemporal(ta)),
		fs, mergeops.NewMemoryStatusStore(), 2,
		mergeops.WithClock(func() time.Time { return serverNow }),
	)
	srv := New(cfg, Deps{
		Positions: fs,
		Grouper:   company.NewEngine(company.DefaultGroupingConfig(), company.WithTemporal(ta)),
		Detector:  dedupe.NewDetector(dedupe.DefaultDetectionConfig(), dedupe.WithTemporal(ta)),
		Merges:    svc,
		Temporal:  ta,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, fs, svc
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})
	resp, body := do(t, ts, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("Content-Type"))
}

func TestListCompanies(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})
	resp, body := do(t, ts, http.MethodGet, "/api/companies", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	companies := body["companies"].([]any)
	require.Len(t, companies, 2)
	first := companies[0].(map[string]any)
	assert.Equal(t, "acme", first["normalizedName"], "ongoing group first")
	assert.EqualValues(t, 4, body["totalPositions"])
}

func TestListCompanies_StoreError(t *testing.T) {
	ts, fs, _ := newTestServer(t, config.ServerConfig{})
	fs.listErr = errors.New("disk on fire")

	resp, body := do(t, ts, http.MethodGet, "/api/companies", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal server error", body["error"])
}

func TestGroupCompanies(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})

	resp, body := do(t, ts, http.MethodPost, "/api/companies/group",
		`{"positions":[{"id":"x","title":"Engineer","org":"Initech LLC","date_start":"2020-01-01","date_end":"2021-01-01"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	companies := body["companies"].([]any)
	require.Len(t, companies, 1)
	assert.Equal(t, "initech", companies[0].(map[string]any)["normalizedName"])

	resp, body = do(t, ts, http.MethodPost, "/api/companies/group", `{"positions":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["companies"])

	resp, body = do(t, ts, http.MethodPost, "/api/companies/group", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "positions", body["field"])

	resp, _ = do(t, ts, http.MethodPost, "/api/companies/group", `{"positions":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, ts, http.MethodPost, "/api/companies/group", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "request body is required", body["error"])
}

func TestListDuplicates(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})

	resp, body := do(t, ts, http.MethodGet, "/api/duplicates", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["groups"], 1)
	assert.InDelta(t, 0.7, body["threshold"], 1e-9)
	assert.Equal(t, false, body["thresholdDefaulted"])

	resp, body = do(t, ts, http.MethodGet, "/api/duplicates?threshold=abc", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["thresholdDefaulted"])
}

func TestDetectDuplicates(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})
	jobs := `[
		{"id":"1","title":"Software Engineer","org":"Tech Corp","date_start":"2020-01-01","date_end":"2021-01-01","skills":["Go"]},
		{"id":"2","title":"Software Engineer","org":"Tech Corp Inc.","date_start":"2020-01-01","date_end":"2021-01-01","skills":["Go"]}
	]`

	resp, body := do(t, ts, http.MethodPost, "/api/duplicates/detect", `{"jobs":`+jobs+`,"threshold":0.8}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.InDelta(t, 0.8, body["threshold"], 1e-9)
	require.Len(t, body["groups"], 1)

	resp, body = do(t, ts, http.MethodPost, "/api/duplicates/detect", `{"jobs":`+jobs+`,"threshold":"high"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["thresholdDefaulted"])

	resp, body = do(t, ts, http.MethodPost, "/api/duplicates/detect", `{"jobs":[{"id":"1","title":"x","org":"y"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dedupe.MessageTooFewJobs, body["message"])

	resp, _ = do(t, ts, http.MethodPost, "/api/duplicates/detect", `{"threshold":0.5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPreviewMerge(t *testing.T) {
	ts, fs, _ := newTestServer(t, config.ServerConfig{})

	resp, body := do(t, ts, http.MethodPost, "/api/merge/preview", `{"sourceId":"g2","targetId":"g1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	merged := body["mergedData"].(map[string]any)
	assert.Equal(t, "g1", merged["id"])
	assert.Equal(t, "Boston, MA", merged["location"])
	assert.Len(t, fs.rows, 4, "preview persists nothing")

	resp, body = do(t, ts, http.MethodPost, "/api/merge/preview", `{"sourceId":"g1","targetId":"g1"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "targetId", body["field"])

	resp, _ = do(t, ts, http.MethodPost, "/api/merge/preview", `{"sourceId":"g1","targetId":"nope"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMerge_UnconfirmedPreviews(t *testing.T) {
	ts, fs, _ := newTestServer(t, config.ServerConfig{})

	resp, body := do(t, ts, http.MethodPost, "/api/merge", `{"sourceId":"g2","targetId":"g1","confirmed":false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["confirmed"])
	assert.NotNil(t, body["preview"])
	assert.Len(t, fs.rows, 4)
}

func TestMerge_ConfirmedRunsAsync(t *testing.T) {
	ts, fs, svc := newTestServer(t, config.ServerConfig{})

	resp, body := do(t, ts, http.MethodPost, "/api/merge",
		`{"sourceId":"g2","targetId":"g1","confirmed":true,"fieldStrategies":{"location":"prefer_source"}}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	op := body["operation"].(map[string]any)
	id := op["id"].(string)
	assert.Equal(t, "pending", op["status"])
	assert.Equal(t, "/api/merge/"+id+"/status", body["statusUrl"])

	svc.Wait()

	resp, body = do(t, ts, http.MethodGet, "/api/merge/"+id+"/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "completed", body["status"])

	fs.mu.Lock()
	assert.Len(t, fs.rows, 3)
	fs.mu.Unlock()

	resp, _ = do(t, ts, http.MethodDelete, "/api/merge/"+id, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, ts, http.MethodGet, "/api/merge/"+id+"/status", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = do(t, ts, http.MethodDelete, "/api/merge/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMerge_ConfirmedValidationIsImmediate(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})

	resp, body := do(t, ts, http.MethodPost, "/api/merge", `{"targetId":"g1","confirmed":true}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "sourceId", body["field"])
}

func TestReport(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})

	resp, body := do(t, ts, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 4, summary["positions"])
	assert.EqualValues(t, 2, summary["companies"])
	assert.EqualValues(t, 1, summary["duplicateGroups"])
}

func TestRateLimit(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{RateLimit: 0.001, RateBurst: 2})

	statuses := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, _ := do(t, ts, http.MethodGet, "/health", "")
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, statuses)
}

func TestCORS(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/merge", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMergeStatus_UnknownID(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})
	resp, _ := do(t, ts, http.MethodGet, "/api/merge/unknown/status", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNonArraySkillsAreEmptied(t *testing.T) {
	ts, _, _ := newTestServer(t, config.ServerConfig{})

	resp, body := do(t, ts, http.MethodPost, "/api/duplicates/detect", `{"jobs":[
		{"id":"a","title":"Software Engineer","org":"Tech Corp","date_start":"2020-01-01","date_end":"2021-01-01","skills":"Go"},
		{"id":"b","title":"Software Engineer","org":"Tech Corp","date_start":"2020-01-01","date_end":"2021-01-01","skills":{"x":1}}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["totalJobs"])

	resp, body = do(t, ts, http.MethodPost, "/api/companies/group", `{"positions":[
		{"id":"x","title":"Engineer","org":"Initech","date_start":"2020-01-01","skills":{"x":1}},
		{"id":"y","title":"Engineer","org":"Initech","date_start":"2021-01-01","skills":42}
	]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["companies"], 1)
}
