package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/specgest/internal/config"
	"github.com/dgallion1/specgest/internal/extract"
	"github.com/dgallion1/specgest/internal/hwpxtest"
	"github.com/dgallion1/specgest/internal/metrics"
	"github.com/dgallion1/specgest/internal/pipeline"
)

type upload struct {
	field, name string
	data        []byte
}

func multipartBody(t *testing.T, files ...upload) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	cfg := config.Default()
	cfg.Extract.StagingDir = t.TempDir()
	cfg.Pipeline.WorkerCount = 1
	if mutate != nil {
		mutate(&cfg)
	}

	log := slog.New(slog.DiscardHandler)
	m := metrics.New()
	stats := extract.NewStats(time.Hour)
	ex := extract.NewExtractor(nil, cfg.Extract.StagingDir, log)
	orch := pipeline.NewOrchestrator(cfg, ex, m, stats, log)
	return NewServer(orch, m, stats, log, cfg), orch
}

func loginArchive(t *testing.T) []byte {
	return hwpxtest.Archive(t, hwpxtest.Entry{
		Name: "Contents/section0.xml",
		Data: hwpxtest.Section(hwpxtest.LoginTable()),
	})
}

func postFiles(t *testing.T, s *Server, path string, files ...upload) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, r io.Reader) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(r).Decode(&out))
	return out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestExtract_Sync(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := postFiles(t, s, "/api/extract", upload{"file", "요구사항.hwpx", loginArchive(t)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got struct {
		JobID        string                `json:"job_id"`
		Requirements []extract.Requirement `json:"requirements"`
		Sections     int                   `json:"sections"`
		Skipped      []string              `json:"skipped_sections"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.NotEmpty(t, got.JobID)
	assert.Equal(t, 1, got.Sections)
	assert.Empty(t, got.Skipped)
	assert.Equal(t, []extract.Requirement{{
		Number:     "REQ-001",
		Name:       "로그인",
		Type:       "기능",
		Definition: "사용자는 로그인할 수 있다",
		Detail:     "ID/PW 기반 인증 수행",
	}}, got.Requirements)
}

func TestExtract_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name     string
		file     upload
		wantCode int
		wantKind string
	}{
		{
			name:     "unsupported extension",
			file:     upload{"file", "spec.docx", loginArchive(t)},
			wantCode: http.StatusBadRequest,
			wantKind: extract.KindInvalidInput,
		},
		{
			name:     "not a zip",
			file:     upload{"file", "spec.hwpx", []byte("plain text")},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: extract.KindInvalidArchive,
		},
		{
			name:     "no sections",
			file:     upload{"file", "spec.hwpx", hwpxtest.Archive(t, hwpxtest.Entry{Name: "Contents/header.xml", Data: []byte("<h/>")})},
			wantCode: http.StatusUnprocessableEntity,
			wantKind: extract.KindNoSections,
		},
		{
			name: "no requirements",
			file: upload{"file", "spec.hwpx", hwpxtest.Archive(t, hwpxtest.Entry{
				Name: "Contents/section0.xml",
				Data: hwpxtest.Section(hwpxtest.Table{{"일정", "기간"}}),
			})},
			wantCode: http.StatusNotFound,
			wantKind: extract.KindNoRequirements,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, nil)
			rec := postFiles(t, s, "/api/extract", tt.file)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantKind, decode(t, rec.Body)["kind"])
		})
	}
}

func TestExtract_MissingFile(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := postFiles(t, s, "/api/extract")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "file is required", decode(t, rec.Body)["error"])
}

func TestExtract_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Extract.MaxUploadBytes = 16 })
	rec := postFiles(t, s, "/api/extract", upload{"file", "spec.hwpx", loginArchive(t)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "too_large", decode(t, rec.Body)["kind"])
}

func TestExtract_Timeout(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Extract.Timeout = time.Nanosecond })
	rec := postFiles(t, s, "/api/extract", upload{"file", "spec.hwpx", loginArchive(t)})
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, extract.KindCanceled, decode(t, rec.Body)["kind"])
}

func TestJobs_SubmitAndPoll(t *testing.T) {
	s, orch := newTestServer(t, nil)
	orch.Start(context.Background())
	defer orch.Stop()

	rec := postFiles(t, s, "/api/extract/jobs", upload{"file", "spec.hwpx", loginArchive(t)})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode(t, rec.Body)
	jobID, _ := accepted["job_id"].(string)
	require.NotEmpty(t, jobID)
	assert.Equal(t, "/api/extract/jobs/"+jobID, accepted["poll_url"])

	var snap pipeline.JobSnapshot
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extract/jobs/"+jobID, nil))
		if rec.Code != http.StatusOK {
			return false
		}
		snap = pipeline.JobSnapshot{}
		if err := json.NewDecoder(rec.Body).Decode(&snap); err != nil {
			return false
		}
		return snap.Status == pipeline.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	require.Len(t, snap.Requirements, 1)
	assert.Equal(t, "REQ-001", snap.Requirements[0].Number)
	assert.Equal(t, 1, snap.Progress.Requirements)
}

func TestJobs_NotFound(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extract/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJobs_QueueFull(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Pipeline.MaxQueueSize = 1 })
	// Workers never start, so the second job overflows.
	rec := postFiles(t, s, "/api/extract/jobs", upload{"file", "a.hwpx", loginArchive(t)})
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = postFiles(t, s, "/api/extract/jobs", upload{"file", "b.hwpx", loginArchive(t)})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestJobs_Batch(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := postFiles(t, s, "/api/extract/jobs/batch",
		upload{"files", "a.hwpx", loginArchive(t)},
		upload{"files", "b.pdf", []byte("%PDF")},
	)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var got struct {
		Jobs []map[string]any `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.Jobs, 2)
	assert.NotEmpty(t, got.Jobs[0]["job_id"])
	assert.Equal(t, "b.pdf", got.Jobs[1]["filename"])
	assert.Equal(t, extract.KindInvalidInput, got.Jobs[1]["kind"])
}

func TestStats(t *testing.T) {
	s, _ := newTestServer(t, nil)
	postFiles(t, s, "/api/extract", upload{"file", "spec.hwpx", loginArchive(t)})
	postFiles(t, s, "/api/extract", upload{"file", "spec.hwpx", []byte("junk")})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/extract", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		QueueDepth int                   `json:"queue_depth"`
		Stats      extract.StatsSnapshot `json:"stats"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 2, got.Stats.Count)
	assert.Equal(t, 1, got.Stats.Requirements)
	assert.Equal(t, map[string]int{"ok": 1, extract.KindInvalidArchive: 1}, got.Stats.Outcomes)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, nil)
	postFiles(t, s, "/api/extract", upload{"file", "spec.hwpx", loginArchive(t)})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `specgest_extractions_total{outcome="ok"} 1`)
	assert.Contains(t, rec.Body.String(), "specgest_requirements_total 1")
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.Server.APIKey = "secret" })

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/extract", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/extract", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stats/extract", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays public.
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"spec.hwpx":           "spec.hwpx",
		"../../etc/spec.hwpx": "spec.hwpx",
		`C:\docs\spec.hwpx`:   "spec.hwpx",
		"":                    "unnamed",
		"..":                  "_",
		"a..b.hwpx":           "a_b.hwpx",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}
