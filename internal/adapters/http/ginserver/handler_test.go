package ginserver

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mkurnosov/webpulse/internal/adapters/http/ginserver/middlewares"
	memrepo "github.com/mkurnosov/webpulse/internal/adapters/repository/memory"
	"github.com/mkurnosov/webpulse/internal/domain"
	"github.com/mkurnosov/webpulse/internal/misc"
	"github.com/mkurnosov/webpulse/internal/services/monitor"
)

type fakeSource struct {
	mu   sync.Mutex
	snap domain.Snapshot
	err  error
}

func (f *fakeSource) GetSnapshot(context.Context) (*domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &f.snap, nil
}

func newServer(t *testing.T, src *fakeSource, key string) (*httptest.Server, *memrepo.Repo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memrepo.New(0)
	svc := monitor.New(src, repo, zap.NewNop())
	h := NewHandler(svc)

	r := NewRouter(
		h,
		zap.NewNop(),
		middlewares.ZapLogger(zap.NewNop()),
		middlewares.GzipResponse(),
		middlewares.HashSHA256(key),
	)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doReq(t *testing.T, url string, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	data := readMaybeGzip(t, resp)
	return resp, data
}

func readMaybeGzip(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	var r io.Reader = resp.Body
	if strings.Contains(strings.ToLower(resp.Header.Get("Content-Encoding")), "gzip") {
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			t.Fatalf("gzip reader: %v", err)
		}
		defer zr.Close()
		r = zr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func TestHandler_Snapshot(t *testing.T) {
	src := &fakeSource{snap: domain.Snapshot{HandleCount: 37, ProcessCount: 3}}
	srv, repo := newServer(t, src, "")

	resp, body := doReq(t, srv.URL+"/api/v1/snapshot", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}

	var entry domain.HistoryEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Snapshot.HandleCount != 37 || entry.Snapshot.ProcessCount != 3 {
		t.Errorf("got %+v", entry.Snapshot)
	}

	// Each served snapshot lands in history.
	if _, err := repo.Latest(context.Background()); err != nil {
		t.Errorf("history empty after snapshot: %v", err)
	}
}

func TestHandler_SnapshotGzip(t *testing.T) {
	src := &fakeSource{snap: domain.Snapshot{ThreadCount: 5}}
	srv, _ := newServer(t, src, "")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/snapshot", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	tr := &http.Transport{DisableCompression: true}
	resp, err := (&http.Client{Transport: tr}).Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if enc := resp.Header.Get("Content-Encoding"); !strings.Contains(enc, "gzip") {
		t.Errorf("Content-Encoding=%q want gzip", enc)
	}
	body := readMaybeGzip(t, resp)

	var entry domain.HistoryEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Snapshot.ThreadCount != 5 {
		t.Errorf("ThreadCount=%d want 5", entry.Snapshot.ThreadCount)
	}
}

func TestHandler_SnapshotSigned(t *testing.T) {
	const key = "secret"
	src := &fakeSource{}
	srv, _ := newServer(t, src, key)

	resp, body := doReq(t, srv.URL+"/api/v1/snapshot", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	got := resp.Header.Get("HashSHA256")
	if got == "" {
		t.Fatal("missing HashSHA256 header")
	}
	if want := misc.SumSHA256(body, key); !strings.EqualFold(got, want) {
		t.Errorf("signature mismatch: got %s want %s", got, want)
	}
}

func TestHandler_History(t *testing.T) {
	src := &fakeSource{snap: domain.Snapshot{ActiveRequests: 2}}
	srv, repo := newServer(t, src, "")

	base := time.Unix(1700000000, 0).UTC()
	for i := 0; i < 3; i++ {
		entry := domain.HistoryEntry{
			TakenAt:  base.Add(time.Duration(i) * time.Second),
			Snapshot: domain.Snapshot{ActiveRequests: int64(i)},
		}
		if err := repo.Insert(context.Background(), entry); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	resp, body := doReq(t, srv.URL+"/api/v1/history?since="+base.Add(time.Second).Format(time.RFC3339)+"&limit=5", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}

	var entries []domain.HistoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len=%d want 2", len(entries))
	}

	resp, _ = doReq(t, srv.URL+"/api/v1/history?since=yesterday", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad since status=%d want 400", resp.StatusCode)
	}

	resp, _ = doReq(t, srv.URL+"/api/v1/history?limit=-1", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad limit status=%d want 400", resp.StatusCode)
	}
}

func TestHandler_Latest(t *testing.T) {
	src := &fakeSource{}
	srv, repo := newServer(t, src, "")

	resp, _ := doReq(t, srv.URL+"/api/v1/snapshot/latest", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("empty history status=%d want 404", resp.StatusCode)
	}

	entry := domain.HistoryEntry{
		TakenAt:  time.Unix(1700000000, 0).UTC(),
		Snapshot: domain.Snapshot{AvailableBytes: 1 << 30},
	}
	if err := repo.Insert(context.Background(), entry); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	resp, body := doReq(t, srv.URL+"/api/v1/snapshot/latest", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	var got domain.HistoryEntry
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Snapshot.AvailableBytes != 1<<30 {
		t.Errorf("AvailableBytes=%d", got.Snapshot.AvailableBytes)
	}
}

func TestHandler_SnapshotError(t *testing.T) {
	src := &fakeSource{err: context.DeadlineExceeded}
	srv, _ := newServer(t, src, "")

	resp, _ := doReq(t, srv.URL+"/api/v1/snapshot", nil)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status=%d want 500", resp.StatusCode)
	}
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	srv, _ := newServer(t, &fakeSource{}, "")

	resp, err := http.Post(srv.URL+"/api/v1/snapshot", "application/json", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status=%d want 405", resp.StatusCode)
	}
}
