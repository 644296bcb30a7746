package devtools

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	reconcile "github.com/vango-dev/reconcile"
	"github.com/vango-dev/reconcile/pkg/host"
	"github.com/vango-dev/reconcile/pkg/telemetry"
	"github.com/vango-dev/reconcile/pkg/vdom"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	mem := host.NewMemory()
	root := reconcile.New(mem, mem.NewContainer("body"),
		reconcile.WithMetrics(telemetry.NewMetrics(telemetry.WithRegistry(reg))))
	t.Cleanup(root.Dispose)

	frames := []*vdom.VNode{
		vdom.Ul(vdom.Li(vdom.Key("a"), vdom.Text("a"))),
		vdom.Ul(vdom.Li(vdom.Key("b"), vdom.Text("b")), vdom.Li(vdom.Key("a"), vdom.Text("a"))),
	}
	return New(root, mem, frames, WithGatherer(reg))
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStepThroughFrames(t *testing.T) {
	s := newServer(t)

	for i := 0; i < 2; i++ {
		if rec := do(t, s, http.MethodPost, "/next"); rec.Code != http.StatusOK {
			t.Fatalf("POST /next #%d = %d: %s", i, rec.Code, rec.Body)
		}
	}
	if rec := do(t, s, http.MethodPost, "/next"); rec.Code != http.StatusConflict {
		t.Errorf("POST /next past the end = %d, want 409", rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/tree")
	var tree TreeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &tree); err != nil {
		t.Fatalf("decode /tree: %v", err)
	}
	if tree.HTML != "<ul><li>b</li><li>a</li></ul>" {
		t.Errorf("html = %s", tree.HTML)
	}
	if tree.Seq != 2 || tree.Frame != 2 || tree.Frames != 2 {
		t.Errorf("tree = %+v", tree)
	}

	rec = do(t, s, http.MethodGet, "/patches")
	if !strings.Contains(rec.Body.String(), `"op":"Create"`) {
		t.Errorf("/patches = %s", rec.Body)
	}
}

func TestJumpToFrame(t *testing.T) {
	s := newServer(t)

	if rec := do(t, s, http.MethodPost, "/frames/1"); rec.Code != http.StatusOK {
		t.Fatalf("POST /frames/1 = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/frames/0"); rec.Code != http.StatusOK {
		t.Fatalf("POST /frames/0 = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/frames/x"); rec.Code != http.StatusBadRequest {
		t.Errorf("POST /frames/x = %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/frames/9"); rec.Code != http.StatusConflict {
		t.Errorf("POST /frames/9 = %d, want 409", rec.Code)
	}

	var tree TreeResponse
	_ = json.Unmarshal(do(t, s, http.MethodGet, "/tree").Body.Bytes(), &tree)
	if tree.HTML != "<ul><li>a</li></ul>" {
		t.Errorf("html = %s", tree.HTML)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newServer(t)
	do(t, s, http.MethodPost, "/next")

	rec := do(t, s, http.MethodGet, "/metrics")
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "reconcile_patches_total") {
		t.Errorf("/metrics does not list reconcile_patches_total:\n%s", body)
	}
}

func TestStreamFrames(t *testing.T) {
	s := newServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()
	defer s.Stream().Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.Stream().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	resp, err := http.Post(ts.URL+"/next", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type    MessageType       `json:"type"`
		Seq     uint64            `json:"seq"`
		HTML    string            `json:"html"`
		Patches []json.RawMessage `json:"patches"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != MessageFrame || msg.Seq != 1 || msg.HTML != "<ul><li>a</li></ul>" {
		t.Errorf("message = %+v", msg)
	}
	if len(msg.Patches) != 1 {
		t.Errorf("patches = %d, want 1", len(msg.Patches))
	}
}

func TestConcurrentNextAppliesEachFrameOnce(t *testing.T) {
	s := newServer(t)

	const workers = 8
	codes := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/next", nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}(i)
	}
	wg.Wait()

	var ok, conflict int
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusConflict:
			conflict++
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if ok != 2 || conflict != workers-2 {
		t.Errorf("ok = %d, conflict = %d, want 2 and %d", ok, conflict, workers-2)
	}

	var tree TreeResponse
	_ = json.Unmarshal(do(t, s, http.MethodGet, "/tree").Body.Bytes(), &tree)
	if tree.Seq != 2 || tree.Frame != 2 {
		t.Errorf("tree = %+v, want seq 2 frame 2", tree)
	}
}

func TestConcurrentBroadcast(t *testing.T) {
	stream := NewStream()
	ts := httptest.NewServer(http.HandlerFunc(stream.HandleWebSocket))
	defer ts.Close()
	defer stream.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for stream.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	const senders, each = 4, 25
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < each; j++ {
				stream.Broadcast(Message{Type: MessageFrame, Seq: uint64(j + 1)})
			}
		}()
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for n := 0; n < senders*each; n++ {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read #%d: %v", n, err)
		}
		if msg.Type != MessageFrame {
			t.Fatalf("message #%d type = %q", n, msg.Type)
		}
	}
	wg.Wait()

	if stream.ClientCount() != 1 {
		t.Errorf("clients = %d, want 1", stream.ClientCount())
	}
}
