package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"aistudio/config"
	"aistudio/internal/gateway"
	"aistudio/internal/store"
)

// genMock is a scriptable Generator. Zero value behavior: text calls echo a
// fixed string, moderation passes, video jobs complete on the first poll.
type genMock struct {
	mu sync.Mutex

	textFn    func(system, user string, image []byte) (string, error)
	analyzeFn func(prompt string, image []byte) (string, error)

	moderationFlagged bool
	moderationErr     error
	moderationCalls   int

	createErr   error
	createCalls int
	lastSize    string

	remixErr        error
	remixCalls      int
	lastRemixTarget string

	statuses    []gateway.VideoJobStatus // consumed in order; empty means completed
	statusErrs  []error                  // aligned with statuses; nil entries succeed
	statusCalls int

	content     []byte
	downloadErr error

	systemsSeen []string // every system prompt passed to GenerateText
}

func (g *genMock) GenerateText(_ context.Context, system, user string, image []byte) (string, error) {
	g.mu.Lock()
	g.systemsSeen = append(g.systemsSeen, system)
	fn := g.textFn
	g.mu.Unlock()
	if fn != nil {
		return fn(system, user, image)
	}
	return "generated text", nil
}

func (g *genMock) AnalyzeImage(_ context.Context, prompt string, image []byte) (string, error) {
	if g.analyzeFn != nil {
		return g.analyzeFn(prompt, image)
	}
	return "{}", nil
}

func (g *genMock) CheckModeration(_ context.Context, _ string) (bool, error) {
	g.mu.Lock()
	g.moderationCalls++
	g.mu.Unlock()
	if g.moderationErr != nil {
		return false, g.moderationErr
	}
	return g.moderationFlagged, nil
}

func (g *genMock) CreateVideoJob(_ context.Context, _ string, _ []byte, size string) (string, error) {
	g.mu.Lock()
	g.createCalls++
	g.lastSize = size
	g.mu.Unlock()
	if g.createErr != nil {
		return "", g.createErr
	}
	return "ext-123", nil
}

func (g *genMock) RemixVideoJob(_ context.Context, externalID, _ string) (string, error) {
	g.mu.Lock()
	g.remixCalls++
	g.lastRemixTarget = externalID
	g.mu.Unlock()
	if g.remixErr != nil {
		return "", g.remixErr
	}
	return "remix-456", nil
}

func (g *genMock) GetVideoJobStatus(_ context.Context, _ string) (gateway.VideoJobStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.statusCalls
	g.statusCalls++
	if i < len(g.statusErrs) && g.statusErrs[i] != nil {
		return gateway.VideoJobStatus{}, g.statusErrs[i]
	}
	if i < len(g.statuses) {
		return g.statuses[i], nil
	}
	if n := len(g.statuses); n > 0 {
		return g.statuses[n-1], nil
	}
	return gateway.VideoJobStatus{Status: gateway.JobCompleted}, nil
}

func (g *genMock) DownloadVideoContent(_ context.Context, _ string) ([]byte, error) {
	if g.downloadErr != nil {
		return nil, g.downloadErr
	}
	if g.content != nil {
		return g.content, nil
	}
	return []byte("mp4-bytes"), nil
}

// countSystems returns how many recorded system prompts contain marker.
func (g *genMock) countSystems(marker string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, s := range g.systemsSeen {
		if strings.Contains(s, marker) {
			n++
		}
	}
	return n
}

type imageGenMock struct {
	url string
	err error
}

func (m *imageGenMock) GenerateImage(_ context.Context, _, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.url != "" {
		return m.url, nil
	}
	return "https://cdn.example.com/out.png", nil
}

// memStore is an in-memory Store recording every write.
type memStore struct {
	mu      sync.Mutex
	records map[string]store.Fields   // table/id
	updates map[string][]store.Fields // id -> update history
	uploads []string                  // bucket/path

	insertErr error
	updateErr error
	uploadErr error
}

func newMemStore() *memStore {
	return &memStore{
		records: make(map[string]store.Fields),
		updates: make(map[string][]store.Fields),
	}
}

func (m *memStore) Insert(table string, fields store.Fields) (store.Fields, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	id := uuid.NewString()
	rec := store.Fields{"id": id}
	for k, v := range fields {
		rec[k] = v
	}
	m.records[table+"/"+id] = rec
	return rec, nil
}

func (m *memStore) Update(table, id string, fields store.Fields) (store.Fields, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	rec, ok := m.records[table+"/"+id]
	if !ok {
		return nil, fmt.Errorf("record %s not found in %s", id, table)
	}
	for k, v := range fields {
		rec[k] = v
	}
	m.updates[id] = append(m.updates[id], fields)
	return rec, nil
}

func (m *memStore) Get(table, id string) (store.Fields, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[table+"/"+id]
	return rec, ok
}

func (m *memStore) UploadBlob(bucket, path string, _ []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploads = append(m.uploads, bucket+"/"+path)
	return "https://storage.example.com/" + bucket + "/" + path, nil
}

// terminalWrites counts updates that set a status column for one record.
func (m *memStore) terminalWrites(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, u := range m.updates[id] {
		if _, ok := u["status"]; ok {
			n++
		}
	}
	return n
}

func (m *memStore) lastUpdate(id string) store.Fields {
	m.mu.Lock()
	defer m.mu.Unlock()
	hist := m.updates[id]
	if len(hist) == 0 {
		return nil
	}
	return hist[len(hist)-1]
}

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	return &config.Settings{
		VideoSize:      "720x1280",
		VideoSeconds:   12,
		PollInterval:   time.Millisecond,
		PollMaxWait:    250 * time.Millisecond,
		RequestTimeout: time.Second,
		RemixCacheDir:  t.TempDir(),
	}
}

func testCore(t *testing.T, gen *genMock, st *memStore) *Core {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(gen, &imageGenMock{}, st, testSettings(t), log)
}

// tinyPNG returns a valid encoded image for reference-image inputs.
func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("encoding fixture image: %v", err)
	}
	return buf.Bytes()
}

// scoreSequence builds a textFn serving QA scores in order, fixed prompts for
// corrections, and a default elsewhere.
func scoreSequence(scores ...int) func(system, user string, image []byte) (string, error) {
	var mu sync.Mutex
	i := 0
	return func(system, _ string, _ []byte) (string, error) {
		switch {
		case strings.Contains(system, "quality controller"), strings.Contains(system, "Quality Assurance Auditor"):
			mu.Lock()
			score := scores[len(scores)-1]
			if i < len(scores) {
				score = scores[i]
			}
			i++
			mu.Unlock()
			return fmt.Sprintf(`{"approved": %t, "score": %d, "violations": ["too abrupt"], "qa_summary": "ok"}`, score >= 80, score), nil
		case strings.Contains(system, "Fix these violations"):
			return "corrected prompt", nil
		default:
			return "stage output", nil
		}
	}
}
