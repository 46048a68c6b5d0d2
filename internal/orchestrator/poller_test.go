package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aistudio/internal/gateway"
	"aistudio/internal/store"
	"aistudio/models"
)

func insertPendingVideo(t *testing.T, st *memStore) string {
	t.Helper()
	rec, err := st.Insert(models.VideoAssetsTable, store.Fields{
		"title":        "Promo Video",
		"user_content": "a watch ad",
		"status":       models.StatusPending,
	})
	if err != nil {
		t.Fatalf("seeding pending record: %v", err)
	}
	return recordID(rec)
}

func TestPollAndSaveCompletesAndStores(t *testing.T) {
	gen := &genMock{
		statuses: []gateway.VideoJobStatus{
			{Status: gateway.JobQueued},
			{Status: gateway.JobInProgress},
			{Status: gateway.JobCompleted},
		},
	}
	st := newMemStore()
	core := testCore(t, gen, st)
	id := insertPendingVideo(t, st)

	score := 86
	core.pollAndSave(context.Background(), pollJob{
		RecordID:   id,
		ExternalID: "ext-123",
		Prompt:     "final prompt",
		QAScore:    &score,
	})

	last := st.lastUpdate(id)
	if last == nil {
		t.Fatal("no terminal update written")
	}
	if last["status"] != models.StatusCompleted {
		t.Errorf("status = %v, want completed", last["status"])
	}
	if last["video_prompt"] != "final prompt" {
		t.Errorf("video_prompt = %v, want the submitted prompt", last["video_prompt"])
	}
	if last["qa_score"] != 86 {
		t.Errorf("qa_score = %v, want 86", last["qa_score"])
	}
	if url, _ := last["video_url"].(string); !strings.Contains(url, models.VideoBucket) {
		t.Errorf("video_url = %v, want a storage URL in bucket %s", last["video_url"], models.VideoBucket)
	}
	if n := st.terminalWrites(id); n != 1 {
		t.Errorf("terminal writes = %d, want exactly 1", n)
	}
}

// Remote failure messages are passed through verbatim, and the attempted
// prompt is kept for diagnostics.
func TestPollAndSaveRemoteFailurePassthrough(t *testing.T) {
	gen := &genMock{
		statuses: []gateway.VideoJobStatus{
			{Status: gateway.JobFailed, Error: "quota_exceeded"},
		},
	}
	st := newMemStore()
	core := testCore(t, gen, st)
	id := insertPendingVideo(t, st)

	core.pollAndSave(context.Background(), pollJob{RecordID: id, ExternalID: "ext-123", Prompt: "p"})

	last := st.lastUpdate(id)
	if last["status"] != models.StatusFailed {
		t.Fatalf("status = %v, want failed", last["status"])
	}
	if last["error_message"] != "quota_exceeded" {
		t.Errorf("error_message = %v, want the provider message verbatim", last["error_message"])
	}
	if last["video_prompt"] != "p" {
		t.Errorf("video_prompt = %v, want the attempted prompt", last["video_prompt"])
	}
	if n := st.terminalWrites(id); n != 1 {
		t.Errorf("terminal writes = %d, want exactly 1", n)
	}
}

func TestPollAndSaveRemoteFailureWithoutMessage(t *testing.T) {
	gen := &genMock{statuses: []gateway.VideoJobStatus{{Status: gateway.JobFailed}}}
	st := newMemStore()
	core := testCore(t, gen, st)
	id := insertPendingVideo(t, st)

	core.pollAndSave(context.Background(), pollJob{RecordID: id, ExternalID: "ext-123", Prompt: "p"})

	if msg := st.lastUpdate(id)["error_message"]; msg != "Unknown error" {
		t.Errorf("error_message = %v, want the fallback message", msg)
	}
}

// When interval and wait bound are equal, exactly one poll happens before the
// timeout is declared.
func TestPollAndSaveTimeoutIsDeterministic(t *testing.T) {
	gen := &genMock{statuses: []gateway.VideoJobStatus{{Status: gateway.JobQueued}}}
	st := newMemStore()
	core := testCore(t, gen, st)
	core.cfg.PollInterval = 20 * time.Millisecond
	core.cfg.PollMaxWait = 20 * time.Millisecond
	id := insertPendingVideo(t, st)

	core.pollAndSave(context.Background(), pollJob{RecordID: id, ExternalID: "ext-123", Prompt: "p"})

	if gen.statusCalls != 1 {
		t.Errorf("status polls = %d, want exactly 1", gen.statusCalls)
	}
	last := st.lastUpdate(id)
	if last["status"] != models.StatusFailed {
		t.Fatalf("status = %v, want failed", last["status"])
	}
	if msg, _ := last["error_message"].(string); !strings.Contains(msg, "timed out") {
		t.Errorf("error_message = %q, want a timeout message", msg)
	}
}

// Transient status-fetch errors never fail the job; polling continues.
func TestPollAndSaveRetriesTransientErrors(t *testing.T) {
	gen := &genMock{
		statusErrs: []error{errors.New("connection reset"), nil},
		statuses: []gateway.VideoJobStatus{
			{Status: gateway.JobQueued}, // consumed by the erroring call slot
			{Status: gateway.JobCompleted},
		},
	}
	st := newMemStore()
	core := testCore(t, gen, st)
	id := insertPendingVideo(t, st)

	old := transientPollBackoff
	transientPollBackoff = time.Millisecond
	defer func() { transientPollBackoff = old }()

	core.pollAndSave(context.Background(), pollJob{RecordID: id, ExternalID: "ext-123", Prompt: "p"})

	if st.lastUpdate(id)["status"] != models.StatusCompleted {
		t.Errorf("status = %v, want completed after transient error", st.lastUpdate(id)["status"])
	}
	if gen.statusCalls != 2 {
		t.Errorf("status polls = %d, want 2", gen.statusCalls)
	}
}

// A storage failure after remote success still ends the job failed.
func TestPollAndSaveStorageFailureFailsJob(t *testing.T) {
	gen := &genMock{}
	st := newMemStore()
	st.uploadErr = errors.New("bucket unavailable")
	core := testCore(t, gen, st)
	id := insertPendingVideo(t, st)

	core.pollAndSave(context.Background(), pollJob{RecordID: id, ExternalID: "ext-123", Prompt: "p"})

	last := st.lastUpdate(id)
	if last["status"] != models.StatusFailed {
		t.Fatalf("status = %v, want failed", last["status"])
	}
	if msg, _ := last["error_message"].(string); !strings.HasPrefix(msg, "video storage failed") {
		t.Errorf("error_message = %q, want a storage failure message", msg)
	}
	if n := st.terminalWrites(id); n != 1 {
		t.Errorf("terminal writes = %d, want exactly 1", n)
	}
}

func TestPollAndSaveDownloadFailureFailsJob(t *testing.T) {
	gen := &genMock{downloadErr: errors.New("content gone")}
	st := newMemStore()
	core := testCore(t, gen, st)
	id := insertPendingVideo(t, st)

	core.pollAndSave(context.Background(), pollJob{RecordID: id, ExternalID: "ext-123", Prompt: "p"})

	if st.lastUpdate(id)["status"] != models.StatusFailed {
		t.Errorf("status = %v, want failed when download fails", st.lastUpdate(id)["status"])
	}
}

// Remix jobs keep a local copy alongside the storage upload, under the fixed
// title and prefixed object name.
func TestPollAndSaveRemixDualPersistence(t *testing.T) {
	gen := &genMock{content: []byte("remix-bytes")}
	st := newMemStore()
	core := testCore(t, gen, st)
	id := insertPendingVideo(t, st)

	core.pollAndSave(context.Background(), pollJob{
		RecordID:   id,
		ExternalID: "remix-456",
		Prompt:     "remix prompt",
		LocalDir:   core.cfg.RemixCacheDir,
		FixedTitle: "Remixed Video",
		FilePrefix: "remix_",
	})

	local := filepath.Join(core.cfg.RemixCacheDir, id+".mp4")
	data, err := os.ReadFile(local)
	if err != nil {
		t.Fatalf("local remix copy missing: %v", err)
	}
	if string(data) != "remix-bytes" {
		t.Errorf("local copy content = %q, want the downloaded bytes", data)
	}

	last := st.lastUpdate(id)
	if last["title"] != "Remixed Video" {
		t.Errorf("title = %v, want the fixed remix title", last["title"])
	}
	if len(st.uploads) != 1 || !strings.HasSuffix(st.uploads[0], "remix_"+id+".mp4") {
		t.Errorf("uploads = %v, want one prefixed object", st.uploads)
	}
	if n := gen.countSystems("creative writer"); n != 0 {
		t.Errorf("title generation calls = %d, want 0 for a fixed title", n)
	}
}
