package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"aistudio/models"
)

func TestRunImageHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	gen := &genMock{textFn: func(system, _ string, _ []byte) (string, error) {
		if strings.Contains(system, "creative director") {
			return "refined prompt", nil
		}
		return "A Catchy Title", nil
	}}
	st := newMemStore()
	core := testCore(t, gen, st)
	core.images = &imageGenMock{url: srv.URL + "/out.png"}

	id, err := core.InitiateImage("a serum ad", "https://cdn.example.com/ref.png", "user-1")
	if err != nil {
		t.Fatalf("InitiateImage returned error: %v", err)
	}

	rec, ok := st.Get(models.ImageAssetsTable, id)
	if !ok || rec["status"] != models.StatusPending {
		t.Fatalf("pending image record not created: %v", rec)
	}

	core.RunImage(context.Background(), id, "a serum ad", "https://cdn.example.com/ref.png")

	last := st.lastUpdate(id)
	if last["status"] != models.StatusCompleted {
		t.Fatalf("status = %v, want completed", last["status"])
	}
	if last["image_prompt"] != "refined prompt" {
		t.Errorf("image_prompt = %v, want the refined prompt", last["image_prompt"])
	}
	if url, _ := last["image_url"].(string); !strings.Contains(url, models.ImageBucket) {
		t.Errorf("image_url = %v, want a storage URL in bucket %s", last["image_url"], models.ImageBucket)
	}
	if len(st.uploads) != 1 || !strings.HasSuffix(st.uploads[0], id+".png") {
		t.Errorf("uploads = %v, want one png object named by record id", st.uploads)
	}
}

func TestRunImageProviderFailureFailsJob(t *testing.T) {
	gen := &genMock{}
	st := newMemStore()
	core := testCore(t, gen, st)
	core.images = &imageGenMock{err: errors.New("provider down")}

	id, err := core.InitiateImage("a serum ad", "https://cdn.example.com/ref.png", "")
	if err != nil {
		t.Fatalf("InitiateImage returned error: %v", err)
	}

	core.RunImage(context.Background(), id, "a serum ad", "https://cdn.example.com/ref.png")

	last := st.lastUpdate(id)
	if last["status"] != models.StatusFailed {
		t.Fatalf("status = %v, want failed", last["status"])
	}
	if n := st.terminalWrites(id); n != 1 {
		t.Errorf("terminal writes = %d, want exactly 1", n)
	}
}
