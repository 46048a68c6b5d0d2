package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"aistudio/internal/apperr"
	"aistudio/internal/gateway"
	"aistudio/internal/store"
	"aistudio/models"
)

// transientPollBackoff is how long the poller waits after a failed status
// fetch before trying again. Transient network errors never fail the job;
// only a terminal remote status or the wait bound ends the loop.
var transientPollBackoff = 2 * time.Second

// pollJob describes one external video job to watch until terminal.
type pollJob struct {
	RecordID   string
	ExternalID string
	Prompt     string
	QAScore    *int
	LocalDir   string // when set, the asset is also written here (remix)
	FixedTitle string // when set, used instead of a generated title (remix)
	FilePrefix string // prefix for the storage object name
}

// pollAndSave watches the external job until completion, failure, or the wait
// bound, then performs the single terminal persistence write. It handles all
// of its own failures; callers must not write another terminal state after it
// returns.
func (c *Core) pollAndSave(ctx context.Context, job pollJob) {
	log := c.log.WithFields(logrus.Fields{"record_id": job.RecordID, "external_id": job.ExternalID})
	start := time.Now()

	for time.Since(start) < c.cfg.PollMaxWait {
		status, err := c.gen.GetVideoJobStatus(ctx, job.ExternalID)
		if err != nil {
			log.WithError(err).Warn("Status poll failed, retrying")
			if !c.sleep(ctx, transientPollBackoff) {
				break
			}
			continue
		}

		log.WithField("status", status.Status).Info("Remote job status")

		switch status.Status {
		case gateway.JobCompleted:
			c.saveCompleted(ctx, job)
			return

		case gateway.JobFailed:
			msg := status.Error
			if msg == "" {
				msg = "Unknown error"
			}
			log.WithField("error", msg).Error("Remote job failed")
			c.updateRecord(job.RecordID, store.Fields{
				"status":        models.StatusFailed,
				"error_message": msg,
				"video_prompt":  job.Prompt, // kept for diagnostics
			})
			return
		}

		if !c.sleep(ctx, c.cfg.PollInterval) {
			break
		}
	}

	log.Error("Polling exceeded wait bound")
	c.failJob(models.VideoAssetsTable, job.RecordID,
		apperr.Timeout("video generation polling timed out after %s", c.cfg.PollMaxWait))
}

// saveCompleted downloads and stores the finished asset, then writes the
// completed update. Any failure after the remote success still ends the job
// as failed: a generation success does not guarantee a storage success.
func (c *Core) saveCompleted(ctx context.Context, job pollJob) {
	log := c.log.WithFields(logrus.Fields{"record_id": job.RecordID, "external_id": job.ExternalID})
	log.Info("Remote job completed, downloading content")

	data, err := c.gen.DownloadVideoContent(ctx, job.ExternalID)
	if err != nil {
		c.failJob(models.VideoAssetsTable, job.RecordID, apperr.Persistence("video storage failed: %v", err))
		return
	}

	if job.LocalDir != "" {
		if err := c.writeLocalCopy(job.LocalDir, job.RecordID, data); err != nil {
			c.failJob(models.VideoAssetsTable, job.RecordID, apperr.Persistence("video storage failed: %v", err))
			return
		}
	}

	objectName := job.FilePrefix + job.RecordID + ".mp4"
	storageURL, err := c.store.UploadBlob(models.VideoBucket, objectName, data, "video/mp4")
	if err != nil {
		c.failJob(models.VideoAssetsTable, job.RecordID, apperr.Persistence("video storage failed: %v", err))
		return
	}

	title := job.FixedTitle
	if title == "" {
		title = c.creativeTitle(ctx, job.Prompt, "Generated Video")
	}

	fields := store.Fields{
		"status":       models.StatusCompleted,
		"video_url":    storageURL,
		"video_prompt": job.Prompt,
		"title":        title,
	}
	if job.QAScore != nil {
		fields["qa_score"] = *job.QAScore
	}
	c.updateRecord(job.RecordID, fields)
	log.Info("Workflow finished successfully")
}

func (c *Core) writeLocalCopy(dir, recordID string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, recordID+".mp4")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	c.log.WithField("path", path).Info("Asset cached locally")
	return nil
}

// updateRecord writes a terminal update; persistence errors at this point can
// only be logged.
func (c *Core) updateRecord(id string, fields store.Fields) {
	if _, err := c.store.Update(models.VideoAssetsTable, id, fields); err != nil {
		c.log.WithField("record_id", id).WithError(err).Error("Failed to persist terminal update")
	}
}

// sleep waits for d or until the context ends; it reports whether the wait
// completed.
func (c *Core) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
