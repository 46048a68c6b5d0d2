package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"

	"aistudio/internal/apperr"
)

// SupabaseStore implements Store on a Supabase project.
type SupabaseStore struct {
	client *supa.Client
	log    *logrus.Logger
}

// NewSupabaseStore wraps an initialized Supabase client.
func NewSupabaseStore(client *supa.Client, log *logrus.Logger) *SupabaseStore {
	return &SupabaseStore{client: client, log: log}
}

var _ Store = (*SupabaseStore)(nil)

// Insert creates a record and returns the inserted row.
func (s *SupabaseStore) Insert(table string, fields Fields) (Fields, error) {
	body, _, err := s.client.From(table).
		Insert(fields, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, &apperr.PersistenceError{Message: fmt.Sprintf("insert into %s failed: %v", table, err), Err: err}
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, &apperr.PersistenceError{Message: fmt.Sprintf("decoding insert response for %s: %v", table, err), Err: err}
	}
	if len(rows) == 0 {
		return nil, apperr.Persistence("no record returned after insert into %s", table)
	}

	s.log.WithFields(logrus.Fields{"table": table, "id": rows[0]["id"]}).Info("Record inserted")
	return rows[0], nil
}

// Update modifies a record by id and returns the updated row.
func (s *SupabaseStore) Update(table, id string, fields Fields) (Fields, error) {
	body, _, err := s.client.From(table).
		Update(fields, "representation", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, &apperr.PersistenceError{Message: fmt.Sprintf("update of %s/%s failed: %v", table, id, err), Err: err}
	}

	rows, err := decodeRows(body)
	if err != nil {
		return nil, &apperr.PersistenceError{Message: fmt.Sprintf("decoding update response for %s/%s: %v", table, id, err), Err: err}
	}
	if len(rows) == 0 {
		return nil, apperr.Persistence("no record returned after update of %s/%s", table, id)
	}

	s.log.WithFields(logrus.Fields{"table": table, "id": id}).Info("Record updated")
	return rows[0], nil
}

// Get fetches a record by id. Lookup failures are logged and reported as
// absence so callers can treat every miss uniformly.
func (s *SupabaseStore) Get(table, id string) (Fields, bool) {
	body, _, err := s.client.From(table).
		Select("*", "", false).
		Eq("id", id).
		Limit(1, "").
		Execute()
	if err != nil {
		s.log.WithFields(logrus.Fields{"table": table, "id": id}).WithError(err).Warn("Record lookup failed")
		return nil, false
	}

	rows, err := decodeRows(body)
	if err != nil || len(rows) == 0 {
		return nil, false
	}
	return rows[0], true
}

// UploadBlob stores a blob in a bucket and returns its public URL. Existing
// objects at the same path are overwritten.
func (s *SupabaseStore) UploadBlob(bucket, path string, data []byte, contentType string) (string, error) {
	upsert := true
	_, err := s.client.Storage.UploadFile(bucket, path, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", &apperr.PersistenceError{Message: fmt.Sprintf("upload to %s/%s failed: %v", bucket, path, err), Err: err}
	}

	publicURL := s.client.Storage.GetPublicUrl(bucket, path).SignedURL
	if publicURL == "" {
		return "", apperr.Persistence("no public URL for %s/%s", bucket, path)
	}

	s.log.WithFields(logrus.Fields{"bucket": bucket, "path": path, "bytes": len(data)}).Info("Blob uploaded")
	return publicURL, nil
}

func decodeRows(body []byte) ([]Fields, error) {
	var rows []Fields
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
