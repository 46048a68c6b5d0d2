// Package store implements the persistence gateway over Supabase: record CRUD
// through PostgREST and blob uploads through Supabase storage.
package store

// Fields is one record's column values.
type Fields map[string]interface{}

// Store is the persistence contract consumed by the orchestration core and
// the API handlers. Get reports absence through its second return value and
// never surfaces an error; failed lookups are treated as absent.
type Store interface {
	Insert(table string, fields Fields) (Fields, error)
	Update(table, id string, fields Fields) (Fields, error)
	Get(table, id string) (Fields, bool)
	UploadBlob(bucket, path string, data []byte, contentType string) (string, error)
}
