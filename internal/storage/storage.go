package storage

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/lshigami/Quokkas/config"
	"github.com/rs/zerolog/log"
	storage_go "github.com/supabase-community/storage-go"
)

// FileStore accepts an already-validated upload and returns the public URL
// stored as the answer's file reference. Size and type checks happen in the
// validation engine before handoff.
type FileStore interface {
	Upload(name string, contentType string, data io.Reader) (string, error)
}

type supabaseStore struct {
	client *storage_go.Client
	bucket string
}

// NewSupabaseStore builds the storage collaborator from config.
func NewSupabaseStore(cfg *config.Config) FileStore {
	client := storage_go.NewClient(cfg.Supabase.URL+"/storage/v1", cfg.Supabase.ServiceKey, nil)
	return &supabaseStore{client: client, bucket: cfg.Supabase.Bucket}
}

func (s *supabaseStore) Upload(name string, contentType string, data io.Reader) (string, error) {
	// Prefix with a uuid so identical file names from different respondents
	// never collide.
	path := uuid.NewString() + "/" + name

	_, err := s.client.UploadFile(s.bucket, path, data, storage_go.FileOptions{
		ContentType: &contentType,
	})
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("File upload failed")
		return "", fmt.Errorf("uploading %q: %w", name, err)
	}

	resp := s.client.GetPublicUrl(s.bucket, path)
	return resp.SignedURL, nil
}
