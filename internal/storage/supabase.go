package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// flyerPrefix keeps event flyers apart from anything else in the bucket.
const flyerPrefix = "flyers/"

type SupabaseStorage struct {
	URL            string
	ServiceRoleKey string
	BucketName     string
	client         *http.Client
}

// Object is a stored flyer.
type Object struct {
	Name      string `json:"name"`
	PublicURL string `json:"url"`
}

func NewSupabaseStorage(url, serviceRoleKey, bucketName string, timeout time.Duration) *SupabaseStorage {
	return &SupabaseStorage{
		URL:            strings.TrimRight(url, "/"),
		ServiceRoleKey: serviceRoleKey,
		BucketName:     bucketName,
		client:         &http.Client{Timeout: timeout},
	}
}

func (s *SupabaseStorage) objectURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.URL, s.BucketName, name)
}

// PublicURL is where the static site can load the object from.
func (s *SupabaseStorage) PublicURL(name string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.URL, s.BucketName, name)
}

// UploadFlyer stores an event flyer under a fresh name, keeping the
// original file extension.
func (s *SupabaseStorage) UploadFlyer(ctx context.Context, body io.Reader, filename, contentType string) (Object, error) {
	name := flyerPrefix + uuid.New().String() + strings.ToLower(filepath.Ext(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL(name), body)
	if err != nil {
		return Object{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)
	req.Header.Set("apikey", s.ServiceRoleKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Cache-Control", "3600")

	resp, err := s.client.Do(req)
	if err != nil {
		return Object{}, fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		return Object{}, fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(msg))
	}

	return Object{Name: name, PublicURL: s.PublicURL(name)}, nil
}

// DeleteFlyer removes a flyer by the name UploadFlyer returned.
func (s *SupabaseStorage) DeleteFlyer(ctx context.Context, name string) error {
	name = path.Clean("/" + name)[1:]
	if !strings.HasPrefix(name, flyerPrefix) {
		return fmt.Errorf("not a flyer object: %q", name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(name), nil)
	if err != nil {
		return fmt.Errorf("failed to create delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceRoleKey)
	req.Header.Set("apikey", s.ServiceRoleKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(msg))
	}
	return nil
}
