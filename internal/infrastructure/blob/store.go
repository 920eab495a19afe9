// Package blob stores uploaded files on the local filesystem, one directory
// per bucket, and hands out public or signed URLs for them.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	apperrors "github.com/moaz267/furniture/internal/errors"
)

const (
	BucketPaymentScreenshots = "payment-screenshots"
	BucketProductImages      = "product-images"
)

var (
	validBucket = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)
	validKey    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,199}$`)
)

type FSStore struct {
	root          string
	publicBaseURL string
	public        map[string]bool
	signer        *Signer
}

// NewFSStore roots the store at root. Objects in publicBuckets are served
// without a signature.
func NewFSStore(root, publicBaseURL string, signer *Signer, publicBuckets ...string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	public := make(map[string]bool, len(publicBuckets))
	for _, b := range publicBuckets {
		public[b] = true
	}
	return &FSStore{
		root:          root,
		publicBaseURL: publicBaseURL,
		public:        public,
		signer:        signer,
	}, nil
}

func (s *FSStore) path(bucket, key string) (string, error) {
	if !validBucket.MatchString(bucket) {
		return "", apperrors.NewValidationError("invalid bucket", apperrors.ValidationDetail{Field: "bucket", Message: "bucket name is invalid"})
	}
	if !validKey.MatchString(key) {
		return "", apperrors.NewValidationError("invalid key", apperrors.ValidationDetail{Field: "key", Message: "object key is invalid"})
	}
	return filepath.Join(s.root, bucket, key), nil
}

// Upload writes a new object. Existing objects are never overwritten.
func (s *FSStore) Upload(ctx context.Context, bucket, key string, r io.Reader) error {
	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating bucket dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return apperrors.NewConflictError("object already exists")
	}
	if err != nil {
		return fmt.Errorf("creating object: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("writing object: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("closing object: %w", err)
	}
	return nil
}

func (s *FSStore) Open(bucket, key string) (*os.File, error) {
	path, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewNotFoundError("object not found")
	}
	if err != nil {
		return nil, fmt.Errorf("opening object: %w", err)
	}
	return f, nil
}

// Delete removes an object; deleting a missing object is not an error.
func (s *FSStore) Delete(ctx context.Context, bucket, key string) error {
	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting object: %w", err)
	}
	return nil
}

func (s *FSStore) IsPublic(bucket string) bool {
	return s.public[bucket]
}

func (s *FSStore) PublicURL(bucket, key string) (string, error) {
	if !s.IsPublic(bucket) {
		return "", fmt.Errorf("bucket %s is not public", bucket)
	}
	if _, err := s.path(bucket, key); err != nil {
		return "", err
	}
	return s.publicBaseURL + "/public/" + bucket + "/" + url.PathEscape(key), nil
}

// SignedURL returns a link to a private object that stops working after ttl.
func (s *FSStore) SignedURL(bucket, key string, ttl time.Duration) (string, error) {
	if _, err := s.path(bucket, key); err != nil {
		return "", err
	}
	token, err := s.signer.Sign(bucket, key, ttl)
	if err != nil {
		return "", err
	}
	return s.publicBaseURL + "/blobs/" + bucket + "/" + url.PathEscape(key) + "?token=" + url.QueryEscape(token), nil
}

func (s *FSStore) Verify(token, bucket, key string) error {
	return s.signer.Verify(token, bucket, key)
}
