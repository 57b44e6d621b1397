package attachment

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"portal-chat/model"
	"portal-chat/storage"

	"github.com/google/uuid"
)

// File is a file picked by the user and held in memory until it is sent.
type File struct {
	ID   string
	Name string
	Type string
	Size int64
	Data []byte
}

// NewFile wraps raw bytes, assigning a fresh id and normalizing the type.
func NewFile(name, contentType string, data []byte) File {
	return File{
		ID:   uuid.NewString(),
		Name: filepath.Base(name),
		Type: NormalizeType(contentType),
		Size: int64(len(data)),
		Data: data,
	}
}

func (f File) IsImage() bool {
	return strings.HasPrefix(f.Type, "image/")
}

type Uploader struct {
	store  storage.ObjectStore
	bucket string
	policy Policy
	now    func() time.Time
}

func NewUploader(store storage.ObjectStore, bucket string, policy Policy) *Uploader {
	if bucket == "" {
		bucket = storage.BucketChatFiles
	}
	return &Uploader{store: store, bucket: bucket, policy: policy, now: time.Now}
}

func (u *Uploader) Policy() Policy {
	return u.policy
}

// Upload validates the file and writes it to the bucket. Nothing reaches
// storage when validation fails.
func (u *Uploader) Upload(ctx context.Context, f File) (model.Attachment, error) {
	if err := u.policy.Validate(f.Type, f.Size); err != nil {
		return model.Attachment{}, err
	}

	key := ObjectKey(u.now(), f.Name)
	if err := u.store.Upload(ctx, u.bucket, key, bytes.NewReader(f.Data), f.Size, f.Type); err != nil {
		return model.Attachment{}, fmt.Errorf("upload %s: %w", f.Name, err)
	}

	return model.Attachment{
		URL:  u.store.PublicURL(u.bucket, key),
		Name: f.Name,
		Type: f.Type,
		Size: f.Size,
	}, nil
}

// ObjectKey builds a collision-resistant key that keeps the original
// extension, e.g. "2026/10/19/0b6f...c1.pdf".
func ObjectKey(d time.Time, name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	return fmt.Sprintf("%04d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}
