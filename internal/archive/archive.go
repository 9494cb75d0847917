package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
)

// Archiver stores raw message bodies keyed by fingerprint so extraction can
// be replayed later.
type Archiver struct {
	client *storage.Client
	bucket string
}

// New assumes Application Default Credentials are configured.
func New(ctx context.Context, bucket string) (*Archiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("New: creating storage client: %w", err)
	}
	return &Archiver{client: client, bucket: bucket}, nil
}

func (a *Archiver) Close() error {
	return a.client.Close()
}

// Store writes the message body to messages/<fingerprint>.txt.
func (a *Archiver) Store(ctx context.Context, fingerprint, body string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	obj := a.client.Bucket(a.bucket).Object("messages/" + fingerprint + ".txt")
	w := obj.NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"
	if _, err := w.Write([]byte(body)); err != nil {
		_ = w.Close()
		return fmt.Errorf("Store: writing object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("Store: finalizing upload: %w", err)
	}
	return nil
}
