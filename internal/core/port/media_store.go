package port

import (
	"context"
	"io"
)

// MediaStore persists image blobs in external object storage and hands back
// durable references.
type MediaStore interface {
	// Put stores the blob under the given object name and returns its
	// reference.
	Put(ctx context.Context, name string, contentType string, r io.Reader) (string, error)

	// Open streams a stored blob and reports its content type. Unknown
	// references surface as a not-found error.
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)

	// Remove deletes the stored object. Removing an unknown reference is not
	// an error.
	Remove(ctx context.Context, ref string) error
}
