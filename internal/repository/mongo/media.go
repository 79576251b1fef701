package mongo

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ggontijo/campus-market/internal/core/port"
	"github.com/ggontijo/campus-market/internal/repository"
)

const defaultBucketName = "listing_images"

// MediaRepository stores listing images in a GridFS bucket. References handed
// out are the hex-encoded file ids.
type MediaRepository struct {
	db     *mongo.Database
	bucket string
}

// NewMediaRepository wires a GridFS-backed media repository.
func NewMediaRepository(db *mongo.Database, bucketName string) *MediaRepository {
	if bucketName == "" {
		bucketName = defaultBucketName
	}
	return &MediaRepository{db: db, bucket: bucketName}
}

func (r *MediaRepository) openBucket() (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(r.db, options.GridFSBucket().SetName(r.bucket))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket: %w", err)
	}
	return bucket, nil
}

// Put streams the blob into GridFS and returns the file id as the reference.
// The content type travels in the file metadata so Open can replay it.
func (r *MediaRepository) Put(ctx context.Context, name string, contentType string, src io.Reader) (string, error) {
	bucket, err := r.openBucket()
	if err != nil {
		return "", err
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})

	stream, err := bucket.OpenUploadStreamWithID(primitive.NewObjectID(), name, opts)
	if err != nil {
		return "", fmt.Errorf("open upload stream: %w", err)
	}

	if _, err := io.Copy(stream, src); err != nil {
		_ = stream.Close()
		return "", fmt.Errorf("write image blob: %w", err)
	}

	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("close upload stream: %w", err)
	}

	id, ok := stream.FileID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected gridfs file id type")
	}

	return id.Hex(), nil
}

type fileMetadata struct {
	ContentType string `bson:"contentType"`
}

type bucketFile struct {
	Metadata fileMetadata `bson:"metadata"`
}

// Open streams a stored blob back. The reported content type falls back to
// octet-stream when the file carries no metadata.
func (r *MediaRepository) Open(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	bucket, err := r.openBucket()
	if err != nil {
		return nil, "", err
	}

	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil, "", repository.ErrNotFound
	}

	contentType := "application/octet-stream"
	cursor, err := bucket.FindContext(ctx, bson.D{{Key: "_id", Value: id}})
	if err == nil {
		if cursor.Next(ctx) {
			var file bucketFile
			if decodeErr := cursor.Decode(&file); decodeErr == nil && file.Metadata.ContentType != "" {
				contentType = file.Metadata.ContentType
			}
		}
		_ = cursor.Close(ctx)
	}

	stream, err := bucket.OpenDownloadStream(id)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", repository.ErrNotFound
		}
		return nil, "", fmt.Errorf("open download stream: %w", err)
	}

	return stream, contentType, nil
}

// Remove deletes the stored blob. Unknown references are treated as already
// removed so detach stays idempotent.
func (r *MediaRepository) Remove(ctx context.Context, ref string) error {
	bucket, err := r.openBucket()
	if err != nil {
		return err
	}

	id, err := primitive.ObjectIDFromHex(ref)
	if err != nil {
		return nil
	}

	if err := bucket.DeleteContext(ctx, id); err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil
		}
		return fmt.Errorf("delete image blob: %w", err)
	}

	return nil
}

var _ port.MediaStore = (*MediaRepository)(nil)
