package repository

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
)

const avatarBucket = "avatars"

// AvatarRepository stores avatar images in a GridFS bucket.
type AvatarRepository struct {
	db *mongo.Database
}

func NewAvatarRepository(db *mongo.Database) *AvatarRepository {
	return &AvatarRepository{db: db}
}

func (r *AvatarRepository) bucket() (*gridfs.Bucket, error) {
	return gridfs.NewBucket(r.db, options.GridFSBucket().SetName(avatarBucket))
}

// Upload streams src into GridFS and returns the new file id.
func (r *AvatarRepository) Upload(ctx context.Context, filename, contentType string, src io.Reader) (string, error) {
	bucket, err := r.bucket()
	if err != nil {
		return "", fmt.Errorf("AvatarRepository.Upload: %w", err)
	}
	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	stream, err := bucket.OpenUploadStream(filename, opts)
	if err != nil {
		return "", fmt.Errorf("AvatarRepository.Upload: %w", err)
	}
	defer stream.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetWriteDeadline(deadline)
	}
	if _, err := io.Copy(stream, src); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("AvatarRepository.Upload: %w", err)
	}
	return stream.FileID.(primitive.ObjectID).Hex(), nil
}

// Download returns the file bytes and the content type recorded at upload.
func (r *AvatarRepository) Download(ctx context.Context, fileID string) ([]byte, string, error) {
	objID, err := primitive.ObjectIDFromHex(fileID)
	if err != nil {
		return nil, "", ErrNotFound
	}
	bucket, err := r.bucket()
	if err != nil {
		return nil, "", fmt.Errorf("AvatarRepository.Download: %w", err)
	}

	stream, err := bucket.OpenDownloadStream(objID)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("AvatarRepository.Download: %w", err)
	}
	defer stream.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = stream.SetReadDeadline(deadline)
	}
	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, "", fmt.Errorf("AvatarRepository.Download: %w", err)
	}

	contentType := "application/octet-stream"
	if f := stream.GetFile(); f != nil && f.Metadata != nil {
		var meta struct {
			ContentType string `bson:"contentType"`
		}
		if err := bson.Unmarshal(f.Metadata, &meta); err == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}
	return data, contentType, nil
}
