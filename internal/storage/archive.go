package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"carelink/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const uploadPrefix = "uploads"

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive keeps a copy of every uploaded requirement document in S3. A nil
// *Archive is valid and archives nothing.
type Archive struct {
	client objectPutter
	bucket string
}

func NewArchive(client objectPutter, bucket string) *Archive {
	if client == nil || bucket == "" {
		return nil
	}
	return &Archive{client: client, bucket: bucket}
}

// Put stores data under a fresh key and returns that key. An empty key and
// nil error are returned when archiving is disabled.
func (a *Archive) Put(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	if a == nil {
		return "", nil
	}

	ext := path.Ext(filename)
	if ext == "" {
		ext = ".pdf"
	}
	key := path.Join(uploadPrefix, utils.NanoIDSize(utils.ObjectIDSize)+ext)

	if contentType == "" {
		contentType = "application/pdf"
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		Metadata:      map[string]string{"original-filename": path.Base(filename)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s to s3: %w", filename, err)
	}

	return key, nil
}
