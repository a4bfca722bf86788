// Package archive keeps snapshots of deleted users in object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/sharevault/internal/server/models"
)

// Store writes an object under key.
type Store interface {
	Put(ctx context.Context, key string, body []byte) error
}

// Key returns the object key for a deleted user snapshot.
func Key(organizationID, userID string, at time.Time) string {
	return fmt.Sprintf("deleted-users/%s/%s/%s.json", organizationID, userID, at.UTC().Format("20060102T150405Z"))
}

// SaveDeletedUser serializes the snapshot and stores it. It returns the key.
func SaveDeletedUser(ctx context.Context, s Store, d *models.DeletedUser) (string, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}
	key := Key(d.User.OrganizationID, d.User.ID, d.DeletedAt)
	if err := s.Put(ctx, key, body); err != nil {
		return "", fmt.Errorf("archive: %w", err)
	}
	return key, nil
}

type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store stores objects in one S3 (or MinIO) bucket.
type S3Store struct {
	client putter
	bucket string
}

// Options configures NewS3Store.
type Options struct {
	Region       string
	AccessKey    string
	SecretKey    string
	BaseEndpoint string
	Bucket       string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) putter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

func NewS3Store(ctx context.Context, o Options) (*S3Store, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")),
	)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
			// MinIO serves buckets by path
			so.UsePathStyle = true
		}
	})

	return &S3Store{client: client, bucket: o.Bucket}, nil
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return err
}
