package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	ReportPrefix    string
	LinkExpiry      time.Duration
}

type ObjectStore struct {
	bucket     string
	prefix     string
	linkExpiry time.Duration
	client     *s3.Client
	presign    *s3.PresignClient
}

// Archive is the location of an uploaded report export.
type Archive struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func NewObjectStore(ctx context.Context, cfg Config) (*ObjectStore, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("object store endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}

	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("object store bucket is required")
	}

	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, _ ...any) (aws.Endpoint, error) {
		if service == s3.ServiceID {
			return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			strings.TrimSpace(cfg.AccessKeyID),
			strings.TrimSpace(cfg.SecretAccessKey),
			"",
		)),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// MinIO and R2 need path-style addressing.
		o.UsePathStyle = true
	})

	expiry := cfg.LinkExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &ObjectStore{
		bucket:     strings.TrimSpace(cfg.Bucket),
		prefix:     strings.Trim(strings.TrimSpace(cfg.ReportPrefix), "/"),
		linkExpiry: expiry,
		client:     client,
		presign:    s3.NewPresignClient(client),
	}, nil
}

// ReportKey builds a unique object key for an export file name.
func ReportKey(prefix string, fileName string, now time.Time) string {
	name := strings.TrimLeft(path.Base(strings.TrimSpace(fileName)), ".")
	if name == "" || name == "/" {
		name = "report"
	}
	key := path.Join(now.UTC().Format("2006/01/02"), uuid.NewString()+"-"+name)
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}
	return key
}

func (s *ObjectStore) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	key = strings.TrimLeft(key, "/")
	ct := strings.TrimSpace(contentType)
	if ct == "" {
		ct = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(ct),
		CacheControl: aws.String("private, no-store"),
	})
	return err
}

func (s *ObjectStore) PresignGetObject(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires <= 0 {
		expires = s.linkExpiry
	}
	out, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(strings.TrimLeft(key, "/")),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", err
	}
	return out.URL, nil
}

// ArchiveReport uploads an export and returns a time-limited download link.
func (s *ObjectStore) ArchiveReport(ctx context.Context, fileName string, body []byte, contentType string) (Archive, error) {
	now := time.Now()
	key := ReportKey(s.prefix, fileName, now)
	if err := s.PutObject(ctx, key, body, contentType); err != nil {
		return Archive{}, fmt.Errorf("upload %s: %w", key, err)
	}
	link, err := s.PresignGetObject(ctx, key, s.linkExpiry)
	if err != nil {
		return Archive{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return Archive{Key: key, URL: link, ExpiresAt: now.Add(s.linkExpiry)}, nil
}
