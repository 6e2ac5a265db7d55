package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/keycustody/registration-backend/interfaces"
)

// S3Gateway implements a storage gateway using Amazon S3 or compatible
// services. Records are JSON objects keyed by storage key under a common
// prefix.
type S3Gateway struct {
	client         *s3.S3
	writeClient    *s3.S3
	bucketName     string
	prefix         string
	log            *slog.Logger
	locationURI    string
	hasWriteAccess bool
}

// NewS3Gateway creates a new S3 storage gateway. If accessKey and
// secretKey are provided the gateway has write access; otherwise it is
// read-only against publicly accessible objects.
func NewS3Gateway(bucketName, prefix, region, endpoint, accessKey, secretKey string, log *slog.Logger) (*S3Gateway, error) {
	uri := fmt.Sprintf("s3://%s/%s?region=%s", bucketName, prefix, region)
	if endpoint != "" {
		uri += fmt.Sprintf("&endpoint=%s", endpoint)
	}

	baseCfg := aws.Config{
		Region: aws.String(region),
	}
	if endpoint != "" {
		baseCfg.Endpoint = aws.String(endpoint)
		baseCfg.S3ForcePathStyle = aws.Bool(true)
	}

	baseSess, err := session.NewSession(&baseCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	readClient := s3.New(baseSess)

	hasWriteAccess := accessKey != "" && secretKey != ""
	writeClient := readClient

	if hasWriteAccess {
		writeCfg := baseCfg.Copy()
		writeCfg.Credentials = credentials.NewStaticCredentials(accessKey, secretKey, "")

		writeSess, err := session.NewSession(writeCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS write session: %w", err)
		}
		writeClient = s3.New(writeSess)
	} else {
		log.Warn("No S3 credentials provided - insert operations may fail unless bucket is public writable")
	}

	return &S3Gateway{
		client:         readClient,
		writeClient:    writeClient,
		bucketName:     bucketName,
		prefix:         strings.TrimSuffix(prefix, "/"),
		log:            log,
		locationURI:    uri,
		hasWriteAccess: hasWriteAccess,
	}, nil
}

// Lookup retrieves a record from S3 by its storage key.
// Returns ErrRecordNotFound if the object doesn't exist.
func (g *S3Gateway) Lookup(ctx context.Context, key interfaces.DerivedKey) (*interfaces.RegistrationRecord, error) {
	start := time.Now()
	objectKey := g.objectKey(key)

	result, err := g.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "404") {
			g.log.Debug("Record not found in S3",
				slog.String("storageKey", key.Hex()),
				slog.String("bucket", g.bucketName),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrRecordNotFound
		}

		g.log.Error("Failed to get object from S3",
			slog.String("storageKey", key.Hex()),
			slog.String("bucket", g.bucketName),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}

	var record interfaces.RegistrationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode record object: %w", err)
	}

	g.log.Debug("Fetched registration record from S3",
		slog.String("storageKey", key.Hex()),
		slog.String("bucket", g.bucketName),
		slog.Duration("duration", time.Since(start)))

	return &record, nil
}

// Insert persists a new record object. S3 has no atomic create-if-absent,
// so the duplicate check is a HeadObject before the put; the remaining
// window between head and put is accepted.
func (g *S3Gateway) Insert(ctx context.Context, key interfaces.DerivedKey, env interfaces.CredentialEnvelope) (interfaces.RecordID, error) {
	objectKey := g.objectKey(key)

	_, err := g.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucketName),
		Key:    aws.String(objectKey),
	})
	if err == nil {
		return "", interfaces.ErrDuplicateRecord
	}

	record := interfaces.RegistrationRecord{
		ID:          key.Hex(),
		Credentials: string(env),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = g.writeClient.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		if !g.hasWriteAccess {
			return "", fmt.Errorf("failed to upload record to S3 (no write credentials provided): %w", err)
		}
		return "", fmt.Errorf("failed to upload record to S3: %w", err)
	}

	g.log.Debug("Stored registration record in S3",
		slog.String("bucket", g.bucketName),
		slog.String("key", objectKey),
		slog.String("storageKey", key.Hex()))

	return interfaces.RecordID(objectKey), nil
}

// Available checks if the S3 gateway is accessible by heading the bucket.
func (g *S3Gateway) Available(ctx context.Context) bool {
	_, err := g.client.HeadBucketWithContext(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(g.bucketName),
	})
	if err != nil {
		g.log.Warn("S3 gateway unavailable",
			slog.String("bucket", g.bucketName),
			"err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this gateway.
func (g *S3Gateway) Name() string {
	return fmt.Sprintf("s3-%s", g.bucketName)
}

// LocationURI returns the URI that identifies this gateway.
func (g *S3Gateway) LocationURI() string {
	return g.locationURI
}

// objectKey generates the S3 object key for a storage key.
func (g *S3Gateway) objectKey(key interfaces.DerivedKey) string {
	return path.Join(g.prefix, "records", key.Hex()+".json")
}
