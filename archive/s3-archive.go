package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
)

// S3MatchArchive stores finalized match records as zstd-compressed JSON
// objects keyed by match uuid.
type S3MatchArchive struct {
	logger     *slog.Logger
	client     *s3.Client
	bucketName string
}

func NewS3MatchArchive(logger *slog.Logger, client *s3.Client, bucketName string) *S3MatchArchive {
	return &S3MatchArchive{
		logger:     logger,
		client:     client,
		bucketName: bucketName,
	}
}

func (a *S3MatchArchive) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal match record: %w", err)
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	defer encoder.Close()
	compressed := encoder.EncodeAll(data, make([]byte, 0, len(data)))

	key := archiveKey(rec.Match.UUID)
	a.logger.Info("archiving match", "key", key)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(compressed),
	})
	if err != nil {
		return fmt.Errorf("failed to store match record in S3: %w", err)
	}
	return nil
}

func (a *S3MatchArchive) Get(ctx context.Context, matchUUID uuid.UUID) (Record, error) {
	output, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucketName),
		Key:    aws.String(archiveKey(matchUUID)),
	})
	if err != nil {
		return Record{}, fmt.Errorf("failed to get match record from S3: %w", err)
	}
	defer output.Body.Close()

	compressed, err := io.ReadAll(output.Body)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read match record: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return Record{}, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()
	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return Record{}, fmt.Errorf("failed to decompress match record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal match record: %w", err)
	}
	return rec, nil
}

func archiveKey(matchUUID uuid.UUID) string {
	return fmt.Sprintf("matches/%s.json.zst", matchUUID)
}

func GetS3ClientFromEnv() *s3.Client {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(getAwsRegionFromEnv()),
	)
	if err != nil {
		panic(fmt.Errorf("unable to load SDK config, %v", err))
	}
	return s3.NewFromConfig(cfg)
}

func GetArchiveS3BucketFromEnv() string {
	bucket := os.Getenv("MATCH_ARCHIVE_S3_BUCKET")
	if bucket == "" {
		panic("MATCH_ARCHIVE_S3_BUCKET not set in .env file")
	}
	return bucket
}

func getAwsRegionFromEnv() string {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "eu-central-1"
	}
	return region
}
