package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	cfg "github.com/spectra-metals/spectra-server/internal/config"
	"go.uber.org/zap"
)

// ImageStore uploads customer images (submission photos, claim evidence)
// to S3 and hands back the stored path.
type ImageStore struct {
	client        *s3.Client
	bucketName    string
	publicBaseURL string
	logger        *zap.Logger
}

// NewImageStore builds the S3-backed image store from config.
func NewImageStore(ctx context.Context, storageCfg *cfg.StorageConfig, logger *zap.Logger) (*ImageStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(storageCfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(storageCfg.AccessKeyID, storageCfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &ImageStore{
		client:        s3.NewFromConfig(awsCfg),
		bucketName:    storageCfg.Bucket,
		publicBaseURL: strings.TrimRight(storageCfg.PublicBaseURL, "/"),
		logger:        logger,
	}, nil
}

// Upload stores one multipart file under prefix and returns its public path.
func (s *ImageStore) Upload(ctx context.Context, prefix string, file multipart.File, header *multipart.FileHeader) (string, error) {
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := fmt.Sprintf("%s/%s%s", prefix, uuid.New().String(), ext)

	putInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(header.Header.Get("Content-Type")),
		ACL:         s3types.ObjectCannedACLPrivate,
	}

	if _, err := s.client.PutObject(ctx, putInput); err != nil {
		s.logger.Error("Failed to upload image",
			zap.String("key", key),
			zap.Error(err))
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	s.logger.Debug("Image uploaded",
		zap.String("key", key),
		zap.String("filename", header.Filename))

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key, nil
	}
	return key, nil
}
