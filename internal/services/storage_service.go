// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/settly-kr/settly-backend/internal/config"
)

// StorageService archives uploaded settlement source files so a settlement
// header's source_filename can always be traced back to the original file.
// Without AWS credentials it falls back to local disk.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type ArchiveResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	Size     int64  `json:"size"`
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Local-disk mode for development
		return &StorageService{config: config}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// ArchiveSettlementFile stores the raw upload under a per-user prefix.
func (s *StorageService) ArchiveSettlementFile(userID uuid.UUID, filename string, data []byte) (*ArchiveResult, error) {
	key := fmt.Sprintf("settlements/%s/%s_%s", userID, uuid.New().String()[:8], sanitizeFilename(filename))

	if s.s3Client != nil {
		return s.archiveToS3(key, filename, data)
	}
	return s.archiveToLocal(key, data)
}

func (s *StorageService) archiveToS3(key, filename string, data []byte) (*ArchiveResult, error) {
	contentType := "text/csv"
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	_, err := s.s3Client.PutObject(&s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &ArchiveResult{
		Key:      key,
		Location: fmt.Sprintf("s3://%s/%s", s.config.AWS.S3Bucket, key),
		Size:     int64(len(data)),
	}, nil
}

func (s *StorageService) archiveToLocal(key string, data []byte) (*ArchiveResult, error) {
	path := filepath.Join(s.config.Upload.LocalDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write archive file: %w", err)
	}

	return &ArchiveResult{
		Key:      key,
		Location: path,
		Size:     int64(len(data)),
	}, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." {
		return "upload.csv"
	}
	return name
}
