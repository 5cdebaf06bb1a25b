package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/magabrotheeeer/archive-delivery/internal/config"
)

// ErrMirrorAccessDenied хранилище-зеркало отклонило загрузку по правам доступа.
var ErrMirrorAccessDenied = errors.New("mirror storage access denied")

// MirrorClient загружает доставленные файлы в S3-совместимое хранилище.
// Подходит и для Cloudflare R2, и для MinIO: endpoint задается в конфиге.
type MirrorClient struct {
	client *s3.Client
	bucket string
	log    *slog.Logger
}

// NewMirrorClient создает клиент зеркала по настройкам из конфига.
func NewMirrorClient(cfg config.Mirror, log *slog.Logger) *MirrorClient {
	creds := credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")

	client := s3.NewFromConfig(aws.Config{
		Region:      cfg.Region,
		Credentials: creds,
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info("initialized mirror storage",
		slog.String("bucket", cfg.Bucket), slog.String("endpoint", cfg.Endpoint))
	return &MirrorClient{client: client, bucket: cfg.Bucket, log: log}
}

// Upload кладет локальный файл в бакет под ключом destination/<имя файла>.
func (m *MirrorClient) Upload(ctx context.Context, localPath, destination string) error {
	const op = "transport.Upload"

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	key := path.Join(destination, filepath.Base(localPath))
	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "AccessDenied", "Forbidden":
				return fmt.Errorf("%s: %w", op, ErrMirrorAccessDenied)
			}
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	m.log.Debug("mirrored delivered file", slog.String("key", key))
	return nil
}
