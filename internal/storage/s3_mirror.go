package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/ikkim/lunchmap-backend/config"
	"github.com/ikkim/lunchmap-backend/pkg/logger"
)

const (
	imageFolder   = "stores"
	maxImageBytes = 10 << 20
)

// ObjectPutter is the subset of the S3 client used by the mirror.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror copies crawled store images into a bucket so stored URLs do not
// expire with the source site's CDN links.
type S3Mirror struct {
	client     ObjectPutter
	bucket     string
	region     string
	baseURL    string
	httpClient *http.Client
}

func NewS3Mirror(cfg *config.S3Config) *S3Mirror {
	var awsCfg aws.Config
	var err error

	// 키가 없으면 기본 credential chain (env, ~/.aws, IAM role)
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg = aws.Config{
			Region: cfg.Region,
			Credentials: credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		}
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(cfg.Region),
		)
		if err != nil {
			awsCfg = aws.Config{Region: cfg.Region}
		}
	}

	return NewS3MirrorWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Region, cfg.BaseURL, nil)
}

func NewS3MirrorWithClient(client ObjectPutter, bucket, region, baseURL string, httpClient *http.Client) *S3Mirror {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &S3Mirror{
		client:     client,
		bucket:     bucket,
		region:     region,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// MirrorStoreImages uploads each image and returns the mirrored URLs in the
// same order. An image that fails to copy keeps its original URL.
func (m *S3Mirror) MirrorStoreImages(ctx context.Context, storeName string, urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, src := range urls {
		mirrored, err := m.mirror(ctx, src)
		if err != nil {
			logger.Warn("Image mirror failed, keeping source URL", map[string]interface{}{
				"store": storeName,
				"url":   src,
				"error": err.Error(),
			})
			out = append(out, src)
			continue
		}
		out = append(out, mirrored)
	}
	return out
}

func (m *S3Mirror) mirror(ctx context.Context, src string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(body) > maxImageBytes {
		return "", fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("content type %s is not an image", contentType)
	}

	key := fmt.Sprintf("%s/%s%s", imageFolder, uuid.New().String(), extensionFor(src, contentType))
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return m.fileURL(key), nil
}

func (m *S3Mirror) fileURL(key string) string {
	if m.baseURL != "" {
		// CloudFront or custom domain
		return fmt.Sprintf("%s/%s", m.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", m.bucket, m.region, key)
}

func extensionFor(src, contentType string) string {
	if u, err := url.Parse(src); err == nil {
		if ext := path.Ext(u.Path); len(ext) > 1 && len(ext) <= 5 {
			return strings.ToLower(ext)
		}
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}
