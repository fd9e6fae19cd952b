package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrMissingKey = errors.New("missing object key")

// SignedUpload 前端直传所需：PUT 地址 + 公开访问地址
type SignedUpload struct {
	SignedRequest string `json:"signedRequest"`
	URL           string `json:"url"`
}

type Presigner struct {
	bucket string
	ttl    time.Duration
	client *s3.PresignClient
}

// NewPresigner 按默认凭证链（环境变量 / 共享配置 / 实例角色）构建
func NewPresigner(ctx context.Context, bucket, region string, ttl time.Duration) (*Presigner, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewPresignerFromConfig(cfg, bucket, ttl), nil
}

func NewPresignerFromConfig(cfg aws.Config, bucket string, ttl time.Duration) *Presigner {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Presigner{
		bucket: bucket,
		ttl:    ttl,
		client: s3.NewPresignClient(s3.NewFromConfig(cfg)),
	}
}

func (p *Presigner) SignUpload(ctx context.Context, key string) (*SignedUpload, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return nil, ErrMissingKey
	}
	if p.bucket == "" {
		return nil, errors.New("s3 bucket not configured")
	}
	req, err := p.client.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.ttl))
	if err != nil {
		return nil, fmt.Errorf("presign put %s: %w", key, err)
	}
	return &SignedUpload{
		SignedRequest: req.URL,
		URL:           p.PublicURL(key),
	}, nil
}

func (p *Presigner) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", p.bucket, (&url.URL{Path: key}).EscapedPath())
}
