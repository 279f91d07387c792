// Package archive keeps a copy of every published article in S3.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rladydgns3001-ui/autopost/internal/config"
)

// ObjectPutter is the subset of the S3 client the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes article HTML under a bucket prefix.
type Archive struct {
	client ObjectPutter
	bucket string
	prefix string
}

// New creates an archive backed by the default AWS configuration chain.
// It returns nil when no bucket is configured.
func New(ctx context.Context, cfg config.Archive) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient creates an archive on an existing client.
func NewWithClient(client ObjectPutter, bucket, prefix string) *Archive {
	return &Archive{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key for an article published at t.
func (a *Archive) Key(keyword string, t time.Time) string {
	return path.Join(a.prefix, t.Format("2006-01-02"), Slug(keyword)+".html")
}

// Put stores the article HTML and returns its key.
func (a *Archive) Put(ctx context.Context, keyword, title, body string, t time.Time) (string, error) {
	key := a.Key(keyword, t)
	doc := fmt.Sprintf("<!doctype html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head>\n<body>\n%s\n</body></html>\n", title, body)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        strings.NewReader(doc),
		ContentType: aws.String("text/html; charset=utf-8"),
		Metadata:    map[string]string{"keyword": keyword},
	})
	if err != nil {
		return "", fmt.Errorf("archiving %s: %w", key, err)
	}
	return key, nil
}

// Slug turns a keyword into a path segment. Letters of any script and
// digits are kept; everything else collapses to single hyphens.
func Slug(keyword string) string {
	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(keyword) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			hyphen = false
			continue
		}
		if !hyphen && b.Len() > 0 {
			b.WriteByte('-')
			hyphen = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}
