package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"horas/internal/config"
)

// S3Archive stores snapshots and backups in an S3 bucket:
//
//	<prefix>/snapshots/<reportID>/<version>.json
//	<prefix>/backups/<name>
type S3Archive struct {
	name     string
	bucket   string
	prefix   string
	client   *s3.Client
	uploader *manager.Uploader
}

// NewS3Archive creates an S3 archive from configuration. Credentials come
// from the config's static keys when set, otherwise from the default AWS
// credential chain.
func NewS3Archive(ctx context.Context, cfg config.ArchiveConfig) (*S3Archive, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 archive requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Archive{
		name:     cfg.Name,
		bucket:   cfg.S3Bucket,
		prefix:   strings.Trim(cfg.S3Prefix, "/"),
		client:   client,
		uploader: manager.NewUploader(client),
	}, nil
}

func (a *S3Archive) key(parts ...string) string {
	if a.prefix == "" {
		return strings.Join(parts, "/")
	}
	return a.prefix + "/" + strings.Join(parts, "/")
}

func (a *S3Archive) PutSnapshot(ctx context.Context, reportID, version string, data []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.key("snapshots", reportID, version+".json")),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading snapshot %s/%s: %w", reportID, version, err)
	}
	return nil
}

func (a *S3Archive) GetSnapshot(ctx context.Context, reportID, version string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key("snapshots", reportID, version+".json")),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading snapshot %s/%s: %w", reportID, version, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot body: %w", err)
	}
	return data, nil
}

func (a *S3Archive) ListVersions(ctx context.Context, reportID string) ([]string, error) {
	prefix := a.key("snapshots", reportID) + "/"

	var versions []string
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing snapshots for %s: %w", reportID, err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			if strings.HasSuffix(name, ".json") {
				versions = append(versions, strings.TrimSuffix(name, ".json"))
			}
		}
	}
	sort.Strings(versions)
	return versions, nil
}

// PutBackup streams a database backup to the bucket. Backups can be large;
// the upload manager handles multipart for us.
func (a *S3Archive) PutBackup(ctx context.Context, name string, r io.Reader) error {
	_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key("backups", name)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading backup %s: %w", name, err)
	}
	return nil
}

// ValidateSetup verifies the bucket is reachable.
func (a *S3Archive) ValidateSetup(ctx context.Context) error {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(a.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", a.bucket, err)
	}
	return nil
}

var _ Archive = (*S3Archive)(nil)
