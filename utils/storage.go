// utils/storage.go
package utils

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var r2Client *s3.Client
var r2Presign *s3.PresignClient
var r2Bucket string

// Presigned links stay valid long enough to download large forensics
// images but expire the same day.
const attachmentURLTTL = 4 * time.Hour

// InitR2 configures the R2 client for challenge attachment downloads.
// Optional: when CLOUDFLARE_ACCOUNT_ID is unset, attachments are served
// from the local uploads directory instead.
func InitR2() error {
	accountID := os.Getenv("CLOUDFLARE_ACCOUNT_ID")
	if accountID == "" {
		return nil
	}
	accessKeyID := os.Getenv("R2_ACCESS_KEY_ID")
	accessKeySecret := os.Getenv("R2_ACCESS_KEY_SECRET")
	r2Bucket = os.Getenv("R2_BUCKET_NAME")

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID, accessKeySecret, "",
		)),
		config.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to load R2 config: %w", err)
	}

	r2Client = s3.NewFromConfig(cfg)
	r2Presign = s3.NewPresignClient(r2Client)
	return nil
}

// StorageConfigured reports whether R2 is available.
func StorageConfigured() bool {
	return r2Client != nil
}

// AttachmentURL resolves a challenge attachment key to a downloadable
// URL: a presigned R2 GET when object storage is configured, a local
// uploads path otherwise.
func AttachmentURL(ctx context.Context, key string) (string, error) {
	if !StorageConfigured() {
		return "/uploads/" + key, nil
	}

	req, err := r2Presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r2Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(attachmentURLTTL))
	if err != nil {
		return "", fmt.Errorf("failed to presign attachment %s: %w", key, err)
	}
	return req.URL, nil
}
