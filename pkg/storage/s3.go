package storage

import (
	"bytes"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/spf13/viper"
)

// Uploader stores campaign attachments in S3 so the send loop can fetch
// them by URL per recipient instead of holding the bytes in the request.
type Uploader struct {
	client *s3.S3
	bucket string
	region string
}

func NewUploader() (*Uploader, error) {
	region := viper.GetString("AWS_REGION")
	bucket := viper.GetString("S3_BUCKET_NAME")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET_NAME is not configured")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
		Credentials: credentials.NewStaticCredentials(
			viper.GetString("AWS_ACCESS_KEY"),
			viper.GetString("AWS_SECRET_KEY"),
			""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &Uploader{client: s3.New(sess), bucket: bucket, region: region}, nil
}

// Upload stores content under key and returns the object URL.
func (u *Uploader) Upload(key, contentType string, content []byte) (string, error) {
	_, err := u.client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}

// PresignedURL returns a time-limited download URL for key. Used when the
// bucket is private and the send loop fetches attachments over HTTP.
func (u *Uploader) PresignedURL(key string, ttl time.Duration) (string, error) {
	req, _ := u.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	urlStr, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign S3 URL: %w", err)
	}
	return urlStr, nil
}
