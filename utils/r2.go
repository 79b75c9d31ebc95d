// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"funplay-claim-service/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gosimple/slug"
)

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2ReceiptArchive writes claim receipts as JSON objects into an R2 bucket.
type R2ReceiptArchive struct {
	client objectPutter
	bucket string
}

func NewR2ReceiptArchive(ctx context.Context, cfg R2Config) (*R2ReceiptArchive, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID))
	})
	return &R2ReceiptArchive{client: client, bucket: cfg.Bucket}, nil
}

// ReceiptKey is the object key of a receipt, e.g. receipts/2026/10/camly-<claim id>.json
func ReceiptKey(receipt models.ClaimReceipt) string {
	token := slug.Make(receipt.TokenSymbol)
	if token == "" {
		token = "token"
	}
	return fmt.Sprintf("receipts/%04d/%02d/%s-%s.json",
		receipt.ProcessedAt.Year(), int(receipt.ProcessedAt.Month()), token, receipt.ClaimID)
}

func (a *R2ReceiptArchive) Archive(ctx context.Context, receipt models.ClaimReceipt) error {
	body, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(ReceiptKey(receipt)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload receipt to R2: %w", err)
	}
	return nil
}
