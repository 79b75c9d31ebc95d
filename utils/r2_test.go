package utils

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"funplay-claim-service/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(params.Body)
	f.inputs = append(f.inputs, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func sampleReceipt() models.ClaimReceipt {
	return models.ClaimReceipt{
		ClaimID:       "5b0c1c4e-8f55-4d8e-9d0a-0d5b8c1f9e21",
		UserID:        "user-1",
		WalletAddress: "0xAbCdEf0123456789aBcDef0123456789ABCDEF01",
		Amount:        decimal.NewFromInt(120000),
		TokenSymbol:   "CAMLY Coin",
		TxHash:        "0xabc",
		ProcessedAt:   time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC),
		RewardIDs:     []string{"r1", "r2"},
	}
}

func TestReceiptKey(t *testing.T) {
	assert.Equal(t, "receipts/2026/03/camly-coin-5b0c1c4e-8f55-4d8e-9d0a-0d5b8c1f9e21.json", ReceiptKey(sampleReceipt()))

	r := sampleReceipt()
	r.TokenSymbol = ""
	assert.Contains(t, ReceiptKey(r), "/token-")
}

func TestArchiveUploadsReceipt(t *testing.T) {
	putter := &fakePutter{}
	archive := &R2ReceiptArchive{client: putter, bucket: "claim-receipts"}

	require.NoError(t, archive.Archive(context.Background(), sampleReceipt()))
	require.Len(t, putter.inputs, 1)
	assert.Equal(t, "claim-receipts", aws.ToString(putter.inputs[0].Bucket))
	assert.Equal(t, "application/json", aws.ToString(putter.inputs[0].ContentType))

	var decoded models.ClaimReceipt
	require.NoError(t, json.Unmarshal(putter.bodies[0], &decoded))
	assert.Equal(t, "0xabc", decoded.TxHash)
	assert.True(t, decoded.Amount.Equal(decimal.NewFromInt(120000)))
}

func TestArchiveWrapsUploadError(t *testing.T) {
	archive := &R2ReceiptArchive{client: &fakePutter{err: errors.New("503")}, bucket: "b"}
	err := archive.Archive(context.Background(), sampleReceipt())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R2")
}
