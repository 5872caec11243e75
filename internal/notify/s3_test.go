package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"discounter/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPutObjectAPI is a mock implementation of PutObjectAPI.
type MockPutObjectAPI struct {
	mock.Mock
}

func (m *MockPutObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "vouchers/Wayne Enterprises/c0ffee.json", ObjectKey("vouchers/", testVoucher()))
	assert.Equal(t, "Wayne Enterprises/c0ffee.json", ObjectKey("", testVoucher()))
}

func TestS3Notifier_Notify(t *testing.T) {
	client := new(MockPutObjectAPI)
	n := NewS3NotifierWithClient(client, "drop-bucket", "vouchers/", zerolog.Nop())
	ctx := context.Background()

	var body []byte
	client.On("PutObject", ctx, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Bucket) == "drop-bucket" &&
			aws.ToString(in.Key) == "vouchers/Wayne Enterprises/c0ffee.json" &&
			aws.ToString(in.ContentType) == "application/json"
	})).Run(func(args mock.Arguments) {
		in := args.Get(1).(*s3.PutObjectInput)
		body, _ = io.ReadAll(in.Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	err := n.Notify(ctx, testVoucher())
	require.NoError(t, err)

	var stored model.Voucher
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, testVoucher(), stored)

	client.AssertExpectations(t)
}

func TestS3Notifier_PutFails(t *testing.T) {
	client := new(MockPutObjectAPI)
	n := NewS3NotifierWithClient(client, "drop-bucket", "", zerolog.Nop())
	ctx := context.Background()

	errS3 := errors.New("access denied")
	client.On("PutObject", ctx, mock.Anything).Return(nil, errS3).Once()

	err := n.Notify(ctx, testVoucher())
	require.Error(t, err)
	assert.ErrorIs(t, err, errS3)
	assert.Contains(t, err.Error(), "bucket=drop-bucket")

	client.AssertExpectations(t)
}
