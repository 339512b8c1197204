// internal/common/aws/aws_test.go
package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "dealbot/internal/common/errors"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	return &ses.SendEmailOutput{}, f.err
}

type fakeSNS struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	return &sns.PublishOutput{}, f.err
}

func TestSendReport(t *testing.T) {
	fake := &fakeSES{}
	c := &SESClient{client: fake}

	err := c.SendReport(context.Background(), "alerts@example.com", "oncall@example.com",
		"2 regression(s)", "report body")
	require.NoError(t, err)

	require.NotNil(t, fake.input)
	assert.Equal(t, "alerts@example.com", *fake.input.Source)
	assert.Equal(t, []string{"oncall@example.com"}, fake.input.Destination.ToAddresses)
	assert.Equal(t, "2 regression(s)", *fake.input.Message.Subject.Data)
	assert.Equal(t, "report body", *fake.input.Message.Body.Text.Data)
}

func TestSendReportWrapsFailure(t *testing.T) {
	c := &SESClient{client: &fakeSES{err: errors.New("throttled")}}

	err := c.SendReport(context.Background(), "a@b", "c@d", "s", "b")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAlertSendFailed, apperrors.CodeOf(err))
}

func TestPublishReport(t *testing.T) {
	fake := &fakeSNS{}
	c := &SNSClient{client: fake}

	err := c.PublishReport(context.Background(), "arn:aws:sns:eu-west-1:1:alerts",
		"2 regression(s)", "report body")
	require.NoError(t, err)

	require.NotNil(t, fake.input)
	assert.Equal(t, "arn:aws:sns:eu-west-1:1:alerts", *fake.input.TopicArn)
	assert.Equal(t, "2 regression(s)", *fake.input.Subject)
	assert.Equal(t, "report body", *fake.input.Message)
}

func TestPublishReportWrapsFailure(t *testing.T) {
	c := &SNSClient{client: &fakeSNS{err: errors.New("denied")}}

	err := c.PublishReport(context.Background(), "arn", "s", "b")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeAlertSendFailed, apperrors.CodeOf(err))
}
