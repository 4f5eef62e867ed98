package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/mikey/llm-threat-scanner/internal/config"
	"go.uber.org/zap"
)

// SendEmailAPI is the SES v2 operation used by SESSender
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers alerts through AWS SES v2
type SESSender struct {
	client SendEmailAPI
	from   string
	to     []string
	logger *zap.Logger
}

// NewSESSender creates a sender from the notify configuration. Static
// credentials are used when configured, the default AWS chain otherwise.
func NewSESSender(ctx context.Context, cfg config.NotifyConfig, logger *zap.Logger) (*SESSender, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.SESRegion != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.SESRegion))
	}
	if cfg.SESAccessKeyID != "" && cfg.SESSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.SESAccessKeyID, cfg.SESSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewSESSenderWithClient(sesv2.NewFromConfig(awsCfg), cfg.From, cfg.To, logger)
}

// NewSESSenderWithClient creates a sender over an existing SES client
func NewSESSenderWithClient(client SendEmailAPI, from string, to []string, logger *zap.Logger) (*SESSender, error) {
	if from == "" || len(to) == 0 {
		return nil, errors.New("notify.from and notify.to are required")
	}

	logger.Info("Initialized SES alert sender", zap.Strings("recipients", to))

	return &SESSender{
		client: client,
		from:   from,
		to:     to,
		logger: logger,
	}, nil
}

// Name returns the sender name
func (s *SESSender) Name() string {
	return "ses"
}

// Send delivers one alert
func (s *SESSender) Send(ctx context.Context, alert *Alert) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &types.Destination{
			ToAddresses: s.to,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(alert.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    aws.String(alert.Text),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("SES SendEmail failed: %w", err)
	}

	s.logger.Debug("SES accepted alert", zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
