// internal/common/aws/ses.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

// SESClient sends the lead summary email.
type SESClient struct {
	client *ses.Client
}

func NewSESClient(ctx context.Context, s Settings) (*SESClient, error) {
	cfg, err := LoadConfig(ctx, s)
	if err != nil {
		return nil, err
	}
	return NewSESClientFromConfig(cfg, s.Endpoint), nil
}

func NewSESClientFromConfig(cfg aws.Config, endpoint string) *SESClient {
	var opts []func(*ses.Options)
	if endpoint != "" {
		opts = append(opts, func(o *ses.Options) {
			o.EndpointResolver = ses.EndpointResolverFromURL(endpoint)
		})
	}
	return &SESClient{client: ses.NewFromConfig(cfg, opts...)}
}

func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input, optFns...)
}
