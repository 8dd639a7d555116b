// internal/common/aws/sns.go
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSClient publishes assessment events.
type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(ctx context.Context, s Settings) (*SNSClient, error) {
	cfg, err := LoadConfig(ctx, s)
	if err != nil {
		return nil, err
	}
	return NewSNSClientFromConfig(cfg, s.Endpoint), nil
}

// NewSNSClientFromConfig builds a client; a non-empty endpoint replaces the
// regional one.
func NewSNSClientFromConfig(cfg aws.Config, endpoint string) *SNSClient {
	var opts []func(*sns.Options)
	if endpoint != "" {
		opts = append(opts, func(o *sns.Options) {
			o.EndpointResolver = sns.EndpointResolverFromURL(endpoint)
		})
	}
	return &SNSClient{client: sns.NewFromConfig(cfg, opts...)}
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input, optFns...)
}
