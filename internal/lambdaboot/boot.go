// Package lambdaboot holds the AWS bootstrap shared by every studio
// process that talks to AWS: loading the SDK config, building clients and
// pulling the model API key out of SSM at cold start.
package lambdaboot

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/content-studio/internal/auth"
	"github.com/fpang/content-studio/internal/logging"
)

// AWSClients holds the AWS config and the clients built from it. Clients
// are created on first use.
type AWSClients struct {
	Config aws.Config

	ssm       *ssm.Client
	s3        *s3.Client
	presigner *s3.PresignClient
	dynamo    *dynamodb.Client
}

// InitAWS loads the default AWS config. region, when set, overrides the
// environment.
func InitAWS(ctx context.Context, region string) (*AWSClients, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return &AWSClients{Config: cfg}, nil
}

func (c *AWSClients) SSM() *ssm.Client {
	if c.ssm == nil {
		c.ssm = ssm.NewFromConfig(c.Config)
	}
	return c.ssm
}

// S3 returns the S3 client and its presigner.
func (c *AWSClients) S3() (*s3.Client, *s3.PresignClient) {
	if c.s3 == nil {
		c.s3 = s3.NewFromConfig(c.Config)
		c.presigner = s3.NewPresignClient(c.s3)
	}
	return c.s3, c.presigner
}

func (c *AWSClients) DynamoDB() *dynamodb.Client {
	if c.dynamo == nil {
		c.dynamo = dynamodb.NewFromConfig(c.Config)
	}
	return c.dynamo
}

// LoadAPIKey exports the model API key from the SSM parameter param unless
// GEMINI_API_KEY is already set.
func (c *AWSClients) LoadAPIKey(ctx context.Context, param string) error {
	return auth.LoadFromSSM(ctx, c.SSM(), param)
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}
