package auth

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// DefaultSSMParam is the SecureString parameter read when none is configured.
const DefaultSSMParam = "/content-studio/prod/gemini-api-key"

// ParameterGetter is the subset of *ssm.Client used to fetch the key.
type ParameterGetter interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadFromSSM reads the API key from a SecureString parameter and exports it
// as GEMINI_API_KEY so GetAPIKey finds it. An already-set environment key wins
// and SSM is not called.
func LoadFromSSM(ctx context.Context, client ParameterGetter, param string) error {
	if os.Getenv(EnvAPIKey) != "" {
		return nil
	}
	if param == "" {
		param = DefaultSSMParam
	}

	start := time.Now()
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(param),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("read API key from SSM %s: %w", param, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return fmt.Errorf("SSM parameter %s is empty", param)
	}

	if err := os.Setenv(EnvAPIKey, aws.ToString(out.Parameter.Value)); err != nil {
		return fmt.Errorf("export API key: %w", err)
	}
	log.Debug().Str("param", param).Dur("elapsed", time.Since(start)).Msg("API key loaded from SSM")
	return nil
}
