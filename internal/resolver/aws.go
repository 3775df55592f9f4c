package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	smithy "github.com/aws/smithy-go"
)

// AWSOptions selects the AWS account and region used by the AWS-backed
// resolvers.
type AWSOptions struct {
	Region  string
	Profile string
}

// LoadAWSConfig loads the default AWS credential chain.
func LoadAWSConfig(ctx context.Context, opts AWSOptions) (aws.Config, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws: load config: %w", err)
	}
	return cfg, nil
}

// NewAWS returns a chain that handles env, ssm, cfn, secretsmanager and s3
// references using clients built from cfg.
func NewAWS(cfg aws.Config) *Chain {
	return NewChain().
		Register(SchemeSSM, &SSM{Client: ssm.NewFromConfig(cfg)}).
		Register(SchemeCloudFormation, &CloudFormation{Client: cloudformation.NewFromConfig(cfg)}).
		Register(SchemeSecretsManager, &SecretsManager{Client: secretsmanager.NewFromConfig(cfg)}).
		Register(SchemeS3, &S3{Client: s3.NewFromConfig(cfg)})
}

// Default returns a chain whose AWS clients are only created the first time
// an AWS reference is resolved, so configurations that use plain URLs never
// touch the AWS credential chain.
func Default(opts AWSOptions) *Chain {
	load := sync.OnceValues(func() (*Chain, error) {
		cfg, err := LoadAWSConfig(context.Background(), opts)
		if err != nil {
			return nil, err
		}
		return NewAWS(cfg), nil
	})

	lazy := func(scheme Scheme) Resolver {
		return Func(func(ctx context.Context, key string) (string, error) {
			chain, err := load()
			if err != nil {
				return "", err
			}
			return chain.Resolve(ctx, string(scheme)+key)
		})
	}

	return NewChain().
		Register(SchemeSSM, lazy(SchemeSSM)).
		Register(SchemeCloudFormation, lazy(SchemeCloudFormation)).
		Register(SchemeSecretsManager, lazy(SchemeSecretsManager)).
		Register(SchemeS3, lazy(SchemeS3))
}

// splitField splits "name#field" into its parts.
func splitField(key string) (string, string) {
	name, field, _ := strings.Cut(key, "#")
	return name, field
}

// selectField extracts a string field from a JSON object.
func selectField(value, field string) (string, error) {
	var doc map[string]any
	if err := json.Unmarshal([]byte(value), &doc); err != nil {
		return "", fmt.Errorf("value is not a JSON object: %w", err)
	}
	raw, ok := doc[field]
	if !ok {
		return "", fmt.Errorf("field %q not present", field)
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("field %q is not a non-empty string", field)
	}
	return s, nil
}

// describeAPIError maps well-known AWS error codes to a short reason.
func describeAPIError(err error) string {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return ""
	}
	switch apiErr.ErrorCode() {
	case "ParameterNotFound", "ResourceNotFoundException", "NoSuchKey", "NoSuchBucket", "NotFound":
		return "not found"
	case "ValidationError", "ValidationException":
		return "does not exist or is not accessible"
	case "AccessDenied", "AccessDeniedException", "UnauthorizedOperation":
		return "insufficient permissions"
	default:
		return apiErr.ErrorCode()
	}
}

func apiFailure(reference string, err error) *ResolutionError {
	return &ResolutionError{Reference: reference, Reason: describeAPIError(err), Err: err}
}
