package resolver

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsManagerAPI is the subset of the Secrets Manager client used by
// SecretsManager.
type SecretsManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager resolves "secretsmanager:<id>[#field]" references.
type SecretsManager struct {
	Client SecretsManagerAPI
}

// Resolve implements Resolver.
func (r *SecretsManager) Resolve(ctx context.Context, key string) (string, error) {
	id, field := splitField(key)
	out, err := r.Client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: aws.String(id)})
	if err != nil {
		return "", apiFailure(id, err)
	}
	value := strings.TrimSpace(aws.ToString(out.SecretString))
	if value == "" {
		return "", &ResolutionError{Reference: id, Reason: "secret has no string value"}
	}
	if field == "" {
		return value, nil
	}
	selected, err := selectField(value, field)
	if err != nil {
		return "", &ResolutionError{Reference: key, Err: err}
	}
	return selected, nil
}
