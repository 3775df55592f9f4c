package resolver

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// SSMAPI is the subset of the SSM client used by SSM.
type SSMAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// SSM resolves "ssm:" references. The key is a parameter name, optionally
// followed by "#field" to select a field of a JSON value. A JSON value with
// a "url" field resolves to that field when no field is given.
type SSM struct {
	Client SSMAPI
}

// Resolve implements Resolver.
func (r *SSM) Resolve(ctx context.Context, key string) (string, error) {
	name, field := splitField(key)
	out, err := r.Client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", apiFailure(name, err)
	}
	if out.Parameter == nil || aws.ToString(out.Parameter.Value) == "" {
		return "", &ResolutionError{Reference: name, Reason: "parameter has no value"}
	}

	value := strings.TrimSpace(aws.ToString(out.Parameter.Value))
	if field != "" {
		selected, err := selectField(value, field)
		if err != nil {
			return "", &ResolutionError{Reference: key, Err: err}
		}
		return selected, nil
	}
	if strings.HasPrefix(value, "{") {
		if url, err := selectField(value, "url"); err == nil {
			return url, nil
		}
	}
	return value, nil
}
