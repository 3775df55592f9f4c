package resolver

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
)

// CloudFormationAPI is the subset of the CloudFormation client used by
// CloudFormation.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
}

// CloudFormation resolves "cfn:<stack>/<OutputKey>" references to a stack
// output value.
type CloudFormation struct {
	Client CloudFormationAPI
}

// Resolve implements Resolver.
func (r *CloudFormation) Resolve(ctx context.Context, key string) (string, error) {
	stack, outputKey, ok := strings.Cut(key, "/")
	if !ok || stack == "" || outputKey == "" {
		return "", &ResolutionError{Reference: key, Reason: "expected <stack>/<OutputKey>"}
	}

	out, err := r.Client.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(stack)})
	if err != nil {
		return "", apiFailure(key, err)
	}
	if len(out.Stacks) == 0 {
		return "", &ResolutionError{Reference: key, Reason: "stack " + stack + " not found"}
	}
	if len(out.Stacks[0].Outputs) == 0 {
		return "", &ResolutionError{Reference: key, Reason: "stack " + stack + " has no outputs"}
	}

	for _, output := range out.Stacks[0].Outputs {
		if aws.ToString(output.OutputKey) != outputKey {
			continue
		}
		if value := aws.ToString(output.OutputValue); value != "" {
			return value, nil
		}
		break
	}
	return "", &ResolutionError{Reference: key, Reason: "output " + outputKey + " not found"}
}
