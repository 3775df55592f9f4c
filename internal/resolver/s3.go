package resolver

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxObjectBytes bounds how much of an S3 object is read.
const maxObjectBytes = 64 << 10

// S3API is the subset of the S3 client used by S3.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 resolves "s3://<bucket>/<key>" references to the trimmed object body.
type S3 struct {
	Client S3API
}

// Resolve implements Resolver.
func (r *S3) Resolve(ctx context.Context, key string) (string, error) {
	bucket, objectKey, ok := strings.Cut(key, "/")
	if !ok || bucket == "" || objectKey == "" {
		return "", &ResolutionError{Reference: key, Reason: "expected <bucket>/<key>"}
	}

	out, err := r.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return "", apiFailure(key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(io.LimitReader(out.Body, maxObjectBytes+1))
	if err != nil {
		return "", &ResolutionError{Reference: key, Reason: "read object", Err: err}
	}
	if len(body) > maxObjectBytes {
		return "", &ResolutionError{Reference: key, Reason: fmt.Sprintf("object larger than %d bytes", maxObjectBytes)}
	}
	value := strings.TrimSpace(string(body))
	if value == "" {
		return "", &ResolutionError{Reference: key, Reason: "object is empty"}
	}
	return value, nil
}
