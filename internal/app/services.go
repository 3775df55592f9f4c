package app

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/giantswarm/mcp-toolpool/internal/aggregator"
	"github.com/giantswarm/mcp-toolpool/internal/config"
	"github.com/giantswarm/mcp-toolpool/internal/mcpserver"
	"github.com/giantswarm/mcp-toolpool/internal/resolver"
)

const clientName = "toolpool"

// Services bundles the components built from a loaded configuration.
type Services struct {
	Descriptors []mcpserver.ServerDescriptor
	Resolver    resolver.Resolver
	Pool        *aggregator.ServerPool
}

// InitializeServices converts the configuration into server descriptors and
// wires the pool with a session factory sharing one reference resolver.
func InitializeServices(appCfg *Config, cfg config.Config, extra ...mcpserver.Option) (*Services, error) {
	descs, err := config.ToDescriptors(cfg)
	if err != nil {
		return nil, err
	}

	awsOpts := resolver.AWSOptions{Region: cfg.AWS.Region, Profile: cfg.AWS.Profile}
	res := resolver.Default(awsOpts)

	sessionOpts := []mcpserver.Option{
		mcpserver.WithResolver(res),
		mcpserver.WithCallbackDefaults(cfg.Callback.Port, cfg.Callback.Timeout),
		mcpserver.WithClientInfo(clientName, appCfg.Version),
		mcpserver.WithAWSConfigLoader(func(ctx context.Context, region string) (aws.Config, error) {
			opts := awsOpts
			if region != "" {
				opts.Region = region
			}
			return resolver.LoadAWSConfig(ctx, opts)
		}),
	}
	sessionOpts = append(sessionOpts, extra...)

	pool := aggregator.NewServerPool(
		aggregator.WithRetryPolicy(aggregator.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.Retry.Delay,
		}),
		aggregator.WithConcurrentBringUp(cfg.ConcurrentBringUp),
		aggregator.WithSessionFactory(func(desc mcpserver.ServerDescriptor) (mcpserver.Session, error) {
			return mcpserver.New(desc, sessionOpts...)
		}),
	)

	return &Services{
		Descriptors: descs,
		Resolver:    res,
		Pool:        pool,
	}, nil
}
