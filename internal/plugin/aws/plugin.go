// Package aws implements the AWS collector plugin for stocktake.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/yairfalse/stocktake/internal/plugin"
	"github.com/yairfalse/stocktake/pkg/resource"
)

// Name is the registry name of the AWS plugin.
const Name = "aws"

func init() {
	plugin.Register(Name, func(ctx context.Context, cfg plugin.Config) (plugin.Plugin, error) {
		return New(ctx, Config{Region: cfg.Region, Profile: cfg.Profile})
	})
}

// Plugin implements the AWS collector.
type Plugin struct {
	region string

	// AWS clients (interfaces for testability)
	ec2Client    EC2API
	s3Client     S3API
	rdsClient    RDSAPI
	lambdaClient LambdaAPI
	stsClient    STSAPI
}

// Config holds AWS plugin configuration.
type Config struct {
	Region  string
	Profile string // Shared config profile; empty uses the default chain
}

// New creates a new AWS plugin.
func New(ctx context.Context, cfg Config) (*Plugin, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Plugin{
		region:       cfg.Region,
		ec2Client:    ec2.NewFromConfig(awsCfg),
		s3Client:     s3.NewFromConfig(awsCfg),
		rdsClient:    rds.NewFromConfig(awsCfg),
		lambdaClient: lambda.NewFromConfig(awsCfg),
		stsClient:    sts.NewFromConfig(awsCfg),
	}, nil
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return Name
}

// AccountID returns the account of the caller credentials.
func (p *Plugin) AccountID(ctx context.Context) (string, error) {
	output, err := p.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("get caller identity: %w", err)
	}
	return aws.ToString(output.Account), nil
}

// Collect fetches and normalizes all records of type t.
func (p *Plugin) Collect(ctx context.Context, t resource.Type) ([]resource.Record, error) {
	switch t {
	case resource.TypeCompute:
		return p.collectInstances(ctx)
	case resource.TypeStorage:
		return p.collectBuckets(ctx)
	case resource.TypeDatabase:
		return p.collectDatabases(ctx)
	case resource.TypeFunction:
		return p.collectFunctions(ctx)
	default:
		return nil, fmt.Errorf("unsupported resource type %q", t)
	}
}
