package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/python-wizard/course-enrollment/dynamo"
)

// lazyAWSConfig loads the default AWS config once, on first use, so a process
// that touches no AWS service never needs credentials.
func lazyAWSConfig() func(context.Context) (aws.Config, error) {
	var (
		once sync.Once
		cfg  aws.Config
		err  error
	)
	return func(ctx context.Context) (aws.Config, error) {
		once.Do(func() {
			cfg, err = config.LoadDefaultConfig(ctx)
			if err != nil {
				err = fmt.Errorf("failed to get aws config: %w", err)
			}
		})
		return cfg, err
	}
}

// createDynamoDB points at DYNAMO_ENDPOINT with static local credentials when
// it is set, as for dynamodb-local.
func createDynamoDB(ctx context.Context, settings StorageSettings, awsCfg func(context.Context) (aws.Config, error)) (*dynamo.DB, error) {
	var (
		cfg aws.Config
		err error
	)
	if settings.DynamoEndpoint != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion("us-east-1"),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("local", "local", "")),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to get local aws config: %w", err)
		}
	} else {
		cfg, err = awsCfg(ctx)
		if err != nil {
			return nil, err
		}
	}

	client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if settings.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(settings.DynamoEndpoint)
		}
	})

	return dynamo.NewDB(client, settings.DynamoTable), nil
}

func getSSMParameter(ctx context.Context, name string, awsCfg func(context.Context) (aws.Config, error)) (string, error) {
	cfg, err := awsCfg(ctx)
	if err != nil {
		return "", err
	}

	out, err := ssm.NewFromConfig(cfg).GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get ssm parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("ssm parameter %q has no value", name)
	}

	return *out.Parameter.Value, nil
}
