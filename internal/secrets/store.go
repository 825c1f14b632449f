package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Store fetches a secret's string value by identifier from a given region.
type Store interface {
	GetSecretValue(ctx context.Context, secretID, region string) (string, error)
}

type getSecretValueAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager reads secrets from AWS Secrets Manager. A client is built per
// call because the region is resolved per request.
type SecretsManager struct {
	newClient func(ctx context.Context, region string) (getSecretValueAPI, error)
}

// NewSecretsManager uses the default AWS credential chain.
func NewSecretsManager() *SecretsManager {
	return &SecretsManager{newClient: defaultSecretsClient}
}

func defaultSecretsClient(ctx context.Context, region string) (getSecretValueAPI, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return secretsmanager.NewFromConfig(cfg), nil
}

func (s *SecretsManager) GetSecretValue(ctx context.Context, secretID, region string) (string, error) {
	client, err := s.newClient(ctx, region)
	if err != nil {
		return "", err
	}
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("get secret %q in %s: %w", secretID, region, err)
	}
	if out.SecretString == nil {
		return "", errors.New("secret has no string value")
	}
	return aws.ToString(out.SecretString), nil
}

var _ Store = (*SecretsManager)(nil)
