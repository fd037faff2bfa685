package conf

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// GetPgConnStrFromEnv assembles the Postgres connection string from
// POSTGRES_* env vars. Local development reads the password straight
// from the environment; deployed hosts fetch it from AWS Secrets
// Manager instead so it never lands in an .env file.
func GetPgConnStrFromEnv() string {
	host := envOr("POSTGRES_HOST", "localhost")

	var pw string
	if host == "localhost" {
		pw = os.Getenv("POSTGRES_PW")
	} else {
		secretName := os.Getenv("POSTGRES_PASSWORD_SECRET_NAME")
		if secretName == "" {
			panic("POSTGRES_PASSWORD_SECRET_NAME not set for non-local host")
		}
		secretValue, err := getSecretFromAws(secretName)
		if err != nil {
			panic(fmt.Sprintf("failed to get postgres password from AWS: %v", err))
		}
		var secret struct {
			Password string `json:"password"`
		}
		if err := json.Unmarshal([]byte(secretValue), &secret); err != nil {
			panic(fmt.Sprintf("failed to parse postgres password secret: %v", err))
		}
		pw = secret.Password
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host,
		envOr("POSTGRES_PORT", "5432"),
		envOr("POSTGRES_USER", "codeclash"),
		pw,
		envOr("POSTGRES_DB", "codeclash"),
		envOr("POSTGRES_SSLMODE", "disable"),
	)
}

func envOr(key string, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getSecretFromAws(secretName string) (string, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return "", err
	}
	svc := secretsmanager.NewFromConfig(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := svc.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return "", err
	}
	return *result.SecretString, nil
}
