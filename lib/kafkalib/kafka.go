package kafkalib

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/aws_msk_iam_v2"

	"github.com/zenodo/rdm-migrator/config"
)

const dialTimeout = 10 * time.Second

// mskMechanism returns the IAM SASL mechanism when the brokers are AWS MSK, nil otherwise.
func mskMechanism(ctx context.Context, cfg config.Kafka) (sasl.Mechanism, *tls.Config, error) {
	if !cfg.AwsEnabled {
		return nil, nil, nil
	}

	saslCfg, err := awsCfg.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return aws_msk_iam_v2.NewMechanism(saslCfg), &tls.Config{}, nil
}
