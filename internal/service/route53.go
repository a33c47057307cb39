package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"

	"dnsapply/internal/config"
	"dnsapply/internal/model"
)

// RecordPublisher pushes activated records into the managed Route53
// hosted zone. Publishing runs inside the completing transaction, so a
// Route53 failure aborts the whole Complete transition.
type RecordPublisher struct {
	client       *route53.Client
	hostedZoneID string
	ttl          int64
}

func NewRecordPublisher(cfg config.Route53Config) (*RecordPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &RecordPublisher{
		client:       route53.NewFromConfig(awsCfg),
		hostedZoneID: cfg.HostedZoneID,
		ttl:          cfg.TTL,
	}, nil
}

// Publish upserts the record in the hosted zone. UPSERT keeps the call
// idempotent for retried completions.
func (p *RecordPublisher) Publish(ctx context.Context, rec *model.Record) error {
	name := rec.Name
	if !strings.HasSuffix(name, ".") {
		name += "."
	}

	value := rec.Data
	if rec.Type == model.TypeCNAME || rec.Type == model.TypePTR {
		if !strings.HasSuffix(value, ".") {
			value += "."
		}
	}

	_, err := p.client.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(p.hostedZoneID),
		ChangeBatch: &types.ChangeBatch{
			Comment: aws.String(fmt.Sprintf("dnsapply application %s", rec.ApplicationID)),
			Changes: []types.Change{
				{
					Action: types.ChangeActionUpsert,
					ResourceRecordSet: &types.ResourceRecordSet{
						Name: aws.String(name),
						Type: types.RRType(rec.Type),
						TTL:  aws.Int64(p.ttl),
						ResourceRecords: []types.ResourceRecord{
							{Value: aws.String(value)},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("route53 change: %w", err)
	}
	return nil
}
