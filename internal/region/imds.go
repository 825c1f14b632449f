package region

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/ec2/imds"
)

// DefaultProbeTimeout bounds the metadata probe so off-platform starts stay fast.
const DefaultProbeTimeout = time.Second

// Prober discovers the region from the execution environment.
type Prober interface {
	Region(ctx context.Context) (string, error)
}

// IMDSProbe reads the region from the EC2 instance identity document.
type IMDSProbe struct {
	client  *imds.Client
	timeout time.Duration
}

// NewIMDSProbe returns a probe against endpoint ("" selects the SDK default).
// A non-positive timeout selects DefaultProbeTimeout.
func NewIMDSProbe(endpoint string, timeout time.Duration) *IMDSProbe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &IMDSProbe{
		client: imds.New(imds.Options{
			Endpoint: endpoint,
			Retryer:  aws.NopRetryer{},
		}),
		timeout: timeout,
	}
}

func (p *IMDSProbe) Region(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	doc, err := p.client.GetInstanceIdentityDocument(ctx, &imds.GetInstanceIdentityDocumentInput{})
	if err != nil {
		return "", fmt.Errorf("get instance identity document: %w", err)
	}
	return doc.Region, nil
}

var _ Prober = (*IMDSProbe)(nil)
