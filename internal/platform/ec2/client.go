package ec2

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/go-logr/logr"

	"github.com/imamik/spotbuild/internal/util/labels"
)

// ManagedTagKey marks every instance spotbuild launched.
const ManagedTagKey = labels.KeyManaged

const (
	defaultFulfillmentTimeout = 10 * time.Minute
	defaultRunningTimeout     = 10 * time.Minute
	defaultPollDelay          = 15 * time.Second
)

// API is the subset of the EC2 client used by the provisioner.
type API interface {
	RequestSpotInstances(ctx context.Context, params *ec2.RequestSpotInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RequestSpotInstancesOutput, error)
	DescribeSpotInstanceRequests(ctx context.Context, params *ec2.DescribeSpotInstanceRequestsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSpotInstanceRequestsOutput, error)
	CancelSpotInstanceRequests(ctx context.Context, params *ec2.CancelSpotInstanceRequestsInput, optFns ...func(*ec2.Options)) (*ec2.CancelSpotInstanceRequestsOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
}

// LaunchOptions describes the instance every spot request asks for.
type LaunchOptions struct {
	ImageID          string
	InstanceType     string
	KeyName          string
	SecurityGroupIDs []string
	SubnetID         string
	MaxPrice         string

	// FulfillmentTimeout bounds the wait for the spot request.
	FulfillmentTimeout time.Duration
	// RunningTimeout bounds the wait for the running state.
	RunningTimeout time.Duration
	// PollDelay is the minimum delay between waiter attempts.
	PollDelay time.Duration
}

// Provisioner requests, waits for and terminates spot instances.
type Provisioner struct {
	api    API
	launch LaunchOptions
	log    logr.Logger
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(p *Provisioner) {
		p.log = log
	}
}

// NewProvisioner creates a Provisioner on top of api.
func NewProvisioner(api API, launch LaunchOptions, opts ...Option) *Provisioner {
	if launch.FulfillmentTimeout == 0 {
		launch.FulfillmentTimeout = defaultFulfillmentTimeout
	}
	if launch.RunningTimeout == 0 {
		launch.RunningTimeout = defaultRunningTimeout
	}
	if launch.PollDelay == 0 {
		launch.PollDelay = defaultPollDelay
	}

	p := &Provisioner{api: api, launch: launch, log: logr.Discard()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ClientConfig selects the account and endpoint for NewClient.
type ClientConfig struct {
	Region string
	// Endpoint overrides the EC2 endpoint, e.g. for a local emulator.
	Endpoint string
	// AccessKey and SecretKey are optional; the default credential chain
	// is used when they are empty.
	AccessKey string
	SecretKey string
}

// NewClient creates an EC2 API client.
func NewClient(ctx context.Context, cc ClientConfig) (*ec2.Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cc.Region),
	}
	if cc.AccessKey != "" && cc.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cc.AccessKey, cc.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return ec2.NewFromConfig(cfg, func(o *ec2.Options) {
		if cc.Endpoint != "" {
			o.BaseEndpoint = aws.String(cc.Endpoint)
		}
	}), nil
}

// RequestInstance submits a one-time spot request for exactly one instance.
// Returns the spot request ID.
func (p *Provisioner) RequestInstance(ctx context.Context, tags map[string]string) (string, error) {
	spec := &types.RequestSpotLaunchSpecification{
		ImageId:          aws.String(p.launch.ImageID),
		InstanceType:     types.InstanceType(p.launch.InstanceType),
		SecurityGroupIds: p.launch.SecurityGroupIDs,
	}
	if p.launch.KeyName != "" {
		spec.KeyName = aws.String(p.launch.KeyName)
	}
	if p.launch.SubnetID != "" {
		spec.SubnetId = aws.String(p.launch.SubnetID)
	}

	input := &ec2.RequestSpotInstancesInput{
		InstanceCount:       aws.Int32(1),
		Type:                types.SpotInstanceTypeOneTime,
		LaunchSpecification: spec,
		TagSpecifications: []types.TagSpecification{{
			ResourceType: types.ResourceTypeSpotInstancesRequest,
			Tags:         toTags(tags),
		}},
	}
	if p.launch.MaxPrice != "" {
		input.SpotPrice = aws.String(p.launch.MaxPrice)
	}

	out, err := p.api.RequestSpotInstances(ctx, input)
	if err != nil {
		return "", fmt.Errorf("spot request rejected: %w", err)
	}
	if len(out.SpotInstanceRequests) == 0 || out.SpotInstanceRequests[0].SpotInstanceRequestId == nil {
		return "", fmt.Errorf("spot request returned no request id")
	}

	requestID := aws.ToString(out.SpotInstanceRequests[0].SpotInstanceRequestId)
	p.log.V(1).Info("spot request submitted", "requestID", requestID, "maxPrice", p.launch.MaxPrice)
	return requestID, nil
}

// AwaitFulfillment blocks until the spot request is fulfilled and returns
// the instance ID. The instance is tagged with tags once known.
func (p *Provisioner) AwaitFulfillment(ctx context.Context, requestID string, tags map[string]string) (string, error) {
	waiter := ec2.NewSpotInstanceRequestFulfilledWaiter(p.api, func(o *ec2.SpotInstanceRequestFulfilledWaiterOptions) {
		o.MinDelay = p.launch.PollDelay
		if o.MaxDelay < o.MinDelay {
			o.MaxDelay = o.MinDelay
		}
	})

	input := &ec2.DescribeSpotInstanceRequestsInput{SpotInstanceRequestIds: []string{requestID}}
	if err := waiter.Wait(ctx, input, p.launch.FulfillmentTimeout); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("wait for spot request %s interrupted: %w", requestID, ctxErr)
		}
		return "", fmt.Errorf("spot request %s not fulfilled within %s: %w", requestID, p.launch.FulfillmentTimeout, err)
	}

	out, err := p.api.DescribeSpotInstanceRequests(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to describe spot request %s: %w", requestID, err)
	}
	if len(out.SpotInstanceRequests) == 0 || aws.ToString(out.SpotInstanceRequests[0].InstanceId) == "" {
		return "", fmt.Errorf("spot request %s fulfilled without an instance id", requestID)
	}
	instanceID := aws.ToString(out.SpotInstanceRequests[0].InstanceId)

	// Spot request tags do not propagate to the instance.
	if len(tags) > 0 {
		_, err := p.api.CreateTags(ctx, &ec2.CreateTagsInput{
			Resources: []string{instanceID},
			Tags:      toTags(tags),
		})
		if err != nil {
			p.log.Error(err, "failed to tag instance", "instanceID", instanceID)
		}
	}

	return instanceID, nil
}

// CancelRequest cancels a spot request and terminates the instance it
// launched, if any. A request can be fulfilled after the caller stopped
// waiting for it; cancelling it alone leaves that instance running.
func (p *Provisioner) CancelRequest(ctx context.Context, requestID string) error {
	_, err := p.api.CancelSpotInstanceRequests(ctx, &ec2.CancelSpotInstanceRequestsInput{
		SpotInstanceRequestIds: []string{requestID},
	})
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to cancel spot request %s: %w", requestID, err)
	}

	out, err := p.api.DescribeSpotInstanceRequests(ctx, &ec2.DescribeSpotInstanceRequestsInput{
		SpotInstanceRequestIds: []string{requestID},
	})
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to describe cancelled spot request %s: %w", requestID, err)
	}

	for _, req := range out.SpotInstanceRequests {
		instanceID := aws.ToString(req.InstanceId)
		if instanceID == "" {
			continue
		}
		p.log.Info("cancelled spot request had launched an instance, terminating it",
			"requestID", requestID, "instanceID", instanceID)
		if err := p.Terminate(ctx, instanceID); err != nil {
			return err
		}
	}
	return nil
}

// AwaitRunning blocks until the instance reports the running state.
func (p *Provisioner) AwaitRunning(ctx context.Context, instanceID string) error {
	waiter := ec2.NewInstanceRunningWaiter(p.api, func(o *ec2.InstanceRunningWaiterOptions) {
		o.MinDelay = p.launch.PollDelay
		if o.MaxDelay < o.MinDelay {
			o.MaxDelay = o.MinDelay
		}
	})

	input := &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}}
	if err := waiter.Wait(ctx, input, p.launch.RunningTimeout); err != nil {
		return fmt.Errorf("instance %s not running within %s: %w", instanceID, p.launch.RunningTimeout, err)
	}
	return nil
}

// PublicAddress returns the public IPv4 address of the instance.
func (p *Provisioner) PublicAddress(ctx context.Context, instanceID string) (string, error) {
	out, err := p.api.DescribeInstances(ctx, &ec2.DescribeInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil {
		return "", fmt.Errorf("failed to describe instance %s: %w", instanceID, err)
	}

	for _, r := range out.Reservations {
		for _, inst := range r.Instances {
			if aws.ToString(inst.InstanceId) != instanceID {
				continue
			}
			if ip := aws.ToString(inst.PublicIpAddress); ip != "" {
				return ip, nil
			}
			return "", fmt.Errorf("instance %s has no public IPv4 address", instanceID)
		}
	}
	return "", fmt.Errorf("instance %s not found", instanceID)
}

// Terminate issues a termination request and does not wait for it.
// An instance that no longer exists counts as terminated.
func (p *Provisioner) Terminate(ctx context.Context, instanceID string) error {
	_, err := p.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: []string{instanceID}})
	if err != nil && !IsNotFound(err) {
		return fmt.Errorf("failed to terminate instance %s: %w", instanceID, err)
	}
	return nil
}

// ListManaged returns the IDs of live instances carrying the managed tag.
func (p *Provisioner) ListManaged(ctx context.Context) ([]string, error) {
	input := &ec2.DescribeInstancesInput{
		Filters: []types.Filter{
			{Name: aws.String("tag:" + ManagedTagKey), Values: []string{labels.ManagedValue}},
			{Name: aws.String("instance-state-name"), Values: []string{"pending", "running", "stopping", "stopped"}},
		},
	}

	var ids []string
	pager := ec2.NewDescribeInstancesPaginator(p.api, input)
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list managed instances: %w", err)
		}
		for _, r := range page.Reservations {
			for _, inst := range r.Instances {
				ids = append(ids, aws.ToString(inst.InstanceId))
			}
		}
	}
	return ids, nil
}

func toTags(tags map[string]string) []types.Tag {
	all := labels.NewLabelBuilder().Merge(tags).Build()
	out := make([]types.Tag, 0, len(all))
	for k, v := range all {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return out
}
