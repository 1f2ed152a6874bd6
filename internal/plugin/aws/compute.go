package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// defaultPlatform is reported for instances without a platform value.
const defaultPlatform = "Linux"

// collectInstances fetches EC2 instances.
func (p *Plugin) collectInstances(ctx context.Context) ([]resource.Record, error) {
	records := []resource.Record{}
	var nextToken *string

	for {
		output, err := p.ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{NextToken: nextToken})
		if err != nil {
			return nil, fmt.Errorf("describe instances: %w", err)
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				records = append(records, convertInstance(instance))
			}
		}

		if output.NextToken == nil {
			break
		}
		nextToken = output.NextToken
	}

	return records, nil
}

func convertInstance(instance ec2types.Instance) resource.Instance {
	tags := tagSet(instance.Tags, ec2Tag)

	r := resource.Instance{
		InstanceID:       aws.ToString(instance.InstanceId),
		InstanceType:     string(instance.InstanceType),
		LaunchTime:       isoTime(instance.LaunchTime),
		Platform:         defaultPlatform,
		VpcID:            aws.ToString(instance.VpcId),
		SubnetID:         aws.ToString(instance.SubnetId),
		PrivateIPAddress: aws.ToString(instance.PrivateIpAddress),
		PublicIPAddress:  aws.ToString(instance.PublicIpAddress),
		KeyName:          aws.ToString(instance.KeyName),
		SecurityGroups:   make([]string, 0, len(instance.SecurityGroups)),
		Name:             tags.Get("Name", resource.NotAvailable),
		Attribution:      resource.NewAttribution(tags),
	}
	if instance.State != nil {
		r.State = string(instance.State.Name)
	}
	if instance.Platform != "" {
		r.Platform = string(instance.Platform)
	}
	if instance.Placement != nil {
		r.AvailabilityZone = aws.ToString(instance.Placement.AvailabilityZone)
	}
	for _, sg := range instance.SecurityGroups {
		r.SecurityGroups = append(r.SecurityGroups, aws.ToString(sg.GroupName))
	}
	return r
}
