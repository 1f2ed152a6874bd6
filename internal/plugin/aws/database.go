package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// collectDatabases fetches RDS instances and their tags.
func (p *Plugin) collectDatabases(ctx context.Context) ([]resource.Record, error) {
	records := []resource.Record{}
	var marker *string

	for {
		output, err := p.rdsClient.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("describe db instances: %w", err)
		}

		for _, instance := range output.DBInstances {
			id := aws.ToString(instance.DBInstanceIdentifier)
			tags := p.databaseTags(ctx, instance.DBInstanceArn).logged(ctx, resource.TypeDatabase, id, "tags")
			records = append(records, convertDatabase(instance, tags))
		}

		if output.Marker == nil {
			break
		}
		marker = output.Marker
	}

	return records, nil
}

func (p *Plugin) databaseTags(ctx context.Context, arn *string) Result[resource.TagSet] {
	output, err := p.rdsClient.ListTagsForResource(ctx, &rds.ListTagsForResourceInput{ResourceName: arn})
	if err != nil {
		return failed(resource.TagSet{}, fmt.Errorf("list tags for resource: %w", err))
	}
	return succeeded(tagSet(output.TagList, rdsTag))
}

func convertDatabase(instance rdstypes.DBInstance, tags resource.TagSet) resource.Database {
	r := resource.Database{
		DBInstanceIdentifier:  aws.ToString(instance.DBInstanceIdentifier),
		DBInstanceClass:       aws.ToString(instance.DBInstanceClass),
		Engine:                aws.ToString(instance.Engine),
		EngineVersion:         aws.ToString(instance.EngineVersion),
		DBInstanceStatus:      aws.ToString(instance.DBInstanceStatus),
		AllocatedStorage:      aws.ToInt32(instance.AllocatedStorage),
		StorageType:           aws.ToString(instance.StorageType),
		MultiAZ:               aws.ToBool(instance.MultiAZ),
		AvailabilityZone:      aws.ToString(instance.AvailabilityZone),
		BackupRetentionPeriod: aws.ToInt32(instance.BackupRetentionPeriod),
		InstanceCreateTime:    isoTime(instance.InstanceCreateTime),
		Attribution:           resource.NewAttribution(tags),
	}
	if instance.DBSubnetGroup != nil {
		r.VpcID = aws.ToString(instance.DBSubnetGroup.VpcId)
	}
	return r
}
