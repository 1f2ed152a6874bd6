package aws

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/stocktake/pkg/resource"
)

func TestCollectDatabases(t *testing.T) {
	created := time.Date(2022, 2, 2, 8, 0, 0, 0, time.UTC)

	p := newTestPlugin()
	p.rdsClient = &mockRDSClient{
		DescribeDBInstancesFunc: func(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
			return &rds.DescribeDBInstancesOutput{DBInstances: []rdstypes.DBInstance{{
				DBInstanceIdentifier:  aws.String("orders"),
				DBInstanceArn:         aws.String("arn:aws:rds:us-east-1:123456789012:db:orders"),
				DBInstanceClass:       aws.String("db.t3.medium"),
				Engine:                aws.String("postgres"),
				EngineVersion:         aws.String("16.1"),
				DBInstanceStatus:      aws.String("available"),
				AllocatedStorage:      aws.Int32(100),
				StorageType:           aws.String("gp3"),
				MultiAZ:               aws.Bool(true),
				DBSubnetGroup:         &rdstypes.DBSubnetGroup{VpcId: aws.String("vpc-9")},
				AvailabilityZone:      aws.String("us-east-1b"),
				BackupRetentionPeriod: aws.Int32(7),
				InstanceCreateTime:    &created,
			}}}, nil
		},
		ListTagsForResourceFunc: func(ctx context.Context, params *rds.ListTagsForResourceInput, optFns ...func(*rds.Options)) (*rds.ListTagsForResourceOutput, error) {
			assert.Equal(t, "arn:aws:rds:us-east-1:123456789012:db:orders", aws.ToString(params.ResourceName))
			return &rds.ListTagsForResourceOutput{TagList: []rdstypes.Tag{
				{Key: aws.String("Environment"), Value: aws.String("staging")},
				{Key: aws.String("Owner"), Value: aws.String("payments")},
			}}, nil
		},
	}

	records, err := p.Collect(context.Background(), resource.TypeDatabase)
	require.NoError(t, err)
	require.Len(t, records, 1)

	db, ok := records[0].(resource.Database)
	require.True(t, ok)
	assert.Equal(t, "orders", db.DBInstanceIdentifier)
	assert.Equal(t, "db.t3.medium", db.DBInstanceClass)
	assert.Equal(t, "postgres", db.Engine)
	assert.Equal(t, int32(100), db.AllocatedStorage)
	assert.True(t, db.MultiAZ)
	assert.Equal(t, "vpc-9", db.VpcID)
	assert.Equal(t, int32(7), db.BackupRetentionPeriod)
	assert.Equal(t, "2022-02-02T08:00:00.000Z", db.InstanceCreateTime)
	assert.Equal(t, "staging", db.Environment)
	assert.Equal(t, "payments", db.Owner)
}

func TestCollectDatabases_TagFailureDefaultsToEmpty(t *testing.T) {
	p := newTestPlugin()
	p.rdsClient = &mockRDSClient{
		DescribeDBInstancesFunc: func(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
			return &rds.DescribeDBInstancesOutput{DBInstances: []rdstypes.DBInstance{{
				DBInstanceIdentifier: aws.String("legacy"),
			}}}, nil
		},
		ListTagsForResourceFunc: func(ctx context.Context, params *rds.ListTagsForResourceInput, optFns ...func(*rds.Options)) (*rds.ListTagsForResourceOutput, error) {
			return nil, errors.New("throttled")
		},
	}

	records, err := p.Collect(context.Background(), resource.TypeDatabase)
	require.NoError(t, err)
	require.Len(t, records, 1)

	db := records[0].(resource.Database)
	assert.Equal(t, resource.TagSet{}, db.Tags)
	assert.Equal(t, resource.NotAvailable, db.Environment)
	assert.Equal(t, resource.NotAvailable, db.Owner)
	assert.Equal(t, "", db.VpcID)
	assert.False(t, db.MultiAZ)
}

func TestCollectDatabases_Pagination(t *testing.T) {
	p := newTestPlugin()
	p.rdsClient = &mockRDSClient{
		DescribeDBInstancesFunc: func(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
			if params.Marker == nil {
				return &rds.DescribeDBInstancesOutput{
					DBInstances: []rdstypes.DBInstance{{DBInstanceIdentifier: aws.String("db-1")}},
					Marker:      aws.String("m1"),
				}, nil
			}
			return &rds.DescribeDBInstancesOutput{
				DBInstances: []rdstypes.DBInstance{{DBInstanceIdentifier: aws.String("db-2")}},
			}, nil
		},
	}

	records, err := p.Collect(context.Background(), resource.TypeDatabase)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "db-2", records[1].ID())
}

func TestCollectDatabases_Error(t *testing.T) {
	p := newTestPlugin()
	p.rdsClient = &mockRDSClient{
		DescribeDBInstancesFunc: func(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
			return nil, errors.New("boom")
		},
	}

	_, err := p.Collect(context.Background(), resource.TypeDatabase)
	assert.ErrorContains(t, err, "describe db instances")
}
