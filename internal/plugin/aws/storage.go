package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yairfalse/stocktake/pkg/resource"
)

const (
	// defaultBucketRegion is what an empty location constraint means.
	defaultBucketRegion = "us-east-1"
	// unknownBucketRegion is reported when the location lookup fails.
	unknownBucketRegion = "unknown"
)

// bucketUsage is the size and object count of one bucket.
type bucketUsage struct {
	SizeBytes   int64
	ObjectCount int64
}

// collectBuckets fetches S3 buckets page by page. Region, usage and tags are
// looked up per bucket and fall back to defaults independently.
func (p *Plugin) collectBuckets(ctx context.Context) ([]resource.Record, error) {
	records := []resource.Record{}
	var token *string

	for {
		output, err := p.s3Client.ListBuckets(ctx, &s3.ListBucketsInput{ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("list buckets: %w", err)
		}

		for _, bucket := range output.Buckets {
			name := aws.ToString(bucket.Name)

			region := p.bucketRegion(ctx, name).logged(ctx, resource.TypeStorage, name, "region")
			usage := p.bucketUsage(ctx, name, region).logged(ctx, resource.TypeStorage, name, "usage")
			tags := p.bucketTags(ctx, name, region).logged(ctx, resource.TypeStorage, name, "tags")

			records = append(records, convertBucket(bucket, region, usage, tags))
		}

		if aws.ToString(output.ContinuationToken) == "" {
			break
		}
		token = output.ContinuationToken
	}

	return records, nil
}

func (p *Plugin) bucketRegion(ctx context.Context, name string) Result[string] {
	output, err := p.s3Client.GetBucketLocation(ctx, &s3.GetBucketLocationInput{Bucket: aws.String(name)})
	if err != nil {
		return failed(unknownBucketRegion, fmt.Errorf("get bucket location: %w", err))
	}
	if output.LocationConstraint == "" {
		return succeeded(defaultBucketRegion)
	}
	return succeeded(string(output.LocationConstraint))
}

// bucketUsage sums object sizes and counts objects in a single listing pass.
func (p *Plugin) bucketUsage(ctx context.Context, name, region string) Result[bucketUsage] {
	var usage bucketUsage
	var token *string

	for {
		output, err := p.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(name),
			ContinuationToken: token,
		}, inRegion(region))
		if err != nil {
			return failed(bucketUsage{}, fmt.Errorf("list objects: %w", err))
		}

		for _, obj := range output.Contents {
			usage.SizeBytes += aws.ToInt64(obj.Size)
			usage.ObjectCount++
		}

		if !aws.ToBool(output.IsTruncated) || output.NextContinuationToken == nil {
			break
		}
		token = output.NextContinuationToken
	}

	return succeeded(usage)
}

func (p *Plugin) bucketTags(ctx context.Context, name, region string) Result[resource.TagSet] {
	output, err := p.s3Client.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{Bucket: aws.String(name)}, inRegion(region))
	if err != nil {
		// A bucket without tags answers with NoSuchTagSet.
		if hasErrorCode(err, "NoSuchTagSet") {
			return succeeded(resource.TagSet{})
		}
		return failed(resource.TagSet{}, fmt.Errorf("get bucket tagging: %w", err))
	}
	return succeeded(tagSet(output.TagSet, s3Tag))
}

// inRegion targets a bucket's own region so cross-region buckets do not redirect.
func inRegion(region string) func(*s3.Options) {
	return func(o *s3.Options) {
		if region != "" && region != unknownBucketRegion {
			o.Region = region
		}
	}
}

func convertBucket(bucket s3types.Bucket, region string, usage bucketUsage, tags resource.TagSet) resource.Bucket {
	return resource.Bucket{
		BucketName:   aws.ToString(bucket.Name),
		CreationDate: isoTime(bucket.CreationDate),
		Region:       region,
		SizeBytes:    usage.SizeBytes,
		ObjectCount:  usage.ObjectCount,
		SizeGB:       gibibytes(usage.SizeBytes),
		Attribution:  resource.NewAttribution(tags),
	}
}
