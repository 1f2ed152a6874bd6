package aws

import (
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// tagSet flattens a provider tag list into a TagSet. Tags without a key are dropped.
func tagSet[T any](tags []T, kv func(T) (*string, *string)) resource.TagSet {
	set := make(resource.TagSet, len(tags))
	for _, tag := range tags {
		key, value := kv(tag)
		if key == nil {
			continue
		}
		set[aws.ToString(key)] = aws.ToString(value)
	}
	return set
}

func ec2Tag(t ec2types.Tag) (*string, *string) { return t.Key, t.Value }
func s3Tag(t s3types.Tag) (*string, *string)   { return t.Key, t.Value }
func rdsTag(t rdstypes.Tag) (*string, *string) { return t.Key, t.Value }

func isoTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return resource.FormatTime(*t)
}

// gibibytes converts bytes to GiB rounded to two decimals.
func gibibytes(b int64) float64 {
	return math.Round(float64(b)/(1<<30)*100) / 100
}
