package aws

import (
	"context"
	"fmt"
	"maps"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// collectFunctions fetches Lambda functions and their tags.
func (p *Plugin) collectFunctions(ctx context.Context) ([]resource.Record, error) {
	records := []resource.Record{}
	var marker *string

	for {
		output, err := p.lambdaClient.ListFunctions(ctx, &lambda.ListFunctionsInput{Marker: marker})
		if err != nil {
			return nil, fmt.Errorf("list functions: %w", err)
		}

		for _, fn := range output.Functions {
			name := aws.ToString(fn.FunctionName)
			tags := p.functionTags(ctx, fn.FunctionArn).logged(ctx, resource.TypeFunction, name, "tags")
			records = append(records, convertFunction(fn, tags))
		}

		if output.NextMarker == nil {
			break
		}
		marker = output.NextMarker
	}

	return records, nil
}

func (p *Plugin) functionTags(ctx context.Context, arn *string) Result[resource.TagSet] {
	output, err := p.lambdaClient.ListTags(ctx, &lambda.ListTagsInput{Resource: arn})
	if err != nil {
		return failed(resource.TagSet{}, fmt.Errorf("list tags: %w", err))
	}
	tags := make(resource.TagSet, len(output.Tags))
	maps.Copy(tags, output.Tags)
	return succeeded(tags)
}

func convertFunction(fn lambdatypes.FunctionConfiguration, tags resource.TagSet) resource.Function {
	r := resource.Function{
		FunctionName: aws.ToString(fn.FunctionName),
		Runtime:      string(fn.Runtime),
		Handler:      aws.ToString(fn.Handler),
		CodeSize:     fn.CodeSize,
		Description:  aws.ToString(fn.Description),
		Timeout:      aws.ToInt32(fn.Timeout),
		MemorySize:   aws.ToInt32(fn.MemorySize),
		LastModified: resource.NormalizeTime(aws.ToString(fn.LastModified)),
		Version:      aws.ToString(fn.Version),
		Attribution:  resource.NewAttribution(tags),
	}
	if fn.VpcConfig != nil {
		r.VpcID = aws.ToString(fn.VpcConfig.VpcId)
	}
	return r
}
