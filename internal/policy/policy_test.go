package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yairfalse/stocktake/pkg/resource"
)

func testDocument() resource.Document {
	return resource.NewDocument("ts", "us-east-1", "123456789012", map[resource.Type][]resource.Record{
		resource.TypeCompute: {
			resource.Instance{InstanceID: "i-good", Attribution: resource.NewAttribution(resource.TagSet{"Environment": "prod", "Owner": "web"})},
			resource.Instance{InstanceID: "i-bare", Attribution: resource.NewAttribution(nil)},
		},
		resource.TypeStorage: {
			resource.Bucket{BucketName: "logs", Attribution: resource.NewAttribution(resource.TagSet{"Environment": "prod"})},
		},
	})
}

func TestNewInput(t *testing.T) {
	in := NewInput(testDocument())

	assert.Equal(t, "us-east-1", in.Region)
	assert.Equal(t, "123456789012", in.AccountID)
	require.Len(t, in.Records, 3)
	assert.Equal(t, InputRecord{Type: "compute", ID: "i-good", Environment: "prod", Owner: "web",
		Tags: resource.TagSet{"Environment": "prod", "Owner": "web"}}, in.Records[0])
	assert.Equal(t, "storage", in.Records[2].Type)
	assert.Equal(t, "N/A", in.Records[2].Owner)
}

func TestEngine_DefaultPolicy(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx)
	require.NoError(t, err)

	violations, err := e.Evaluate(ctx, testDocument())
	require.NoError(t, err)

	require.Len(t, violations, 3)
	assert.Equal(t, Violation{Type: "compute", ID: "i-bare", Rule: "missing_environment", Message: "compute i-bare has no Environment tag"}, violations[0])
	assert.Equal(t, "missing_owner", violations[1].Rule)
	assert.Equal(t, "i-bare", violations[1].ID)
	assert.Equal(t, Violation{Type: "storage", ID: "logs", Rule: "missing_owner", Message: "storage logs has no Owner tag"}, violations[2])

	require.NoError(t, e.Emit(ctx, testDocument()))
	require.NoError(t, e.Close())
}

func TestEngine_NoViolations(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx)
	require.NoError(t, err)

	doc := resource.NewDocument("ts", "us-east-1", "1", map[resource.Type][]resource.Record{
		resource.TypeCompute: nil,
	})
	violations, err := e.Evaluate(ctx, doc)
	require.NoError(t, err)
	assert.Empty(t, violations)
	assert.NotNil(t, violations)
}

func TestLoad_CustomPolicy(t *testing.T) {
	module := `package stocktake

violations contains v if {
	some r in input.records
	not r.tags.CostCenter
	v := {"type": r.type, "id": r.id, "rule": "missing_cost_center", "message": "no CostCenter"}
}
`
	path := filepath.Join(t.TempDir(), "cost.rego")
	require.NoError(t, os.WriteFile(path, []byte(module), 0o644))

	ctx := context.Background()
	e, err := Load(ctx, path)
	require.NoError(t, err)

	violations, err := e.Evaluate(ctx, testDocument())
	require.NoError(t, err)
	assert.Len(t, violations, 3)
	for _, v := range violations {
		assert.Equal(t, "missing_cost_center", v.Rule)
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, "/nonexistent/policy.rego")
	assert.ErrorContains(t, err, "read policy")

	path := filepath.Join(t.TempDir(), "broken.rego")
	require.NoError(t, os.WriteFile(path, []byte("package stocktake\nviolations contains"), 0o644))
	_, err = Load(ctx, path)
	assert.ErrorContains(t, err, "compile policy")
}
