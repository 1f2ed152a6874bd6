package inventory

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yairfalse/stocktake/internal/filter"
	"github.com/yairfalse/stocktake/pkg/resource"
)

// mockCollector implements Collector for testing.
type mockCollector struct {
	accountID  string
	accountErr error
	records    map[resource.Type][]resource.Record
	errs       map[resource.Type]error
	calls      []resource.Type
}

func (m *mockCollector) AccountID(context.Context) (string, error) {
	return m.accountID, m.accountErr
}

func (m *mockCollector) Collect(_ context.Context, t resource.Type) ([]resource.Record, error) {
	m.calls = append(m.calls, t)
	if err := m.errs[t]; err != nil {
		return nil, err
	}
	return m.records[t], nil
}

// mockRecorder implements Recorder for testing.
type mockRecorder struct {
	results []resource.CollectResult
}

func (m *mockRecorder) RecordCollect(_ context.Context, result resource.CollectResult) {
	m.results = append(m.results, result)
}

func fixedClock() time.Time {
	return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
}

func TestRun(t *testing.T) {
	c := &mockCollector{
		accountID: "123456789012",
		records: map[resource.Type][]resource.Record{
			resource.TypeCompute: {
				resource.Instance{InstanceID: "i-1", Attribution: resource.NewAttribution(nil)},
				resource.Instance{InstanceID: "i-2", Attribution: resource.NewAttribution(nil)},
			},
			resource.TypeStorage: {resource.Bucket{BucketName: "b", Attribution: resource.NewAttribution(nil)}},
		},
	}

	doc := New(c, WithClock(fixedClock)).Run(context.Background(), "us-east-1")

	assert.Equal(t, "2024-06-01T09:00:00.000Z", doc.Timestamp)
	assert.Equal(t, "us-east-1", doc.Region)
	assert.Equal(t, "123456789012", doc.AccountID)
	assert.Equal(t, resource.Types(), c.calls)

	for _, typ := range resource.Types() {
		records, ok := doc.Records(typ)
		require.True(t, ok, "missing type %s", typ)
		assert.NotNil(t, records)
		assert.Equal(t, len(records), doc.Summary[typ])
	}
	assert.Equal(t, 2, doc.Summary[resource.TypeCompute])
	assert.Equal(t, 1, doc.Summary[resource.TypeStorage])
	assert.Equal(t, 0, doc.Summary[resource.TypeDatabase])
	assert.Equal(t, 3, doc.Total())
}

func TestRun_AccountFailure(t *testing.T) {
	c := &mockCollector{accountErr: errors.New("expired token")}

	doc := New(c).Run(context.Background(), "eu-west-1")
	assert.Equal(t, UnknownAccount, doc.AccountID)
}

func TestRun_CollectFailureDegradesToEmpty(t *testing.T) {
	c := &mockCollector{
		accountID: "1",
		records: map[resource.Type][]resource.Record{
			resource.TypeFunction: {resource.Function{FunctionName: "f"}},
		},
		errs: map[resource.Type]error{
			resource.TypeCompute: errors.New("access denied"),
		},
	}
	rec := &mockRecorder{}

	doc := New(c, WithRecorder(rec)).Run(context.Background(), "us-east-1")

	compute, ok := doc.Records(resource.TypeCompute)
	require.True(t, ok)
	assert.Empty(t, compute)
	assert.Equal(t, 0, doc.Summary[resource.TypeCompute])
	assert.Equal(t, 1, doc.Summary[resource.TypeFunction])

	require.Len(t, rec.results, 4)
	assert.Equal(t, resource.TypeCompute, rec.results[0].Type)
	assert.Error(t, rec.results[0].Error)
	assert.Equal(t, "us-east-1", rec.results[0].Region)
	assert.NoError(t, rec.results[3].Error)
	assert.Len(t, rec.results[3].Records, 1)
}

func TestRun_Filter(t *testing.T) {
	c := &mockCollector{
		accountID: "1",
		records: map[resource.Type][]resource.Record{
			resource.TypeCompute: {
				resource.Instance{InstanceID: "keep", Attribution: resource.NewAttribution(resource.TagSet{"Environment": "prod"})},
				resource.Instance{InstanceID: "drop", Attribution: resource.NewAttribution(resource.TagSet{"Environment": "dev"})},
			},
		},
	}
	f := filter.New([]string{"lambda"}, map[string]string{"Environment": "prod"}, nil)

	doc := New(c, WithFilter(f)).Run(context.Background(), "us-east-1")

	assert.NotContains(t, c.calls, resource.TypeFunction)
	functions, ok := doc.Records(resource.TypeFunction)
	require.True(t, ok)
	assert.Empty(t, functions)

	compute, _ := doc.Records(resource.TypeCompute)
	require.Len(t, compute, 1)
	assert.Equal(t, "keep", compute[0].ID())
	assert.Equal(t, 1, doc.Summary[resource.TypeCompute])
}

func TestRun_LogsActiveFilter(t *testing.T) {
	var logs bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&logs)
	t.Cleanup(func() { log.Logger = orig })

	c := &mockCollector{accountID: "1"}

	New(c).Run(context.Background(), "us-east-1")
	assert.NotContains(t, logs.String(), "filter active")

	logs.Reset()
	f := filter.New(nil, nil, map[string]string{"Environment": "dev"})
	New(c, WithFilter(f)).Run(context.Background(), "us-east-1")
	assert.Contains(t, logs.String(), "filter active")
}

func TestRun_WithTracer(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	c := &mockCollector{
		accountID: "1",
		errs:      map[resource.Type]error{resource.TypeStorage: errors.New("access denied")},
	}
	New(c, WithTracer(tp.Tracer("test"))).Run(context.Background(), "us-east-1")

	spans := recorder.Ended()
	require.Len(t, spans, len(resource.Types())+1)

	names := make([]string, 0, len(spans))
	failed := 0
	for _, s := range spans {
		names = append(names, s.Name())
		if s.Status().Code == codes.Error {
			failed++
		}
	}
	assert.Contains(t, names, "inventory.run")
	assert.Contains(t, names, "inventory.collect")
	assert.Equal(t, 1, failed)
}
