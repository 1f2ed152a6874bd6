// Package policy audits inventory documents against Rego tag policies.
package policy

import (
	"cmp"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yairfalse/stocktake/pkg/resource"
)

// Query is the rule every policy module must define as a set of violations.
const Query = "data.stocktake.violations"

//go:embed default.rego
var defaultModule string

// Violation is one record failing a policy rule.
type Violation struct {
	Type    string `json:"type"`
	ID      string `json:"id"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Input is the document view handed to the policy.
type Input struct {
	Region    string        `json:"region"`
	AccountID string        `json:"account_id"`
	Records   []InputRecord `json:"records"`
}

// InputRecord is the per-record view handed to the policy.
type InputRecord struct {
	Type        string          `json:"type"`
	ID          string          `json:"id"`
	Environment string          `json:"environment"`
	Owner       string          `json:"owner"`
	Tags        resource.TagSet `json:"tags"`
}

// Engine evaluates a compiled policy.
type Engine struct {
	query  rego.PreparedEvalQuery
	tracer trace.Tracer
}

// New compiles the built-in policy that flags records without Environment or Owner tags.
func New(ctx context.Context) (*Engine, error) {
	return compile(ctx, "default.rego", defaultModule)
}

// Load compiles the policy module at path.
func Load(ctx context.Context, path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return compile(ctx, path, string(data))
}

func compile(ctx context.Context, name, module string) (*Engine, error) {
	prepared, err := rego.New(
		rego.Query(Query),
		rego.Module(name, module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile policy %s: %w", name, err)
	}

	return &Engine{
		query:  prepared,
		tracer: otel.Tracer("stocktake/policy"),
	}, nil
}

// NewInput flattens the document in collection order.
func NewInput(doc resource.Document) Input {
	in := Input{
		Region:    doc.Region,
		AccountID: doc.AccountID,
		Records:   make([]InputRecord, 0, doc.Total()),
	}
	for _, t := range resource.Types() {
		records, _ := doc.Records(t)
		for _, r := range records {
			fields := r.Fields()
			env, _ := fields["Environment"].(string)
			owner, _ := fields["Owner"].(string)
			in.Records = append(in.Records, InputRecord{
				Type:        t.String(),
				ID:          r.ID(),
				Environment: env,
				Owner:       owner,
				Tags:        r.TagSet(),
			})
		}
	}
	return in
}

// Evaluate returns the violations for doc sorted by type, id and rule.
func (e *Engine) Evaluate(ctx context.Context, doc resource.Document) ([]Violation, error) {
	ctx, span := e.tracer.Start(ctx, "policy.evaluate")
	defer span.End()

	rs, err := e.query.Eval(ctx, rego.EvalInput(NewInput(doc)))
	if err != nil {
		return nil, fmt.Errorf("evaluate policy: %w", err)
	}

	violations := []Violation{}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return violations, nil
	}

	// Round-trip through JSON: rule values have a runtime-defined shape.
	raw, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return nil, fmt.Errorf("encode policy result: %w", err)
	}
	if err := json.Unmarshal(raw, &violations); err != nil {
		return nil, fmt.Errorf("decode policy result: %w", err)
	}

	slices.SortFunc(violations, func(a, b Violation) int {
		return cmp.Or(
			cmp.Compare(a.Type, b.Type),
			cmp.Compare(a.ID, b.ID),
			cmp.Compare(a.Rule, b.Rule),
		)
	})

	span.SetAttributes(attribute.Int("violations", len(violations)))
	return violations, nil
}

// Emit evaluates doc and logs each violation.
func (e *Engine) Emit(ctx context.Context, doc resource.Document) error {
	violations, err := e.Evaluate(ctx, doc)
	if err != nil {
		return err
	}

	for _, v := range violations {
		log.Warn().Ctx(ctx).
			Str("type", v.Type).
			Str("id", v.ID).
			Str("rule", v.Rule).
			Msg(v.Message)
	}
	log.Info().Ctx(ctx).Int("violations", len(violations)).Msg("policy audit complete")
	return nil
}

// Close is a no-op.
func (e *Engine) Close() error {
	return nil
}
