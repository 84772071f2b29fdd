// Package policy gates parsed intents with OPA before any upstream call is
// made. Operators override DefaultPolicy to restrict which intents a tenant
// or requester may run.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Input is the decision context for one parsed message.
type Input struct {
	Intent      string `json:"intent"`
	TenantID    string `json:"tenant_id"`
	RequesterID string `json:"requester_id"`
}

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a policy engine from rego policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.intent_policy.decision"),
		rego.Module("intent_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Allow evaluates the policy for input. A policy that yields no decision
// allows by default; evaluation errors deny.
func (e *Engine) Allow(ctx context.Context, input Input) (bool, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return true, nil
	}

	decision, ok := results[0].Expressions[0].Value.(string)
	if !ok {
		return false, fmt.Errorf("policy returned non-string decision: %v", results[0].Expressions[0].Value)
	}
	return decision == "allow", nil
}

// DefaultPolicy allows every intent. Deny rules are added per deployment.
const DefaultPolicy = `
package intent_policy

default decision = "allow"

# Example: lock a tenant out of issue queries
# decision = "deny" {
# 	input.intent == "get_issues"
# 	input.tenant_id == "suspended-hub"
# }
`
