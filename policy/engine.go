// Package policy evaluates delivery job transitions with OPA.
package policy

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/rego"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// Input is the document a transition is evaluated against.
type Input struct {
	Action        domain.JobAction `json:"action"`
	Status        domain.JobStatus `json:"status"`
	AssignedRider string           `json:"assigned_rider"`
	ActorRider    string           `json:"actor_rider"`
	HasProof      bool             `json:"has_proof"`
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allow  bool
	Reason string
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.job_policy.decision"),
		rego.Module("job_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// NewEngineFromFile loads the policy from path, or DefaultPolicy when path is empty.
func NewEngineFromFile(ctx context.Context, path string) (*Engine, error) {
	if path == "" {
		return NewEngine(ctx, DefaultPolicy)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewEngine(ctx, string(content))
}

// Evaluate checks whether the transition described by input is permitted.
// The policy must return an object {allow: bool, reason: string}.
func (e *Engine) Evaluate(ctx context.Context, input Input) (Decision, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"action":         string(input.Action),
		"status":         string(input.Status),
		"assigned_rider": input.AssignedRider,
		"actor_rider":    input.ActorRider,
		"has_proof":      input.HasProof,
	}))
	if err != nil {
		return Decision{}, fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return Decision{Reason: "no decision"}, nil
	}

	obj, ok := results[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{}, fmt.Errorf("unexpected policy result type %T", results[0].Expressions[0].Value)
	}
	allow, _ := obj["allow"].(bool)
	reason, _ := obj["reason"].(string)
	return Decision{Allow: allow, Reason: reason}, nil
}

// DefaultPolicy is the default job transition policy.
const DefaultPolicy = `
package job_policy

default decision = {"allow": false, "reason": "unknown action"}

required_status = {
	"accept": "requested",
	"pickup": "accepted",
	"deliver": "picked_up",
	"complete": "delivered",
}

decision = {"allow": false, "reason": sprintf("job is %s, expected %s", [input.status, want])} {
	want := required_status[input.action]
	input.status != want
} else = {"allow": false, "reason": "job already has a rider"} {
	input.action == "accept"
	input.assigned_rider != ""
} else = {"allow": false, "reason": "job is assigned to another rider"} {
	rider_bound[input.action]
	input.assigned_rider != input.actor_rider
} else = {"allow": false, "reason": "delivery proof is required"} {
	input.action == "deliver"
	not input.has_proof
} else = {"allow": true, "reason": ""} {
	required_status[input.action]
}

rider_bound = {"pickup", "deliver"}
`
