package engine

import (
	"fmt"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"

	"github.com/darmiel/tokenizer/internal/config"
	"github.com/darmiel/tokenizer/internal/core"
)

var _ core.AccessPolicy = (*Engine)(nil)

// Env is the environment rule expressions are evaluated against.
type Env struct {
	Identity IdentityEnv `expr:"identity"`
	Request  RequestEnv  `expr:"request"`
}

type IdentityEnv struct {
	Subject    string              `expr:"subject"`
	Source     string              `expr:"source"`
	Attributes map[string][]string `expr:"attributes"`
}

type RequestEnv struct {
	ConsumerID    string `expr:"consumer_id"`
	FunctionalID  string `expr:"functional_id"`
	TransactionID string `expr:"transaction_id"`
	RefreshWindow int    `expr:"refresh_window"`
}

func newEnv(identity core.Identity, req core.CredentialRequest) Env {
	attributes := identity.Attributes
	if attributes == nil {
		attributes = map[string][]string{}
	}
	return Env{
		Identity: IdentityEnv{
			Subject:    identity.Subject,
			Source:     identity.Source,
			Attributes: attributes,
		},
		Request: RequestEnv{
			ConsumerID:    req.ConsumerID,
			FunctionalID:  req.FunctionalID,
			TransactionID: req.TransactionID,
			RefreshWindow: req.RefreshWindow,
		},
	}
}

type rule struct {
	name      string
	expr      string
	consumers []string
	program   *vm.Program
}

func (r rule) appliesTo(consumerID string) bool {
	return len(r.consumers) == 0 || slices.Contains(r.consumers, consumerID)
}

// Engine holds the compiled policy rules and evaluates them.
// All applicable rules must pass. Without rules, everything is allowed.
type Engine struct {
	rules []rule
}

// New compiles the given rules. Compilation errors are returned, so a broken rule never reaches a request.
func New(rules []config.PolicyRule) (*Engine, error) {
	compiled := make([]rule, 0, len(rules))
	for _, r := range rules {
		program, err := expr.Compile(r.Expr, expr.Env(Env{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compiling policy rule '%s': %w", r.Name, err)
		}
		compiled = append(compiled, rule{
			name:      r.Name,
			expr:      r.Expr,
			consumers: r.Consumers,
			program:   program,
		})
	}
	return &Engine{rules: compiled}, nil
}

// Allow reports whether identity may obtain a token for req.
// If not, the name of the first rule that denied the request is returned.
func (e *Engine) Allow(identity core.Identity, req core.CredentialRequest) (bool, string) {
	for _, res := range e.Evaluate(identity, req) {
		if res.Applied && !res.Passed {
			return false, res.Rule
		}
	}
	return true, ""
}

// RuleResult is the outcome of a single rule.
type RuleResult struct {
	Rule    string
	Expr    string
	Applied bool
	Passed  bool
	Reason  string
}

// Evaluate runs all rules and returns the result of each one in order.
func (e *Engine) Evaluate(identity core.Identity, req core.CredentialRequest) []RuleResult {
	env := newEnv(identity, req)
	results := make([]RuleResult, 0, len(e.rules))
	for _, r := range e.rules {
		res := RuleResult{Rule: r.name, Expr: r.expr}
		if !r.appliesTo(req.ConsumerID) {
			res.Reason = fmt.Sprintf("consumer '%s' not in %v", req.ConsumerID, r.consumers)
			results = append(results, res)
			continue
		}
		res.Applied = true

		out, err := expr.Run(r.program, env)
		if err != nil {
			log.Warn().Err(err).Msgf("error evaluating expression for policy rule '%s'", r.name)
			res.Reason = fmt.Sprintf("error evaluating expression: %v", err)
			results = append(results, res)
			continue
		}
		if passed, ok := out.(bool); ok && passed {
			res.Passed = true
		} else {
			res.Reason = "expression evaluated to false"
		}
		results = append(results, res)
	}
	return results
}

// Len returns the number of rules.
func (e *Engine) Len() int {
	return len(e.rules)
}
