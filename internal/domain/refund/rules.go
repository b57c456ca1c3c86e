package refund

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/shopspring/decimal"

	"backoffice/internal/core/apperror"
)

// RuleInput is the fact set an auto-approval decision is made against.
type RuleInput struct {
	Amount         decimal.Decimal
	DaysSinceOrder int
	Method         string
	Currency       string
	OrderTotal     decimal.Decimal
}

// Decision is the outcome of an auto-approval evaluation. Rule carries the
// human-readable explanation persisted on auto-approved refunds.
type Decision struct {
	Approved bool
	Rule     string
}

// Evaluator decides auto-approval: the settings thresholds gate first
// (inclusive bounds), then the optional CEL expression may veto. Compiled
// programs are cached per expression.
type Evaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewEvaluator builds the evaluator and its CEL environment.
func NewEvaluator() (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("daysSinceOrder", cel.IntType),
		cel.Variable("method", cel.StringType),
		cel.Variable("currency", cel.StringType),
		cel.Variable("orderTotal", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("build cel environment: %w", err)
	}
	return &Evaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

// Evaluate applies the company settings to the input. A disabled rule set
// always returns a negative decision.
func (e *Evaluator) Evaluate(settings *Settings, in RuleInput) (Decision, error) {
	if settings == nil || !settings.AutoApprovalEnabled {
		return Decision{}, nil
	}

	if in.Amount.GreaterThan(settings.AutoApprovalMaxAmount) {
		return Decision{}, nil
	}
	if in.DaysSinceOrder > settings.AutoApprovalMaxDays {
		return Decision{}, nil
	}

	if settings.Expression != "" {
		ok, err := e.evalExpression(settings.Expression, in)
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			return Decision{}, nil
		}
	}

	rule := fmt.Sprintf(
		"auto-approved: amount %s <= %s and %d days since order <= %d",
		in.Amount.String(),
		settings.AutoApprovalMaxAmount.String(),
		in.DaysSinceOrder,
		settings.AutoApprovalMaxDays,
	)
	if settings.Expression != "" {
		rule += fmt.Sprintf(" and rule %q matched", settings.Expression)
	}
	return Decision{Approved: true, Rule: rule}, nil
}

// ValidateExpression compiles an expression without running it. Used when
// settings are updated so a broken rule is rejected up front.
func (e *Evaluator) ValidateExpression(expression string) error {
	if expression == "" {
		return nil
	}
	_, err := e.program(expression)
	return err
}

func (e *Evaluator) evalExpression(expression string, in RuleInput) (bool, error) {
	prg, err := e.program(expression)
	if err != nil {
		return false, err
	}

	amount, _ := in.Amount.Float64()
	orderTotal, _ := in.OrderTotal.Float64()
	out, _, err := prg.Eval(map[string]any{
		"amount":         amount,
		"daysSinceOrder": in.DaysSinceOrder,
		"method":         in.Method,
		"currency":       in.Currency,
		"orderTotal":     orderTotal,
	})
	if err != nil {
		return false, apperror.NewValidation("auto-approval rule evaluation failed").
			WithDetail("expression", expression).
			WithDetail("error", err.Error())
	}
	return out == types.True, nil
}

func (e *Evaluator) program(expression string) (cel.Program, error) {
	e.mu.RLock()
	prg, ok := e.programs[expression]
	e.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := e.env.Compile(expression)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewValidation("invalid auto-approval rule").
			WithDetail("expression", expression).
			WithDetail("error", iss.Err().Error())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, apperror.NewValidation("auto-approval rule must evaluate to a boolean").
			WithDetail("expression", expression)
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, apperror.NewValidation("invalid auto-approval rule").
			WithDetail("expression", expression).
			WithDetail("error", err.Error())
	}

	e.mu.Lock()
	e.programs[expression] = prg
	e.mu.Unlock()
	return prg, nil
}
