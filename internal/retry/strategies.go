package retry

import (
	"github.com/weaverhq/weaver/internal/generate"
)

// Strategy names a pure prompt transform applied before the next attempt.
type Strategy string

const (
	StrategyRephrase        Strategy = "rephrase"
	StrategySimplify        Strategy = "simplify"
	StrategyAddExamples     Strategy = "add-examples"
	StrategyDecompose       Strategy = "decompose"
	StrategyConstrainOutput Strategy = "constrain-output"
	StrategyIncreaseContext Strategy = "increase-context"
)

// ApplyStrategy rewrites the original request for another attempt. Always
// transforms the original, not the previous attempt, so cycling strategies
// stays a choice between alternatives rather than an accumulation.
func ApplyStrategy(strategy Strategy, req generate.Request) generate.Request {
	out := req
	switch strategy {
	case StrategyRephrase:
		out.Prompt = "Here is the request stated differently. Read it carefully and complete it in full:\n\n" +
			req.Prompt
	case StrategySimplify:
		out.Prompt = "Focus only on the essential core of this request. Skip optional refinements and edge cases:\n\n" +
			req.Prompt
		out.TemperatureOffset -= 0.2
	case StrategyAddExamples:
		out.Prompt = req.Prompt + "\n\nFor example, a good response looks like:\n" +
			"```\n// complete, runnable code\n// no placeholders or ellipses\n```\n" +
			"Follow that shape exactly."
	case StrategyDecompose:
		out.Prompt = "Break this request into small parts and complete each part in order, all within one response:\n\n" +
			req.Prompt
	case StrategyConstrainOutput:
		out.Prompt = req.Prompt + "\n\nReturn only code inside a single fenced block. " +
			"No commentary, no repetition, and make sure every bracket is balanced."
		out.TemperatureOffset -= 0.3
	case StrategyIncreaseContext:
		out.Prompt = req.Prompt + "\n\nProduce the complete output. Do not stop early or truncate."
		out.TokenLimitOffset += 2048
	}
	return out
}
