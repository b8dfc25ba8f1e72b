package adapters

// Pricing holds the rates used to estimate cost from a token count.
// The estimate assumes a fixed input/output split of the total.
type Pricing struct {
	InputRatePerToken  float64
	OutputRatePerToken float64
	InputShare         float64
	OutputShare        float64
}

// DefaultPricing is $0.25 per 1M input tokens and $1.25 per 1M output tokens,
// with 70% of tokens counted as input.
var DefaultPricing = Pricing{
	InputRatePerToken:  0.00000025,
	OutputRatePerToken: 0.00000125,
	InputShare:         0.7,
	OutputShare:        0.3,
}

// PricingPerMillion builds a Pricing from per-million-token prices with the default split.
func PricingPerMillion(input, output float64) Pricing {
	p := DefaultPricing
	p.InputRatePerToken = input / 1_000_000
	p.OutputRatePerToken = output / 1_000_000
	return p
}

// Estimate returns the cost of tokens under p.
func (p Pricing) Estimate(tokens int) float64 {
	if tokens <= 0 {
		return 0.0
	}
	inputTokens := float64(tokens) * p.InputShare
	outputTokens := float64(tokens) * p.OutputShare
	// Explicit conversions round each product, so no platform fuses them.
	return float64(inputTokens*p.InputRatePerToken) + float64(outputTokens*p.OutputRatePerToken)
}

// ExecutionResult is the outcome of one Execute call.
type ExecutionResult struct {
	Success              bool        `json:"success"`
	Output               string      `json:"output"`
	Error                string      `json:"error,omitempty"`
	Failure              FailureKind `json:"failure,omitempty"`
	FilesModified        []string    `json:"files_modified"`
	TokensUsed           int         `json:"tokens_used"`
	ExecutionTimeSeconds float64     `json:"execution_time_seconds"`
	MatchPercentage      *float64    `json:"match_percentage,omitempty"`
	Tool                 string      `json:"tool,omitempty"`
	Model                string      `json:"model,omitempty"`
}

// CostEstimate approximates the monetary cost of the execution using DefaultPricing.
func (r ExecutionResult) CostEstimate() float64 {
	return DefaultPricing.Estimate(r.TokensUsed)
}

// CostEstimateWith approximates the cost using the supplied pricing.
func (r ExecutionResult) CostEstimateWith(p Pricing) float64 {
	return p.Estimate(r.TokensUsed)
}

// TimedOut reports whether the execution failed because of its deadline.
func (r ExecutionResult) TimedOut() bool {
	return !r.Success && r.Failure == FailureTimeout
}

// WithMatchPercentage returns a copy of r carrying a quality score clamped to [0, 100].
func (r ExecutionResult) WithMatchPercentage(pct float64) ExecutionResult {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	r.MatchPercentage = &pct
	r.FilesModified = append([]string(nil), r.FilesModified...)
	return r
}
