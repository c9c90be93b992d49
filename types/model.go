package types

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Model aliases accepted by --model
const (
	ModelSonnet = "sonnet"
	ModelOpus   = "opus"
	ModelHaiku  = "haiku"

	ModelClaudeSonnet4   = "claude-sonnet-4-20250514"
	ModelClaudeSonnet4_5 = "claude-sonnet-4-5-20250929"
	ModelClaudeOpus4     = "claude-opus-4-20250514"
	ModelClaudeOpus4_1   = "claude-opus-4-1-20250805"
	ModelClaude3_7Sonnet = "claude-3-7-sonnet-20250219"
	ModelClaude3_5Haiku  = "claude-3-5-haiku-20241022"
)

// ModelCost is the price of one million tokens in USD
type ModelCost struct {
	InputUSDPer1M           string
	InputCacheWriteUSDPer1M string
	InputCacheReadUSDPer1M  string
	OutputUSDPer1M          string
}

type ModelInfo struct {
	Name  string
	Alias string
	Cost  ModelCost
}

var sonnetCost = ModelCost{
	InputUSDPer1M:           "3.00",
	InputCacheWriteUSDPer1M: "3.75",
	InputCacheReadUSDPer1M:  "0.30",
	OutputUSDPer1M:          "15.00",
}

var opusCost = ModelCost{
	InputUSDPer1M:           "15.00",
	InputCacheWriteUSDPer1M: "18.75",
	InputCacheReadUSDPer1M:  "1.50",
	OutputUSDPer1M:          "75.00",
}

var haikuCost = ModelCost{
	InputUSDPer1M:           "0.80",
	InputCacheWriteUSDPer1M: "1.00",
	InputCacheReadUSDPer1M:  "0.08",
	OutputUSDPer1M:          "4.00",
}

// AllModelInfos is keyed by full model name
var AllModelInfos = map[string]ModelInfo{
	ModelClaudeSonnet4:   {Name: ModelClaudeSonnet4, Cost: sonnetCost},
	ModelClaudeSonnet4_5: {Name: ModelClaudeSonnet4_5, Alias: ModelSonnet, Cost: sonnetCost},
	ModelClaude3_7Sonnet: {Name: ModelClaude3_7Sonnet, Cost: sonnetCost},
	ModelClaudeOpus4:     {Name: ModelClaudeOpus4, Cost: opusCost},
	ModelClaudeOpus4_1:   {Name: ModelClaudeOpus4_1, Alias: ModelOpus, Cost: opusCost},
	ModelClaude3_5Haiku:  {Name: ModelClaude3_5Haiku, Alias: ModelHaiku, Cost: haikuCost},
}

// GetAllModels returns all known model names, sorted
func GetAllModels() []string {
	models := make([]string, 0, len(AllModelInfos))
	for modelName := range AllModelInfos {
		models = append(models, modelName)
	}
	sort.Strings(models)
	return models
}

// LookupModel finds a model by full name or alias
func LookupModel(name string) (ModelInfo, bool) {
	if info, ok := AllModelInfos[name]; ok {
		return info, true
	}
	for _, info := range AllModelInfos {
		if info.Alias != "" && info.Alias == name {
			return info, true
		}
	}
	return ModelInfo{}, false
}

var _1M = decimal.NewFromInt(1e6)

// EstimateCost prices usage reported for model.
// Returns false when the model is unknown.
func EstimateCost(model string, usage ResponseUsage) (Cost, bool) {
	info, ok := LookupModel(model)
	if !ok {
		return Cost{}, false
	}
	price := func(per1M string, tokens *uint64) decimal.Decimal {
		if per1M == "" || tokens == nil {
			return decimal.Zero
		}
		return requireFromString(per1M).Mul(decimal.NewFromInt(int64(*tokens))).Div(_1M)
	}
	total := price(info.Cost.InputUSDPer1M, usage.InputTokens).
		Add(price(info.Cost.InputCacheWriteUSDPer1M, usage.CacheCreationInputTokens)).
		Add(price(info.Cost.InputCacheReadUSDPer1M, usage.CacheReadInputTokens)).
		Add(price(info.Cost.OutputUSDPer1M, usage.OutputTokens))
	return Cost{usd: total}, true
}

func requireFromString(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(s)
}
