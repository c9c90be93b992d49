package run

import (
	"fmt"
	"io"

	"github.com/xhd2015/clau/internal/markdown"
	"github.com/xhd2015/clau/types"
)

// printResponseUsage shows the metadata of a one-shot response as a
// markdown table. Cost is the one reported by the binary, Estimated
// is computed from the token usage when the model is known.
func printResponseUsage(w io.Writer, meta *types.ResponseMetadata, model string) error {
	if meta == nil {
		fmt.Fprintln(w, "no usage reported, try --format json or --format stream-json")
		return nil
	}
	if meta.Model != nil {
		model = *meta.Model
	}

	var usage types.ResponseUsage
	if meta.TokensUsed != nil {
		usage = *meta.TokensUsed
	}

	cost := "-"
	if meta.CostUSD != nil {
		cost = "$" + types.NewCost(*meta.CostUSD).String()
	}
	estimated := "-"
	if est, ok := types.EstimateCost(model, usage); ok && meta.TokensUsed != nil {
		estimated = "$" + est.Format(6)
	}
	duration := "-"
	if meta.DurationMs != nil {
		duration = fmt.Sprintf("%dms", *meta.DurationMs)
	}
	if model == "" {
		model = "-"
	}

	return markdown.PrintGenerate(w, func(w io.Writer) {
		fmt.Fprintf(w, "| Session | Model | Input | Cached Input Read | Cache Input Creation | Output | Duration | Cost | Estimated |\n")
		fmt.Fprintf(w, "|---------|-------|-------|-------------------|----------------------|--------|----------|------|-----------|\n")
		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			meta.SessionID, model,
			optionalCount(usage.InputTokens),
			optionalCount(usage.CacheReadInputTokens),
			optionalCount(usage.CacheCreationInputTokens),
			optionalCount(usage.OutputTokens),
			duration, cost, estimated,
		)
	})
}

func printStatsUsage(w io.Writer, stats types.ConversationStats) error {
	return markdown.PrintGenerate(w, func(w io.Writer) {
		fmt.Fprintf(w, "| Messages | Input | Output | Total | Duration | Cost |\n")
		fmt.Fprintf(w, "|----------|-------|--------|-------|----------|------|\n")
		fmt.Fprintf(w, "| %d | %d | %d | %d | %dms | $%s |\n",
			stats.TotalMessages,
			stats.TotalTokens.Input,
			stats.TotalTokens.Output,
			stats.TotalTokens.Total,
			stats.TotalDurationMs,
			types.NewCost(stats.TotalCostUSD).String(),
		)
	})
}

// aggregateStats sums the stats of every result message, a recording
// may hold several conversations. Without any result message the
// stats are computed from the messages themselves.
func aggregateStats(messages []types.Message) types.ConversationStats {
	var total types.ConversationStats
	cost := types.ZeroCost()
	var found bool
	for _, msg := range messages {
		if msg.Type != types.MessageType_Result || msg.Stats == nil {
			continue
		}
		found = true
		total.TotalMessages += msg.Stats.TotalMessages
		total.TotalDurationMs += msg.Stats.TotalDurationMs
		total.TotalTokens = total.TotalTokens.Add(msg.Stats.TotalTokens)
		cost = cost.Add(types.NewCost(msg.Stats.TotalCostUSD))
	}
	if !found {
		return types.StatsFromMessages(messages)
	}
	total.TotalCostUSD = cost.USD()
	return total
}

func optionalCount(n *uint64) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}
