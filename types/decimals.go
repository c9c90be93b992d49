package types

import (
	"github.com/shopspring/decimal"
)

// Cost is an amount in USD.
// Summation is done in decimal so that many small per-message
// costs add up without float drift.
type Cost struct {
	usd decimal.Decimal
}

func NewCost(usd float64) Cost {
	return Cost{usd: decimal.NewFromFloat(usd)}
}

func ZeroCost() Cost {
	return Cost{usd: decimal.Zero}
}

// ParseCost parses a decimal string such as "0.0123"
func ParseCost(s string) (Cost, error) {
	if s == "" {
		return ZeroCost(), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Cost{}, err
	}
	return Cost{usd: d}, nil
}

// Add adds two Cost together
func (c Cost) Add(other Cost) Cost {
	return Cost{usd: c.usd.Add(other.usd)}
}

func (c Cost) USD() float64 {
	return c.usd.InexactFloat64()
}

func (c Cost) IsZero() bool {
	return c.usd.IsZero()
}

func (c Cost) String() string {
	return c.usd.String()
}

// Format formats the cost with a fixed number of decimal places
func (c Cost) Format(places int32) string {
	return c.usd.StringFixed(places)
}

func (c Cost) MarshalJSON() ([]byte, error) {
	return []byte(c.usd.String()), nil
}

func (c *Cost) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		c.usd = decimal.Zero
		return nil
	}
	return c.usd.UnmarshalJSON(data)
}

// AddCosts sums the given costs, nil entries are skipped
func AddCosts(costs ...*float64) Cost {
	sum := ZeroCost()
	for _, cost := range costs {
		if cost == nil {
			continue
		}
		sum = sum.Add(NewCost(*cost))
	}
	return sum
}

// StatsFromMessages aggregates message metadata into conversation stats.
// Result messages are not counted, their own stats already summarize
// the conversation they close.
func StatsFromMessages(messages []Message) ConversationStats {
	var stats ConversationStats
	total := ZeroCost()
	for _, msg := range messages {
		if msg.Type == MessageType_Result {
			continue
		}
		stats.TotalMessages++
		if msg.CostUSD != nil {
			total = total.Add(NewCost(*msg.CostUSD))
		}
		if msg.DurationMs != nil {
			stats.TotalDurationMs += *msg.DurationMs
		}
		if msg.TokensUsed != nil {
			stats.TotalTokens = stats.TotalTokens.Add(*msg.TokensUsed)
		}
	}
	stats.TotalCostUSD = total.USD()
	return stats
}
