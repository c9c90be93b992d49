package cli

import (
	"fmt"
	"strings"

	"github.com/xhd2015/clau/types"
)

func ExampleBuildArgs() {
	cfg := types.NewConfig(
		types.WithStreamFormat(types.StreamFormat_StreamJSON),
		types.WithModel(types.ModelSonnet),
		types.WithToolPermissions(types.MCPPermission("fs", "read")),
	)
	fmt.Println(strings.Join(BuildArgs(&cfg, "summarize README.md"), " "))
	// Output:
	// -p --output-format stream-json --verbose --model sonnet --allowedTools mcp__fs__read summarize README.md
}

func ExampleParseStreamJSON() {
	raw := `{"type":"system","subtype":"init","session_id":"abc"}
{"type":"assistant","message":{"content":[{"type":"text","text":"4"}]}}
{"type":"result","subtype":"success","session_id":"abc","total_cost_usd":0.001}
`
	resp := ParseStreamJSON([]byte(raw))
	fmt.Println(resp.Content, resp.Metadata.SessionID, *resp.Metadata.CostUSD)
	// Output:
	// 4 abc 0.001
}
