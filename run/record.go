package run

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xhd2015/clau/types"
	"github.com/xhd2015/less-gen/flags"
)

const viewHelp = `
clau view <files...>

A file named - is read from stdin.

Options:
  --last-assistant                show the last assistant message
  --show-usage                    show usage of the recorded conversations
  --tools                         show only tool calls and results

Examples:
  clau stream --record tmp/chat.jsonl 'What is in this directory?'
  clau view tmp/chat.jsonl
  clau view tmp/chat.jsonl --last-assistant
  clau view tmp/chat.jsonl --show-usage
`

// stdinPlaceholder stands for a bare - while flags are parsed,
// the flag parser would reject it as an unknown flag
const stdinPlaceholder = "\x00stdin"

// just like replay the whole messages
func handleView(args []string, runOpts Options) error {
	var lastAssistant bool
	var showUsage bool
	var tools bool
	args, err := flags.Bool("--last-assistant", &lastAssistant).
		Bool("--show-usage", &showUsage).
		Bool("--tools", &tools).
		Help("-h,--help", viewHelp).
		Parse(replaceArg(args, "-", stdinPlaceholder))
	if err != nil {
		return err
	}
	args = replaceArg(args, stdinPlaceholder, "-")
	if len(args) == 0 {
		return fmt.Errorf("requires files, try `clau view --help`")
	}
	if showUsage && lastAssistant {
		return fmt.Errorf("--show-usage and --last-assistant cannot be specified at the same time")
	}

	var all []types.Message
	for _, file := range args {
		var msgs []types.Message
		if file == "-" {
			msgs, err = decodeMessages(runOpts.Stdin, "stdin")
		} else {
			msgs, err = loadRecordedMessages(file)
		}
		if err != nil {
			return err
		}
		all = append(all, msgs...)
	}

	if showUsage {
		return printStatsUsage(runOpts.Stdout, aggregateStats(all))
	}
	if lastAssistant {
		for i := len(all) - 1; i >= 0; i-- {
			if all[i].Type == types.MessageType_Assistant {
				fmt.Fprintln(runOpts.Stdout, all[i].Content)
				return nil
			}
		}
		return fmt.Errorf("no assistant message found")
	}
	for _, msg := range all {
		if tools {
			switch msg.Type {
			case types.MessageType_Tool, types.MessageType_ToolResult:
			default:
				continue
			}
		}
		printMessage(runOpts.Stdout, msg)
	}
	return nil
}

func replaceArg(args []string, from string, to string) []string {
	replaced := make([]string, len(args))
	for i, arg := range args {
		if arg == from {
			arg = to
		}
		replaced[i] = arg
	}
	return replaced
}

// loadRecordedMessages loads messages appended by appendToRecordFile
func loadRecordedMessages(recordFile string) ([]types.Message, error) {
	file, err := os.Open(recordFile)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return empty messages
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	return decodeMessages(file, recordFile)
}

// decodeMessages reads a stream of JSON messages, as printed by stream --json
func decodeMessages(r io.Reader, name string) ([]types.Message, error) {
	var messages []types.Message
	decoder := json.NewDecoder(r)
	for {
		var msg types.Message
		if err := decoder.Decode(&msg); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to parse message in %s: %v", name, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// appendToRecordFile appends a message to the record file as one JSON line
func appendToRecordFile(recordFile string, msg types.Message) error {
	file, err := os.OpenFile(recordFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	jsonData, err := json.Marshal(msg.TimeFilled())
	if err != nil {
		return err
	}

	_, err = file.WriteString(strings.TrimSpace(string(jsonData)) + "\n")
	return err
}
