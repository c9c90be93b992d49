package run

import (
	"fmt"

	"github.com/xhd2015/clau/server"
	"github.com/xhd2015/less-gen/flags"
)

const helpServe = `serve - Start a WebSocket stream server

Usage: clau serve [OPTIONS]

Options:
  --listen PORT          port to listen on (default: 8080)
  --binary PATH          the assistant binary(default: claude)
  --model MODEL          default model, a request may override it
  --system PROMPT        default system prompt, PROMPT can also be a file
  --timeout SECS         timeout of each query(default: 30)
  -c,--config FILE       load configuration from JSON or YAML file
  -v,--verbose           show verbose info
  -h,--help              show this help message

The server exposes:
  /stream?query=Q[&model=M&system_prompt=S&format=F&session_id=ID]
                         WebSocket, one event per message, then an end event
  /sessions              sessions seen so far, as JSON
  /shutdown              stop the server

Examples:
  clau serve --listen 8080
  clau serve --listen 3000 --model opus --verbose
`

// handleServe starts a WebSocket stream server
func handleServe(args []string, runOpts Options) error {
	var opts QueryOptions
	var configFile string
	var listen int = 8080

	flagsParser := flags.String("--binary", &opts.Binary).
		Int("--listen", &listen).
		String("--model", &opts.Model).
		String("--system", &opts.SystemPrompt).
		Int("--timeout", &opts.Timeout).
		String("-c,--config", &configFile).
		Bool("-v,--verbose", &opts.Verbose).
		Help("-h,--help", helpServe)

	args, err := flagsParser.Parse(args)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}

	config, err := LoadConfig(configFile)
	if err != nil {
		return err
	}
	if err := ApplyConfig(config, &opts); err != nil {
		return err
	}
	cfg, err := opts.ToConfig()
	if err != nil {
		return err
	}

	serverOpts := server.ServerOptions{
		Verbose:       opts.Verbose,
		Config:        cfg,
		ClientOptions: runOpts.ClientOptions,
	}
	return server.Start(listen, serverOpts)
}
