package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/go_away_boilerplate/pkg/misc"
	"github.com/baalimago/go_away_boilerplate/pkg/shutdown"
	"github.com/baalimago/metai/internal"
	"github.com/baalimago/metai/internal/utils"
)

const usage = `metai - chat with Meta AI from the command line

Prerequisites:
  - Set the META_AI_ABRA_SESS and META_AI_FB_DTSG environment variables to use a logged in session
  - Or set META_AI_DATR, META_AI_JS_DATR, META_AI_ABRA_CSRF and META_AI_LSD to chat as an anonymous temporary user
  - (Optional) Set META_AI_PROXY to route all calls through a proxy
  - (Optional) Set DEBUG=1 for verbose output

Usage: metai [flags] <command>

Flags:
  -r, -raw bool        Set to true to print raw output, the complete reply once it's done. (default false, forced when stdout isn't a terminal)
  -s, -stream bool     Set to true to stream the reply as it's generated. (default false)
  -n, -new bool        Set to true to start a new conversation. (default false)
  -j, -json bool       Set to true to print the reply, its sources and media as json. (default false)

Commands:
  h|help               Display this help message
  v|version            Display the version
  q|query <text>       Send the text and print the reply
  c|chat [text]        Chat on stdin. Type ':new' to start over, 'exit' to quit.

Examples:
  - metai query "What's the weather like in Tokyo?"
  - metai -s q Write a haiku about gophers
  - metai -j query "Latest Go release?" | jq .sources
  - metai chat
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ancli.SetupSlog()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	querier, err := internal.Setup(ctx, usage, args)
	if err != nil {
		if errors.Is(err, utils.ErrUserInitiatedExit) {
			return 0
		}
		ancli.PrintErr(fmt.Sprintf("failed to setup: %v\n", err))
		return 1
	}
	go func() { shutdown.Monitor(cancel) }()
	err = querier.Query(ctx)
	if err != nil {
		if errors.Is(err, utils.ErrUserInitiatedExit) || errors.Is(err, context.Canceled) {
			ancli.Okf("Seems like you wanted out. Byebye!\n")
			return 0
		}
		ancli.PrintErr(fmt.Sprintf("failed to run: %v\n", err))
		return 1
	}
	if misc.Truthy(os.Getenv("DEBUG")) {
		ancli.PrintOK("things seems to have worked out. Bye bye!\n")
	}
	return 0
}
