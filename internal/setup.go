package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/baalimago/metai/internal/utils"
	"github.com/baalimago/metai/pkg/metaai"
	"golang.org/x/term"
)

type Mode int

const (
	HELP Mode = iota
	QUERY
	CHAT
	VERSION
)

var defaultFlags = Configurations{}

// Querier runs the command given on the command line.
type Querier interface {
	Query(ctx context.Context) error
}

func getModeFromArgs(cmd string) (Mode, error) {
	switch cmd {
	case "chat", "c":
		return CHAT, nil
	case "query", "q":
		return QUERY, nil
	case "help", "h":
		return HELP, nil
	case "version", "v":
		return VERSION, nil
	default:
		return HELP, fmt.Errorf("unknown command: '%s'", cmd)
	}
}

// Setup parses args and returns the querier of the command. Commands which are
// done once setup is, help and version, return utils.ErrUserInitiatedExit.
func Setup(ctx context.Context, usage string, args []string, opts ...metaai.Option) (Querier, error) {
	flagSet, rest, err := parseFlags(defaultFlags, args)
	if err != nil {
		return nil, err
	}
	if len(rest) == 0 {
		fmt.Print(usage)
		return nil, errors.New("no command given")
	}
	mode, err := getModeFromArgs(rest[0])
	if err != nil {
		return nil, err
	}

	switch mode {
	case HELP:
		fmt.Print(usage)
		return nil, utils.ErrUserInitiatedExit
	case VERSION:
		return nil, printVersion()
	case QUERY, CHAT:
		text := strings.Join(rest[1:], " ")
		if mode == QUERY && strings.TrimSpace(text) == "" {
			return nil, errors.New("found no prompt, set it as arguments after 'query'")
		}
		client, err := metaai.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create client: %w", err)
		}
		return &Prompter{
			client:          client,
			chatMode:        mode == CHAT,
			text:            text,
			raw:             flagSet.PrintRaw || !term.IsTerminal(int(os.Stdout.Fd())),
			stream:          flagSet.Stream,
			newConversation: flagSet.NewConversation,
			asJSON:          flagSet.JSON,
			in:              os.Stdin,
			out:             os.Stdout,
		}, nil
	default:
		return nil, fmt.Errorf("unknown mode: %v", mode)
	}
}
