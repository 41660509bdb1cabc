package internal

import (
	"flag"
	"fmt"

	"github.com/baalimago/metai/internal/utils"
)

type Configurations struct {
	PrintRaw bool
	Stream   bool
	// NewConversation applies to the first message only, in chat mode
	// ':new' restarts the conversation.
	NewConversation bool
	JSON            bool
}

func flagError(err error, short, long string) error {
	return fmt.Errorf("flags '-%v' and '-%v' are mutually exclusive: %w", short, long, err)
}

// parseFlags parses CLI flags into Configurations, returning the remaining
// positional arguments.
func parseFlags(defaults Configurations, args []string) (Configurations, []string, error) {
	fs := flag.NewFlagSet("metai", flag.ContinueOnError)
	fs.String("A-helpful-nonexisting-flag", "there is no default", "This isn't a flag. It's only here to tell you that 'metai h/help' gives better overview of usage than 'metai -h'.")

	printRawShort := fs.Bool("r", defaults.PrintRaw, "Set to true to print raw output, the complete reply once it's done.")
	printRawLong := fs.Bool("raw", defaults.PrintRaw, "Set to true to print raw output, the complete reply once it's done.")

	streamShort := fs.Bool("s", defaults.Stream, "Set to true to stream the reply as it's generated.")
	streamLong := fs.Bool("stream", defaults.Stream, "Set to true to stream the reply as it's generated.")

	newConvShort := fs.Bool("n", defaults.NewConversation, "Set to true to start a new conversation.")
	newConvLong := fs.Bool("new", defaults.NewConversation, "Set to true to start a new conversation.")

	jsonShort := fs.Bool("j", defaults.JSON, "Set to true to print the reply, its sources and media as json.")
	jsonLong := fs.Bool("json", defaults.JSON, "Set to true to print the reply, its sources and media as json.")

	err := fs.Parse(args)
	if err != nil {
		return Configurations{}, []string{}, fmt.Errorf("failed to parse args: %w", err)
	}

	printRaw, err := utils.ReturnNonDefault(*printRawShort, *printRawLong, defaults.PrintRaw)
	if err != nil {
		return Configurations{}, nil, flagError(err, "r", "raw")
	}
	stream, err := utils.ReturnNonDefault(*streamShort, *streamLong, defaults.Stream)
	if err != nil {
		return Configurations{}, nil, flagError(err, "s", "stream")
	}
	newConv, err := utils.ReturnNonDefault(*newConvShort, *newConvLong, defaults.NewConversation)
	if err != nil {
		return Configurations{}, nil, flagError(err, "n", "new")
	}
	asJSON, err := utils.ReturnNonDefault(*jsonShort, *jsonLong, defaults.JSON)
	if err != nil {
		return Configurations{}, nil, flagError(err, "j", "json")
	}

	return Configurations{
		PrintRaw:        printRaw,
		Stream:          stream,
		NewConversation: newConv,
		JSON:            asJSON,
	}, fs.Args(), nil
}
