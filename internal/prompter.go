package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
	"github.com/baalimago/metai/pkg/metaai"
)

// Prompter sends either a single query, or runs a chat loop over its input.
type Prompter struct {
	client          *metaai.Client
	chatMode        bool
	text            string
	raw             bool
	stream          bool
	newConversation bool
	asJSON          bool
	in              io.Reader
	out             io.Writer
}

func (p *Prompter) Query(ctx context.Context) error {
	if p.chatMode {
		return p.chat(ctx)
	}
	return p.prompt(ctx, p.text, p.newConversation)
}

func (p *Prompter) chat(ctx context.Context) error {
	newConversation := p.newConversation
	if p.text != "" {
		if err := p.prompt(ctx, p.text, newConversation); err != nil {
			return err
		}
		newConversation = false
	}
	scanner := bufio.NewScanner(p.in)
	for {
		if !p.raw {
			fmt.Fprint(p.out, "> ")
		}
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		case ":new":
			p.client.StartNewConversation()
			ancli.PrintOK("started a new conversation\n")
			continue
		}
		if err := p.prompt(ctx, line, newConversation); err != nil {
			return err
		}
		newConversation = false
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (p *Prompter) prompt(ctx context.Context, text string, newConversation bool) error {
	if p.stream {
		return p.promptStream(ctx, text, newConversation)
	}
	res, err := p.client.Prompt(ctx, text, newConversation)
	if err != nil {
		return fmt.Errorf("failed to prompt: %w", err)
	}
	return p.printResult(res)
}

// promptStream prints the reply as it grows. Raw and json output wait for the
// last partial result instead.
func (p *Prompter) promptStream(ctx context.Context, text string, newConversation bool) error {
	seq, err := p.client.PromptStream(ctx, text, newConversation)
	if err != nil {
		return fmt.Errorf("failed to prompt: %w", err)
	}
	incremental := !p.raw && !p.asJSON
	var last metaai.Result
	prev := ""
	for res, err := range seq {
		if err != nil {
			return fmt.Errorf("failed to read reply: %w", err)
		}
		if incremental {
			if rest, ok := strings.CutPrefix(res.Message, prev); ok {
				fmt.Fprint(p.out, rest)
			} else {
				fmt.Fprint(p.out, "\n"+res.Message)
			}
			prev = res.Message
		}
		last = res
	}
	if incremental {
		fmt.Fprintln(p.out)
		p.printExtras(last)
		return nil
	}
	return p.printResult(last)
}

func (p *Prompter) printResult(res metaai.Result) error {
	if p.asJSON {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode reply: %w", err)
		}
		fmt.Fprintln(p.out, string(b))
		return nil
	}
	fmt.Fprintln(p.out, res.Message)
	p.printExtras(res)
	return nil
}

func (p *Prompter) printExtras(res metaai.Result) {
	if len(res.Sources) > 0 {
		fmt.Fprintln(p.out, "\nSources:")
		for _, s := range res.Sources {
			fmt.Fprintf(p.out, "  - %v: %v\n", s.Title, s.Link)
		}
	}
	if len(res.Media) > 0 {
		fmt.Fprintln(p.out, "\nMedia:")
		for _, m := range res.Media {
			fmt.Fprintf(p.out, "  - [%v] %v\n", m.Type, m.URL)
		}
	}
}
