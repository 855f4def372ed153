package botkernel

import (
	"context"
	"fmt"
)

// JokeBot implements the text-only joke bot bundled with the service.
type JokeBot struct{}

func (JokeBot) Info() Info {
	return Info{
		TypeKey:      "joke",
		DisplayName:  "Joke Bot",
		Capabilities: []Capability{CapText},
		ConfigSchema: ConfigSchema{
			"prefix": {Type: TypeString, Default: "[joke]"},
		},
	}
}

func (JokeBot) Process(ctx context.Context, msg Message, botCtx Context) (*Reply, error) {
	if msg.Content == "" {
		return nil, nil
	}

	prefix, _ := botCtx.Config["prefix"].(string)
	prompt := fmt.Sprintf("Write one short, family-friendly joke themed around this message, no preamble, just the joke:\n\n%s", msg.Content)
	joke, err := botCtx.LLM.Complete(ctx, "You are a cheerful comedian who only tells clean, family-friendly jokes.", prompt)
	if err != nil {
		return &Reply{Text: fmt.Sprintf("%s couldn't think of one right now, ask me again in a bit.", prefix)}, nil
	}

	return &Reply{Text: fmt.Sprintf("%s %s", prefix, joke)}, nil
}
