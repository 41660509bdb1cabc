// Package metaai exposes a public API for exchanging messages with the Meta AI
// web service.
//
// A Client keeps the conversation going between calls: every Prompt continues
// the current conversation unless a new one is requested. Replies are either
// returned whole, or as a lazy sequence of partial results:
//
//	ctx := context.Background()
//	c, err := metaai.New(ctx, metaai.WithCookies(cookies))
//	if err != nil {
//	    // handle error
//	}
//
//	res, err := c.Prompt(ctx, "What's the weather like in Stockholm?", false)
//	if err != nil {
//	    // handle error
//	}
//	fmt.Println(res.Message)
//
//	seq, err := c.PromptStream(ctx, "And tomorrow?", false)
//	if err != nil {
//	    // handle error
//	}
//	for partial, err := range seq {
//	    // each partial holds the reply so far
//	}
//
// Credentials are loaded once, from the environment by default. Without an
// 'abra_sess' cookie the client runs as an anonymous temporary user and
// fetches an access token on first use.
//
// Legacy wraps a Client behind the older, loosely typed call shape.
package metaai
