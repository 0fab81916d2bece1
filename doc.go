/*
Package qabot implements the dialog engine behind the ACCESS support
assistant: a branching conversation that answers questions through an AI
backend and collects support, login and security-incident tickets.

The engine is a deterministic state machine over named nodes. Each node
decides its message, its option buttons, how to validate the user's input,
what to record in the shared form context and where to branch next. The
host owns IO and persistence; the bot only computes views and transitions,
so it can sit behind a terminal, an HTTP API or an MCP server unchanged.

# Usage

Compose a bot per session, then alternate Render and Navigate:

	tickets := submit.NewClient("https://support.example.org")
	bot, err := qabot.New("session-1", tickets,
		qabot.WithIdentity(domain.Identity{Email: "kai@example.org", Name: "Kai"}),
		qabot.WithQueryClient(query.NewClient("https://qa.example.org", apiKey, "session-1")),
	)
	if err != nil {
		log.Fatal(err)
	}

	state := bot.Start()
	view, _ := bot.Render(ctx, state, nil)
	// show view.Message and view.Options, collect input...
	state, view, _ = bot.Navigate(ctx, state, domain.TextInput("Open a help ticket"), nil)

Long-running hosts persist the returned state between turns; the session
package provides stores and per-session locking for that.
*/
package qabot
