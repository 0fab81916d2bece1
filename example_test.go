package qabot_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/necyberteam/qabot"
	"github.com/necyberteam/qabot/pkg/domain"
	"github.com/necyberteam/qabot/pkg/submit"
)

// ExampleNew shows the library surface: compose a bot for one session,
// render the entry node and feed it one user choice. The ticket client's
// backend is only contacted when a flow actually submits a ticket.
func ExampleNew() {
	tickets := submit.NewClient("https://desk.example.org/api")

	bot, err := qabot.New("demo-session", tickets,
		qabot.WithIdentity(domain.Identity{
			Email:    "kai@example.org",
			Name:     "Kai Rivera",
			Username: "krivera",
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	state := bot.Start()

	view, err := bot.Render(ctx, state, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(view.Message)

	_, view, err = bot.Navigate(ctx, state, domain.TextInput("Open a help ticket"), nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(view.Message)

	// Output:
	// Hi! I'm the ACCESS support assistant. What can I help you with today?
	// Briefly, what do you need help with?
}

// ExampleRunner drives the same bot over scripted line IO, the way the
// terminal client does.
func ExampleRunner() {
	bot, err := qabot.New("demo-session", submit.NewClient("https://desk.example.org/api"))
	if err != nil {
		log.Fatal(err)
	}

	runner := &qabot.Runner{
		Input:    strings.NewReader("exit\n"),
		Output:   os.Stdout,
		Headless: true,
	}
	if err := runner.Run(context.Background(), bot); err != nil {
		log.Fatal(err)
	}

	// Output:
	// Hi! I'm the ACCESS support assistant. What can I help you with today?
	//   [1] Ask a question about ACCESS
	//   [2] Help with login
	//   [3] Open a help ticket
	//   [4] Report a security incident
	// Bye!
}
