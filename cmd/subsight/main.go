// Command subsight is a terminal front end for the Subsight assistant: pick a
// subreddit, chat with the model about its recent content, and keep the
// conversation across runs. All orchestration logic lives in the pkg/
// packages; this binary only wires them together and reads stdin.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"subsight/pkg/assistant"
	"subsight/pkg/cache"
	"subsight/pkg/config"
	"subsight/pkg/conversation"
	"subsight/pkg/insight"
	"subsight/pkg/reddit"
	"subsight/pkg/store"
	"subsight/pkg/types"
)

func main() {
	// Load .env file if exists
	_ = godotenv.Load()

	level := zerolog.WarnLevel
	if os.Getenv("SUBSIGHT_DEBUG") != "" {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	if err := run(log); err != nil {
		log.Fatal().Err(err).Msg("subsight failed")
	}
}

func run(log zerolog.Logger) error {
	ctx := context.Background()

	dbPath := os.Getenv("SUBSIGHT_DB")
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultPath()
		if err != nil {
			return err
		}
	}
	kv, err := store.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer kv.Close()

	configStore := config.NewStore(kv, log)
	creds, err := configStore.Load(ctx)
	if err != nil {
		return err
	}
	creds = config.FromEnv(creds)

	session := assistant.NewSession(nil, nil,
		cache.NewSnapshots(kv, log),
		conversation.NewStore(kv, log),
		log)

	if creds.Configured() {
		if err := buildClients(ctx, session, creds, log); err != nil {
			return err
		}
	}

	fmt.Println("=== Subsight: Reddit community insights ===")
	fmt.Println()
	if !session.Configured() {
		fmt.Println("No credentials configured yet. Set them with:")
		fmt.Println("  /set reddit <client-id> <client-secret>")
		fmt.Println("  /set gemini <api-key>")
		fmt.Println("or export SUBSIGHT_REDDIT_CLIENT_ID, SUBSIGHT_REDDIT_CLIENT_SECRET")
		fmt.Println("and SUBSIGHT_GEMINI_API_KEY.")
		fmt.Println()
	}
	printHelp()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/quit" || input == "/exit" {
			break
		}
		if strings.HasPrefix(input, "/") {
			creds = handleCommand(ctx, input, session, configStore, creds, log)
			continue
		}
		ask(ctx, session, input)
	}
	return scanner.Err()
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /sub <name>                       select a subreddit")
	fmt.Println("  /stats                            show subreddit stats")
	fmt.Println("  /history                          print the conversation")
	fmt.Println("  /clear                            clear the conversation")
	fmt.Println("  /config                           show which credentials are set")
	fmt.Println("  /set reddit <id> <secret>         set Reddit credentials")
	fmt.Println("  /set gemini <key>                 set the Gemini API key")
	fmt.Println("  /quit                             exit")
	fmt.Println("Anything else is sent as a question about the selected subreddit.")
	fmt.Println()
}

func handleCommand(ctx context.Context, input string, session *assistant.Session, configStore *config.Store, creds types.Credentials, log zerolog.Logger) types.Credentials {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/help":
		printHelp()

	case "/sub":
		if len(fields) != 2 {
			fmt.Println("usage: /sub <name>")
			return creds
		}
		name := strings.TrimPrefix(fields[1], "r/")
		fmt.Printf("Loading r/%s...\n", name)
		if err := session.SelectSubreddit(ctx, name); err != nil {
			fmt.Printf("Error: %v\n", err)
			return creds
		}
		snap := session.Snapshot()
		fmt.Printf("Ready: r/%s (%d subscribers, %d posts, %d comments)\n",
			snap.Subreddit.DisplayName, snap.Subreddit.Subscribers, len(snap.Posts), len(snap.Comments))

	case "/stats":
		snap := session.Snapshot()
		if snap == nil {
			fmt.Println("No subreddit selected.")
			return creds
		}
		sub := snap.Subreddit
		fmt.Printf("r/%s\n", sub.DisplayName)
		fmt.Printf("  Subscribers:  %d\n", sub.Subscribers)
		fmt.Printf("  Active users: %d\n", sub.ActiveUserCount)
		fmt.Printf("  Posts:        %d\n", len(snap.Posts))
		fmt.Printf("  Comments:     %d\n", len(snap.Comments))
		fmt.Printf("  Fetched:      %s\n", snap.FetchedAt.Format(time.RFC1123))
		if sub.PublicDescription != "" {
			fmt.Printf("  About:        %s\n", sub.PublicDescription)
		}

	case "/history":
		conv := session.Conversation()
		if len(conv.Messages) == 0 {
			fmt.Println("No messages yet.")
			return creds
		}
		for _, msg := range conv.Messages {
			fmt.Printf("[%s] %s\n", strings.ToUpper(string(msg.Role)), msg.Content)
		}

	case "/clear":
		if err := session.ClearHistory(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
			return creds
		}
		fmt.Println("Conversation cleared.")

	case "/config":
		fmt.Printf("Reddit client id:     %s\n", presence(creds.RedditClientID))
		fmt.Printf("Reddit client secret: %s\n", presence(creds.RedditClientSecret))
		fmt.Printf("Gemini API key:       %s\n", presence(creds.GeminiAPIKey))

	case "/set":
		updated, changed := applyCredentialCommand(fields, creds)
		if !changed {
			return creds
		}
		creds = updated
		if err := configStore.Save(ctx, creds); err != nil {
			fmt.Printf("Error saving credentials: %v\n", err)
			return creds
		}
		if creds.Configured() {
			if err := buildClients(ctx, session, creds, log); err != nil {
				fmt.Printf("Error: %v\n", err)
				return creds
			}
			fmt.Println("Credentials saved. Ready.")
		} else {
			fmt.Println("Credentials saved; still missing some values.")
		}

	default:
		fmt.Printf("Unknown command %s (try /help)\n", fields[0])
	}
	return creds
}

// presence describes a secret without printing it.
func presence(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "set"
}

func applyCredentialCommand(fields []string, creds types.Credentials) (types.Credentials, bool) {
	if len(fields) < 2 {
		fmt.Println("usage: /set reddit <id> <secret> | /set gemini <key>")
		return creds, false
	}
	switch fields[1] {
	case "reddit":
		if len(fields) != 4 {
			fmt.Println("usage: /set reddit <client-id> <client-secret>")
			return creds, false
		}
		creds.RedditClientID = fields[2]
		creds.RedditClientSecret = fields[3]
		return creds, true
	case "gemini":
		if len(fields) != 3 {
			fmt.Println("usage: /set gemini <api-key>")
			return creds, false
		}
		creds.GeminiAPIKey = fields[2]
		return creds, true
	default:
		fmt.Printf("unknown credential target %q\n", fields[1])
		return creds, false
	}
}

func buildClients(ctx context.Context, session *assistant.Session, creds types.Credentials, log zerolog.Logger) error {
	generator, err := insight.NewGenerator(ctx, insight.Config{
		APIKey: creds.GeminiAPIKey,
		Model:  os.Getenv("SUBSIGHT_MODEL"),
	}, log)
	if err != nil {
		return err
	}
	session.SetClients(reddit.NewClient(creds, log), generator)
	return nil
}

func ask(ctx context.Context, session *assistant.Session, question string) {
	if !session.Configured() {
		fmt.Println("Configure credentials first (/set or environment).")
		return
	}
	if session.Subreddit() == "" {
		fmt.Println("Select a subreddit first: /sub <name>")
		return
	}

	fmt.Println("Thinking...")
	answer, err := session.Ask(ctx, question)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrBusy):
			fmt.Println("Still working on the previous question.")
		default:
			fmt.Printf("Error: %v\n", err)
		}
		return
	}

	fmt.Println()
	fmt.Println(answer.Content)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range answer.Sources {
			fmt.Printf("  - %s\n", source)
		}
	}
	fmt.Println()
}
