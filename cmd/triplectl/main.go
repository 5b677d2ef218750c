// Command triplectl talks to a Triple API server from the terminal. The
// session is kept in a file so later invocations stay signed in.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/geocoder89/triple/internal/client"
	"github.com/geocoder89/triple/internal/domain/trip"
)

const usage = `usage: triplectl [-api URL] [-session FILE] <command> [flags]

commands:
  register -email E -password P -name N
  login -email E -password P
  logout
  me
  destinations [-limit N] [-offset N] [-category C]
  search <query>
  destination <id>
  trips
  trip <id>
  create-trip -title T -start YYYY-MM-DD -end YYYY-MM-DD [-description D] [-destinations id,id]
  update-trip [-title T] [-start D] [-end D] [-description D | -clear-description] [-destinations id,id] <id>
  delete-trip <id>
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("triplectl", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }

	apiURL := global.String("api", envOr("TRIPLE_API_URL", "http://localhost:3001"), "API base URL")
	sessionPath := global.String("session", "", "session file (default: user config dir)")

	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	path := *sessionPath
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return err
		}
		path = p
	}

	c := client.New(*apiURL, client.NewFileStore(path))

	cmd, cmdArgs := rest[0], rest[1:]

	// everything except the auth commands needs the stored session
	switch cmd {
	case "register", "login", "logout":
	default:
		if _, err := c.Restore(ctx); err != nil {
			return fmt.Errorf("restore session: %w", err)
		}
	}

	switch cmd {
	case "register":
		fs := flag.NewFlagSet("register", flag.ContinueOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		name := fs.String("name", "", "display name")
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}

		u, err := c.Register(ctx, *email, *password, *name)
		if err != nil {
			return err
		}
		return printJSON(out, u)

	case "login":
		fs := flag.NewFlagSet("login", flag.ContinueOnError)
		email := fs.String("email", "", "email")
		password := fs.String("password", "", "password")
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}

		u, err := c.Login(ctx, *email, *password)
		if err != nil {
			return err
		}
		return printJSON(out, u)

	case "logout":
		return c.Logout()

	case "me":
		u, err := c.Me(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, u)

	case "destinations":
		fs := flag.NewFlagSet("destinations", flag.ContinueOnError)
		limit := fs.Int("limit", 0, "page size (1-100)")
		offset := fs.Int("offset", 0, "items to skip")
		category := fs.String("category", "", "exact category")
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}

		ds, err := c.Destinations(ctx, client.ListOptions{Limit: *limit, Offset: *offset, Category: *category})
		if err != nil {
			return err
		}
		return printJSON(out, ds)

	case "search":
		if len(cmdArgs) == 0 {
			return errors.New("search needs a query")
		}

		ds, err := c.SearchDestinations(ctx, strings.Join(cmdArgs, " "))
		if err != nil {
			return err
		}
		return printJSON(out, ds)

	case "destination":
		id, err := oneArg(cmd, cmdArgs)
		if err != nil {
			return err
		}

		d, err := c.Destination(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, d)

	case "trips":
		ts, err := c.Trips(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, ts)

	case "trip":
		id, err := oneArg(cmd, cmdArgs)
		if err != nil {
			return err
		}

		t, err := c.Trip(ctx, id)
		if err != nil {
			return err
		}

		ds, err := c.TripDestinations(ctx, id)
		if err != nil {
			return err
		}

		return printJSON(out, map[string]any{"trip": t, "destinations": ds})

	case "create-trip":
		fs := flag.NewFlagSet("create-trip", flag.ContinueOnError)
		title := fs.String("title", "", "trip title")
		start := fs.String("start", "", "start date")
		end := fs.String("end", "", "end date")
		description := fs.String("description", "", "notes")
		dests := fs.String("destinations", "", "comma separated destination ids")
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}

		req := trip.CreateTripRequest{
			Title:     *title,
			StartDate: *start,
			EndDate:   *end,
		}
		if *description != "" {
			req.Description = description
		}
		if *dests != "" {
			req.Destinations = splitIDs(*dests)
		}

		t, err := c.CreateTrip(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(out, t)

	case "update-trip":
		fs := flag.NewFlagSet("update-trip", flag.ContinueOnError)
		title := fs.String("title", "", "new title")
		start := fs.String("start", "", "new start date")
		end := fs.String("end", "", "new end date")
		description := fs.String("description", "", "new notes")
		clearDescription := fs.Bool("clear-description", false, "remove the notes")
		dests := fs.String("destinations", "", "comma separated destination ids; empty clears")
		if err := fs.Parse(cmdArgs); err != nil {
			return err
		}

		id, err := oneArg(cmd, fs.Args())
		if err != nil {
			return err
		}

		// only flags given on the command line become part of the update
		var u client.TripUpdate
		fs.Visit(func(f *flag.Flag) {
			switch f.Name {
			case "title":
				u.Title = title
			case "start":
				u.StartDate = start
			case "end":
				u.EndDate = end
			case "description":
				u.Description = description
			case "clear-description":
				u.ClearDescription = *clearDescription
			case "destinations":
				ids := splitIDs(*dests)
				u.Destinations = &ids
			}
		})

		t, err := c.UpdateTrip(ctx, id, u)
		if err != nil {
			return err
		}
		return printJSON(out, t)

	case "delete-trip":
		id, err := oneArg(cmd, cmdArgs)
		if err != nil {
			return err
		}
		return c.DeleteTrip(ctx, id)

	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func splitIDs(s string) []string {
	ids := []string{}
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func oneArg(cmd string, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s needs exactly one id", cmd)
	}
	return args[0], nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
