// VoxForm demo CLI - exercises the SDK against a running API (see
// cmd/mockapi): login, survey listing, and an optimistic survey create that
// rolls back if the remote call fails.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/voxform/voxform-go/api"
	"github.com/voxform/voxform-go/clock"
	"github.com/voxform/voxform-go/config"
	"github.com/voxform/voxform-go/credstore"
	"github.com/voxform/voxform-go/notify"
	"github.com/voxform/voxform-go/optimistic"
	"github.com/voxform/voxform-go/session"
)

type surveyItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
	Responses int    `json:"responses"`
}

func main() {
	cmd := flag.String("cmd", "surveys", "Command: login|logout|register|surveys|create")
	email := flag.String("email", "", "Email (for login/register)")
	password := flag.String("password", "", "Password (for login/register)")
	title := flag.String("title", "", "Survey title (for create)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		slog.Debug("Loaded .env")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	creds, err := credstore.NewSQLite(cfg.CredentialsPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	defer creds.Close()

	client := api.New(api.Config{
		BaseURL:        cfg.APIBaseURL,
		Credentials:    creds,
		Timeout:        cfg.RequestTimeout,
		RetryMax:       cfg.RetryMax,
		RetryBaseDelay: cfg.RetryBaseDelay,
	})
	ctrl := session.New(client, creds)

	bus := notify.New(clock.System())
	bus.Subscribe(func(list []notify.Notification) {
		for _, n := range list {
			fmt.Fprintf(os.Stderr, "[%s] %s: %s\n", n.Kind, n.Title, n.Message)
		}
	})

	ctx := context.Background()
	if err := ctrl.Restore(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	if err := run(ctx, *cmd, *email, *password, *title, client, ctrl, bus); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd, email, password, title string, client *api.Client, ctrl *session.Controller, bus *notify.Bus) error {
	switch cmd {
	case "login":
		user, err := ctrl.Login(ctx, email, password)
		if err != nil {
			bus.Create(notify.KindError, "Login Failed", err.Error(), nil)
			return err
		}
		bus.Create(notify.KindSuccess, "Signed In", "Welcome back, "+user.Name, nil)
		return nil

	case "logout":
		ctrl.Logout(ctx)
		fmt.Println("Signed out")
		return nil

	case "register":
		msg, err := ctrl.Register(ctx, session.RegisterInput{Email: email, Password: password})
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil

	case "surveys":
		var surveys []surveyItem
		if err := client.Get(ctx, "/surveys", &surveys); err != nil {
			return err
		}
		for _, s := range surveys {
			fmt.Printf("%s  %-40s published=%v responses=%d\n", s.ID, s.Title, s.Published, s.Responses)
		}
		return nil

	case "create":
		if title == "" {
			return fmt.Errorf("--title required")
		}
		var surveys []surveyItem
		if err := client.Get(ctx, "/surveys", &surveys); err != nil {
			return err
		}

		// The new survey appears in the local list immediately; a failed
		// remote call puts the list back exactly as it was.
		state := optimistic.NewVar(surveys)
		create := optimistic.Update[[]surveyItem, string, surveyItem]{
			State: state,
			Apply: func(prev []surveyItem, t string) []surveyItem {
				return optimistic.InsertFront(prev, surveyItem{ID: "pending", Title: t})
			},
			Call: func(ctx context.Context, t string) (surveyItem, error) {
				var created surveyItem
				err := client.Post(ctx, "/surveys", map[string]string{"title": t}, &created)
				return created, err
			},
		}

		created, err := create.Do(ctx, title)
		if err != nil {
			bus.Create(notify.KindError, "Create Failed", err.Error(), nil)
			return err
		}
		bus.Create(notify.KindSuccess, "Survey Created", created.Title, nil)
		for _, s := range state.Get() {
			fmt.Printf("%s  %s\n", s.ID, s.Title)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}
