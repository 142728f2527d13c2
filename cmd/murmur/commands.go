package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ifuryst/murmur/internal/models"
	"github.com/ifuryst/murmur/internal/server"
	"github.com/ifuryst/murmur/internal/service"
	"github.com/ifuryst/murmur/pkg/util"
)

var (
	language     string
	feedLimit    int
	scheduleAt   string
	scheduleHour int
	scheduleMin  int
	totpAccount  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API with the publish loop",
	RunE:  runServer,
}

var processCmd = &cobra.Command{
	Use:   "process <url>",
	Short: "Extract a URL and generate posts for every platform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.assistant.ProcessURL(ctx, args[0], languageOrDefault(a.cfg.Generator.DefaultLanguage))
		if err != nil {
			return err
		}

		fmt.Printf("Title: %s\n", view.Content.Title)
		fmt.Printf("Language: %s\n", models.LanguageName(view.Content.Language))
		for _, p := range view.Posts {
			fmt.Printf("\n%s (%s):\n%s\n", p.Platform.DisplayName(), p.ID, p.Body)
		}
		fmt.Printf("\nKeywords: %s\n", strings.Join(view.Content.Keywords, ", "))
		return nil
	},
}

var feedCmd = &cobra.Command{
	Use:   "feed <url>",
	Short: "Process the newest items of an RSS or Atom feed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		results, err := a.assistant.ProcessFeed(ctx, args[0], languageOrDefault(a.cfg.Generator.DefaultLanguage), feedLimit)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Title", "Link", "Result"})
		for _, r := range results {
			outcome := "processed " + r.ContentID
			switch {
			case r.Duplicate:
				outcome = "duplicate"
			case r.Error != "":
				outcome = "failed: " + util.Truncate(r.Error, 60, "...")
			}
			t.AppendRow(table.Row{util.Truncate(r.Item.Title, 50, "..."), r.Item.URL, outcome})
		}
		t.Render()
		return nil
	},
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule <post-id>",
	Short: "Schedule a post by ID",
	Long: `Schedule a post at an RFC 3339 time (--at) or at the next occurrence of
--hour and --minute. The publish loop of a running menu or server sends it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		var when time.Time
		if scheduleAt != "" {
			when, err = time.Parse(time.RFC3339, scheduleAt)
			if err != nil {
				return fmt.Errorf("invalid --at: %w", err)
			}
		} else {
			when, err = a.assistant.NextOccurrence(scheduleHour, scheduleMin)
			if err != nil {
				return err
			}
		}

		entry, err := a.assistant.SchedulePostID(ctx, args[0], when)
		if err != nil {
			return err
		}
		fmt.Printf("Post scheduled successfully for %s (entry %s)\n", entry.ScheduledTime.Format("2006-01-02 15:04"), entry.ID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the content library",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		views, err := a.assistant.Library(ctx)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Content", "Language", "Platform", "Post ID", "Status", "Posted"})
		for _, v := range views {
			for _, p := range v.Posts {
				t.AppendRow(table.Row{
					util.Truncate(v.Content.Title, 40, "..."),
					models.LanguageName(v.Content.Language),
					p.Platform.DisplayName(),
					p.ID,
					string(p.Status),
					v.Posted,
				})
			}
		}
		t.Render()
		return nil
	},
}

var totpSecretCmd = &cobra.Command{
	Use:   "totp-secret",
	Short: "Generate a TOTP secret for server.totp_secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := service.NewAuthService(zap.NewNop(), "")
		secret, url, err := auth.GenerateSecret(totpAccount)
		if err != nil {
			return err
		}
		fmt.Printf("Secret: %s\n", secret)
		fmt.Printf("URL: %s\n", url)
		return nil
	},
}

func init() {
	for _, cmd := range []*cobra.Command{processCmd, feedCmd} {
		cmd.Flags().StringVarP(&language, "language", "l", "", "post language code (defaults to generator.default_language)")
	}
	feedCmd.Flags().IntVarP(&feedLimit, "limit", "n", service.DefaultFeedLimit, "number of newest items to process")

	scheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "publish time in RFC 3339")
	scheduleCmd.Flags().IntVar(&scheduleHour, "hour", 9, "publish hour (0-23)")
	scheduleCmd.Flags().IntVar(&scheduleMin, "minute", 0, "publish minute (0-59)")

	totpSecretCmd.Flags().StringVar(&totpAccount, "account", "murmur", "account name shown in the authenticator app")
}

func languageOrDefault(def string) string {
	if language != "" {
		return language
	}
	return def
}

func runServer(*cobra.Command, []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("Starting Murmur server", zap.String("version", version))

	srv := server.NewServer(&a.cfg.Server, a.assistant, a.scheduler, a.monitoring, a.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("Server failed to start", zap.Error(err))
			_ = srv.Shutdown(ctx)
			return err
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down server...")
	}

	// ctx is usually cancelled by now, so shutdown gets its own deadline.
	if err := srv.Shutdown(context.Background()); err != nil {
		a.logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	a.logger.Info("Server exited")
	return nil
}
