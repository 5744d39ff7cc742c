// Package main contains the entrypoint for the tgharvest command line tool.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edgard/tgharvest/internal/app"
	"github.com/edgard/tgharvest/internal/chat"
	"github.com/edgard/tgharvest/internal/config"
	"github.com/edgard/tgharvest/internal/logger"
	"github.com/edgard/tgharvest/internal/scrape"
	"github.com/edgard/tgharvest/internal/watch"
)

const usage = `Usage: tgharvest [-config FILE] COMMAND [flags]

Commands:
  harvest   export a group's messages for a time window to CSV
  members   export a group's member list to CSV
  invite    add members from a member CSV to a group
  process   aggregate, filter and validate a message CSV
  upload    upload a saved aggregate JSON to Google Sheets
  show      print the first rows of an exported CSV
  watch     run harvests repeatedly on an interval
  dialogs   list the account's group dialogs
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	_ = godotenv.Load()

	globals := flag.NewFlagSet("tgharvest", flag.ExitOnError)
	configPath := globals.String("config", "", "path to configuration file (default ./config.yaml)")
	globals.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		globals.PrintDefaults()
	}
	_ = globals.Parse(os.Args[1:])

	args := globals.Args()
	if len(args) == 0 {
		globals.Usage()
		return 2
	}
	command, args := args[0], args[1:]

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	needsPlatform := map[string]bool{
		"harvest": true, "members": true, "invite": true,
		"watch": true, "dialogs": true,
	}

	client := chat.Unavailable()
	if needsPlatform[command] {
		if err := cfg.RequireTelegram(); err != nil {
			log.Error("missing credentials", "error", err)
			return 1
		}
		client, err = newChatClient(ctx, cfg, log)
		if err != nil {
			log.Error("failed to connect to chat platform", "error", err)
			return 1
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close chat client", "error", err)
			}
		}()
	}

	application, err := app.New(cfg, client, log)
	if err != nil {
		log.Error("failed to initialize application", "error", err)
		return 1
	}

	if err := dispatch(ctx, application, cfg, log, command, args); err != nil {
		log.Error("command failed", "command", command, "error", err)
		return 1
	}
	return 0
}

func dispatch(ctx context.Context, application *app.App, cfg *config.Config, log *slog.Logger, command string, args []string) error {
	switch command {
	case "harvest":
		return runHarvest(ctx, application, args)
	case "members":
		return runMembers(ctx, application, args)
	case "invite":
		return runInvite(ctx, application, args)
	case "process":
		return runProcess(ctx, application, args)
	case "upload":
		return runUpload(ctx, application, args)
	case "show":
		return runShow(cfg, args)
	case "watch":
		return runWatch(ctx, application, log, args)
	case "dialogs":
		return runDialogs(ctx, application)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func runHarvest(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("harvest", flag.ExitOnError)
	groupID := fs.Int64("group", 0, "group id to harvest")
	unitStr := fs.String("unit", "days", "window unit: days, weeks or months")
	count := fs.Int("count", 1, "number of units to look back")
	detailed := fs.Bool("detailed", false, "fetch full profiles for user senders")
	_ = fs.Parse(args)

	if *groupID == 0 {
		return fmt.Errorf("the -group flag is required")
	}
	unit, err := scrape.ParseUnit(*unitStr)
	if err != nil {
		return err
	}

	path, err := application.Harvest(ctx, *groupID, unit, *count, *detailed)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runMembers(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("members", flag.ExitOnError)
	groupID := fs.Int64("group", 0, "group id to export")
	detailed := fs.Bool("detailed", false, "fetch full profiles for members")
	_ = fs.Parse(args)

	if *groupID == 0 {
		return fmt.Errorf("the -group flag is required")
	}
	path, err := application.Members(ctx, *groupID, *detailed)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func runInvite(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("invite", flag.ExitOnError)
	groupID := fs.Int64("group", 0, "target group id")
	file := fs.String("file", "", "member CSV file with invite targets")
	_ = fs.Parse(args)

	if *groupID == 0 || *file == "" {
		return fmt.Errorf("the -group and -file flags are required")
	}
	added, err := application.Invite(ctx, *groupID, *file)
	if err != nil {
		return err
	}
	fmt.Printf("added %d members\n", added)
	return nil
}

func runProcess(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	file := fs.String("file", "", "message CSV file to process")
	skipValidation := fs.Bool("skip-validation", false, "skip model validation")
	upload := fs.Bool("upload", false, "upload the result to Google Sheets")
	_ = fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("the -file flag is required")
	}
	res, err := application.Process(ctx, *file, *skipValidation, *upload)
	if err != nil {
		return err
	}
	fmt.Printf("senders: %d, with keywords: %d, validated: %d\n", res.Total, res.KeywordUsers, res.Validated)
	fmt.Println(res.FilteredFile)
	if res.ValidatedFile != "" {
		fmt.Println(res.ValidatedFile)
	}
	return nil
}

func runUpload(ctx context.Context, application *app.App, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	file := fs.String("file", "", "aggregate JSON file to upload")
	spreadsheetID := fs.String("spreadsheet", "", "existing spreadsheet id (empty creates a new one)")
	title := fs.String("title", "", "title for a newly created spreadsheet")
	_ = fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("the -file flag is required")
	}
	rows, err := application.UploadFile(ctx, *file, *spreadsheetID, *title)
	if err != nil {
		return err
	}
	fmt.Printf("uploaded %d rows\n", rows)
	return nil
}

func runWatch(ctx context.Context, application *app.App, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	groupID := fs.Int64("group", 0, "group id to harvest repeatedly")
	interval := fs.Duration("interval", time.Hour, "time between harvests")
	detailed := fs.Bool("detailed", false, "fetch full profiles for user senders")
	_ = fs.Parse(args)

	if *groupID == 0 {
		return fmt.Errorf("the -group flag is required")
	}

	runner, err := watch.New(log)
	if err != nil {
		return err
	}
	unit, count := windowFor(*interval)
	err = runner.Every(*interval, "harvest", func(jobCtx context.Context) {
		if _, err := application.Harvest(jobCtx, *groupID, unit, count, *detailed); err != nil {
			log.Error("scheduled harvest failed", "group", *groupID, "error", err)
		}
	})
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}

// windowFor sizes the harvest look-back to cover one scheduling interval
// with a whole number of days.
func windowFor(interval time.Duration) (scrape.Unit, int) {
	days := int(interval / (24 * time.Hour))
	if interval%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return scrape.UnitDays, days
}

func runDialogs(ctx context.Context, application *app.App) error {
	groups, err := application.ListDialogs(ctx)
	if err != nil {
		return err
	}
	for _, g := range groups {
		fmt.Printf("%d\t%s\n", g.ID, g.Title)
	}
	return nil
}

// newChatClient connects and authorizes the account, prompting for the
// login code on stdin when the saved session is not yet authorized. The
// MTProto transport is supplied by the deployment; builds without one get
// a client whose calls report chat.ErrUnavailable.
func newChatClient(ctx context.Context, cfg *config.Config, log *slog.Logger) (chat.Client, error) {
	client := chat.Unavailable()
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	authorized, err := client.IsAuthorized(ctx)
	if err != nil {
		return nil, err
	}
	if !authorized {
		if err := client.SendCode(ctx, cfg.Telegram.Phone); err != nil {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "Enter the login code sent to %s: ", cfg.Telegram.Phone)
		code, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("failed to read login code: %w", err)
		}
		if err := client.SignIn(ctx, cfg.Telegram.Phone, strings.TrimSpace(code)); err != nil {
			return nil, err
		}
		log.Info("signed in", "phone", cfg.Telegram.Phone)
	}
	return client, nil
}
