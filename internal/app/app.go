// Package app wires the harvesting components together and exposes the
// operations the command line surface runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/edgard/tgharvest/internal/aggregate"
	"github.com/edgard/tgharvest/internal/ai"
	"github.com/edgard/tgharvest/internal/chat"
	"github.com/edgard/tgharvest/internal/config"
	"github.com/edgard/tgharvest/internal/export"
	"github.com/edgard/tgharvest/internal/keywords"
	"github.com/edgard/tgharvest/internal/notify"
	"github.com/edgard/tgharvest/internal/scrape"
	"github.com/edgard/tgharvest/internal/sheets"
)

// App holds the shared collaborators of every operation.
type App struct {
	cfg      *config.Config
	client   chat.Client
	matcher  *keywords.Matcher
	log      *slog.Logger
	notifier *notify.Notifier
}

// New assembles an application around a connected chat client. The client
// may be a degraded placeholder when only offline operations are needed.
func New(cfg *config.Config, client chat.Client, log *slog.Logger) (*App, error) {
	notifier, err := notify.New(cfg.Notify.BotToken, cfg.Notify.ChatID, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}
	return &App{
		cfg:      cfg,
		client:   client,
		matcher:  keywords.Default(),
		log:      log.With("component", "app"),
		notifier: notifier,
	}, nil
}

func (a *App) dialect() export.Dialect {
	return export.Dialect{
		Encoding:  a.cfg.CSV.Encoding,
		Delimiter: a.cfg.CSV.Delimiter,
		CRLF:      a.cfg.CSV.CRLF,
	}
}

func (a *App) scraper(detailed bool) *scrape.Scraper {
	cache := scrape.NewUserCache(a.client, a.matcher, a.log,
		a.cfg.Harvest.MaxCacheGroups, a.cfg.Harvest.MaxCommonGroups)
	return scrape.NewScraper(a.client, cache, a.matcher, a.log, scrape.Config{
		Detailed:      detailed,
		FastDelay:     a.cfg.Harvest.FastModeDelay,
		DetailedDelay: a.cfg.Harvest.DetailedModeDelay,
		APIDelay:      a.cfg.Harvest.APIDelay,
		ProgressEvery: a.cfg.Harvest.ProgressEvery,
	})
}

// findGroup locates a group dialog by id among the account's dialogs.
func (a *App) findGroup(ctx context.Context, groupID int64) (chat.Dialog, error) {
	dialogs, err := a.client.ListDialogs(ctx, 0)
	if err != nil {
		return chat.Dialog{}, fmt.Errorf("failed to list dialogs: %w", err)
	}
	for _, d := range dialogs {
		if d.ID == groupID && d.IsGroup {
			return d, nil
		}
	}
	return chat.Dialog{}, fmt.Errorf("group %d not found among joined dialogs", groupID)
}

// Harvest exports a group's messages for the requested time window into a
// new CSV file and returns its path.
func (a *App) Harvest(ctx context.Context, groupID int64, unit scrape.Unit, count int, detailed bool) (string, error) {
	w, err := scrape.ResolveWindow(unit, count)
	if err != nil {
		return "", err
	}
	group, err := a.findGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.cfg.Harvest.DataFolder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data folder: %w", err)
	}

	path := export.Filename(a.cfg.Harvest.DataFolder, "messages", group.Title, "csv")
	writer, err := export.NewWriter(path, a.dialect())
	if err != nil {
		return "", err
	}

	written, harvestErr := a.scraper(detailed).HarvestMessages(ctx, group, w, writer)
	if err := errors.Join(harvestErr, writer.Close()); err != nil {
		return "", err
	}

	a.log.Info("harvest finished", "group", group.Title, "messages", written, "file", path)
	a.notifier.Send(ctx, fmt.Sprintf("Harvest of %q finished: %d messages in %s", group.Title, written, filepath.Base(path)))
	return path, nil
}

// Members exports a group's member list into a new CSV file and returns
// its path.
func (a *App) Members(ctx context.Context, groupID int64, detailed bool) (string, error) {
	group, err := a.findGroup(ctx, groupID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.cfg.Harvest.DataFolder, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data folder: %w", err)
	}

	path := export.Filename(a.cfg.Harvest.DataFolder, "members", group.Title, "csv")
	writer, err := export.NewWriter(path, a.dialect())
	if err != nil {
		return "", err
	}

	count, exportErr := a.scraper(detailed).ExportMembers(ctx, group, writer)
	if err := errors.Join(exportErr, writer.Close()); err != nil {
		return "", err
	}

	a.log.Info("member export finished", "group", group.Title, "members", count, "file", path)
	a.notifier.Send(ctx, fmt.Sprintf("Member export of %q finished: %d members in %s", group.Title, count, filepath.Base(path)))
	return path, nil
}

// Invite adds members from a previously exported member file to a group.
func (a *App) Invite(ctx context.Context, groupID int64, memberFile string) (int, error) {
	group, err := a.findGroup(ctx, groupID)
	if err != nil {
		return 0, err
	}
	targets, err := export.ReadMemberTargets(memberFile, a.dialect())
	if err != nil {
		return 0, err
	}
	if len(targets) == 0 {
		a.log.Info("no invite targets in file", "file", memberFile)
		return 0, nil
	}

	inviter := scrape.NewInviter(a.client, a.log, a.cfg.Harvest.InvitePause)
	added, err := inviter.Run(ctx, group, targets)
	if err != nil {
		return added, err
	}

	a.log.Info("invite run finished", "group", group.Title, "added", added, "targets", len(targets))
	a.notifier.Send(ctx, fmt.Sprintf("Invite run for %q finished: %d of %d added", group.Title, added, len(targets)))
	return added, nil
}

// ProcessResult summarizes one Process run.
type ProcessResult struct {
	Total         int
	KeywordUsers  int
	Validated     int
	FilteredFile  string
	ValidatedFile string
	UploadedRows  int
}

// Process aggregates a message export by sender, filters for keyword
// activity, optionally validates each remaining sender with the configured
// model, and optionally uploads the validated set to a spreadsheet.
func (a *App) Process(ctx context.Context, messageFile string, skipValidation, upload bool) (*ProcessResult, error) {
	users, err := aggregate.ReadFile(messageFile, a.dialect())
	if err != nil {
		return nil, err
	}
	filtered := aggregate.FilterByKeyword(users)
	a.log.Info("aggregated message export",
		"file", messageFile, "senders", len(users), "keyword_senders", len(filtered))

	res := &ProcessResult{Total: len(users), KeywordUsers: len(filtered)}

	res.FilteredFile = export.JSONFilename(a.cfg.Harvest.DataFolder, "filtered-users")
	if err := aggregate.Save(res.FilteredFile, filtered); err != nil {
		return nil, err
	}

	uploadSet := filtered
	if !skipValidation {
		if err := a.cfg.RequireAIToken(); err != nil {
			return nil, err
		}
		validator, err := ai.New(ctx, ai.Config{
			Provider:    a.cfg.AI.Provider,
			Token:       a.cfg.AI.Token,
			BaseURL:     a.cfg.AI.BaseURL,
			Model:       a.cfg.AI.Model,
			Instruction: a.cfg.AI.Instruction,
			Temperature: a.cfg.AI.Temperature,
			MaxTokens:   a.cfg.AI.MaxTokens,
			Timeout:     a.cfg.AI.Timeout,
		}, a.log)
		if err != nil {
			return nil, err
		}
		res.Validated = a.validateAll(ctx, validator, filtered)

		// Only senders the classifier accepted move on.
		validated := aggregate.FilterValidated(filtered)
		res.ValidatedFile = export.JSONFilename(a.cfg.Harvest.DataFolder, "validated-users")
		if err := aggregate.Save(res.ValidatedFile, validated); err != nil {
			return nil, err
		}
		uploadSet = validated
	}

	if upload {
		uploaded, err := a.Upload(ctx, uploadSet, a.cfg.Sheets.SpreadsheetID, "")
		if err != nil {
			return nil, err
		}
		res.UploadedRows = uploaded
	}

	a.notifier.Send(ctx, fmt.Sprintf("Processing finished: %d senders, %d with keywords, %d validated",
		res.Total, res.KeywordUsers, res.Validated))
	return res, nil
}

// validateAll renders a verdict per sender in stable id order. A failed
// call marks the sender invalid and the run continues.
func (a *App) validateAll(ctx context.Context, validator ai.Validator, users map[string]*aggregate.SenderAggregate) int {
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	validated := 0
	for i, id := range ids {
		agg := users[id]
		valid, err := validator.Validate(ctx, agg)
		if err != nil {
			a.log.Warn("validation failed, marking invalid", "sender_id", id, "error", err)
			valid = false
		}
		agg.AIValidated = valid
		if valid {
			validated++
		}
		a.log.Info("sender validated", "sender_id", id, "valid", valid,
			"progress", fmt.Sprintf("%d/%d", i+1, len(ids)))

		if i < len(ids)-1 && a.cfg.AI.ValidationDelay > 0 {
			select {
			case <-ctx.Done():
				return validated
			case <-time.After(a.cfg.AI.ValidationDelay):
			}
		}
	}
	return validated
}

// Upload mirrors aggregates to a spreadsheet. With an empty spreadsheetID a
// new spreadsheet is created, titled title.
func (a *App) Upload(ctx context.Context, users map[string]*aggregate.SenderAggregate, spreadsheetID, title string) (int, error) {
	if err := a.cfg.RequireSheets(); err != nil {
		return 0, err
	}
	uploader, err := sheets.New(a.cfg.Sheets.CredentialsFile, a.cfg.Sheets.Worksheet, a.log)
	if err != nil {
		return 0, err
	}

	if spreadsheetID == "" {
		if title == "" {
			title = "tgharvest export"
		}
		spreadsheetID, err = uploader.CreateSpreadsheet(ctx, title)
		if err != nil {
			return 0, err
		}
	}
	return uploader.Upload(ctx, spreadsheetID, users)
}

// UploadFile loads a saved aggregate artifact and uploads it.
func (a *App) UploadFile(ctx context.Context, path, spreadsheetID, title string) (int, error) {
	users, err := aggregate.Load(path)
	if err != nil {
		return 0, err
	}
	return a.Upload(ctx, users, spreadsheetID, title)
}

// ListDialogs returns the account's group dialogs.
func (a *App) ListDialogs(ctx context.Context) ([]chat.Dialog, error) {
	dialogs, err := a.client.ListDialogs(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list dialogs: %w", err)
	}
	groups := dialogs[:0:0]
	for _, d := range dialogs {
		if d.IsGroup {
			groups = append(groups, d)
		}
	}
	return groups, nil
}
