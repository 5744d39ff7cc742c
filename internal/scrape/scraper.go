package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/edgard/tgharvest/internal/chat"
	"github.com/edgard/tgharvest/internal/keywords"
)

// RowSink receives the ordered output rows. The CSV writer in the export
// package implements it; tests use in-memory sinks.
type RowSink interface {
	WriteHeader(columns []string) error
	WriteRow(fields []string) error
}

// Config tunes the harvesting loop.
type Config struct {
	// Detailed selects the enrichment strategy: when true, ordinary users
	// get one full-profile request each; bots and channels never do.
	Detailed bool

	// FastDelay is slept after each fast-path cache miss.
	FastDelay time.Duration
	// DetailedDelay is slept after each detailed profile request during a
	// participant export.
	DetailedDelay time.Duration
	// APIDelay is slept after each detailed profile request during a
	// message harvest. Client-side throttling against flood control.
	APIDelay time.Duration

	// ProgressEvery controls the progress log cadence; the last record is
	// always reported.
	ProgressEvery int
}

// Scraper joins the message stream, the sender cache and the keyword
// matcher into output records, in ingestion order, one row per message.
type Scraper struct {
	client  chat.Client
	cache   *UserCache
	matcher *keywords.Matcher
	log     *slog.Logger
	cfg     Config
	sleep   sleepFunc
}

// NewScraper wires up a scraper for one run; the cache must be fresh.
func NewScraper(client chat.Client, cache *UserCache, matcher *keywords.Matcher, log *slog.Logger, cfg Config) *Scraper {
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 25
	}
	return &Scraper{
		client:  client,
		cache:   cache,
		matcher: matcher,
		log:     log.With("component", "scraper"),
		cfg:     cfg,
		sleep:   sleepCtx,
	}
}

// HarvestMessages streams the group's in-window messages, enriches them and
// writes one record per message to the sink. Enrichment failures degrade to
// empty fields; a sink failure is fatal to the run. Returns the number of
// records written.
func (s *Scraper) HarvestMessages(ctx context.Context, group chat.Dialog, w Window, sink RowSink) (int, error) {
	stream := NewStream(s.client, s.log)
	messages, err := stream.Collect(ctx, group.ID, w)
	if err != nil {
		return 0, err
	}
	s.log.Info("Messages fetched", "count", len(messages), "group", group.Title)

	if err := sink.WriteHeader(MessageColumns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	groupID := strconv.FormatInt(group.ID, 10)
	for i, msg := range messages {
		s.progress(i, len(messages), msg.Date)

		rec := Record{
			MessageID: strconv.FormatInt(msg.ID, 10),
			Date:      formatDate(msg.Date),
			Group:     group.Title,
			GroupID:   groupID,
		}

		if msg.Sender != nil {
			enr, err := s.resolveSender(ctx, msg.Sender, s.cfg.APIDelay)
			if err != nil {
				return i, err
			}
			rec.SenderID = formatSenderID(msg.Sender)
			rec.SenderUsername = atUsername(msg.Sender.Username)
			rec.SenderName = msg.Sender.DisplayName()
			rec.SenderBio = enr.Bio
			rec.CommonGroups = enr.CommonGroups
		}

		rec.Text = flattenText(msg.Text)
		rec.Keywords = s.matcher.Summary(rec.Text)

		if err := sink.WriteRow(rec.Row()); err != nil {
			return i, fmt.Errorf("failed to write record: %w", err)
		}
	}

	s.log.Info("Harvest complete", "records", len(messages), "unique_senders", s.cache.Len())
	return len(messages), nil
}

// ExportMembers writes one enriched row per group participant.
func (s *Scraper) ExportMembers(ctx context.Context, group chat.Dialog, sink RowSink) (int, error) {
	participants, err := s.client.GetParticipants(ctx, group.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch participants: %w", err)
	}
	s.log.Info("Participants fetched", "count", len(participants), "group", group.Title)

	if err := sink.WriteHeader(MemberColumns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	groupID := strconv.FormatInt(group.ID, 10)
	for i, member := range participants {
		if i%50 == 0 || i == len(participants)-1 {
			s.log.Info("Processing participants",
				"done", i+1, "total", len(participants))
		}

		enr, err := s.resolveSender(ctx, &member, s.cfg.DetailedDelay)
		if err != nil {
			return i, err
		}

		row := []string{
			member.Username,
			strconv.FormatInt(member.ID, 10),
			strconv.FormatInt(member.AccessHash, 10),
			member.DisplayName(),
			group.Title,
			groupID,
			enr.Bio,
			enr.Keywords,
			enr.CommonGroups,
		}
		if err := sink.WriteRow(row); err != nil {
			return i, fmt.Errorf("failed to write record: %w", err)
		}
	}

	s.log.Info("Member export complete", "records", len(participants))
	return len(participants), nil
}

// resolveSender looks the sender up through the cache and applies the
// configured throttling delay for the path that was taken. Cache hits cost
// nothing and sleep nothing.
func (s *Scraper) resolveSender(ctx context.Context, sender *chat.Sender, detailDelay time.Duration) (Enrichment, error) {
	enr, miss, remote := s.cache.Resolve(ctx, sender, s.cfg.Detailed)
	if !miss {
		return enr, nil
	}

	delay := s.cfg.FastDelay
	if remote {
		delay = detailDelay
	}
	if err := s.sleep(ctx, delay); err != nil {
		return enr, err
	}
	return enr, nil
}

func (s *Scraper) progress(i, total int, date time.Time) {
	if i%s.cfg.ProgressEvery != 0 && i != total-1 {
		return
	}
	pct := float64(i+1) / float64(total) * 100
	s.log.Info("Processing messages",
		"done", i+1,
		"total", total,
		"percent", fmt.Sprintf("%.1f", pct),
		"message_date", date.UTC().Format(recordDateFormat))
}
