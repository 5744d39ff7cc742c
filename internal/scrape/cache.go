package scrape

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/edgard/tgharvest/internal/chat"
	"github.com/edgard/tgharvest/internal/keywords"
)

// Bio sentinels for senders that have no profile text to fetch.
const (
	BioBot     = "BOT"
	BioChannel = "CHANNEL"
)

// dialogFetchLimit caps the dialog listing used for the common-groups cache.
const dialogFetchLimit = 200

// Enrichment is the cached per-sender annotation attached to every record
// the sender authored. All fields default to "" rather than being omitted.
type Enrichment struct {
	Bio          string
	Keywords     string
	CommonGroups string
}

// UserCache memoizes sender enrichments for one harvesting run. It also
// holds the run-global common-groups list, fetched at most once and shared
// read-only by all enrichments. The cache lives for a single run and is
// never persisted; the pipeline is single-threaded, so no locking.
type UserCache struct {
	client  chat.Client
	matcher *keywords.Matcher
	log     *slog.Logger

	maxCacheGroups  int
	maxCommonGroups int

	entries map[int64]Enrichment

	commonGroups     []string
	commonGroupsDone bool
}

// NewUserCache builds an empty cache for one run. maxCacheGroups bounds how
// many group titles are cached, maxCommonGroups how many are surfaced per
// record.
func NewUserCache(client chat.Client, matcher *keywords.Matcher, log *slog.Logger, maxCacheGroups, maxCommonGroups int) *UserCache {
	return &UserCache{
		client:          client,
		matcher:         matcher,
		log:             log.With("component", "user_cache"),
		maxCacheGroups:  maxCacheGroups,
		maxCommonGroups: maxCommonGroups,
		entries:         make(map[int64]Enrichment),
	}
}

// Len reports how many distinct senders have been resolved.
func (c *UserCache) Len() int {
	return len(c.entries)
}

// Resolve returns the enrichment for the sender, computing and memoizing it
// on first sight. In detailed mode, ordinary users get one full-profile
// request; bots and channels never do. The booleans report whether this
// call was a cache miss and whether it issued a detailed remote request,
// so the caller can throttle accordingly.
func (c *UserCache) Resolve(ctx context.Context, sender *chat.Sender, detailed bool) (enr Enrichment, miss, remote bool) {
	if e, ok := c.entries[sender.ID]; ok {
		return e, false, false
	}

	var e Enrichment
	if detailed && sender.Kind == chat.SenderUser {
		e = c.detailedLookup(ctx, sender)
		remote = true
	} else {
		e = c.fastLookup(ctx, sender)
	}

	c.entries[sender.ID] = e
	return e, true, remote
}

// fastLookup classifies the sender without any per-sender remote call.
// Channels and bots get their sentinel bio; ordinary users get the shared
// common-groups summary, leaving the bio for the detailed path.
func (c *UserCache) fastLookup(ctx context.Context, sender *chat.Sender) Enrichment {
	switch sender.Kind {
	case chat.SenderChannel:
		return Enrichment{Bio: BioChannel}
	case chat.SenderBot:
		return Enrichment{Bio: BioBot}
	}

	c.loadCommonGroups(ctx)
	return Enrichment{CommonGroups: c.commonGroupsSummary()}
}

// detailedLookup extends fastLookup with one full-profile request for the
// bio. Remote failures degrade to the fast result; the well-known
// InputPeerChannel type mismatch is not worth logging.
func (c *UserCache) detailedLookup(ctx context.Context, sender *chat.Sender) Enrichment {
	e := c.fastLookup(ctx, sender)
	if e.Bio == BioBot || e.Bio == BioChannel {
		return e
	}

	bio, err := c.client.GetFullProfile(ctx, sender.ID)
	if err != nil {
		if !strings.Contains(err.Error(), "InputPeerChannel") {
			who := sender.Username
			if who == "" {
				who = "ID:" + strconv.FormatInt(sender.ID, 10)
			}
			c.log.Warn("Profile lookup failed", "sender", who, "error", err)
		}
		return e
	}
	if bio != "" {
		e.Bio = bio
		e.Keywords = c.matcher.Summary(bio)
	}
	return e
}

// loadCommonGroups fills the run-global group-title cache on first use.
// Any failure leaves the cache empty; enrichment never aborts on it.
func (c *UserCache) loadCommonGroups(ctx context.Context) {
	if c.commonGroupsDone {
		return
	}
	c.commonGroupsDone = true

	dialogs, err := c.client.ListDialogs(ctx, dialogFetchLimit)
	if err != nil {
		c.log.Debug("Common groups unavailable", "error", err)
		return
	}
	for _, d := range dialogs {
		if !d.IsGroup {
			continue
		}
		c.commonGroups = append(c.commonGroups, d.Title)
		if len(c.commonGroups) >= c.maxCacheGroups {
			break
		}
	}
}

func (c *UserCache) commonGroupsSummary() string {
	n := len(c.commonGroups)
	if n > c.maxCommonGroups {
		n = c.maxCommonGroups
	}
	return strings.Join(c.commonGroups[:n], "; ")
}
