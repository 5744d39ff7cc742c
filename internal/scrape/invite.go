package scrape

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/edgard/tgharvest/internal/chat"
)

// Inviter adds users to a group one at a time with a long pause between
// invites. The platform's policy errors shape the loop: peer-flood abandons
// the remaining batch, privacy restrictions skip one target, flood-wait
// sleeps the demanded duration.
type Inviter struct {
	client chat.Client
	log    *slog.Logger
	pause  time.Duration
	sleep  sleepFunc
}

// NewInviter builds an inviter that waits pause between successful invites.
func NewInviter(client chat.Client, log *slog.Logger, pause time.Duration) *Inviter {
	return &Inviter{
		client: client,
		log:    log.With("component", "inviter"),
		pause:  pause,
		sleep:  sleepCtx,
	}
}

// Run invites each target into the group and returns how many were added.
// A peer-flood block ends the batch early but is not an error: the process
// stays recoverable and the count reports what was done.
func (iv *Inviter) Run(ctx context.Context, group chat.Dialog, targets []chat.InviteTarget) (int, error) {
	added := 0
	for i, target := range targets {
		iv.log.Info("Inviting user",
			"index", i+1, "total", len(targets), "username", target.Username)

		err := iv.client.InviteToGroup(ctx, group, target)
		switch {
		case err == nil:
			added++
			if serr := iv.sleep(ctx, iv.pause); serr != nil {
				return added, serr
			}
		case errors.Is(err, chat.ErrPeerFlood):
			iv.log.Error("Peer flood reported, abandoning remaining invites",
				"added", added, "remaining", len(targets)-i-1)
			return added, nil
		case errors.Is(err, chat.ErrPrivacyRestricted):
			iv.log.Warn("Privacy restricted, skipping user", "username", target.Username)
		default:
			if fw, isWait := chat.AsFloodWait(err); isWait {
				iv.log.Warn("Flood wait during invite, sleeping", "wait", fw.Wait)
				if serr := iv.sleep(ctx, fw.Wait); serr != nil {
					return added, serr
				}
				continue
			}
			if ctx.Err() != nil {
				return added, ctx.Err()
			}
			iv.log.Error("Invite failed", "username", target.Username, "error", err)
		}
	}
	return added, nil
}
