package scrape

import (
	"context"
	"testing"

	"github.com/edgard/tgharvest/internal/chat"
	"github.com/edgard/tgharvest/internal/keywords"
)

func newTestCache(client *fakeClient) *UserCache {
	return NewUserCache(client, keywords.Default(), testLogger(), 10, 5)
}

func TestResolveSentinelsForBotsAndChannels(t *testing.T) {
	t.Parallel()

	cache := newTestCache(&fakeClient{})
	ctx := context.Background()

	bot := &chat.Sender{ID: 1, Kind: chat.SenderBot}
	channel := &chat.Sender{ID: 2, Kind: chat.SenderChannel}

	if enr, _, _ := cache.Resolve(ctx, bot, true); enr.Bio != BioBot {
		t.Errorf("bot bio = %q, want %q", enr.Bio, BioBot)
	}
	if enr, _, _ := cache.Resolve(ctx, channel, true); enr.Bio != BioChannel {
		t.Errorf("channel bio = %q, want %q", enr.Bio, BioChannel)
	}
}

func TestResolveMemoizesDetailedLookups(t *testing.T) {
	t.Parallel()

	client := &fakeClient{bios: map[int64]string{42: "casino enthusiast"}}
	cache := newTestCache(client)
	ctx := context.Background()
	sender := &chat.Sender{ID: 42, Kind: chat.SenderUser, Username: "gambler"}

	enr, miss, remote := cache.Resolve(ctx, sender, true)
	if !miss || !remote {
		t.Fatalf("first resolve: miss=%t remote=%t, want true/true", miss, remote)
	}
	if enr.Bio != "casino enthusiast" {
		t.Errorf("bio = %q", enr.Bio)
	}
	if enr.Keywords != "casino" {
		t.Errorf("keywords = %q, want casino", enr.Keywords)
	}

	again, miss, remote := cache.Resolve(ctx, sender, true)
	if miss || remote {
		t.Errorf("second resolve: miss=%t remote=%t, want false/false", miss, remote)
	}
	if again != enr {
		t.Errorf("cached enrichment differs: %+v vs %+v", again, enr)
	}
	if client.bioCalls != 1 {
		t.Errorf("profile fetched %d times, want 1", client.bioCalls)
	}
}

func TestResolveFastModeNeverFetchesProfiles(t *testing.T) {
	t.Parallel()

	client := &fakeClient{
		bios:    map[int64]string{42: "never read"},
		dialogs: []chat.Dialog{{ID: 1, Title: "Poker Club", IsGroup: true}},
	}
	cache := newTestCache(client)
	sender := &chat.Sender{ID: 42, Kind: chat.SenderUser}

	enr, _, remote := cache.Resolve(context.Background(), sender, false)
	if remote {
		t.Error("fast mode issued a remote profile request")
	}
	if client.bioCalls != 0 {
		t.Errorf("profile fetched %d times, want 0", client.bioCalls)
	}
	if enr.Bio != "" {
		t.Errorf("bio = %q, want empty in fast mode", enr.Bio)
	}
	if enr.CommonGroups != "Poker Club" {
		t.Errorf("common groups = %q", enr.CommonGroups)
	}
}

func TestCommonGroupsFetchedOnceAndTolerant(t *testing.T) {
	t.Parallel()

	client := &fakeClient{dialogsErr: errRemote}
	cache := newTestCache(client)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		enr, _, _ := cache.Resolve(ctx, &chat.Sender{ID: id, Kind: chat.SenderUser}, false)
		if enr.CommonGroups != "" {
			t.Errorf("common groups = %q, want empty after fetch failure", enr.CommonGroups)
		}
	}
	if client.dialogCalls != 1 {
		t.Errorf("dialogs fetched %d times, want 1", client.dialogCalls)
	}
}

func TestCommonGroupsSurfacedSubset(t *testing.T) {
	t.Parallel()

	var dialogs []chat.Dialog
	titles := []string{"A", "B", "C", "D", "E", "F", "G"}
	for i, title := range titles {
		dialogs = append(dialogs, chat.Dialog{ID: int64(i + 1), Title: title, IsGroup: true})
	}
	dialogs = append(dialogs, chat.Dialog{ID: 99, Title: "Private Chat", IsGroup: false})

	cache := NewUserCache(&fakeClient{dialogs: dialogs}, keywords.Default(), testLogger(), 10, 5)
	enr, _, _ := cache.Resolve(context.Background(), &chat.Sender{ID: 1, Kind: chat.SenderUser}, false)

	if enr.CommonGroups != "A; B; C; D; E" {
		t.Errorf("common groups = %q, want first five titles", enr.CommonGroups)
	}
}

func TestDetailedLookupDegradesOnProfileFailure(t *testing.T) {
	t.Parallel()

	client := &fakeClient{bioErr: errRemote}
	cache := newTestCache(client)

	enr, _, remote := cache.Resolve(context.Background(), &chat.Sender{ID: 7, Kind: chat.SenderUser}, true)
	if !remote {
		t.Error("expected a remote attempt")
	}
	if enr.Bio != "" || enr.Keywords != "" {
		t.Errorf("enrichment = %+v, want empty bio and keywords", enr)
	}
}
