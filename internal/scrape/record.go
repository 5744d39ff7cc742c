package scrape

import (
	"strconv"
	"strings"
	"time"

	"github.com/edgard/tgharvest/internal/chat"
)

// recordDateFormat is the timestamp layout used in exported records.
const recordDateFormat = "2006-01-02 15:04:05"

// MessageColumns is the fixed header of a message export.
var MessageColumns = []string{
	"message_id",
	"date",
	"sender_id",
	"sender_username",
	"sender_name",
	"message_text",
	"group",
	"group_id",
	"sender_bio",
	"message_gaming_keywords",
	"sender_common_groups",
}

// MemberColumns is the fixed header of a participant export.
var MemberColumns = []string{
	"username",
	"user_id",
	"access_hash",
	"name",
	"group",
	"group_id",
	"bio",
	"gaming_keywords",
	"common_groups",
}

// Record is one denormalized output row: message fields joined with the
// sender enrichment and the message-level keyword summary. Every field is
// populated, with "" standing in for absent values.
type Record struct {
	MessageID      string
	Date           string
	SenderID       string
	SenderUsername string
	SenderName     string
	Text           string
	Group          string
	GroupID        string
	SenderBio      string
	Keywords       string
	CommonGroups   string
}

// Row returns the record's fields in MessageColumns order.
func (r Record) Row() []string {
	return []string{
		r.MessageID,
		r.Date,
		r.SenderID,
		r.SenderUsername,
		r.SenderName,
		r.Text,
		r.Group,
		r.GroupID,
		r.SenderBio,
		r.Keywords,
		r.CommonGroups,
	}
}

var lineBreaks = strings.NewReplacer("\n", " ", "\r", " ")

// flattenText collapses embedded line breaks so one record stays one
// physical line in the sink's format.
func flattenText(s string) string {
	return lineBreaks.Replace(s)
}

func formatDate(t time.Time) string {
	return t.UTC().Format(recordDateFormat) + " UTC"
}

// atUsername prefixes a non-empty username with "@".
func atUsername(u string) string {
	if u == "" || strings.HasPrefix(u, "@") {
		return u
	}
	return "@" + u
}

func formatSenderID(s *chat.Sender) string {
	if s == nil {
		return ""
	}
	return strconv.FormatInt(s.ID, 10)
}
