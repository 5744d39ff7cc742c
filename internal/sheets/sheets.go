// Package sheets mirrors validated sender aggregates into a Google
// spreadsheet through the Sheets v4 REST API, authenticated with a
// service account.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/edgard/tgharvest/internal/aggregate"
)

const (
	baseURL  = "https://sheets.googleapis.com/v4/spreadsheets"
	apiScope = "https://www.googleapis.com/auth/spreadsheets"

	maxTextLen = 200
	maxBioLen  = 500
)

// ErrUnavailable reports that no service account credentials are configured.
var ErrUnavailable = errors.New("sheets: credentials not configured")

// Header is the first row of the mirrored worksheet.
var Header = []string{
	"Sender ID", "Username", "Profile URL", "Name", "Bio", "Common Groups",
	"Group", "Group ID", "Messages Count", "AI Validated",
	"Latest Message", "Gaming Keywords", "Last Message Date",
}

// Uploader appends validated aggregates to a spreadsheet worksheet.
type Uploader struct {
	client    *resty.Client
	log       *slog.Logger
	worksheet string
}

// New builds an uploader from a service account key file.
func New(credentialsFile, worksheet string, log *slog.Logger) (*Uploader, error) {
	if credentialsFile == "" {
		return nil, ErrUnavailable
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	jwt, err := google.JWTConfigFromJSON(data, apiScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	return NewWithTokenSource(jwt.TokenSource(context.Background()), baseURL, worksheet, log), nil
}

// NewWithTokenSource builds an uploader against an explicit endpoint and
// token source.
func NewWithTokenSource(ts oauth2.TokenSource, endpoint, worksheet string, log *slog.Logger) *Uploader {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(30 * time.Second).
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			tok, err := ts.Token()
			if err != nil {
				return fmt.Errorf("failed to obtain access token: %w", err)
			}
			req.SetAuthToken(tok.AccessToken)
			return nil
		})
	if worksheet == "" {
		worksheet = "Sheet1"
	}
	return &Uploader{
		client:    client,
		log:       log.With("component", "sheets"),
		worksheet: worksheet,
	}
}

type sheetProperties struct {
	Title string `json:"title"`
}

type sheetInfo struct {
	Properties sheetProperties `json:"properties"`
}

type createSpreadsheetRequest struct {
	Properties sheetProperties `json:"properties"`
	Sheets     []sheetInfo     `json:"sheets"`
}

type spreadsheet struct {
	SpreadsheetID  string `json:"spreadsheetId"`
	SpreadsheetURL string `json:"spreadsheetUrl"`
}

type valueRange struct {
	Values [][]string `json:"values"`
}

// CreateSpreadsheet makes a new spreadsheet with a single worksheet and
// returns its id.
func (u *Uploader) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	body := createSpreadsheetRequest{
		Properties: sheetProperties{Title: title},
		Sheets:     []sheetInfo{{Properties: sheetProperties{Title: u.worksheet}}},
	}

	var created spreadsheet
	resp, err := u.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&created).
		Post("")
	if err != nil {
		return "", fmt.Errorf("failed to create spreadsheet: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("spreadsheet creation failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	u.log.Info("spreadsheet created", "spreadsheet_id", created.SpreadsheetID, "url", created.SpreadsheetURL)
	return created.SpreadsheetID, nil
}

// rowCount probes the first column to learn how many rows are occupied.
func (u *Uploader) rowCount(ctx context.Context, spreadsheetID string) (int, error) {
	var existing valueRange
	rangeRef := url.PathEscape(u.worksheet + "!A:A")
	resp, err := u.client.R().
		SetContext(ctx).
		SetResult(&existing).
		Get("/" + spreadsheetID + "/values/" + rangeRef)
	if err != nil {
		return 0, fmt.Errorf("failed to probe worksheet: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("worksheet probe failed with status %d: %s", resp.StatusCode(), resp.String())
	}
	return len(existing.Values), nil
}

// Upload writes aggregates to the worksheet. When the worksheet already has
// rows the new data is appended below them, otherwise a header row is
// written first.
func (u *Uploader) Upload(ctx context.Context, spreadsheetID string, users map[string]*aggregate.SenderAggregate) (int, error) {
	rows := BuildRows(users)
	if len(rows) == 0 {
		u.log.Info("nothing to upload", "spreadsheet_id", spreadsheetID)
		return 0, nil
	}

	occupied, err := u.rowCount(ctx, spreadsheetID)
	if err != nil {
		return 0, err
	}

	var startCell string
	var payload [][]string
	if occupied > 0 {
		startCell = fmt.Sprintf("A%d", occupied+1)
		payload = rows
	} else {
		startCell = "A1"
		payload = append([][]string{Header}, rows...)
	}

	rangeRef := url.PathEscape(u.worksheet + "!" + startCell)
	resp, err := u.client.R().
		SetContext(ctx).
		SetQueryParam("valueInputOption", "RAW").
		SetBody(valueRange{Values: payload}).
		Put("/" + spreadsheetID + "/values/" + rangeRef)
	if err != nil {
		return 0, fmt.Errorf("failed to write rows: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("row write failed with status %d: %s", resp.StatusCode(), resp.String())
	}

	u.log.Info("rows uploaded", "spreadsheet_id", spreadsheetID, "rows", len(rows), "start", startCell)
	return len(rows), nil
}

// BuildRows flattens aggregates into worksheet rows ordered by sender id.
// Long fields are truncated so the sheet stays readable.
func BuildRows(users map[string]*aggregate.SenderAggregate) [][]string {
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		agg := users[id]
		latest := latestMessage(agg)
		rows = append(rows, []string{
			agg.SenderID,
			agg.Username,
			profileURL(agg),
			agg.Name,
			truncate(agg.Bio, maxBioLen),
			agg.CommonGroups,
			agg.Group,
			agg.GroupID,
			fmt.Sprintf("%d", len(agg.Messages)),
			yesNo(agg.AIValidated),
			truncate(latest.Text, maxTextLen),
			latest.Keywords,
			latest.Date,
		})
	}
	return rows
}

func latestMessage(agg *aggregate.SenderAggregate) aggregate.MessageRecord {
	var latest aggregate.MessageRecord
	for _, msg := range agg.Messages {
		if msg.Date >= latest.Date {
			latest = msg
		}
	}
	return latest
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func profileURL(agg *aggregate.SenderAggregate) string {
	if agg.Username != "" {
		return "https://t.me/" + strings.TrimPrefix(agg.Username, "@")
	}
	return "tg://user?id=" + agg.SenderID
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
