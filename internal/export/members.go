package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/edgard/tgharvest/internal/chat"
)

// ReadMemberTargets loads invite targets from a participant export. The
// first row is the header; rows with fewer than three fields are skipped.
func ReadMemberTargets(path string, d Dialect) ([]chat.InviteTarget, error) {
	r, closer, err := OpenReader(path, d)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var targets []chat.InviteTarget
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if len(row) < 3 {
			continue
		}

		t := chat.InviteTarget{Username: row[0]}
		if row[1] != "" {
			t.UserID, _ = strconv.ParseInt(row[1], 10, 64)
		}
		if row[2] != "" {
			t.AccessHash, _ = strconv.ParseInt(row[2], 10, 64)
		}
		targets = append(targets, t)
	}
	return targets, nil
}
