package repo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/odvcencio/vcs/pkg/object"
	"github.com/spf13/afero"
)

// ReflogEntry is one HEAD movement. OldHash is empty for the first commit.
type ReflogEntry struct {
	OldHash   object.Hash
	NewHash   object.Hash
	Timestamp int64
	Reason    string
}

func (r *Repo) headLogPath() string {
	return filepath.Join(r.VcsDir, "logs", "HEAD")
}

func (r *Repo) appendHeadLog(oldHash, newHash object.Hash, reason string) error {
	if strings.TrimSpace(reason) == "" {
		reason = "update"
	}
	reason = strings.ReplaceAll(reason, "\n", " ")

	logPath := r.headLogPath()
	if err := r.fs.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("head log mkdir: %w", err)
	}

	line := fmt.Sprintf("%s %s %d %s\n", displayHash(oldHash), displayHash(newHash), r.now().Unix(), reason)

	f, err := r.fs.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("head log open: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("head log write: %w", err)
	}
	return nil
}

// ReadReflog returns HEAD movements newest first, at most limit entries
// when limit is positive.
func (r *Repo) ReadReflog(limit int) ([]ReflogEntry, error) {
	data, err := afero.ReadFile(r.fs, r.headLogPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	var entries []ReflogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 4)
		if len(parts) < 4 {
			continue
		}
		ts, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		old := object.Hash(parts[0])
		if old.IsZero() {
			old = ""
		}
		entries = append(entries, ReflogEntry{
			OldHash:   old,
			NewHash:   object.Hash(parts[1]),
			Timestamp: ts,
			Reason:    parts[3],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read reflog: %w", err)
	}

	// Return newest first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
