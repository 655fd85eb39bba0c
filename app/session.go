package app

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/tamslo/pharme-study-result-analyses/domain/core"
	"github.com/tamslo/pharme-study-result-analyses/internal"
	"github.com/tamslo/pharme-study-result-analyses/internal/report"
)

// SessionBuilder collects the freshness state of the manually maintained
// input files. A manual input is outdated when it is older than the newest
// raw survey export, which usually means it was not updated after the last
// data pull.
type SessionBuilder struct {
	rawDir  string
	tracked []string
	logger  *internal.Logger
}

// NewSessionBuilder tracks the given manually maintained files against the
// raw export directory.
func NewSessionBuilder(rawDir string, logger *internal.Logger, tracked ...string) *SessionBuilder {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SessionBuilder{rawDir: rawDir, tracked: tracked, logger: logger}
}

// Build stats the tracked files and flags the stale ones.
func (b *SessionBuilder) Build() report.SessionInfo {
	info := report.SessionInfo{GeneratedAt: core.Now()}
	newestExport := b.newestExport()
	for _, path := range b.tracked {
		stat, err := os.Stat(path)
		if err != nil {
			b.logger.Debug("Manual input %s not present; not reporting it", path)
			continue
		}
		info.Files = append(info.Files, report.FileStatus{
			Name:     filepath.Base(path),
			ModTime:  core.Timestamp(stat.ModTime()),
			Outdated: !newestExport.IsZero() && stat.ModTime().Before(newestExport),
		})
	}
	sort.Slice(info.Files, func(i, j int) bool {
		return info.Files[i].ModTime.Before(info.Files[j].ModTime)
	})
	return info
}

// newestExport is the modification time of the most recent raw export file.
func (b *SessionBuilder) newestExport() time.Time {
	var newest time.Time
	entries, err := os.ReadDir(b.rawDir)
	if err != nil {
		b.logger.Warn("Cannot read raw export directory %s: %v", b.rawDir, err)
		return newest
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stat, err := entry.Info()
		if err != nil {
			continue
		}
		if stat.ModTime().After(newest) {
			newest = stat.ModTime()
		}
	}
	return newest
}
