package htmlclean

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// BackupSuffix is appended to the HTML path for the pre-clean copy.
const BackupSuffix = ".woodfish-backup"

// FileResult describes a CleanFile run.
type FileResult struct {
	Path    string
	Backup  string // Empty unless a backup was written
	Changed bool
	Written bool
	Report  Report
	Before  string
	After   string
}

// CleanFile cleans the HTML file at path. When the content changes and
// dryRun is false it first copies the original to path+BackupSuffix and then
// replaces the file atomically.
func CleanFile(path string, rules []Rule, dryRun bool) (FileResult, error) {
	res := FileResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read %s: %w", path, err)
	}
	res.Before = string(data)
	res.After, res.Report = Clean(res.Before, rules)
	res.Changed = res.After != res.Before
	if !res.Changed || dryRun {
		return res, nil
	}

	backup := path + BackupSuffix
	if err := atomic.WriteFile(backup, bytes.NewReader(data)); err != nil {
		return res, fmt.Errorf("backup %s: %w", path, err)
	}
	res.Backup = backup

	if err := atomic.WriteFile(path, strings.NewReader(res.After)); err != nil {
		return res, fmt.Errorf("write %s: %w", path, err)
	}
	res.Written = true
	return res, nil
}
