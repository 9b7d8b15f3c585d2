package store

import (
	"bufio"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// JournalSchemaVersion is the current journal schema version.
const JournalSchemaVersion = 1

// ErrJournalClosed is returned when operations are attempted on a closed journal.
var ErrJournalClosed = errors.New("journal is closed")

// Op names an operation recorded in the journal.
type Op string

// Journalled operations.
const (
	OpEnable    Op = "enable"
	OpDisable   Op = "disable"
	OpEffect    Op = "effect"
	OpValidate  Op = "validate"
	OpUninstall Op = "uninstall"
	OpCleanHTML Op = "clean-html"
)

// Record is one journal line.
type Record struct {
	ID      string   `json:"id"`
	Time    int64    `json:"time"` // Unix milliseconds
	Op      Op       `json:"op"`
	Key     string   `json:"key,omitempty"`
	Added   []string `json:"added,omitempty"`
	Removed int      `json:"removed,omitempty"`
	Detail  string   `json:"detail,omitempty"`
	DryRun  bool     `json:"dry_run,omitempty"`
}

// NewRecord creates a Record with a fresh ULID and the current time.
func NewRecord(op Op, key string) Record {
	now := time.Now()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		id = ulid.Make()
	}
	return Record{ID: id.String(), Time: now.UnixMilli(), Op: op, Key: key}
}

// Timestamp returns the record time.
func (r Record) Timestamp() time.Time {
	return time.UnixMilli(r.Time)
}

// journalHeader is the first line of the journal file.
type journalHeader struct {
	WoodfishSchemaVersion int   `json:"woodfish_schema_version"`
	CreatedAt             int64 `json:"created_at"`
}

// Journal is an append-only JSONL log of the changes the tool made.
type Journal struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool
}

// OpenJournal opens or creates the journal at path.
func OpenJournal(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	j := &Journal{path: path, file: file}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := j.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}
	return j, nil
}

func (j *Journal) writeHeader() error {
	data, err := json.Marshal(journalHeader{
		WoodfishSchemaVersion: JournalSchemaVersion,
		CreatedAt:             time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = j.file.Write(append(data, '\n'))
	return err
}

// Path returns the journal file path.
func (j *Journal) Path() string {
	return j.path
}

// Append writes r to the journal. Missing IDs and times are filled in.
func (j *Journal) Append(r Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.file == nil {
		return ErrJournalClosed
	}

	if r.ID == "" || r.Time == 0 {
		fresh := NewRecord(r.Op, r.Key)
		if r.ID == "" {
			r.ID = fresh.ID
		}
		if r.Time == 0 {
			r.Time = fresh.Time
		}
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := j.file.Write(append(data, '\n')); err != nil {
		return err
	}
	return j.file.Sync()
}

// Load reads every record in file order. Malformed lines are skipped.
func (j *Journal) Load() ([]Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed || j.file == nil {
		return nil, ErrJournalClosed
	}

	if _, err := j.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", j.path, err)
	}

	var records []Record
	scanner := bufio.NewScanner(j.file)
	const maxLineSize = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header journalHeader
			if err := json.Unmarshal(line, &header); err == nil && header.WoodfishSchemaVersion > 0 {
				if header.WoodfishSchemaVersion > JournalSchemaVersion {
					return nil, fmt.Errorf("unsupported schema version %d (max: %d)",
						header.WoodfishSchemaVersion, JournalSchemaVersion)
				}
				continue
			}
		}

		var r Record
		if err := json.Unmarshal(line, &r); err != nil {
			continue
		}
		if r.ID != "" {
			records = append(records, r)
		}
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("error reading file: %w", err)
	}

	if _, err := j.file.Seek(0, io.SeekEnd); err != nil {
		return records, err
	}
	return records, nil
}

// Tail returns the last n records, oldest first. n <= 0 returns all.
func (j *Journal) Tail(n int) ([]Record, error) {
	records, err := j.Load()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// Close releases the file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true

	if j.file != nil {
		err := j.file.Close()
		j.file = nil
		return err
	}
	return nil
}
