package restic

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Snapshot represents a restic snapshot as returned by `restic snapshots --json`.
type Snapshot struct {
	ID       string    `json:"id"`
	ShortID  string    `json:"short_id"`
	Time     time.Time `json:"time"`
	Paths    []string  `json:"paths"`
	Tags     []string  `json:"tags"`
	Hostname string    `json:"hostname"`
	Username string    `json:"username"`
}

// TagMap converts a snapshot's tags (key=value) into a map.
func (s Snapshot) TagMap() map[string]string {
	out := make(map[string]string, len(s.Tags))
	for _, tag := range s.Tags {
		if k, v, ok := strings.Cut(tag, "="); ok {
			out[k] = v
		} else {
			out[tag] = ""
		}
	}
	return out
}

// File is a single node as printed by `restic ls --json`.
type File struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Path       string    `json:"path"`
	UID        int64     `json:"uid,omitempty"`
	GID        int64     `json:"gid,omitempty"`
	Size       int64     `json:"size,omitempty"`
	Mode       int64     `json:"mode,omitempty"`
	Mtime      time.Time `json:"mtime,omitempty"`
	Atime      time.Time `json:"atime,omitempty"`
	Ctime      time.Time `json:"ctime,omitempty"`
	StructType string    `json:"struct_type,omitempty"`
}

// IsDir reports whether the node is a directory.
func (f File) IsDir() bool {
	return f.Type == "dir"
}

// DecodeError reports restic output that could not be decoded.
type DecodeError struct {
	What string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("restic: parse %s json: %v", e.What, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ParseSnapshots decodes the JSON array printed by `restic snapshots --json`.
func ParseSnapshots(output string) ([]Snapshot, error) {
	var snaps []Snapshot
	if err := json.Unmarshal([]byte(output), &snaps); err != nil {
		return nil, &DecodeError{What: "snapshots", Err: err}
	}
	return snaps, nil
}

// ParseFileListing decodes the line delimited output of `restic ls --json`.
// The first line is always skipped, as are blank lines and lines that do not
// start with '{'. Any other line must decode, otherwise the whole listing is
// rejected.
func ParseFileListing(output string) ([]File, error) {
	lines := strings.Split(normalizeNewlines(output), "\n")
	var files []File
	for i, line := range lines {
		if i == 0 || line == "" || line[0] != '{' {
			continue
		}
		var f File
		if err := json.Unmarshal([]byte(line), &f); err != nil {
			return nil, &DecodeError{What: fmt.Sprintf("file (line %d)", i+1), Err: err}
		}
		files = append(files, f)
	}
	return files, nil
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

func normalizeNewlines(s string) string {
	return newlineReplacer.Replace(s)
}
