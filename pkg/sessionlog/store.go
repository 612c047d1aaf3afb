package sessionlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

const (
	// maxRecordSize bounds a single JSONL record; tool results can
	// carry large payloads.
	maxRecordSize = 4 * 1024 * 1024

	peekChunkSize = 8192
)

// ReadOptions narrows a ReadAll call. Limit of zero means no limit;
// FromEnd selects the tail instead of the head.
type ReadOptions struct {
	Limit   int
	FromEnd bool
}

// AppendRecords appends one JSON line per message to the session file at
// path, in input order. Diff blocks are stripped first and messages left
// empty by stripping are dropped; messages without a timestamp are
// stamped. An empty input (before or after stripping) performs no IO and
// does not create the file. All surviving records are written in a
// single write.
func AppendRecords(path string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	surviving := stripDiffBlocks(messages)
	if len(surviving) == 0 {
		return nil
	}

	now := time.Now().UTC()
	var buf bytes.Buffer
	for i := range surviving {
		if surviving[i].Timestamp.IsZero() {
			surviving[i].Timestamp = now
		}
		data, err := json.Marshal(surviving[i])
		if err != nil {
			return fmt.Errorf("failed to marshal session record: %w", err)
		}
		buf.Write(data)
		buf.WriteByte('\n')
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open session file %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append to session file %s: %w", path, err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("failed to sync session file %s: %w", path, err)
	}

	return nil
}

// ReadAll returns the persisted messages of one session in record order.
// A missing file yields ErrNotFound; an unparseable line yields
// ErrCorrupted.
func ReadAll(path string, opts ReadOptions) ([]Message, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("session file %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open session file %s: %w", path, err)
	}
	defer file.Close()

	var messages []Message
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var msg Message
		if err := json.Unmarshal(line, &msg); err != nil {
			return nil, fmt.Errorf("session file %s line %d: %w", path, lineNum, ErrCorrupted)
		}

		messages = append(messages, msg)

		if opts.Limit > 0 {
			if opts.FromEnd {
				if len(messages) > opts.Limit {
					messages = messages[1:]
				}
			} else if len(messages) == opts.Limit {
				return messages, nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session file %s: %w", path, err)
	}

	return messages, nil
}

// PeekFirstRecord reads and parses only the first record of the session
// file. It returns nil for an absent or empty file.
func PeekFirstRecord(path string) (*Message, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open session file %s: %w", path, err)
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, peekChunkSize)
	for {
		line, err := reader.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			var msg Message
			if uerr := json.Unmarshal(trimmed, &msg); uerr != nil {
				return nil, fmt.Errorf("session file %s first record: %w", path, ErrCorrupted)
			}
			return &msg, nil
		}
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read session file %s: %w", path, err)
		}
	}
}

// PeekLastRecord reads and parses only the last record of the session
// file, seeking backwards from the end so its cost is independent of the
// record count. It returns nil for an absent or empty file.
func PeekLastRecord(path string) (*Message, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open session file %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat session file %s: %w", path, err)
	}

	line, err := readLastLine(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to read session file %s: %w", path, err)
	}
	if len(line) == 0 {
		return nil, nil
	}

	var msg Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return nil, fmt.Errorf("session file %s last record: %w", path, ErrCorrupted)
	}
	return &msg, nil
}

// readLastLine scans backwards in fixed-size chunks until it has the
// last non-empty line of the file.
func readLastLine(file *os.File, size int64) ([]byte, error) {
	var buf []byte
	offset := size

	for offset > 0 {
		chunkLen := int64(peekChunkSize)
		if offset < chunkLen {
			chunkLen = offset
		}
		offset -= chunkLen

		chunk := make([]byte, chunkLen)
		if _, err := file.ReadAt(chunk, offset); err != nil {
			return nil, err
		}
		buf = append(chunk, buf...)

		trimmed := bytes.TrimRight(buf, " \t\r\n")
		if len(trimmed) == 0 {
			buf = nil
			continue
		}
		if i := bytes.LastIndexByte(trimmed, '\n'); i >= 0 {
			return bytes.TrimSpace(trimmed[i+1:]), nil
		}
	}

	return bytes.TrimSpace(buf), nil
}

// Touch registers a session's existence by creating an empty file (and
// any missing parent directories) without writing a record. An existing
// file is left untouched.
func Touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory for %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create session file %s: %w", path, err)
	}
	return file.Close()
}
