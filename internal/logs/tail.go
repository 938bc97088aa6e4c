package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"roomcheck/internal/config"
)

const (
	pollInterval  = 250 * time.Millisecond
	maxLineLength = 1 << 20
)

// DaemonLogName is the file roomcheckd writes under the log directory.
const DaemonLogName = "roomcheckd.log"

// DaemonLogPath returns the daemon log location for cfg.
func DaemonLogPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, DaemonLogName)
}

// Options selects which lines Tail returns.
type Options struct {
	// Offset is the byte position to continue from. A negative offset asks
	// for the last Limit lines instead.
	Offset int64
	Limit  int
	// Wait blocks up to this long for new lines when none are available.
	Wait time.Duration
}

// Chunk is a batch of complete lines and the offset just past them.
type Chunk struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// Tail reads lines from path. A missing file yields an empty chunk at offset
// zero so callers can start before the daemon has logged anything.
func Tail(ctx context.Context, path string, opts Options) (Chunk, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return Chunk{}, nil
	}
	if err != nil {
		return Chunk{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Chunk{}, fmt.Errorf("log path %q is a directory", path)
	}

	var chunk Chunk
	if opts.Offset < 0 {
		chunk, err = lastLines(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			// Truncated or rotated; restart from the top.
			offset = 0
		}
		chunk, err = readFrom(path, offset, opts.Limit)
	}
	if err != nil || len(chunk.Lines) > 0 || opts.Wait <= 0 {
		return chunk, err
	}
	return follow(ctx, path, chunk.Offset, opts)
}

func follow(ctx context.Context, path string, offset int64, opts Options) (Chunk, error) {
	deadline := time.NewTimer(opts.Wait)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Chunk{Offset: offset}, ctx.Err()
		case <-deadline.C:
			return Chunk{Offset: offset}, nil
		case <-ticker.C:
		}
		chunk, err := readFrom(path, offset, opts.Limit)
		if err != nil || len(chunk.Lines) > 0 {
			return chunk, err
		}
	}
}

// readFrom returns complete lines after offset, at most limit when limit is
// positive. A trailing partial line is left for the next call.
func readFrom(path string, offset int64, limit int) (Chunk, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Chunk{}, nil
	}
	if err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Chunk{Offset: offset}, fmt.Errorf("seek log file: %w", err)
	}
	reader := bufio.NewReaderSize(file, 64*1024)
	chunk := Chunk{Offset: offset}
	for limit <= 0 || len(chunk.Lines) < limit {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return chunk, fmt.Errorf("read log file: %w", err)
		}
		chunk.Offset += int64(len(line))
		chunk.Lines = append(chunk.Lines, trimLine(line))
	}
	return chunk, nil
}

// lastLines returns up to limit trailing lines and the offset of end of file.
// A non-positive limit returns no lines, only the end offset.
func lastLines(path string, limit int) (Chunk, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Chunk{}, nil
	}
	if err != nil {
		return Chunk{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return Chunk{}, fmt.Errorf("seek log file: %w", err)
		}
		return Chunk{Offset: end}, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	ring := make([]string, 0, limit)
	start := 0
	for scanner.Scan() {
		line := scanner.Text()
		if len(ring) < limit {
			ring = append(ring, line)
			continue
		}
		ring[start] = line
		start = (start + 1) % limit
	}
	if err := scanner.Err(); err != nil {
		return Chunk{}, fmt.Errorf("read log file: %w", err)
	}

	lines := append(append([]string(nil), ring[start:]...), ring[:start]...)
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return Chunk{}, fmt.Errorf("seek log file: %w", err)
	}
	return Chunk{Lines: lines, Offset: end}, nil
}

func trimLine(line string) string {
	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line
}
