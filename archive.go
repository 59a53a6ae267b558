package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	archiveFileName  = "dl_status"
	archiveExtractor = "youtube"
	summaryFileName  = "channel_summary.json"
)

// downloadArchive yt-dlpの--download-archiveと同じ形式("youtube <id>")でダウンロード済みの動画を記録する
type downloadArchive struct {
	path string
	ids  map[string]struct{}
}

func loadArchive(path string) (*downloadArchive, error) {
	a := &downloadArchive{
		path: path,
		ids:  map[string]struct{}{},
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return a, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 || fields[0] != archiveExtractor {
			continue
		}
		a.ids[fields[1]] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read archive %v: %w", path, err)
	}

	return a, nil
}

func (a *downloadArchive) has(videoID string) bool {
	_, ok := a.ids[videoID]
	return ok
}

func (a *downloadArchive) add(videoID string) error {
	if a.has(videoID) {
		return nil
	}

	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s %s\n", archiveExtractor, videoID); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}

	a.ids[videoID] = struct{}{}
	return nil
}
