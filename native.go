package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
)

type errNoPlayableFormat string

func (s errNoPlayableFormat) Error() string {
	return fmt.Sprintf("no playable format: video id :%v", string(s))
}

// nativeDownloader yt-dlpを使わずにkkdai/youtubeでストリームを直接保存する
type nativeDownloader struct {
	getVideo   func(ctx context.Context, id string) (*youtube.Video, error)
	openStream func(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)

	dir       string
	audio     bool
	overwrite bool
	archive   *downloadArchive

	retries   int
	retryWait time.Duration
}

func newNativeDownloader(cfg config, archive *downloadArchive) *nativeDownloader {
	client := &youtube.Client{}
	return &nativeDownloader{
		getVideo:   client.GetVideoContext,
		openStream: client.GetStreamContext,
		dir:        cfg.FilePath,
		audio:      cfg.Audio,
		overwrite:  cfg.Overwrite,
		archive:    archive,
		retries:    downloadRetries,
		retryWait:  time.Second,
	}
}

type infoJSON struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Uploader    string  `json:"uploader"`
	ChannelID   string  `json:"channel_id"`
	Duration    float64 `json:"duration"`
	UploadDate  string  `json:"upload_date,omitempty"`
	ViewCount   int     `json:"view_count"`
	WebpageURL  string  `json:"webpage_url"`
	Format      string  `json:"format"`
}

func (d *nativeDownloader) download(ctx context.Context, v videoInfo) error {
	video, err := d.getVideo(ctx, v.ID)
	if err != nil {
		return fmt.Errorf("get video %v: %w", v.ID, err)
	}

	formats := selectFormats(video.Formats, d.audio)
	if len(formats) == 0 {
		return errNoPlayableFormat(v.ID)
	}

	labels := make([]string, 0, len(formats))
	for i := range formats {
		format := formats[i]
		path := filepath.Join(d.dir, v.ID+"."+formatExtension(format.MimeType))
		if err := d.saveStream(ctx, video, &format, path); err != nil {
			return err
		}
		labels = append(labels, fmt.Sprintf("%d - %s", format.ItagNo, format.MimeType))
	}

	info := infoJSON{
		ID:          video.ID,
		Title:       video.Title,
		Description: video.Description,
		Uploader:    video.Author,
		ChannelID:   video.ChannelID,
		Duration:    video.Duration.Seconds(),
		ViewCount:   video.Views,
		WebpageURL:  v.watchURL(),
		Format:      strings.Join(labels, ", "),
	}
	if !video.PublishDate.IsZero() {
		info.UploadDate = video.PublishDate.Format("20060102")
	}
	if err := d.writeInfoJSON(filepath.Join(d.dir, v.ID+".info.json"), info); err != nil {
		return err
	}

	if !d.overwrite && d.archive != nil {
		return d.archive.add(v.ID)
	}
	return nil
}

// saveStream 失敗したら最大retries回まで取り直す
// 途中で失敗したときは.partを残さない
func (d *nativeDownloader) saveStream(ctx context.Context, video *youtube.Video, format *youtube.Format, path string) error {
	if !d.overwrite && fileExists(path) {
		logger.Debug().Str("path", path).Msg("file exists, skip")
		return nil
	}

	var err error
	for attempt := 1; attempt <= max(d.retries, 1); attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.retryWait):
			}
		}

		err = d.fetchStream(ctx, video, format, path)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("stream download failed")
	}
	return err
}

func (d *nativeDownloader) fetchStream(ctx context.Context, video *youtube.Video, format *youtube.Format, path string) error {
	stream, _, err := d.openStream(ctx, video, format)
	if err != nil {
		return fmt.Errorf("get stream %v itag %d: %w", video.ID, format.ItagNo, err)
	}
	defer stream.Close()

	tmp := path + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(f, stream); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write %v: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

func (d *nativeDownloader) writeInfoJSON(path string, info infoJSON) error {
	if !d.overwrite && fileExists(path) {
		return nil
	}

	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// selectFormats bestvideo/best 相当の選択。audioがtrueならbestaudioも追加する
func selectFormats(formats youtube.FormatList, audio bool) []youtube.Format {
	var bestVideo, bestMuxed, bestAudio *youtube.Format

	for i := range formats {
		f := &formats[i]
		switch {
		case strings.HasPrefix(f.MimeType, "video/") && f.AudioChannels == 0:
			if bestVideo == nil || betterVideo(f, bestVideo) {
				bestVideo = f
			}
		case strings.HasPrefix(f.MimeType, "video/"):
			if bestMuxed == nil || betterVideo(f, bestMuxed) {
				bestMuxed = f
			}
		case strings.HasPrefix(f.MimeType, "audio/"):
			if bestAudio == nil || f.Bitrate > bestAudio.Bitrate {
				bestAudio = f
			}
		}
	}

	var result []youtube.Format
	if bestVideo != nil {
		result = append(result, *bestVideo)
		if audio && bestAudio != nil {
			result = append(result, *bestAudio)
		}
		return result
	}

	if bestMuxed != nil {
		result = append(result, *bestMuxed)
	}
	return result
}

func betterVideo(a, b *youtube.Format) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	return a.Bitrate > b.Bitrate
}

func formatExtension(mimeType string) string {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return "bin"
	}

	switch mediaType {
	case "audio/mp4":
		return "m4a"
	case "audio/webm":
		return "weba"
	}

	if parts := strings.SplitN(mediaType, "/", 2); len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return "bin"
}
