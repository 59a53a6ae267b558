// チャンネルのCCライセンス動画を列挙してダウンロードし、集計結果を書き出すジョブ
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

type summaryExporter interface {
	export(ctx context.Context, runID string, summary channelSummary, videos []videoRecord) error
}

type job struct {
	cfg        config
	api        videoAPI
	downloader downloader
	archive    *downloadArchive
	exporter   summaryExporter
	metrics    *jobMetrics
	out        io.Writer
}

func newJob(cfg config, api videoAPI, dl downloader, archive *downloadArchive) *job {
	return &job{
		cfg:        cfg,
		api:        api,
		downloader: dl,
		archive:    archive,
		metrics:    newJobMetrics(),
		out:        os.Stdout,
	}
}

// run ページを順に読み、動画ごとに長さを集計してダウンロードする
// ページの取得に失敗した場合もそれまでの集計は書き出してからエラーを返す
func (j *job) run(ctx context.Context) (channelSummary, error) {
	runID := uuid.NewString()
	log := logger.With().Str("run", runID).Str("channel", j.cfg.ChannelID).Logger()

	if err := os.MkdirAll(j.cfg.FilePath, 0o755); err != nil {
		return channelSummary{}, err
	}

	channel, err := j.api.channel(ctx, j.cfg.ChannelID)
	if err != nil {
		return channelSummary{}, err
	}
	log.Info().Str("name", channel.Title).Msg("channel found")

	pages := newSearchPages(func(ctx context.Context, pageToken string) (*resultPage, error) {
		return j.api.searchPage(ctx, j.cfg.ChannelID, pageToken)
	})

	var stats durationStats
	var records []videoRecord
	seen := map[string]struct{}{}
	var lastErr error

pageLoop:
	for {
		page, err := pages.Next(ctx)
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Error().Err(err).Msg("can't fetch search results")
			lastErr = err
			break
		}

		for _, item := range page.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			videoID := item.Id.VideoId
			if _, ok := seen[videoID]; ok {
				continue
			}
			seen[videoID] = struct{}{}

			record, err := j.processVideo(ctx, log, videoID, &stats)
			if err != nil {
				lastErr = err
				break pageLoop
			}
			if record != nil {
				record.ChannelID = channel.ID
				record.RunID = runID
				records = append(records, *record)
			}
		}
	}

	summary := stats.summary(channel)
	if err := writeSummary(filepath.Join(j.cfg.FilePath, summaryFileName), summary); err != nil {
		return summary, err
	}

	if j.cfg.Verbose || j.cfg.DryRun {
		fmt.Fprintln(j.out, describeSummary(summary))
	}

	if j.exporter != nil {
		if err := j.exporter.export(ctx, runID, summary, records); err != nil {
			log.Error().Err(err).Msg("can't export summary")
			if lastErr == nil {
				lastErr = err
			}
		}
	}

	log.Info().
		Int("videos", summary.NumCCVids).
		Str("total", summary.TotalDuration).
		Msg("export done")

	return summary, lastErr
}

// processVideo 1本分の処理。ダウンロードの失敗はログに残して続行する
// 返すエラーは処理全体を止めるもの(認証エラー、キャンセル)だけ
func (j *job) processVideo(ctx context.Context, log zerolog.Logger, videoID string, stats *durationStats) (*videoRecord, error) {
	video, err := j.api.video(ctx, videoID)
	if err != nil {
		if isAuthError(err) || ctx.Err() != nil {
			return nil, err
		}
		log.Warn().Err(err).Str("video", videoID).Msg("can't get video details, skip")
		return nil, nil
	}

	stats.add(video.Duration)
	if j.metrics != nil {
		j.metrics.videosFound.Inc()
		j.metrics.videoDuration.Observe(video.Duration.Seconds())
	}

	detail := log.Debug()
	if j.cfg.Verbose || j.cfg.DryRun {
		detail = log.Info()
	}
	detail.
		Str("video", video.ID).
		Str("title", video.Title).
		Str("duration", formatDuration(video.Duration)).
		Msg("video")

	record := &videoRecord{
		ID:        video.ID,
		Title:     video.Title,
		Duration:  video.Duration,
		UpdatedAt: time.Now(),
	}

	switch {
	case j.cfg.DryRun:
		j.countDownload("dry_run")
	case !j.cfg.Overwrite && j.archive != nil && j.archive.has(video.ID):
		log.Debug().Str("video", video.ID).Msg("already in archive, skip")
		j.countDownload("archived")
	default:
		if err := j.downloader.download(ctx, video); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			evt := log.Error()
			if isUnavailable(err) {
				evt = log.Warn()
			}
			evt.Err(err).Str("url", video.watchURL()).Msg("download failed, skip")
			j.countDownload("failed")
			return record, nil
		}
		record.Downloaded = true
		j.countDownload("ok")
	}

	return record, nil
}

func (j *job) countDownload(result string) {
	if j.metrics != nil {
		j.metrics.downloads.WithLabelValues(result).Inc()
	}
}

// writeSummary 一時ファイルに書いてからrenameする
// 読む側からは常に書き終わったファイルだけが見える
func writeSummary(path string, summary channelSummary) error {
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Chmod(0o644); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func readSummary(path string) (channelSummary, error) {
	var summary channelSummary
	b, err := os.ReadFile(path)
	if err != nil {
		return summary, err
	}
	err = json.Unmarshal(b, &summary)
	return summary, err
}

func describeSummary(s channelSummary) string {
	return fmt.Sprintf("We identified the YouTube Channel '%v', it has %v Creative Common videos for a total of %v. The videos range from %v to %v in length with an average of %v",
		s.ChannelName, s.NumCCVids, s.TotalDuration, s.MinDuration, s.MaxDuration, s.AvgDuration)
}
