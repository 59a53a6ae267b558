package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"
	"github.com/lrstanley/go-ytdlp"
)

const (
	formatVideoOnly  = "bestvideo/best"
	formatVideoAudio = "bestvideo,bestaudio/best"
	downloadRetries  = 10
	outputTemplate   = "%(id)s.%(ext)s"
)

const (
	backendYtdlp  = "yt-dlp"
	backendNative = "native"
)

// downloader 1本の動画をダウンロードする
// ダウンロード済みの記録(archive)も実装側で行う
type downloader interface {
	download(ctx context.Context, video videoInfo) error
}

func downloadFormat(audio bool) string {
	if audio {
		return formatVideoAudio
	}
	return formatVideoOnly
}

type ytdlpDownloader struct {
	cmd *ytdlp.Command
}

// newYtdlpDownloader 設定から一度だけyt-dlpのコマンドを組み立てる
// dry-runではdownloadが呼ばれないので--skip-downloadは付けない
func newYtdlpDownloader(cfg config) *ytdlpDownloader {
	cmd := ytdlp.New().
		Format(downloadFormat(cfg.Audio)).
		Output(filepath.Join(cfg.FilePath, outputTemplate)).
		Retries(strconv.Itoa(downloadRetries)).
		WriteInfoJSON()

	if cfg.Overwrite {
		cmd = cmd.ForceOverwrites()
	} else {
		cmd = cmd.NoOverwrites().
			DownloadArchive(filepath.Join(cfg.FilePath, archiveFileName))
	}

	return &ytdlpDownloader{cmd: cmd}
}

// ytdlpError yt-dlpが失敗したときのstderrを保持する
type ytdlpError struct {
	url    string
	stderr string
	err    error
}

func (e *ytdlpError) Error() string {
	return fmt.Sprintf("yt-dlp %v: %v", e.url, e.err)
}

func (e *ytdlpError) Unwrap() error {
	return e.err
}

func (d *ytdlpDownloader) download(ctx context.Context, video videoInfo) error {
	url := video.watchURL()
	res, err := d.cmd.Run(ctx, url)
	if err != nil {
		e := &ytdlpError{url: url, err: err}
		if res != nil {
			e.stderr = res.Stderr
		}
		return e
	}
	return nil
}

// yt-dlpが非公開・削除済みの動画に対して出すメッセージ
var unavailableMessages = []string{
	"Video unavailable",
	"Private video",
	"This video is not available",
	"This video has been removed",
	"Sign in to confirm your age",
}

// isUnavailable 動画側の事情でダウンロードできないエラーか
// ジョブはこれをWarnで記録し、それ以外をErrorで記録する
func isUnavailable(err error) bool {
	if errors.Is(err, youtube.ErrVideoPrivate) || errors.Is(err, youtube.ErrLoginRequired) {
		return true
	}

	var ye *ytdlpError
	if !errors.As(err, &ye) {
		return false
	}
	for _, msg := range unavailableMessages {
		if strings.Contains(ye.stderr, msg) {
			return true
		}
	}
	return false
}

func newDownloader(cfg config, archive *downloadArchive) (downloader, error) {
	switch cfg.Backend {
	case backendYtdlp, "":
		return newYtdlpDownloader(cfg), nil
	case backendNative:
		return newNativeDownloader(cfg, archive), nil
	default:
		return nil, fmt.Errorf("unknown download backend: %q", cfg.Backend)
	}
}
