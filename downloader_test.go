package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewYtdlpDownloader(t *testing.T) {
	tests := []struct {
		name      string
		overwrite bool
		audio     bool
		dryRun    bool
		format    string
	}{
		{"default", false, false, false, formatVideoOnly},
		{"audio", false, true, false, formatVideoAudio},
		{"overwrite", true, false, false, formatVideoOnly},
		{"overwrite audio", true, true, false, formatVideoAudio},
		{"dry run", false, false, true, formatVideoOnly},
		{"dry run overwrite audio", true, true, true, formatVideoAudio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			d := newYtdlpDownloader(config{FilePath: dir, Overwrite: tt.overwrite, Audio: tt.audio, DryRun: tt.dryRun})
			flags := d.cmd.GetFlagConfig()

			require.NotNil(t, flags.VideoFormat.Format)
			assert.Equal(t, tt.format, *flags.VideoFormat.Format)
			require.NotNil(t, flags.Filesystem.Output)
			assert.Equal(t, filepath.Join(dir, "%(id)s.%(ext)s"), *flags.Filesystem.Output)
			require.NotNil(t, flags.Download.Retries)
			assert.Equal(t, "10", *flags.Download.Retries)
			require.NotNil(t, flags.Filesystem.WriteInfoJSON)
			assert.True(t, *flags.Filesystem.WriteInfoJSON)
			assert.Nil(t, flags.VerbositySimulation.SkipDownload)

			assert.False(t, flags.Filesystem.NoOverwrites != nil && flags.Filesystem.ForceOverwrites != nil)
			if tt.overwrite {
				require.NotNil(t, flags.Filesystem.ForceOverwrites)
				assert.True(t, *flags.Filesystem.ForceOverwrites)
				assert.Nil(t, flags.VideoSelection.DownloadArchive)
			} else {
				require.NotNil(t, flags.Filesystem.NoOverwrites)
				assert.True(t, *flags.Filesystem.NoOverwrites)
				require.NotNil(t, flags.VideoSelection.DownloadArchive)
				assert.Equal(t, filepath.Join(dir, "dl_status"), *flags.VideoSelection.DownloadArchive)
			}
		})
	}
}

func TestNewDownloader(t *testing.T) {
	archive, err := loadArchive(filepath.Join(t.TempDir(), archiveFileName))
	require.NoError(t, err)

	dl, err := newDownloader(config{Backend: backendNative, FilePath: t.TempDir()}, archive)
	require.NoError(t, err)
	native, ok := dl.(*nativeDownloader)
	require.True(t, ok)
	assert.Equal(t, downloadRetries, native.retries)
	assert.Same(t, archive, native.archive)

	dl, err = newDownloader(config{FilePath: t.TempDir()}, archive)
	require.NoError(t, err)
	assert.IsType(t, &ytdlpDownloader{}, dl)

	_, err = newDownloader(config{Backend: "curl"}, archive)
	assert.Error(t, err)
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"private native", fmt.Errorf("get video v1: %w", youtube.ErrVideoPrivate), true},
		{"login native", youtube.ErrLoginRequired, true},
		{"unavailable yt-dlp", &ytdlpError{url: "u", stderr: "ERROR: [youtube] v1: Video unavailable. This video has been removed by the uploader", err: errors.New("exit status 1")}, true},
		{"private yt-dlp", &ytdlpError{url: "u", stderr: "ERROR: [youtube] v1: Private video. Sign in if you've been granted access to this video", err: errors.New("exit status 1")}, true},
		{"wrapped yt-dlp", fmt.Errorf("job: %w", &ytdlpError{url: "u", stderr: "ERROR: This video is not available", err: errors.New("exit status 1")}), true},
		{"network yt-dlp", &ytdlpError{url: "u", stderr: "ERROR: Unable to download webpage: HTTP Error 503", err: errors.New("exit status 1")}, false},
		{"plain", errors.New("Video unavailable"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnavailable(tt.err))
		})
	}
}

func TestYtdlpErrorUnwrap(t *testing.T) {
	inner := errors.New("exit status 1")
	err := &ytdlpError{url: "https://www.youtube.com/watch?v=v1", err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "yt-dlp https://www.youtube.com/watch?v=v1: exit status 1", err.Error())
}

func TestNeedsYtdlp(t *testing.T) {
	assert.True(t, needsYtdlp(config{}))
	assert.True(t, needsYtdlp(config{Backend: backendYtdlp}))
	assert.False(t, needsYtdlp(config{Backend: backendYtdlp, DryRun: true}))
	assert.False(t, needsYtdlp(config{DryRun: true}))
	assert.False(t, needsYtdlp(config{Backend: backendNative}))
}
