package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// newFakeYoutube Data API v3のchannels/search/videosだけを返すテスト用サーバー
func newFakeYoutube(t *testing.T, durations map[string]string, order []string) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "UC1" {
			writeJSON(w, map[string]interface{}{"items": []interface{}{}})
			return
		}
		writeJSON(w, map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"id": "UC1", "snippet": map[string]interface{}{"title": "Test Channel"}},
			},
		})
	})
	mux.HandleFunc("/youtube/v3/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "video", q.Get("type"))
		assert.Equal(t, "creativeCommon", q.Get("videoLicense"))
		assert.Equal(t, "UC1", q.Get("channelId"))

		// 1ページに1件ずつ返す
		i := pageIndex(q.Get("pageToken"))
		res := map[string]interface{}{"items": []interface{}{}}
		if i < len(order) {
			res["items"] = []interface{}{
				map[string]interface{}{"id": map[string]interface{}{"kind": "youtube#video", "videoId": order[i]}},
			}
			if i+1 < len(order) {
				res["nextPageToken"] = fmt.Sprintf("p%d", i+1)
			}
		}
		writeJSON(w, res)
	})
	mux.HandleFunc("/youtube/v3/videos", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		d, ok := durations[id]
		if !ok {
			writeJSON(w, map[string]interface{}{"items": []interface{}{}})
			return
		}
		writeJSON(w, map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{
					"id":             id,
					"snippet":        map[string]interface{}{"title": "video " + id},
					"contentDetails": map[string]interface{}{"duration": d},
				},
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestYoutubeAPI(t *testing.T, srv *httptest.Server) *youtubeAPI {
	t.Helper()
	service, err := youtube.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return newYoutubeAPI(service, 0, newJobMetrics())
}

func TestYoutubeAPIEndToEnd(t *testing.T) {
	srv := newFakeYoutube(t, map[string]string{"v1": "PT10S", "v2": "PT20S"}, []string{"v1", "v2"})
	api := newTestYoutubeAPI(t, srv)

	dl := &fakeDownloader{}
	j, _ := newTestJob(t, config{}, api, dl)

	summary, err := j.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Test Channel", summary.ChannelName)
	assert.Equal(t, 2, summary.NumCCVids)
	assert.Equal(t, "30 Seconds", summary.TotalDuration)
	assert.Equal(t, "10 Seconds", summary.MinDuration)
	assert.Equal(t, "20 Seconds", summary.MaxDuration)
	assert.Equal(t, "15 Seconds", summary.AvgDuration)
	assert.Equal(t, []string{"v1", "v2"}, dl.calls)
}

func TestYoutubeAPIChannelNotFound(t *testing.T) {
	srv := newFakeYoutube(t, nil, nil)
	api := newTestYoutubeAPI(t, srv)

	_, err := api.channel(context.Background(), "UCnope")
	assert.ErrorIs(t, err, errChannelNotFound)
}

func TestYoutubeAPIVideo(t *testing.T) {
	srv := newFakeYoutube(t, map[string]string{"v1": "PT1H1M1S", "bad": "garbage"}, nil)
	api := newTestYoutubeAPI(t, srv)

	v, err := api.video(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, "video v1", v.Title)
	assert.Equal(t, "1 Hours, 1 Minutes, 1 Seconds", formatDuration(v.Duration))
	assert.Equal(t, "https://www.youtube.com/watch?v=v1", v.watchURL())

	_, err = api.video(context.Background(), "missing")
	var notFound errVideoNotFound
	assert.True(t, errors.As(err, &notFound))

	_, err = api.video(context.Background(), "bad")
	var invalid errInvalidDuration
	assert.True(t, errors.As(err, &invalid))
}

func TestIsAuthError(t *testing.T) {
	assert.True(t, isAuthError(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusUnauthorized})))
	assert.True(t, isAuthError(&googleapi.Error{Code: http.StatusForbidden}))
	assert.False(t, isAuthError(&googleapi.Error{Code: http.StatusInternalServerError}))
	assert.False(t, isAuthError(errors.New("plain")))
}
