package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

var errChannelNotFound = errors.New("youtube: channel not found")

type errVideoNotFound string

func (s errVideoNotFound) Error() string {
	return fmt.Sprintf("youtube: video not found: %v", string(s))
}

type videoAPI interface {
	channel(ctx context.Context, channelID string) (channelInfo, error)
	searchPage(ctx context.Context, channelID, pageToken string) (*youtube.SearchListResponse, error)
	video(ctx context.Context, videoID string) (videoInfo, error)
}

type youtubeAPI struct {
	service *youtube.Service
	limiter *rate.Limiter
	metrics *jobMetrics
}

func newYoutubeAPI(service *youtube.Service, rps float64, metrics *jobMetrics) *youtubeAPI {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &youtubeAPI{
		service: service,
		limiter: rate.NewLimiter(limit, 1),
		metrics: metrics,
	}
}

func (a *youtubeAPI) wait(ctx context.Context) error {
	return a.limiter.Wait(ctx)
}

func (a *youtubeAPI) observe(method string, err error) {
	if a.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	a.metrics.apiRequests.WithLabelValues(method, result).Inc()
}

func (a *youtubeAPI) channel(ctx context.Context, channelID string) (channelInfo, error) {
	if err := a.wait(ctx); err != nil {
		return channelInfo{}, err
	}

	res, err := a.service.Channels.List([]string{"snippet"}).Id(channelID).Context(ctx).Do()
	a.observe("channels.list", err)
	if err != nil {
		return channelInfo{}, fmt.Errorf("channels.list %v: %w", channelID, err)
	}

	if len(res.Items) == 0 {
		return channelInfo{}, fmt.Errorf("%w: %v", errChannelNotFound, channelID)
	}

	item := res.Items[0]
	info := channelInfo{ID: item.Id}
	if item.Snippet != nil {
		info.Title = item.Snippet.Title
	}
	return info, nil
}

func (a *youtubeAPI) searchPage(ctx context.Context, channelID, pageToken string) (*youtube.SearchListResponse, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}

	call := a.service.Search.List([]string{"id"}).
		ChannelId(channelID).
		Type("video").
		VideoLicense("creativeCommon").
		MaxResults(50)
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}

	res, err := call.Context(ctx).Do()
	a.observe("search.list", err)
	if err != nil {
		return nil, fmt.Errorf("search.list %v: %w", channelID, err)
	}
	return res, nil
}

func (a *youtubeAPI) video(ctx context.Context, videoID string) (videoInfo, error) {
	if err := a.wait(ctx); err != nil {
		return videoInfo{}, err
	}

	res, err := a.service.Videos.List([]string{"snippet", "contentDetails"}).Id(videoID).Context(ctx).Do()
	a.observe("videos.list", err)
	if err != nil {
		return videoInfo{}, fmt.Errorf("videos.list %v: %w", videoID, err)
	}

	if len(res.Items) == 0 || res.Items[0].ContentDetails == nil {
		return videoInfo{}, errVideoNotFound(videoID)
	}

	item := res.Items[0]
	duration, err := parseDuration(item.ContentDetails.Duration)
	if err != nil {
		return videoInfo{}, fmt.Errorf("video %v: %w", videoID, err)
	}

	info := videoInfo{
		ID:       item.Id,
		Duration: duration,
	}
	if item.Snippet != nil {
		info.Title = item.Snippet.Title
	}
	return info, nil
}

// isAuthError 認証・認可のエラーかどうか
func isAuthError(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden
}
