package main

import (
	"context"

	"google.golang.org/api/iterator"
	"google.golang.org/api/youtube/v3"
)

type resultPage = youtube.SearchListResponse

type pageFetcher func(ctx context.Context, pageToken string) (*resultPage, error)

// searchPages 検索結果をページ単位で順に返す
// 最後まで読んだらiterator.Doneを返す。取得エラーはそのまま返し、以降も同じエラーを返す
type searchPages struct {
	fetch     pageFetcher
	pageToken string
	done      bool
	err       error
}

func newSearchPages(fetch pageFetcher) *searchPages {
	return &searchPages{fetch: fetch}
}

func (p *searchPages) Next(ctx context.Context) (*resultPage, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.done {
		return nil, iterator.Done
	}

	res, err := p.fetch(ctx, p.pageToken)
	if err != nil {
		p.err = err
		return nil, err
	}

	if res == nil || len(res.Items) == 0 {
		p.done = true
		return nil, iterator.Done
	}

	p.pageToken = res.NextPageToken
	if p.pageToken == "" {
		p.done = true
	}

	return res, nil
}
