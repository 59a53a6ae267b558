package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/firestore"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

func createFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	c, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating firestore client")
		return nil, err
	}

	return c, nil
}

// createYoutubeService APIキー、OAuthクライアント、ADCの順で認証方法を決める
func createYoutubeService(ctx context.Context, cfg config) (*youtube.Service, error) {
	var opts []option.ClientOption

	switch {
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case fileExists(cfg.ClientSecretsFile):
		client, err := installedAppClient(ctx, cfg.ClientSecretsFile, cfg.TokenFile, os.Stdin, os.Stderr)
		if err != nil {
			logger.Error().Err(err).Msg("Error creating oauth client")
			return nil, err
		}
		opts = append(opts, option.WithHTTPClient(client))
	default:
		client, err := google.DefaultClient(ctx, youtube.YoutubeReadonlyScope)
		if err != nil {
			logger.Error().Err(err).Msg("Error creating google client")
			return nil, err
		}
		opts = append(opts, option.WithHTTPClient(client))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating YouTube client")
		return nil, err
	}

	return service, nil
}

// installedAppClient client_secret.jsonからOAuthクライアントを作る
// 保存済みのトークンが無ければコンソールで認可コードを入力してもらう
func installedAppClient(ctx context.Context, secretsFile, tokenFile string, in io.Reader, out io.Writer) (*http.Client, error) {
	b, err := os.ReadFile(secretsFile)
	if err != nil {
		return nil, fmt.Errorf("read client secrets: %w", err)
	}

	conf, err := google.ConfigFromJSON(b, youtube.YoutubeForceSslScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}

	tok, err := loadToken(tokenFile)
	if err != nil {
		tok, err = tokenFromConsole(ctx, conf, in, out)
		if err != nil {
			return nil, err
		}
	}

	if err := saveToken(tokenFile, tok); err != nil {
		logger.Warn().Err(err).Str("path", tokenFile).Msg("can't save oauth token")
	}

	return conf.Client(ctx, tok), nil
}

func tokenFromConsole(ctx context.Context, conf *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	code, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read authorization code: %w", err)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("empty authorization code")
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return json.NewEncoder(f).Encode(tok)
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
