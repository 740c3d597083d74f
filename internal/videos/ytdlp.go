package videos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// YTDLPProvider fetches YouTube metadata using the yt-dlp CLI tool.
type YTDLPProvider struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewYTDLPProvider constructs a Provider that shells out to yt-dlp.
func NewYTDLPProvider(binary string, timeout time.Duration) *YTDLPProvider {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YTDLPProvider{
		Binary:  binary,
		Args:    []string{"--dump-single-json", "--no-warnings", "--no-playlist", "--skip-download"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Lookup executes yt-dlp for the provided URL and parses the JSON response.
func (p *YTDLPProvider) Lookup(ctx context.Context, url string) (Metadata, error) {
	if p == nil {
		return Metadata{}, ErrProviderUnavailable
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, url)

	out, err := p.Run(execCtx, p.Binary, args...)
	if err != nil {
		return Metadata{}, fmt.Errorf("yt-dlp fetch: %w", err)
	}

	var payload struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Channel     string  `json:"channel"`
		Uploader    string  `json:"uploader"`
		UploadDate  string  `json:"upload_date"`
		ViewCount   int64   `json:"view_count"`
		Duration    float64 `json:"duration"`
		Thumbnail   string  `json:"thumbnail"`
		Description string  `json:"description"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return Metadata{}, fmt.Errorf("parse yt-dlp response: %w", err)
	}

	if payload.ID == "" && payload.Title == "" {
		return Metadata{}, errors.New("yt-dlp returned empty metadata")
	}

	author := payload.Channel
	if author == "" {
		author = payload.Uploader
	}

	return Metadata{
		VideoID:     payload.ID,
		Title:       payload.Title,
		Author:      author,
		PublishDate: formatUploadDate(payload.UploadDate),
		ViewCount:   strconv.FormatInt(payload.ViewCount, 10),
		Duration:    int(payload.Duration),
		Thumbnail:   payload.Thumbnail,
		Description: payload.Description,
	}, nil
}

// formatUploadDate turns yt-dlp's YYYYMMDD into YYYY-MM-DD.
func formatUploadDate(raw string) string {
	if len(raw) != 8 {
		return raw
	}
	return raw[:4] + "-" + raw[4:6] + "-" + raw[6:]
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
