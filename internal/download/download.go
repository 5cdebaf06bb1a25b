// Package download получает исходный архив в локальный файл. Источником
// может быть HTTP(S)-ссылка или путь на локальном диске.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const copyChunkSize = 256 * 1024

// Client скачивает архивы с периодическим отчетом о прогрессе.
type Client struct {
	http *http.Client
	log  *slog.Logger
}

// New создает новый Client.
func New(log *slog.Logger) *Client {
	return &Client{
		http: &http.Client{
			// Общий дедлайн не ставится: большие архивы качаются долго,
			// обрыв управляется контекстом задания.
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
		log: log,
	}
}

// Download стримит source в файл dest. progress вызывается по мере копирования
// с текущим и полным размером; полный размер равен нулю, если источник его
// не сообщает.
func (c *Client) Download(ctx context.Context, source, dest string, progress func(current, total int64)) error {
	const op = "download.Download"

	var body io.ReadCloser
	var total int64

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("%s: unexpected status %s", op, resp.Status)
		}
		body = resp.Body
		if resp.ContentLength > 0 {
			total = resp.ContentLength
		}
	} else {
		f, err := os.Open(source)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if info, err := f.Stat(); err == nil {
			total = info.Size()
		}
		body = f
	}
	defer body.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer out.Close()

	var current int64
	buf := make([]byte, copyChunkSize)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
			current += int64(n)
			progress(current, total)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%s: %w", op, readErr)
		}
	}

	if err := out.Sync(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.log.Debug("download finished",
		slog.String("dest", dest), slog.Int64("bytes", current))
	return nil
}
