package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/archive-delivery/internal/models"
)

// InsertDownloadLog добавляет запись в журнал скачиваний.
func (s *Storage) InsertDownloadLog(ctx context.Context, entry models.DownloadLog) error {
	const op = "storage.InsertDownloadLog"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO downloads (user_id, filename, size, created_at)
			  VALUES ($1, $2, $3, $4)`
	if _, err := s.DB.ExecContext(ctx, query,
		entry.UserID, entry.Filename, entry.Size, entry.Timestamp); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListDownloadLogs возвращает последние записи журнала пользователя с пагинацией.
func (s *Storage) ListDownloadLogs(ctx context.Context, userID int64, limit, offset int) ([]*models.DownloadLog, error) {
	const op = "storage.ListDownloadLogs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, filename, size, created_at
			  FROM downloads
			  WHERE user_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.DownloadLog
	for rows.Next() {
		var entry models.DownloadLog
		if err = rows.Scan(&entry.UserID, &entry.Filename, &entry.Size, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
