package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/archive-delivery/internal/models"
)

// GetUserSettings возвращает настройки доставки пользователя.
func (s *Storage) GetUserSettings(ctx context.Context, userID int64) (*models.UserSettings, error) {
	const op = "storage.GetUserSettings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT user_id, upload_as_document, custom_caption, thumbnail,
			      caption_replacements, filename_replacements, filename_prefix, filename_suffix
			  FROM user_settings
			  WHERE user_id = $1`
	st := &models.UserSettings{}
	row := s.DB.QueryRowContext(ctx, query, userID)

	var customCaption, thumbnail, prefix, suffix sql.NullString
	if err := row.Scan(&st.UserID, &st.UploadAsDocument, &customCaption, &thumbnail,
		&st.CaptionReplacements, &st.FilenameReplacements, &prefix, &suffix); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if customCaption.Valid {
		st.CustomCaption = &customCaption.String
	}
	if thumbnail.Valid {
		st.Thumbnail = &thumbnail.String
	}
	if prefix.Valid {
		st.FilenamePrefix = &prefix.String
	}
	if suffix.Valid {
		st.FilenameSuffix = &suffix.String
	}
	return st, nil
}

// UpsertUserSettings сохраняет настройки доставки пользователя.
func (s *Storage) UpsertUserSettings(ctx context.Context, st models.UserSettings) error {
	const op = "storage.UpsertUserSettings"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO user_settings (user_id, upload_as_document, custom_caption, thumbnail,
			      caption_replacements, filename_replacements, filename_prefix, filename_suffix)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  ON CONFLICT (user_id) DO UPDATE
			  SET upload_as_document = EXCLUDED.upload_as_document,
			      custom_caption = EXCLUDED.custom_caption,
			      thumbnail = EXCLUDED.thumbnail,
			      caption_replacements = EXCLUDED.caption_replacements,
			      filename_replacements = EXCLUDED.filename_replacements,
			      filename_prefix = EXCLUDED.filename_prefix,
			      filename_suffix = EXCLUDED.filename_suffix;`
	if _, err := s.DB.ExecContext(ctx, query,
		st.UserID, st.UploadAsDocument, st.CustomCaption, st.Thumbnail,
		st.CaptionReplacements, st.FilenameReplacements, st.FilenamePrefix, st.FilenameSuffix); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetConfigValue возвращает значение служебной настройки по ключу.
func (s *Storage) GetConfigValue(ctx context.Context, key string) (string, error) {
	const op = "storage.GetConfigValue"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT setting_value FROM bot_config WHERE setting_name = $1`
	var value string
	if err := s.DB.QueryRowContext(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return value, nil
}

// SetConfigValue записывает значение служебной настройки.
func (s *Storage) SetConfigValue(ctx context.Context, key, value string) error {
	const op = "storage.SetConfigValue"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO bot_config (setting_name, setting_value)
			  VALUES ($1, $2)
			  ON CONFLICT (setting_name) DO UPDATE
			  SET setting_value = EXCLUDED.setting_value;`
	if _, err := s.DB.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
