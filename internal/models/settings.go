package models

// UserSettings типизированные настройки доставки файлов пользователя.
// Значения по умолчанию задаются в DefaultSettings и проставляются
// один раз при чтении, а не по месту использования.
type UserSettings struct {
	UserID               int64
	UploadAsDocument     bool    // Отправлять файлы документами, а не медиа
	CustomCaption        *string // Шаблон подписи с переменными {filename} {size} {extension} {caption}
	Thumbnail            *string // Ссылка на превью, nil если не задано
	CaptionReplacements  string  // Правила замен для подписи, через "|"
	FilenameReplacements string  // Правила замен для имени файла, через "|"
	FilenamePrefix       *string // Префикс имени файла
	FilenameSuffix       *string // Суффикс имени файла, перед расширением
}

// DefaultSettings возвращает настройки по умолчанию для пользователя.
func DefaultSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:           userID,
		UploadAsDocument: true,
	}
}
