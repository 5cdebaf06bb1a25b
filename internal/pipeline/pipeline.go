// Package pipeline реализует оркестратор доставки архива: один входящий
// запрос проходит стадии download → validate → extract → enumerate →
// transform → upload → account → cleanup под контролем квоты, кооперативной
// отмены и гарантированной уборки временных файлов.
//
// Отмена наблюдается только в контрольных точках между стадиями: запрос
// отмены, пришедший посреди передачи, будет исполнен на следующей точке,
// а не мгновенно.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/archive-delivery/internal/config"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/format"
	"github.com/magabrotheeeer/archive-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/archive-delivery/internal/models"
	"github.com/magabrotheeeer/archive-delivery/internal/services/quota"
	"github.com/magabrotheeeer/archive-delivery/internal/storage/repository"
	"github.com/magabrotheeeer/archive-delivery/internal/transform"
)

// Ошибки фазы допуска прерывают задание до выделения любых ресурсов.
// Ошибки конвейера прерывают оставшиеся стадии, но уборка выполняется всегда.
var (
	// ErrUnsupportedType расширение файла не входит в список поддерживаемых архивов.
	ErrUnsupportedType = errors.New("unsupported archive type")
	// ErrQuotaExceeded суточная квота тарифа исчерпана.
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	// ErrFileTooLarge размер файла превышает лимит тарифа.
	ErrFileTooLarge = errors.New("file exceeds tier size limit")
	// ErrDownloadFailed не удалось получить локальную копию архива.
	ErrDownloadFailed = errors.New("download failed")
	// ErrExtractionFailed архив поврежден или пароль не подошел.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrEmptyArchive в архиве не нашлось ни одного файла.
	ErrEmptyArchive = errors.New("no files found in archive")
)

// MaxFilesPerArchive предел числа файлов, перечисляемых из одного архива.
const MaxFilesPerArchive = 50

// MirrorDestinationKey ключ служебной конфигурации с местом зеркалирования
// доставленных файлов. Пустое или отсутствующее значение отключает зеркало.
const MirrorDestinationKey = "mirror_destination"

var supportedExtensions = map[string]struct{}{
	"zip": {}, "rar": {}, "7z": {}, "tar": {},
	"gz": {}, "bz2": {}, "tgz": {}, "tbz2": {},
}

// FileOptions необязательное обогащение доставки одного файла.
// Транспорт вправе игнорировать любые поля.
type FileOptions struct {
	Name       string // Имя файла после преобразований
	Caption    string // Подпись, пустая строка — без подписи
	AsDocument bool
	Thumbnail  string
}

// Transport внешний чат-транспорт задания. SendProgress редактирует одно и
// то же статусное сообщение на месте.
type Transport interface {
	SendProgress(ctx context.Context, text string) error
	SendFile(ctx context.Context, path string, opts FileOptions) (string, error)
	Mirror(ctx context.Context, deliveryID, destination string) error
}

// Downloader стримит источник в локальный файл, периодически отдавая прогресс.
type Downloader interface {
	Download(ctx context.Context, source, dest string, progress func(current, total int64)) error
}

// Extractor внешняя утилита распаковки, выбираемая по расширению файла.
type Extractor interface {
	Extract(ctx context.Context, archivePath, password, destDir string) error
}

// QuotaService решения о допуске и учет выполненных заданий.
type QuotaService interface {
	EvaluateQuota(ctx context.Context, userID int64) (*quota.Decision, error)
	EvaluateSize(ctx context.Context, userID, fileSize int64) (*quota.Decision, error)
	Account(ctx context.Context, userID int64, filename string, size int64) error
}

// SettingsProvider настройки преобразования имен и подписей пользователя.
type SettingsProvider interface {
	UserSettings(ctx context.Context, userID int64) (models.UserSettings, error)
}

// ConfigStore доступ к служебной конфигурации.
type ConfigStore interface {
	GetConfigValue(ctx context.Context, key string) (string, error)
}

// ProcessRegistry реестр активных процессов с флагом кооперативной отмены.
type ProcessRegistry interface {
	Start(userID int64, processType, filename string) error
	IsCancelled(userID int64) bool
	End(userID int64)
}

// Status терминальное состояние задания.
type Status string

const (
	// StatusCompleted все стадии пройдены, учет выполнен.
	StatusCompleted Status = "completed"
	// StatusCancelled пользователь отменил задание; это не ошибка.
	StatusCancelled Status = "cancelled"
	// StatusFailed терминальная ошибка стадии конвейера.
	StatusFailed Status = "failed"
)

// Outcome итог одного задания.
type Outcome struct {
	Status    Status
	Delivered int
	Total     int
	Reason    string // Текст финального статусного сообщения
}

// Pipeline оркестратор доставки архивов.
type Pipeline struct {
	quota      QuotaService
	registry   ProcessRegistry
	downloader Downloader
	extractor  Extractor
	settings   SettingsProvider
	configs    ConfigStore
	log        *slog.Logger

	downloadDir      string
	progressInterval time.Duration
}

// New создает новый Pipeline.
func New(q QuotaService, reg ProcessRegistry, d Downloader, e Extractor,
	st SettingsProvider, cfgs ConfigStore, log *slog.Logger, cfg config.Download) *Pipeline {
	return &Pipeline{
		quota:            q,
		registry:         reg,
		downloader:       d,
		extractor:        e,
		settings:         st,
		configs:          cfgs,
		log:              log,
		downloadDir:      cfg.Dir,
		progressInterval: cfg.ProgressInterval,
	}
}

// Admit выполняет фазу допуска: проверку расширения, квоты и размера,
// затем регистрирует процесс в реестре. Любой отказ завершает задание
// до какого-либо ввода-вывода: временные ресурсы не создаются, запись
// в реестре не появляется.
func (p *Pipeline) Admit(ctx context.Context, req models.ArchiveRequest) error {
	const op = "pipeline.Admit"

	ext := format.Extension(req.FileName)
	if _, ok := supportedExtensions[ext]; !ok {
		return fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}

	decision, err := p.quota.EvaluateQuota(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, decision.Reason)
	}

	decision, err = p.quota.EvaluateSize(ctx, req.UserID, req.FileSize)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !decision.Allowed {
		return fmt.Errorf("%w: %s", ErrFileTooLarge, decision.Reason)
	}

	if err := p.registry.Start(req.UserID, "extraction", req.FileName); err != nil {
		return err
	}
	return nil
}

// Execute проводит допущенное задание через стадии конвейера.
// На каждом выходном пути запись реестра освобождается, а временный файл
// и каталог распаковки удаляются.
func (p *Pipeline) Execute(ctx context.Context, req models.ArchiveRequest, tr Transport) (outcome *Outcome) {
	const op = "pipeline.Execute"
	log := p.log.With(sl.Op(op), sl.UserID(req.UserID), slog.String("filename", req.FileName))

	var tempFile, extractDir string
	defer func() {
		if r := recover(); r != nil {
			log.Error("job panicked", slog.Any("panic", r))
			outcome = &Outcome{Status: StatusFailed, Reason: fmt.Sprintf("An error occurred: %v", r)}
			_ = tr.SendProgress(context.WithoutCancel(ctx), outcome.Reason)
		}
		p.registry.End(req.UserID)
		p.cleanup(tempFile, extractDir, log)
	}()

	_ = tr.SendProgress(ctx, fmt.Sprintf(
		"Processing Archive\n\nFile: %s\nSize: %s\n\nStarting download...",
		req.FileName, format.Size(req.FileSize)))

	if p.registry.IsCancelled(req.UserID) {
		return p.cancelled(ctx, tr, 0, 0)
	}

	if err := os.MkdirAll(p.downloadDir, 0o755); err != nil {
		return p.failed(ctx, tr, log, fmt.Errorf("%w: %v", ErrDownloadFailed, err),
			"Failed to download file!")
	}
	tempFile = filepath.Join(p.downloadDir, uuid.New().String()+"_"+filepath.Base(req.FileName))

	reporter := newProgressReporter(tr, p.progressInterval, "Downloading")
	if err := p.downloader.Download(ctx, req.Source, tempFile, func(current, total int64) {
		reporter.Update(ctx, current, total)
	}); err != nil {
		return p.failed(ctx, tr, log, fmt.Errorf("%w: %v", ErrDownloadFailed, err),
			"Failed to download file!")
	}

	if p.registry.IsCancelled(req.UserID) {
		return p.cancelled(ctx, tr, 0, 0)
	}

	_ = tr.SendProgress(ctx, "Extracting archive...")
	extractDir = tempFile + "_extracted"
	if err := p.extractor.Extract(ctx, tempFile, req.Password, extractDir); err != nil {
		// Текст ошибки утилиты передается пользователю дословно и не ретраится.
		return p.failed(ctx, tr, log, fmt.Errorf("%w: %v", ErrExtractionFailed, err),
			fmt.Sprintf("Extraction failed: %v", err))
	}

	if p.registry.IsCancelled(req.UserID) {
		return p.cancelled(ctx, tr, 0, 0)
	}

	files, err := enumerateFiles(extractDir, MaxFilesPerArchive)
	if err != nil {
		return p.failed(ctx, tr, log, fmt.Errorf("%s: %w", op, err),
			fmt.Sprintf("An error occurred: %v", err))
	}
	if len(files) == 0 {
		return p.failed(ctx, tr, log, ErrEmptyArchive, "No files found in archive!")
	}
	total := len(files)

	settings, err := p.settings.UserSettings(ctx, req.UserID)
	if err != nil {
		log.Warn("failed to load user settings, using defaults", sl.Err(err))
		settings = models.DefaultSettings(req.UserID)
	}
	nameRules := transform.ParseRules(settings.FilenameReplacements)
	captionRules := transform.ParseRules(settings.CaptionReplacements)

	mirrorDest := p.mirrorDestination(ctx, log)

	delivered := 0
	for idx, file := range files {
		if p.registry.IsCancelled(req.UserID) {
			return p.cancelled(ctx, tr, delivered, total)
		}

		opts := p.fileOptions(file, settings, nameRules, captionRules)
		deliveryID, err := tr.SendFile(ctx, file, opts)
		if err != nil {
			// Сбой доставки одного файла не прерывает остальные.
			log.Error("failed to send file", slog.Int("index", idx+1), sl.Err(err))
			_ = tr.SendProgress(ctx, fmt.Sprintf("Could not send file %d: %v", idx+1, err))
			continue
		}
		delivered++

		_ = tr.SendProgress(ctx, fmt.Sprintf("Uploading Files\n\n%s\nFiles: %d / %d uploaded",
			format.ProgressBar(int64(delivered), int64(total), 20), delivered, total))

		if mirrorDest != "" {
			if err := tr.Mirror(ctx, deliveryID, mirrorDest); err != nil {
				log.Warn("failed to mirror delivered file", sl.Err(err))
			}
		}

		// Локальная копия удаляется только после успешной доставки.
		if err := os.Remove(file); err != nil {
			log.Warn("failed to delete delivered file", sl.Err(err))
		}
	}

	// Учет выполняется ровно один раз на задание, с именем и размером
	// исходного архива, даже при частичных сбоях доставки.
	if err := p.quota.Account(ctx, req.UserID, req.FileName, req.FileSize); err != nil {
		log.Error("failed to account completed job", sl.Err(err))
	}

	reason := fmt.Sprintf("Extraction Complete!\n\nArchive: %s\nExtracted: %d file(s)\n\nAll files have been sent!",
		req.FileName, total)
	_ = tr.SendProgress(ctx, reason)
	log.Info("job completed", slog.Int("delivered", delivered), slog.Int("total", total))
	return &Outcome{Status: StatusCompleted, Delivered: delivered, Total: total, Reason: reason}
}

// Run выполняет допуск и, при успехе, само задание.
func (p *Pipeline) Run(ctx context.Context, req models.ArchiveRequest, tr Transport) (*Outcome, error) {
	if err := p.Admit(ctx, req); err != nil {
		return nil, err
	}
	return p.Execute(ctx, req, tr), nil
}

func (p *Pipeline) cancelled(ctx context.Context, tr Transport, delivered, total int) *Outcome {
	reason := "Process cancelled by user."
	if total > 0 {
		reason = fmt.Sprintf("Process Cancelled\n\nSent %d/%d files before cancellation.", delivered, total)
	}
	_ = tr.SendProgress(ctx, reason)
	return &Outcome{Status: StatusCancelled, Delivered: delivered, Total: total, Reason: reason}
}

func (p *Pipeline) failed(ctx context.Context, tr Transport, log *slog.Logger, err error, reason string) *Outcome {
	log.Error("job failed", sl.Err(err))
	_ = tr.SendProgress(ctx, reason)
	return &Outcome{Status: StatusFailed, Reason: reason}
}

func (p *Pipeline) mirrorDestination(ctx context.Context, log *slog.Logger) string {
	dest, err := p.configs.GetConfigValue(ctx, MirrorDestinationKey)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn("failed to read mirror destination", sl.Err(err))
		}
		return ""
	}
	return dest
}

// fileOptions строит обогащение доставки: преобразованное имя и подпись
// по настройкам пользователя. Транспорт может его игнорировать.
func (p *Pipeline) fileOptions(file string, settings models.UserSettings,
	nameRules, captionRules []transform.Rule) FileOptions {
	var prefix, suffix string
	if settings.FilenamePrefix != nil {
		prefix = *settings.FilenamePrefix
	}
	if settings.FilenameSuffix != nil {
		suffix = *settings.FilenameSuffix
	}
	name := transform.TransformFilename(filepath.Base(file), nameRules, prefix, suffix)

	opts := FileOptions{
		Name:       name,
		AsDocument: settings.UploadAsDocument,
	}
	if settings.Thumbnail != nil {
		opts.Thumbnail = *settings.Thumbnail
	}
	if settings.CustomCaption != nil {
		var size int64
		if info, err := os.Stat(file); err == nil {
			size = info.Size()
		}
		caption := transform.Substitute(*settings.CustomCaption, map[string]string{
			"filename":  name,
			"size":      format.Size(size),
			"extension": format.Extension(name),
		})
		opts.Caption = transform.Apply(caption, captionRules)
	}
	return opts
}

// enumerateFiles перечисляет обычные файлы каталога распаковки в
// лексикографическом порядке обхода, не больше cap штук.
func enumerateFiles(dir string, limit int) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		files = append(files, path)
		if len(files) >= limit {
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func (p *Pipeline) cleanup(tempFile, extractDir string, log *slog.Logger) {
	if tempFile != "" {
		if err := os.Remove(tempFile); err != nil && !os.IsNotExist(err) {
			log.Warn("failed to remove temp file", sl.Err(err))
		}
	}
	if extractDir != "" {
		if err := os.RemoveAll(extractDir); err != nil {
			log.Warn("failed to remove extraction dir", sl.Err(err))
		}
	}
}
