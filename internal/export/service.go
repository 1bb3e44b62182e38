// Package export writes and restores JSON backups of the notes data.
package export

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/hotshotfinger/geprekpos/backend/internal/errors"
	"github.com/hotshotfinger/geprekpos/backend/internal/models"
	"github.com/hotshotfinger/geprekpos/backend/internal/notes"
)

// NotesSource is the slice of the store the backup service reads from and
// restores into.
type NotesSource interface {
	FinancialNotes() []models.FinancialNote
	GeneralNotes() []models.GeneralNote
	ImportFinancialNote(models.FinancialNote) bool
	ImportGeneralNote(models.GeneralNote) bool
}

// Service exports and imports notes backups.
type Service struct {
	store NotesSource
}

// NewService creates a backup Service.
func NewService(store NotesSource) *Service {
	return &Service{store: store}
}

// Backup is the on-disk backup document.
type Backup struct {
	FinancialNotes []models.FinancialNote          `json:"financialNotes"`
	GeneralNotes   []models.GeneralNote            `json:"generalNotes"`
	Categories     map[string]notes.CategoryConfig `json:"categories"`

	// Notes is the legacy single-list format. Populated only when reading
	// old backups; never written.
	Notes []models.FinancialNote `json:"notes,omitempty"`
}

// ExportResult describes a completed export.
type ExportResult struct {
	FilePath  string        `json:"filePath"`
	SizeBytes int64         `json:"sizeBytes"`
	NoteCount int           `json:"noteCount"`
	Checksum  string        `json:"checksum"`
	Duration  time.Duration `json:"-"`
}

// ImportResult describes a completed import. Existing notes are skipped,
// never overwritten.
type ImportResult struct {
	ImportedCount int           `json:"importedCount"`
	SkippedCount  int           `json:"skippedCount"`
	Legacy        bool          `json:"legacy"`
	Duration      time.Duration `json:"-"`
}

// Export writes every note plus the category registry to a JSON file. An
// empty outputPath defaults to exports/geprek_notes_backup_<date>.json.
func (s *Service) Export(outputPath string) (*ExportResult, error) {
	start := time.Now()

	backup := Backup{
		FinancialNotes: s.store.FinancialNotes(),
		GeneralNotes:   s.store.GeneralNotes(),
		Categories:     make(map[string]notes.CategoryConfig),
	}
	for _, cfg := range notes.Categories() {
		backup.Categories[cfg.Name] = cfg
	}

	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize backup: %w", err)
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("exports/geprek_notes_backup_%s.json",
			start.Format("2006-01-02"))
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create exports directory: %w", err)
	}

	tempPath := outputPath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write backup: %w", err)
	}
	if err := os.Rename(tempPath, outputPath); err != nil {
		return nil, fmt.Errorf("failed to finalize backup: %w", err)
	}

	return &ExportResult{
		FilePath:  outputPath,
		SizeBytes: int64(len(data)),
		NoteCount: len(backup.FinancialNotes) + len(backup.GeneralNotes),
		Checksum:  fmt.Sprintf("%x", sha256.Sum256(data)),
		Duration:  time.Since(start),
	}, nil
}

// ImportFile restores a backup from disk.
func (s *Service) ImportFile(path string) (*ImportResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return s.Import(data)
}

// Import restores a backup document. Notes already present locally are
// counted as skipped; the category registry is merged with the built-ins.
// Legacy backups carrying a bare "notes" list are accepted and treated as
// financial notes.
func (s *Service) Import(data []byte) (*ImportResult, error) {
	start := time.Now()

	var backup Backup
	if err := json.Unmarshal(data, &backup); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBackupCorrupted, "backup is not valid JSON", err)
	}

	financial := backup.FinancialNotes
	legacy := false
	if len(financial) == 0 && len(backup.Notes) > 0 {
		financial = backup.Notes
		legacy = true
	}

	if len(financial) == 0 && len(backup.GeneralNotes) == 0 && len(backup.Categories) == 0 {
		return nil, apperrors.New(apperrors.ErrBackupCorrupted, "backup contains no notes data")
	}

	result := &ImportResult{Legacy: legacy}
	for _, note := range financial {
		if s.store.ImportFinancialNote(note) {
			result.ImportedCount++
		} else {
			result.SkippedCount++
		}
	}
	for _, note := range backup.GeneralNotes {
		if s.store.ImportGeneralNote(note) {
			result.ImportedCount++
		} else {
			result.SkippedCount++
		}
	}

	if len(backup.Categories) > 0 {
		notes.ReplaceAll(backup.Categories)
	}

	result.Duration = time.Since(start)
	return result, nil
}
