// =============================================================================
// Labor Ledger - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the console, including:
//   - Export directory management
//   - Dated export file naming
//   - JSON and CSV export writing
//   - Validation error log generation
//   - Archival of imported spreadsheets
//
// EXPORT NAMING:
//   admin_console_data_<date>.json   full data export
//   <kind>_issues_<date>.json        duplicate/unmatched report for one kind
//   <kind>_records_<date>.csv        persisted records for one kind
//   <kind>_error_log_<timestamp>.txt validation errors of a rejected upload
//
// =============================================================================

package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/ginjaninja78/labor-ledger/internal/validation"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles export and archive files.
type FileManager struct {
	// OutputDir is where exports and error logs are written.
	OutputDir string

	// ArchiveDir receives imported spreadsheets when archiving is requested.
	// Empty means OutputDir/archive.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2025/03/01/work.xlsx
	UseTimestampSubdirs bool

	// Now is the clock used for dated names. Defaults to time.Now.
	Now func() time.Time
}

// NewFileManager creates a FileManager writing under outputDir.
func NewFileManager(outputDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: filepath.Join(outputDir, "archive"),
		Now:        time.Now,
	}
}

func (fm *FileManager) now() time.Time {
	if fm.Now == nil {
		return time.Now()
	}
	return fm.Now()
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates the output directory if it doesn't exist.
//
// RETURNS:
//   - An error if the directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name pattern.
//
// PARAMETERS:
//   - format: The format string for the file name.
//     Placeholders:
//     {uuid}      - A random UUID
//     {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//     {date}      - Current date (YYYY-MM-DD)
//     {kind}      - Record kind, from params
//   - params: Additional placeholder values.
//   - now: The clock reading to format.
//
// EXAMPLE:
//
//	format: "{kind}_records_{date}.csv"
//	params: {"kind": "work"}
//	output: "work_records_2025-03-01.csv"
func GenerateOutputFileName(format string, params map[string]string, now time.Time) string {
	replacements := map[string]string{
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("2006-01-02"),
	}
	if strings.Contains(format, "{uuid}") {
		replacements["{uuid}"] = uuid.New().String()
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// Export file name patterns.
const (
	FullExportPattern    = "admin_console_data_{date}.json"
	IssuesExportPattern  = "{kind}_issues_{date}.json"
	RecordsExportPattern = "{kind}_records_{date}.csv"
	ErrorLogPattern      = "{kind}_error_log_{timestamp}.txt"
)

// ExportPath returns the full path for a pattern under OutputDir.
func (fm *FileManager) ExportPath(pattern, kind string) string {
	name := GenerateOutputFileName(pattern, map[string]string{"kind": kind}, fm.now())
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// EXPORT WRITING
// =============================================================================

// WriteJSON writes v as indented JSON to the pattern's path.
//
// RETURNS:
//   - The path written.
//   - An error if encoding or writing fails.
func (fm *FileManager) WriteJSON(pattern, kind string, v any) (string, error) {
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}
	path := fm.ExportPath(pattern, kind)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return path, nil
}

// WriteCSV writes a slice of csv-tagged structs to the pattern's path.
func (fm *FileManager) WriteCSV(pattern, kind string, rows any) (string, error) {
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}
	path := fm.ExportPath(pattern, kind)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return "", fmt.Errorf("failed to write csv export: %w", err)
	}
	return path, nil
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// WriteErrorLog writes the validation errors of a rejected upload.
//
// PARAMETERS:
//   - kind: The record kind of the upload.
//   - source: The uploaded file name.
//   - entries: The findings to write, errors first.
//
// RETURNS:
//   - The path to the error log file, or "" when there is nothing to write.
//   - An error if writing fails.
func (fm *FileManager) WriteErrorLog(kind, source string, entries []*validation.ValidationError) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}
	if err := fm.EnsureDirectories(); err != nil {
		return "", err
	}

	now := fm.now()
	logPath := fm.ExportPath(ErrorLogPattern, kind)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Labor Ledger - Error Log\n"+
		"Generated: %s\n"+
		"Source:    %s\n"+
		"Kind:      %s\n"+
		"Total:     %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"), source, kind, len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "#%d [%s]\n", i+1, strings.ToUpper(entry.Severity))
		if entry.RowNumber > 0 {
			fmt.Fprintf(writer, "  Row:      %d\n", entry.RowNumber)
		}
		if entry.Field != "" {
			fmt.Fprintf(writer, "  Field:    %s\n", entry.Field)
		}
		if entry.Value != "" {
			fmt.Fprintf(writer, "  Value:    %s\n", entry.Value)
		}
		fmt.Fprintf(writer, "  Rule:     %s\n", entry.Rule)
		fmt.Fprintf(writer, "  Message:  %s\n\n", entry.Message)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an imported spreadsheet into the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archiveDir := fm.ArchiveDir
	if archiveDir == "" {
		archiveDir = filepath.Join(fm.OutputDir, "archive")
	}
	if fm.UseTimestampSubdirs {
		now := fm.now()
		archiveDir = filepath.Join(archiveDir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()))
	}
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, filepath.Base(filePath))
	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device moves fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}
	return archivePath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
