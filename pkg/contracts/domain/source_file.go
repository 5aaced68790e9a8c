package domain

import (
	"fmt"
	"strings"
	"time"
)

// FileKind identifies the declared format of an uploaded file.
type FileKind string

const (
	FileKindCSV  FileKind = "csv"
	FileKindXLSX FileKind = "xlsx"
	FileKindXLS  FileKind = "xls"
)

// ParseFileKind maps a file extension or declared kind to a FileKind.
func ParseFileKind(s string) (FileKind, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "csv":
		return FileKindCSV, nil
	case "xlsx", "xlsm":
		return FileKindXLSX, nil
	case "xls":
		return FileKindXLS, nil
	default:
		return "", fmt.Errorf("unsupported file kind: %q", s)
	}
}

// Category declares whose performance a file describes.
type Category string

const (
	CategoryOwnTeam  Category = "own_team"
	CategoryOpponent Category = "opponent"
)

// Valid reports whether the category is one of the declared values.
func (c Category) Valid() bool {
	return c == CategoryOwnTeam || c == CategoryOpponent
}

// FileStatus is the lifecycle state of a source file.
type FileStatus string

const (
	FileStatusPending    FileStatus = "pending"
	FileStatusProcessing FileStatus = "processing"
	FileStatusCompleted  FileStatus = "completed"
	FileStatusFailed     FileStatus = "failed"
)

// Terminal reports whether the status is final. Terminal files are never
// re-run; re-processing requires a new file record.
func (s FileStatus) Terminal() bool {
	return s == FileStatusCompleted || s == FileStatusFailed
}

// SourceFile is the persisted record of one uploaded observation file.
// Only the pipeline orchestrator mutates it after creation.
type SourceFile struct {
	ID           string     `json:"id"`
	OriginalName string     `json:"original_name"`
	StoragePath  string     `json:"storage_path"`
	Kind         FileKind   `json:"kind"`
	Category     Category   `json:"category"`
	SubjectID    string     `json:"subject_id,omitempty"`
	SubjectName  string     `json:"subject_name,omitempty"`
	Level        string     `json:"level"`
	Status       FileStatus `json:"status"`
	RowCount     int        `json:"row_count"`

	// DetectedColumns is the immutable interpretation result; nil until the
	// interpretation stage has persisted one.
	DetectedColumns *ColumnInterpretationResult `json:"detected_columns,omitempty"`

	// Aggregates is populated when the file reaches a terminal state.
	Aggregates map[string]AggregateStat `json:"aggregates,omitempty"`

	// Errors accumulates non-fatal problems observed during processing.
	Errors []string `json:"errors,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
