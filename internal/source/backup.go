package source

import (
	"context"
	"fmt"
	"os"

	apperrors "github.com/fraud-signal-engine/internal/errors"
	"github.com/fraud-signal-engine/internal/types"
)

// BackupFile reads the static local snapshot consulted when both network
// sources fail and no usable snapshot is retained.
type BackupFile struct {
	path string
}

// NewBackupFile creates a backup reader for path
func NewBackupFile(path string) *BackupFile {
	return &BackupFile{path: path}
}

// Name returns the source name
func (b *BackupFile) Name() string { return "backup-file" }

// Kind returns SourceBackupFile
func (b *BackupFile) Kind() types.SourceKind { return types.SourceBackupFile }

// Path returns the file location
func (b *BackupFile) Path() string { return b.path }

// Fetch reads and parses the backup file. A missing file is a source failure.
func (b *BackupFile) Fetch(ctx context.Context) ([]types.TransactionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewSourceUnavailableError(b.Name(), err)
	}
	if b.path == "" {
		return nil, apperrors.NewSourceUnavailableError(b.Name(), fmt.Errorf("no backup file configured"))
	}

	data, err := os.ReadFile(b.path)
	if err != nil {
		return nil, apperrors.NewSourceUnavailableError(b.Name(), err)
	}
	return decodeRecords(b.Name(), data)
}
