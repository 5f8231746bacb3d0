package transfer

import (
	"fmt"
	"os"
	"path/filepath"

	"ftpbrowser/archive"
	"ftpbrowser/config"
)

// SaveArchive writes the archive of names to dest. The archive is streamed
// to a temporary file next to dest and renamed only once it is complete, so
// a failed download never leaves a partial archive behind.
func (s *Service) SaveArchive(creds config.Credentials, dir string, names []string, dest string) (*archive.Summary, error) {
	if _, err := ValidateNames(names); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	summary, err := s.WriteArchive(creds, dir, names, tmp)
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return nil, fmt.Errorf("failed to move archive into place: %w", err)
	}
	return summary, nil
}
