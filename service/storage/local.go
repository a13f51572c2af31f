package storage

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/exhibit-guide/service/config"
)

const URLPrefix = "/snapshots/"

type localService struct {
	folder string
}

func NewLocal(cfgsvc config.IService) (IService, error) {
	folder := cfgsvc.GetSnapshotsFolder()
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, xerrors.Errorf("failed to create snapshots folder %s: %w", folder, err)
	}

	return &localService{
		folder: folder,
	}, nil
}

func (svc *localService) StoreSnapshot(name string, jpeg []byte) (string, error) {
	file, err := svc.path(name)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(file, jpeg, 0o644); err != nil {
		return "", xerrors.Errorf("failed to write snapshot %s: %w", name, err)
	}

	return URLPrefix + filepath.Base(file), nil
}

// Open returns the on-disk path of a stored snapshot.
func (svc *localService) Open(name string) (string, error) {
	file, err := svc.path(name)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(file); err != nil {
		return "", xerrors.Errorf("snapshot %s: %w", name, err)
	}

	return file, nil
}

func (svc *localService) path(name string) (string, error) {
	name = strings.TrimPrefix(name, URLPrefix)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", xerrors.Errorf("invalid snapshot name %q", name)
	}
	if filepath.Ext(name) == "" {
		name += ".jpg"
	}
	return filepath.Join(svc.folder, name), nil
}
