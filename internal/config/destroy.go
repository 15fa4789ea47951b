package config

import (
	"github.com/tauraamui/framebridge/pkg/log"
	"github.com/tauraamui/xerror"
)

func destroy() error {
	path, err := resolveConfigPath()
	if err != nil {
		return err
	}

	if err := fs.Remove(path); err != nil {
		return xerror.Errorf("unable to remove config file: %w", err)
	}
	log.Info("Removed config file: %s", path)
	return nil
}
