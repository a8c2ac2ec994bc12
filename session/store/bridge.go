package store

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const bridgeFileName = "license_type"

// LicenseBridge carries the primary license type chosen at signup over to
// the onboarding wizard. It lives outside the session record so clearing
// tokens does not lose the half-finished signup.
type LicenseBridge struct {
	file string
}

func NewLicenseBridge(dataFolder string) *LicenseBridge {
	return &LicenseBridge{file: filepath.Join(dataFolder, bridgeFileName)}
}

func (b *LicenseBridge) Save(licenseType string) error {
	if err := os.MkdirAll(filepath.Dir(b.file), 0700); err != nil {
		return errors.Wrap(err, "[LicenseBridge.Save] create data folder")
	}
	return os.WriteFile(b.file, []byte(licenseType), 0600)
}

func (b *LicenseBridge) Load() (string, error) {
	data, err := os.ReadFile(b.file)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrap(err, "[LicenseBridge.Load] read")
	}
	return strings.TrimSpace(string(data)), nil
}

func (b *LicenseBridge) Clear() error {
	if err := os.Remove(b.file); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[LicenseBridge.Clear] remove")
	}
	return nil
}
