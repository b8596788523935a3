package report

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/ColonelBlimp/azul-plugin-qrcode/internal/scan"
)

// WriteArtifacts stores the binary children and full payload texts of res
// under dir. Files are named after the input's base name plus a short hash
// of its full path, so inputs sharing a base name do not collide. It returns
// the paths written.
func WriteArtifacts(fs afero.Fs, dir string, res *scan.Result) ([]string, error) {
	if len(res.Children) == 0 && len(res.Texts) == 0 {
		return nil, nil
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create extract dir: %w", err)
	}

	base := artifactBase(res.Path)
	var written []string
	write := func(name string, data []byte) error {
		p := filepath.Join(dir, name)
		if err := afero.WriteFile(fs, p, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
		written = append(written, p)
		return nil
	}

	for i, c := range res.Children {
		if err := write(fmt.Sprintf("%s.qr%d.bin", base, i+1), c.Data); err != nil {
			return written, err
		}
	}
	for i, t := range res.Texts {
		if err := write(fmt.Sprintf("%s.qr%d.txt", base, i+1), []byte(t)); err != nil {
			return written, err
		}
	}
	return written, nil
}

// artifactBase returns "<base>-<first 8 hex digits of sha256(path)>".
func artifactBase(path string) string {
	sum := sha256.Sum256([]byte(path))
	return filepath.Base(path) + "-" + hex.EncodeToString(sum[:4])
}
