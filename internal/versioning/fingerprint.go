package versioning

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
)

// Fingerprint derives the version from the content of a directory, for
// deployments that ship the web parts without git metadata.
type Fingerprint struct {
	Dir string
}

// NewFingerprint creates a provider hashing everything below dir.
func NewFingerprint(dir string) *Fingerprint {
	return &Fingerprint{Dir: dir}
}

func (f *Fingerprint) CurrentPatchVersion() (string, error) {
	var files []string
	err := filepath.WalkDir(f.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != f.Dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryVersion, "failed to fingerprint content directory").
			WithContext("dir", f.Dir).Build()
	}
	sort.Strings(files)

	var manifest, body strings.Builder
	for _, path := range files {
		rel, err := filepath.Rel(f.Dir, path)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryVersion, "failed to fingerprint content directory").Build()
		}
		// #nosec G304 -- path comes from walking the configured content dir
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.WrapError(err, errors.CategoryVersion, "failed to read content file").
				WithContext("path", path).Build()
		}
		manifest.WriteString(filepath.ToSlash(rel))
		manifest.WriteByte('\n')
		body.Write(data)
		body.WriteByte(0)
	}
	return mdfp.CalculateFingerprintFromParts(manifest.String(), body.String()), nil
}
