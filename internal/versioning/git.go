package versioning

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/rulesweb/internal/foundation/errors"
	"git.home.luguber.info/inful/rulesweb/internal/logfields"
)

var patchTag = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)$`)

// Git reads the version from the tags of the content repository.
//
// The version is the highest X.Y.Z tag of the configured minor version
// (e.g. "1.2" selects 1.2.7 over 1.2.3 and ignores 1.3.0). Without a minor
// version the highest tag overall wins. When no tag matches, the HEAD
// commit hash is used so every commit still yields a distinct version.
type Git struct {
	RepoPath     string
	MinorVersion string
}

// NewGit creates a provider for the repository containing repoPath.
func NewGit(repoPath, minorVersion string) *Git {
	return &Git{RepoPath: repoPath, MinorVersion: strings.TrimPrefix(strings.TrimSpace(minorVersion), "v")}
}

type semver struct {
	major, minor, patch int
	tag                 string
}

func (a semver) less(b semver) bool {
	if a.major != b.major {
		return a.major < b.major
	}
	if a.minor != b.minor {
		return a.minor < b.minor
	}
	return a.patch < b.patch
}

func (g *Git) CurrentPatchVersion() (string, error) {
	repo, err := git.PlainOpenWithOptions(g.RepoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryVersion, "failed to open content repository").
			WithContext("repo_path", g.RepoPath).Build()
	}

	best, found, err := g.highestTag(repo)
	if err != nil {
		return "", err
	}
	if found {
		return strings.TrimPrefix(best.tag, "v"), nil
	}

	head, err := repo.Head()
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryVersion, "repository has neither matching tags nor HEAD").
			WithContext("repo_path", g.RepoPath).Build()
	}
	slog.Debug("No patch tag for minor version, using HEAD",
		slog.String("minor_version", g.MinorVersion), logfields.Version(head.Hash().String()))
	return head.Hash().String(), nil
}

func (g *Git) highestTag(repo *git.Repository) (semver, bool, error) {
	tags, err := repo.Tags()
	if err != nil {
		return semver{}, false, errors.WrapError(err, errors.CategoryVersion, "failed to list tags").Build()
	}
	defer tags.Close()

	var best semver
	found := false
	err = tags.ForEach(func(ref *plumbing.Reference) error {
		v, ok := parseTag(ref.Name().Short())
		if !ok || !g.matchesMinor(v) {
			return nil
		}
		if !found || best.less(v) {
			best, found = v, true
		}
		return nil
	})
	if err != nil {
		return semver{}, false, errors.WrapError(err, errors.CategoryVersion, "failed to walk tags").Build()
	}
	return best, found, nil
}

func (g *Git) matchesMinor(v semver) bool {
	if g.MinorVersion == "" {
		return true
	}
	return fmt.Sprintf("%d.%d", v.major, v.minor) == g.MinorVersion
}

func parseTag(name string) (semver, bool) {
	m := patchTag.FindStringSubmatch(name)
	if m == nil {
		return semver{}, false
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return semver{major: major, minor: minor, patch: patch, tag: name}, true
}
