// Package gitrepo derives on-disk paths and remote URIs from recipes and
// performs the git operations that materialize a package's repository:
// clone, multi-remote configuration, and ref/branch/tag checkout. All git
// invocations go through an execx.Runner.
package gitrepo

import (
	"path/filepath"
	"strings"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/recipe"
)

// protocolTable maps transfer protocols to URI construction parts.
var protocolTable = map[string]struct {
	prefix    string
	separator string
}{
	"https": {"https://", "/"},
	"ssh":   {"git@", ":"},
}

// hostTable maps symbolic host names to canonical domains. A host value
// containing a dot is treated as an explicit domain and passed through.
var hostTable = map[string]string{
	"github": "github.com",
	"gitlab": "gitlab.com",
}

// hostDomain resolves a recipe host to a domain name.
func hostDomain(host string) (string, error) {
	if domain, ok := hostTable[host]; ok {
		return domain, nil
	}
	if strings.Contains(host, ".") {
		return host, nil
	}
	return "", errors.New(errors.ErrCodeUnsupportedHost, "unsupported host %q", host)
}

// DirName returns the deterministic repository directory name
// <repo-or-local-override>.<owner>.<host> for a recipe.
func DirName(rec *recipe.Recipe) (string, error) {
	base := rec.LocalRepo
	owner := ""
	if i := strings.Index(rec.Repo, "/"); i >= 0 {
		owner = rec.Repo[:i]
		if base == "" {
			base = rec.Repo[i+1:]
		}
	} else if base == "" {
		base = rec.Repo
	}
	if base == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "recipe for %s names no repository", rec.Package)
	}

	parts := []string{base}
	if owner != "" {
		parts = append(parts, owner)
	}
	if rec.Host != "" {
		parts = append(parts, rec.Host)
	}
	return strings.Join(parts, "."), nil
}

// Path returns the repository's absolute path under the package store.
func Path(store string, rec *recipe.Recipe) (string, error) {
	name, err := DirName(rec)
	if err != nil {
		return "", err
	}
	return filepath.Join(store, name), nil
}

// URI builds the remote URI for a recipe:
// <protocol-prefix><host-domain><separator><repo>.git.
func URI(rec *recipe.Recipe) (string, error) {
	return buildURI(rec.EffectiveProtocol(), rec.Host, rec.Repo)
}

// RemoteURI builds a remote's URI, falling back to the recipe for any
// addressing field the remote does not override.
func RemoteURI(rec *recipe.Recipe, r recipe.Remote) (string, error) {
	protocol := r.Protocol
	if protocol == "" {
		protocol = rec.EffectiveProtocol()
	}
	host := r.Host
	if host == "" {
		host = rec.Host
	}
	repo := r.Repo
	if repo == "" {
		repo = rec.Repo
	}
	return buildURI(protocol, host, repo)
}

func buildURI(protocol, host, repo string) (string, error) {
	parts, ok := protocolTable[protocol]
	if !ok {
		return "", errors.New(errors.ErrCodeUnsupportedProtocol, "unsupported protocol %q", protocol)
	}
	domain, err := hostDomain(host)
	if err != nil {
		return "", err
	}
	return parts.prefix + domain + parts.separator + repo + ".git", nil
}
