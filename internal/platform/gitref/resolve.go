package gitref

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
)

var fullHash = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// IsCommitHash reports whether ref is already a full commit hash.
func IsCommitHash(ref string) bool {
	return fullHash.MatchString(ref)
}

// Resolve returns the commit hash ref points to in the repository at url.
// An empty ref means HEAD. Full hashes are returned without contacting
// the remote.
func Resolve(ctx context.Context, url, ref string) (string, error) {
	if IsCommitHash(ref) {
		return strings.ToLower(ref), nil
	}
	if ref == "" {
		ref = string(plumbing.HEAD)
	}

	remote := git.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &git.ListOptions{PeelingOption: git.AppendPeeled})
	if err != nil {
		return "", fmt.Errorf("failed to list refs of %s: %w", url, err)
	}

	hash, ok := match(refs, ref)
	if !ok {
		return "", fmt.Errorf("ref %q not found in %s", ref, url)
	}
	return hash, nil
}

// match looks ref up the way git rev-parse would for a remote: exact
// names first, then branches, then tags. Annotated tags resolve to the
// commit they point at when the remote advertises it.
func match(refs []*plumbing.Reference, ref string) (string, bool) {
	byName := make(map[string]*plumbing.Reference, len(refs))
	for _, r := range refs {
		byName[r.Name().String()] = r
	}

	candidates := []string{
		ref,
		"refs/heads/" + ref,
		"refs/tags/" + ref + "^{}",
		"refs/tags/" + ref,
	}
	for _, name := range candidates {
		r, ok := byName[name]
		if !ok {
			continue
		}
		// Symbolic refs such as HEAD point at another advertised ref.
		for depth := 0; r.Type() == plumbing.SymbolicReference && depth < 5; depth++ {
			r, ok = byName[r.Target().String()]
			if !ok {
				return "", false
			}
		}
		if r.Hash().IsZero() {
			return "", false
		}
		return r.Hash().String(), true
	}
	return "", false
}
