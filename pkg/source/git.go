package source

import (
	"context"
	"os"
	"path/filepath"
	"regexp"

	git "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
)

var commitSHAPattern = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Git resolves sources hosted in git repositories. Ref resolution asks
// the remote first (a lightweight ls-remote, no working copy), which the
// engine also uses to skip cloning entirely when the lockfile already
// matches the remote commit.
type Git struct {
	src manifest.Source

	// cached ls-remote result so Resolve doesn't query the remote twice
	resolvedRef  string
	resolvedName plumbing.ReferenceName
	commit       string
}

// NewGit builds a git adapter from a source descriptor
func NewGit(src manifest.Source) *Git {
	return &Git{src: src}
}

// Type implements Adapter
func (g *Git) Type() string { return manifest.SourceGit }

// Display implements Adapter
func (g *Git) Display() string { return g.src.DisplayName() }

// RemoteHead implements RemoteIntrospector. An explicit ref is looked up
// directly; "auto" tries main, then master. The result is cached for the
// subsequent Resolve.
func (g *Git) RemoteHead(ctx context.Context) (string, string, error) {
	if g.commit != "" {
		return g.resolvedRef, g.commit, nil
	}

	ref := g.src.EffectiveRef()

	// A full commit SHA needs no remote lookup to identify itself
	if commitSHAPattern.MatchString(ref) {
		g.resolvedRef = ref
		g.commit = ref
		return g.resolvedRef, g.commit, nil
	}

	rem := git.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{g.src.Repo},
	})

	refs, err := rem.ListContext(ctx, &git.ListOptions{})
	if err != nil {
		return "", "", apserrors.Wrapf(err, apserrors.ErrSourceUnreachable, "cannot reach git remote %s", g.src.Repo).
			WithHint("check the repository URL, network access, and authentication")
	}

	byName := make(map[plumbing.ReferenceName]plumbing.Hash, len(refs))
	for _, r := range refs {
		if r.Type() == plumbing.HashReference {
			byName[r.Name()] = r.Hash()
		}
	}

	var candidates []string
	if ref == manifest.RefAuto {
		candidates = []string{"main", "master"}
	} else {
		candidates = []string{ref}
	}

	for _, candidate := range candidates {
		for _, name := range []plumbing.ReferenceName{
			plumbing.NewBranchReferenceName(candidate),
			plumbing.NewTagReferenceName(candidate),
			plumbing.ReferenceName(candidate),
		} {
			if hash, ok := byName[name]; ok {
				g.resolvedRef = candidate
				g.resolvedName = name
				g.commit = hash.String()
				logger := logging.GetLogger("source.git")
				logger.Debug().
					Str("repo", g.src.Repo).
					Str("ref", candidate).
					Str("commit", g.commit).
					Msg("Resolved remote ref")
				return g.resolvedRef, g.commit, nil
			}
		}
	}

	if ref == manifest.RefAuto {
		return "", "", apserrors.Newf(apserrors.ErrRefNotResolved, "neither main nor master exists at %s", g.src.Repo).
			WithHint("set an explicit 'ref:' for this source")
	}
	return "", "", apserrors.Newf(apserrors.ErrRefNotResolved, "ref %q not found at %s", ref, g.src.Repo).
		WithHint("check the branch or tag name")
}

// Resolve implements Adapter. It clones into a freshly created ephemeral
// directory whose ownership passes to the returned ResolvedSource; the
// directory is deleted when Release runs, success or failure.
func (g *Git) Resolve(ctx context.Context, baseDir string) (*ResolvedSource, error) {
	logger := logging.GetLogger("source.git")

	ref, commit, err := g.RemoteHead(ctx)
	if err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp("", "aps-git-*")
	if err != nil {
		return nil, apserrors.Wrap(err, apserrors.ErrDirCreate, "failed to create clone directory")
	}
	release := func() {
		_ = os.RemoveAll(tmpDir)
	}

	logger.Info().Str("repo", g.src.Repo).Str("ref", ref).Bool("shallow", g.src.IsShallow()).Msg("Cloning")

	if err := g.clone(ctx, tmpDir, commit); err != nil {
		release()
		return nil, err
	}

	srcPath := tmpDir
	if p := g.src.EffectivePath(); p != "." {
		srcPath = filepath.Join(tmpDir, p)
	}
	if _, statErr := os.Lstat(srcPath); statErr != nil {
		release()
		return nil, apserrors.Wrapf(statErr, apserrors.ErrSourceUnreachable,
			"path %q not found in repository %s", g.src.EffectivePath(), g.src.Repo).
			WithHint("check the 'path:' declared for this source")
	}
	if err := VerifyContained(tmpDir, srcPath); err != nil {
		release()
		return nil, err
	}

	return &ResolvedSource{
		Path:        srcPath,
		Display:     g.Display(),
		ResolvedRef: ref,
		Commit:      commit,
		release:     release,
	}, nil
}

func (g *Git) clone(ctx context.Context, dir, commit string) error {
	// A pinned commit cannot be cloned by ref name: take a full clone of
	// the default branch and check the commit out.
	if commitSHAPattern.MatchString(g.src.EffectiveRef()) {
		repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
			URL:        g.src.Repo,
			NoCheckout: true,
		})
		if err != nil {
			return apserrors.Wrapf(err, apserrors.ErrSourceUnreachable, "git clone of %s failed", g.src.Repo).
				WithHint("check the repository URL, network access, and authentication")
		}
		wt, err := repo.Worktree()
		if err != nil {
			return apserrors.Wrap(err, apserrors.ErrInternal, "cannot open cloned worktree")
		}
		if err := wt.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(commit)}); err != nil {
			return apserrors.Wrapf(err, apserrors.ErrRefNotResolved, "commit %s not found at %s", commit, g.src.Repo)
		}
		return nil
	}

	opts := &git.CloneOptions{
		URL:           g.src.Repo,
		ReferenceName: g.resolvedName,
		SingleBranch:  true,
		Tags:          git.NoTags,
	}
	if g.src.IsShallow() {
		opts.Depth = 1
	}

	if _, err := git.PlainCloneContext(ctx, dir, false, opts); err != nil {
		return apserrors.Wrapf(err, apserrors.ErrSourceUnreachable, "git clone of %s failed", g.src.Repo).
			WithHint("check the repository URL, network access, and authentication")
	}
	return nil
}
