/*
Copyright 2025 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package clonemanager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"chainguard.dev/patchpilot/reconcilers/githubreconciler"
	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

const cloneDirPrefix = "patchpilot-clone-"

// ErrNothingToCommit is returned by Commit when the working tree has no
// changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Manager clones repositories on behalf of one automation identity.
type Manager struct {
	tokenSource oauth2.TokenSource
	identity    string
	repoURL     func(owner, repo string) string
}

// Option configures a Manager.
type Option func(*Manager)

// WithRemoteURL overrides how an owner/repo pair maps to a git remote. It
// accepts anything go-git can clone, including local paths.
func WithRemoteURL(fn func(owner, repo string) string) Option {
	return func(m *Manager) {
		m.repoURL = fn
	}
}

// Lease is a private clone of one repository. It is not safe for concurrent
// use.
type Lease struct {
	manager *Manager
	path    string
	repo    *git.Repository

	sha           string
	defaultBranch string
	branch        plumbing.ReferenceName
}

// Commit describes a commit created by Lease.Commit.
type Commit struct {
	SHA string
	// Files lists the staged paths, sorted.
	Files []string
}

// New constructs a Manager. The provided OAuth2 token source must allow
// cloning and pushing to the targeted repository. Identity is used as the
// commit author name (and, when it lacks a domain, suffixed with
// @users.noreply.github.com).
func New(_ context.Context, tokenSource oauth2.TokenSource, identity string, opts ...Option) (*Manager, error) {
	if tokenSource == nil {
		return nil, errors.New("token source cannot be nil")
	}

	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, errors.New("identity cannot be empty")
	}

	m := &Manager{
		tokenSource: tokenSource,
		identity:    identity,
		repoURL:     defaultRemoteURL,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.repoURL == nil {
		return nil, errors.New("remote URL resolver cannot be nil")
	}
	return m, nil
}

// Clone checks out the default branch of owner/repo into a new temporary
// directory. Callers must Close the returned lease.
func (m *Manager) Clone(ctx context.Context, owner, repo string) (*Lease, error) {
	switch {
	case owner == "":
		return nil, errors.New("owner cannot be empty")
	case repo == "":
		return nil, errors.New("repo cannot be empty")
	}

	dir, err := os.MkdirTemp("", cloneDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	remote := m.repoURL(owner, repo)
	clog.FromContext(ctx).Infof("Cloning repository %s into %s", remote, dir)

	auth, err := m.authForRemote()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("getting token: %w", err)
	}

	r, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          remote,
		SingleBranch: true,
		Auth:         auth,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, &githubreconciler.TransportError{Op: "cloning " + remote, Err: err}
	}

	head, err := r.Head()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("HEAD of %s is not a branch: %s", remote, head.Name())
	}

	return &Lease{
		manager:       m,
		path:          dir,
		repo:          r,
		sha:           head.Hash().String(),
		defaultBranch: head.Name().Short(),
		branch:        head.Name(),
	}, nil
}

func (m *Manager) authForRemote() (*githttp.BasicAuth, error) {
	token, err := m.tokenSource.Token()
	if err != nil {
		return nil, err
	}

	return &githttp.BasicAuth{
		Username: "unused-when-using-access-tokens",
		Password: token.AccessToken,
	}, nil
}

func (m *Manager) signature() *object.Signature {
	email := m.identity
	if !strings.Contains(email, "@") {
		email = fmt.Sprintf("%s@users.noreply.github.com", email)
	}
	return &object.Signature{
		Name:  m.identity,
		Email: email,
		When:  time.Now(),
	}
}

func defaultRemoteURL(owner, repo string) string {
	return fmt.Sprintf("https://github.com/%s/%s", owner, repo)
}

// CreateBranch creates branchName at the cloned commit and checks it out.
func (l *Lease) CreateBranch(branchName string) error {
	if branchName == "" {
		return errors.New("branch name cannot be empty")
	}

	refName := plumbing.NewBranchReferenceName(branchName)
	if err := refName.Validate(); err != nil {
		return fmt.Errorf("invalid branch name %q: %w", branchName, err)
	}
	newBranchRef := plumbing.NewHashReference(refName, plumbing.NewHash(l.sha))

	if err := l.repo.Storer.SetReference(newBranchRef); err != nil {
		return fmt.Errorf("setting branch reference: %w", err)
	}

	worktree, err := l.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Branch: refName, Force: true}); err != nil {
		return fmt.Errorf("checking out branch: %w", err)
	}

	l.branch = refName
	return nil
}

// Commit stages every added, modified, and deleted file in the working tree
// and commits them on the current branch. It returns ErrNothingToCommit when
// the tree is clean.
func (l *Lease) Commit(ctx context.Context, message string) (*Commit, error) {
	if strings.TrimSpace(message) == "" {
		return nil, errors.New("commit message cannot be empty")
	}

	worktree, err := l.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	files, err := stageAll(worktree)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNothingToCommit
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: l.manager.signature(),
	})
	if err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}

	clog.FromContext(ctx).With("sha", hash.String()).
		With("files", len(files)).
		Infof("Committed changes on %s", l.branch.Short())

	return &Commit{SHA: hash.String(), Files: files}, nil
}

// stageAll mirrors `git add -A` and returns the staged paths.
func stageAll(worktree *git.Worktree) ([]string, error) {
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("getting worktree status: %w", err)
	}

	var files []string
	for path, st := range status {
		switch st.Worktree {
		case git.Unmodified:
			if st.Staging == git.Unmodified {
				continue
			}
		case git.Deleted:
			if _, err := worktree.Remove(path); err != nil {
				return nil, fmt.Errorf("staging removal of %s: %w", path, err)
			}
		default:
			if _, err := worktree.Add(path); err != nil {
				return nil, fmt.Errorf("staging %s: %w", path, err)
			}
		}
		files = append(files, path)
	}
	slices.Sort(files)
	return files, nil
}

// Push force pushes the current branch to origin.
func (l *Lease) Push(ctx context.Context) error {
	log := clog.FromContext(ctx)

	auth, err := l.manager.authForRemote()
	if err != nil {
		return fmt.Errorf("getting token: %w", err)
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("%s:%s", l.branch.String(), l.branch.String()))
	log.Infof("Force pushing to %s", refSpec)

	if err := l.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		Auth:       auth,
		Force:      true,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			log.Infof("Branch already up to date")
			return nil
		}
		return &githubreconciler.TransportError{Op: "pushing " + l.branch.Short(), Err: err}
	}

	return nil
}

// ID returns a clone ID based on the underlying working tree path.
func (l *Lease) ID() string {
	return filepath.Base(l.path)
}

// WorkingTree returns the absolute path to the lease's working directory.
func (l *Lease) WorkingTree() string {
	return l.path
}

// SHA returns the commit the lease was cloned at.
func (l *Lease) SHA() string {
	return l.sha
}

// DefaultBranch returns the remote's default branch name.
func (l *Lease) DefaultBranch() string {
	return l.defaultBranch
}

// Branch returns the short name of the checked-out branch.
func (l *Lease) Branch() string {
	return l.branch.Short()
}

// Close removes the working tree. The lease is invalid afterwards.
func (l *Lease) Close() error {
	if l.path == "" {
		return nil
	}
	err := os.RemoveAll(l.path)
	l.path = ""
	l.repo = nil
	return err
}
