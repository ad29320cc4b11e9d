package engine

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/westonplatter/agentic-prompt-sync/pkg/backup"
	"github.com/westonplatter/agentic-prompt-sync/pkg/checksum"
	"github.com/westonplatter/agentic-prompt-sync/pkg/install"
	"github.com/westonplatter/agentic-prompt-sync/pkg/lockfile"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/source"

	apserrors "github.com/westonplatter/agentic-prompt-sync/pkg/errors"
)

// Engine processes manifest entries sequentially. No mutable state is
// shared across entries beyond the lockfile, which is updated in memory
// per entry and persisted atomically once per run.
type Engine struct {
	BaseDir  string
	Lock     *lockfile.Lockfile
	LockPath string
	Opts     Options

	// Confirm decides overwrite conflicts; tests inject their own.
	// Defaults to the interactive prompt.
	Confirm func(destPath string, assumeYes bool) (bool, error)

	logger zerolog.Logger
}

// New builds an engine rooted at the manifest directory
func New(baseDir string, lock *lockfile.Lockfile, lockPath string, opts Options) *Engine {
	return &Engine{
		BaseDir:  baseDir,
		Lock:     lock,
		LockPath: lockPath,
		Opts:     opts,
		Confirm:  install.ConfirmOverwrite,
		logger:   logging.GetLogger("engine"),
	}
}

// Run processes the selected entries in manifest order. Per-entry errors
// are reported in the results and do not stop the run; hard-stop errors
// (path traversal, lockfile corruption) abort immediately. The lockfile
// is persisted even on abort so completed entries keep their state.
func (e *Engine) Run(ctx context.Context, m *manifest.Manifest) ([]Result, error) {
	entries, err := e.selectEntries(m)
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, entry := range entries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			results = append(results, Result{
				ID:     entry.ID,
				Status: StatusFailed,
				Err:    apserrors.Wrap(ctxErr, apserrors.ErrCancelled, "run cancelled"),
			})
			break
		}

		res := e.processEntry(ctx, entry)
		results = append(results, res)

		if res.Err != nil && apserrors.IsHardStop(res.Err) {
			e.logger.Error().Str("entry", entry.ID).Err(res.Err).Msg("Hard stop, aborting run")
			if saveErr := e.persist(); saveErr != nil {
				return results, saveErr
			}
			return results, res.Err
		}
	}

	if err := e.persist(); err != nil {
		return results, err
	}
	return results, nil
}

func (e *Engine) persist() error {
	if e.Opts.DryRun {
		return nil
	}
	return e.Lock.Save(e.LockPath)
}

// selectEntries applies the id filter, rejecting unknown ids
func (e *Engine) selectEntries(m *manifest.Manifest) ([]manifest.Entry, error) {
	if len(e.Opts.Only) == 0 {
		return m.Entries, nil
	}

	for _, id := range e.Opts.Only {
		if _, ok := m.Lookup(id); !ok {
			return nil, apserrors.Newf(apserrors.ErrEntryNotFound, "no entry with id %q in manifest", id).
				WithHint("check the --only values against `aps status`")
		}
	}

	wanted := make(map[string]struct{}, len(e.Opts.Only))
	for _, id := range e.Opts.Only {
		wanted[id] = struct{}{}
	}

	var selected []manifest.Entry
	for _, entry := range m.Entries {
		if _, ok := wanted[entry.ID]; ok {
			selected = append(selected, entry)
		}
	}
	return selected, nil
}

// processEntry runs one entry through the full pipeline:
// resolve -> fast path? -> checksum -> conflict -> backup -> install ->
// measure -> lock upsert. The resolved source's ephemeral storage is
// released on every exit path.
func (e *Engine) processEntry(ctx context.Context, entry manifest.Entry) Result {
	logger := e.logger.With().Str("entry", entry.ID).Logger()
	logger.Info().Str("kind", string(entry.Kind)).Msg("Processing entry")

	adapter, err := source.ForEntry(entry)
	if err != nil {
		return failed(entry.ID, err)
	}

	destPath := filepath.Join(e.BaseDir, entry.Destination())

	// Git fast path: when the remote commit matches the lockfile and the
	// destination still matches the stored checksum, skip the clone and
	// the install entirely.
	if skipped, ok := e.tryFastPath(ctx, entry, adapter, destPath, logger); ok {
		return skipped
	}

	resolved, err := adapter.Resolve(ctx, e.BaseDir)
	if err != nil {
		return failed(entry.ID, err)
	}
	defer resolved.Release()

	candidate, err := checksum.Digest(resolved.Path)
	if err != nil {
		return failed(entry.ID, err)
	}
	logger.Debug().Str("checksum", candidate).Msg("Computed candidate digest")

	if e.Lock.ChecksumMatches(entry.ID, candidate) {
		logger.Info().Msg("Entry is up to date (checksum match)")
		return Result{ID: entry.ID, Status: StatusUpToDate}
	}

	logicalName := filepath.Base(resolved.Path)
	conflict, err := backup.IsConflict(destPath, entry.Kind.IsDirectory(), logicalName, candidate)
	if err != nil {
		return failed(entry.ID, err)
	}

	var backupPath string
	if conflict && !e.Opts.DryRun {
		confirmed, err := e.Confirm(destPath, e.Opts.Yes)
		if err != nil {
			return failed(entry.ID, err)
		}
		if !confirmed {
			logger.Info().Str("dest", destPath).Msg("User declined overwrite")
			return Result{ID: entry.ID, Status: StatusDeclined}
		}

		// The snapshot must complete before any destructive write
		backupPath, err = backup.Create(e.BaseDir, destPath)
		if err != nil {
			return failed(entry.ID, err)
		}
	}

	installOpts := install.Options{
		Strict:         e.Opts.Strict,
		FollowSymlinks: resolved.FollowSymlinks,
	}

	if e.Opts.DryRun {
		// Marker validation still runs so strict failures surface in
		// preview, but nothing is written
		var warnings []string
		if entry.Kind.IsFanOut() {
			children, err := install.FanOutChildren(resolved.Path, entry.Include)
			if err != nil {
				return failed(entry.ID, err)
			}
			warnings, err = install.ValidateMarkers(resolved.Path, children, e.Opts.Strict)
			if err != nil {
				return failed(entry.ID, err)
			}
		}
		return Result{ID: entry.ID, Status: StatusWouldInstall, WouldBackup: conflict, Warnings: warnings}
	}

	warnings, err := install.Install(ctx, entry.Kind, resolved.Path, destPath, entry.Include, installOpts)
	if err != nil {
		return failed(entry.ID, err)
	}

	if err := e.verifyInstalled(entry, resolved.Path, destPath, candidate); err != nil {
		return failed(entry.ID, err)
	}

	e.Lock.Upsert(entry.ID, lockfile.Entry{
		Source:        adapter.Display(),
		Dest:          entry.Destination(),
		ResolvedRef:   resolved.ResolvedRef,
		Commit:        resolved.Commit,
		LastUpdatedAt: time.Now().UTC(),
		Checksum:      candidate,
	})

	logger.Info().Str("dest", destPath).Msg("Installed")
	return Result{ID: entry.ID, Status: StatusInstalled, BackupPath: backupPath, Warnings: warnings}
}

// tryFastPath checks remote state against the lockfile without cloning.
// Returns (result, true) when the entry can be skipped.
func (e *Engine) tryFastPath(ctx context.Context, entry manifest.Entry, adapter source.Adapter, destPath string, logger zerolog.Logger) (Result, bool) {
	introspector, ok := adapter.(source.RemoteIntrospector)
	if !ok {
		return Result{}, false
	}
	locked, ok := e.Lock.Get(entry.ID)
	if !ok || locked.Commit == "" {
		return Result{}, false
	}

	_, commit, err := introspector.RemoteHead(ctx)
	if err != nil {
		// Introspection failure is not fatal here: Resolve reports it
		// with full context if the remote is truly unreachable
		logger.Debug().Err(err).Msg("Remote introspection failed, falling through to resolve")
		return Result{}, false
	}
	if commit != locked.Commit {
		return Result{}, false
	}

	destDigest, err := e.measureDest(entry, destPath)
	if err != nil || destDigest != locked.Checksum {
		return Result{}, false
	}

	logger.Info().Str("commit", commit).Msg("Entry is up to date (remote commit match)")
	return Result{ID: entry.ID, Status: StatusFastPath}, true
}

// measureDest digests the destination using the same logical naming the
// candidate digest used
func (e *Engine) measureDest(entry manifest.Entry, destPath string) (string, error) {
	if entry.Kind.IsDirectory() {
		return checksum.Digest(destPath)
	}
	return checksum.FileNamed(destPath, filepath.Base(entry.Source.EffectivePath()))
}

// verifyInstalled re-measures the installed result where a byte-exact
// expectation holds. Only single files qualify: overlay targets keep
// pre-existing extra files and fan-out installs apply include filters,
// so their destination digests legitimately diverge from the candidate.
// A mismatch indicates an engine bug, never a user error.
func (e *Engine) verifyInstalled(entry manifest.Entry, srcPath, destPath, candidate string) error {
	if entry.Kind.IsDirectory() {
		return nil
	}

	measured, err := checksum.FileNamed(destPath, filepath.Base(srcPath))
	if err != nil {
		return err
	}
	if measured != candidate {
		return apserrors.Newf(apserrors.ErrChecksumMismatch,
			"installed content at %s does not match the resolved source (%s != %s)", destPath, measured, candidate).
			WithHint("this is an aps bug; please report it")
	}
	return nil
}

func failed(id string, err error) Result {
	return Result{ID: id, Status: StatusFailed, Err: err}
}
