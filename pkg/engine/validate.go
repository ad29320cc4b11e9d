package engine

import (
	"context"
	"fmt"

	"github.com/westonplatter/agentic-prompt-sync/pkg/install"
	"github.com/westonplatter/agentic-prompt-sync/pkg/logging"
	"github.com/westonplatter/agentic-prompt-sync/pkg/manifest"
	"github.com/westonplatter/agentic-prompt-sync/pkg/source"
)

// CheckResult is one entry's validation outcome
type CheckResult struct {
	ID       string
	OK       bool
	Detail   string
	Warnings []string
	Err      error
}

// ValidateEntries checks every entry's source for reachability and, for
// fan-out kinds, missing skill markers. With strict any warning or
// unreachable source becomes a failure. Validation never writes to the
// destination tree.
func ValidateEntries(ctx context.Context, m *manifest.Manifest, baseDir string, strict bool) []CheckResult {
	logger := logging.GetLogger("validate")

	var results []CheckResult
	for _, entry := range m.Entries {
		res := validateEntry(ctx, entry, baseDir, strict)
		if res.Err != nil {
			logger.Warn().Str("entry", entry.ID).Err(res.Err).Msg("Entry failed validation")
		}
		results = append(results, res)
	}
	return results
}

func validateEntry(ctx context.Context, entry manifest.Entry, baseDir string, strict bool) CheckResult {
	res := CheckResult{ID: entry.ID}

	adapter, err := source.ForEntry(entry)
	if err != nil {
		res.Err = err
		return res
	}

	// Entries that need no content inspection are validated with a
	// lightweight remote lookup; cloning is reserved for fan-out kinds,
	// whose skill markers can only be checked against actual content.
	if introspector, ok := adapter.(source.RemoteIntrospector); ok && !entry.Kind.IsFanOut() {
		ref, _, err := introspector.RemoteHead(ctx)
		if err != nil {
			if strict {
				res.Err = err
				return res
			}
			res.Warnings = append(res.Warnings, err.Error())
			res.Detail = adapter.Display()
			return res
		}
		res.Detail = fmt.Sprintf("%s @ %s", entry.Source.Repo, ref)
		res.OK = true
		return res
	}

	resolved, err := adapter.Resolve(ctx, baseDir)
	if err != nil {
		if strict {
			res.Err = err
			return res
		}
		res.Warnings = append(res.Warnings, err.Error())
		res.Detail = adapter.Display()
		return res
	}
	defer resolved.Release()

	res.Detail = adapter.Display()
	if resolved.ResolvedRef != "" {
		res.Detail = fmt.Sprintf("%s @ %s", entry.Source.Repo, resolved.ResolvedRef)
	}

	if entry.Kind.IsFanOut() {
		children, err := install.FanOutChildren(resolved.Path, entry.Include)
		if err != nil {
			res.Err = err
			return res
		}
		warnings, err := install.ValidateMarkers(resolved.Path, children, strict)
		if err != nil {
			res.Err = err
			return res
		}
		res.Warnings = append(res.Warnings, warnings...)
	}

	res.OK = res.Err == nil
	return res
}
