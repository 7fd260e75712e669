// Package hooks implements the lifecycle operations run by the hosting
// agent around context compaction: preserving state before a compaction
// and advising when a manual compaction is worthwhile.
package hooks

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/starford/raido/internal/store"
	"github.com/starford/raido/internal/workspace"
)

// DefaultCompactThreshold is the tool-call count at which the first
// compaction suggestion fires.
const DefaultCompactThreshold = 50

// suggestion cadence after the threshold has been crossed.
const suggestInterval = 25

// PreCompact records a compaction event: it appends a timestamped line
// to the compaction log and a marker to the most recently modified
// session file, so the session record shows where context was
// summarized. Failures are logged and swallowed; a hook must never
// block the host.
func PreCompact(st *store.Store, ws *workspace.Workspace, now time.Time, logger *slog.Logger) {
	if err := workspace.EnsureDir(ws.SessionsDir()); err != nil {
		logger.Error("precompact: ensure sessions dir failed", slog.String("error", err.Error()))
		return
	}

	line := fmt.Sprintf("[%s] Context compaction triggered\n", workspace.DateTimeString(now))
	if !st.Append(ws.CompactionLogPath(), line) {
		logger.Error("precompact: compaction log append failed")
	}

	sessions := st.All()
	if len(sessions) == 0 {
		logger.Info("precompact: no active session to annotate")
		return
	}
	marker := fmt.Sprintf("\n---\n**[Compaction occurred at %s]** - Context was summarized\n",
		workspace.TimeString(now))
	if !st.Append(sessions[0].SessionPath, marker) {
		logger.Error("precompact: session marker append failed",
			slog.String("path", sessions[0].SessionPath))
		return
	}
	logger.Info("precompact: state saved", slog.String("session", sessions[0].Filename))
}

// Advice is the outcome of a SuggestCompact call.
type Advice struct {
	Count   int
	Message string // empty when no suggestion is due
}

// SuggestCompact bumps the per-session tool-call counter kept in
// counterDir and returns advice when a checkpoint is reached: once at
// the threshold, then at every interval after it.
func SuggestCompact(counterDir, sessionID string, threshold int, logger *slog.Logger) Advice {
	if threshold <= 0 {
		threshold = DefaultCompactThreshold
	}
	if sessionID == "" {
		sessionID = "default"
	}
	counterFile := filepath.Join(counterDir, "raido-tool-count-"+sessionID)

	count := 1
	if data, err := os.ReadFile(counterFile); err == nil {
		if prev, parseErr := strconv.Atoi(strings.TrimSpace(string(data))); parseErr == nil {
			count = prev + 1
		}
	}
	if err := os.WriteFile(counterFile, []byte(strconv.Itoa(count)), 0o644); err != nil {
		logger.Warn("suggest-compact: counter write failed",
			slog.String("path", counterFile), slog.String("error", err.Error()))
	}

	advice := Advice{Count: count}
	switch {
	case count == threshold:
		advice.Message = fmt.Sprintf("%d tool calls reached - consider /compact if transitioning phases", threshold)
	case count > threshold && count%suggestInterval == 0:
		advice.Message = fmt.Sprintf("%d tool calls - good checkpoint for /compact if context is stale", count)
	}
	return advice
}
