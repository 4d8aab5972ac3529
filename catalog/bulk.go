package catalog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jacqueshq/jacques/log"
)

// Phase names for bulk progress events.
const (
	PhaseScanning   = "scanning"
	PhaseExtracting = "extracting"
)

// Progress is one bulk progress event.
type Progress struct {
	RunID         string `json:"runId"`
	Phase         string `json:"phase"`
	Current       string `json:"current"`
	TotalSessions int    `json:"totalSessions"`
	Extracted     int    `json:"extracted"`
	Skipped       int    `json:"skipped"`
	Errors        int    `json:"errors"`
}

// ProgressFunc receives progress events during a bulk run. Callers wanting
// cooperative cancellation simply stop issuing further calls from their side;
// a single in-flight session extraction is never interrupted.
type ProgressFunc func(Progress)

// BulkOptions controls a bulk extraction run.
type BulkOptions struct {
	Force    bool
	Progress ProgressFunc
}

// BulkResult aggregates counts over a bulk run.
type BulkResult struct {
	RunID         string `json:"runId"`
	TotalSessions int    `json:"totalSessions"`
	Extracted     int    `json:"extracted"`
	Skipped       int    `json:"skipped"`
	Errors        int    `json:"errors"`
}

// ExtractProjectCatalog extracts every session log in one project directory.
// Logs are processed in lexical filename order for reproducibility. One
// session's failure increments Errors and the batch continues.
func (s *Service) ExtractProjectCatalog(projectDir string, opts BulkOptions) BulkResult {
	result := BulkResult{RunID: uuid.NewString()}

	emit := func(phase, current string) {
		if opts.Progress != nil {
			opts.Progress(Progress{
				RunID:         result.RunID,
				Phase:         phase,
				Current:       current,
				TotalSessions: result.TotalSessions,
				Extracted:     result.Extracted,
				Skipped:       result.Skipped,
				Errors:        result.Errors,
			})
		}
	}

	emit(PhaseScanning, projectDir)
	logs := sessionLogs(projectDir)
	result.TotalSessions = len(logs)

	for _, logPath := range logs {
		emit(PhaseExtracting, filepath.Base(logPath))

		r := s.ExtractSessionCatalog(logPath, projectDir, Options{Force: opts.Force})
		switch {
		case r.Error != "":
			result.Errors++
			log.Warn().Str("sessionId", r.SessionID).Str("error", r.Error).Msg("session extraction failed")
		case r.Skipped:
			result.Skipped++
		default:
			result.Extracted++
		}
	}

	emit(PhaseExtracting, "")

	log.Info().
		Str("project", projectDir).
		Int("total", result.TotalSessions).
		Int("extracted", result.Extracted).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Msg("project catalog extracted")

	return result
}

// ExtractAllCatalogs runs project extraction across every project directory
// under projectsRoot, in lexical order, aggregating counts. An unreadable
// root yields an empty result rather than an error: there is simply nothing
// to extract.
func (s *Service) ExtractAllCatalogs(projectsRoot string, opts BulkOptions) BulkResult {
	total := BulkResult{RunID: uuid.NewString()}

	dirEntries, err := os.ReadDir(projectsRoot)
	if err != nil {
		log.Warn().Err(err).Str("root", projectsRoot).Msg("projects root unreadable")
		return total
	}

	var projects []string
	for _, e := range dirEntries {
		if e.IsDir() && e.Name() != JacquesDirName {
			projects = append(projects, filepath.Join(projectsRoot, e.Name()))
		}
	}
	sort.Strings(projects)

	// Re-tag nested progress events with the run id of the whole batch.
	nested := BulkOptions{Force: opts.Force}
	if opts.Progress != nil {
		nested.Progress = func(p Progress) {
			p.RunID = total.RunID
			p.TotalSessions = total.TotalSessions + p.TotalSessions
			p.Extracted += total.Extracted
			p.Skipped += total.Skipped
			p.Errors += total.Errors
			opts.Progress(p)
		}
	}

	for _, projectDir := range projects {
		r := s.ExtractProjectCatalog(projectDir, nested)
		total.TotalSessions += r.TotalSessions
		total.Extracted += r.Extracted
		total.Skipped += r.Skipped
		total.Errors += r.Errors
	}

	return total
}

// sessionLogs lists the project's session logs in lexical order. The order
// has no correctness impact; it keeps runs reproducible.
func sessionLogs(projectDir string) []string {
	dirEntries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil
	}

	var logs []string
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		logs = append(logs, filepath.Join(projectDir, e.Name()))
	}
	sort.Strings(logs)
	return logs
}
