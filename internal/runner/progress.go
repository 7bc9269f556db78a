package runner

// ProgressReporter provides callbacks for reporting run progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnRunStart is called once sources are discovered.
	OnRunStart(totalFiles int)

	// OnFileProcessed is called after each source is processed.
	OnFileProcessed(report *FileReport)

	// OnComplete is called when the run finishes.
	OnComplete(summary *Summary)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnRunStart(totalFiles int)          {}
func (n *NoOpProgressReporter) OnFileProcessed(report *FileReport) {}
func (n *NoOpProgressReporter) OnComplete(summary *Summary)        {}
