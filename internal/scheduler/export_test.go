package scheduler

// ExportedRunCleanup exposes the private runCleanup method for external tests.
func (s *Scheduler) ExportedRunCleanup() {
	s.runCleanup()
}
