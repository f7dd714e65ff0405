package resample

// ProgressCallback reports coarse-grained milestones of a resampling run.
// If message is non-empty it is an informational line; otherwise completed and
// total describe progress through the output slices. A nil callback is valid
// and reports nothing.
type ProgressCallback func(completed, total int, message string)

func (p ProgressCallback) report(completed, total int, message string) {
	if p != nil {
		p(completed, total, message)
	}
}
