package hitl

import "sync/atomic"

// ContentProcessorProvider processes content before it is used, e.g. to
// redact, truncate, or transform output or transcripts.
type ContentProcessorProvider interface {
	Process(content string, context map[string]string) string
}

// NoOpContentProcessor is the default ContentProcessorProvider: identity.
type NoOpContentProcessor struct{}

func (NoOpContentProcessor) Process(content string, _ map[string]string) string { return content }

var contentProcessor atomic.Pointer[ContentProcessorProvider]

// ContentProcessor returns the process-wide ContentProcessorProvider,
// defaulting to NoOpContentProcessor.
func ContentProcessor() ContentProcessorProvider {
	if p := contentProcessor.Load(); p != nil {
		return *p
	}
	return NoOpContentProcessor{}
}

// SetContentProcessor installs the process-wide ContentProcessorProvider.
func SetContentProcessor(p ContentProcessorProvider) { contentProcessor.Store(&p) }

// ResetContentProcessor clears the process-wide ContentProcessorProvider,
// reverting to NoOpContentProcessor.
func ResetContentProcessor() { contentProcessor.Store(nil) }

// ProcessContent runs content through the registered processor (or the
// default no-op), a convenience wrapper over ContentProcessor().Process.
func ProcessContent(content string, context map[string]string) string {
	return ContentProcessor().Process(content, context)
}
