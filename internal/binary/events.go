package binary

// Lifecycle event names, matching the channel names the desktop frontend
// listens on.
const (
	EventDownloadStart    = "binary_download_start"
	EventDownloadProgress = "binary_download_progress"
	EventDownloadComplete = "binary_download_complete"
	EventDownloadError    = "binary_download_error"
	EventUpdateComplete   = "binary_update_complete"
)

// Emitter delivers lifecycle events to the host application. The engine
// never blocks on event delivery and ignores delivery failures.
type Emitter interface {
	Emit(event string, payload any)
}

// NopEmitter discards all events. It is the default when no emitter is
// configured and is handy in tests.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(string, any) {}
