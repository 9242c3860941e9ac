package ports

// PresenceReporter publishes "now listening" status to an external service.
// Reporting is best effort: callers log errors and carry on.
type PresenceReporter interface {
	// Report publishes the artist and title of the track that just started.
	Report(artist, title string) error

	// Clear removes any published status.
	Clear() error

	// Close releases the connection, if one was opened.
	Close() error
}
