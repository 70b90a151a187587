package ports

// PreviewOpener opens the live preview page for the user
type PreviewOpener interface {
	// Open shows url in a browser without waiting for it to close
	Open(url string) error
}
