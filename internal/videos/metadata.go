package videos

import "context"

// Metadata is the read-only snapshot captured when a YouTube link is added.
type Metadata struct {
	VideoID     string
	Title       string
	Author      string
	PublishDate string
	ViewCount   string
	Duration    int
	Thumbnail   string
	Description string
}

// Provider returns metadata for the supplied video URL.
type Provider interface {
	Lookup(ctx context.Context, url string) (Metadata, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, url string) (Metadata, error)

// Lookup implements Provider.
func (f ProviderFunc) Lookup(ctx context.Context, url string) (Metadata, error) {
	return f(ctx, url)
}
