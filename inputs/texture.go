package inputs

import "fmt"

// AssetLoadError reports a media asset that could not be loaded. It is not
// fatal: the texture is simply never marked ready.
type AssetLoadError struct {
	Asset string
	Path  string
	Err   error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("failed to load %s %q: %v", e.Asset, e.Path, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }
