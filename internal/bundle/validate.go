package bundle

import "errors"

var (
	// ErrEmptyAppEntry indicates the app bundle has no modules to start from
	ErrEmptyAppEntry = errors.New("app entry has no modules")
	// ErrDevServerInProduction indicates a production description carries a dev server block
	ErrDevServerInProduction = errors.New("dev server configured in production mode")
	// ErrSplittingInDevelopment indicates code splitting is enabled for a development build
	ErrSplittingInDevelopment = errors.New("code splitting enabled in development mode")
	// ErrPrecacheInDevelopment indicates the service worker plugin is present in a development build
	ErrPrecacheInDevelopment = errors.New("precache plugin configured in development mode")
)

// Validate checks the structural invariants every description must hold.
func (d Description) Validate() error {
	if len(d.Entries["app"]) == 0 {
		return ErrEmptyAppEntry
	}

	if !d.Mode.IsDev() {
		if d.DevServer != nil {
			return ErrDevServerInProduction
		}
		return nil
	}

	if d.Optimization.SplitChunks.Enabled {
		return ErrSplittingInDevelopment
	}
	if _, ok := d.Plugin(PluginGenerateSW); ok {
		return ErrPrecacheInDevelopment
	}
	return nil
}
