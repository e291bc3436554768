package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// RouterRootPath is the root path inside a route group.
	RouterRootPath = ""

	// ErrNilDepsFatalLogMsg is used if app, cfg or a dependency pointer is nil.
	ErrNilDepsFatalLogMsg = "app, cfg, names controller or transfer gateway is nil"
)
