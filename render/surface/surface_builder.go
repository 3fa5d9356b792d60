package surface

// Option is a functional option for configuring an engineSurface.
type Option func(s *engineSurface)

// WithTitle sets the window title displayed in the title bar.
func WithTitle(title string) Option {
	return func(s *engineSurface) { s.title = title }
}

// WithMaxSize sets the maximum allowed window dimensions.
func WithMaxSize(width, height int) Option {
	return func(s *engineSurface) { s.maxWidth, s.maxHeight = width, height }
}

// WithMinSize sets the minimum allowed window dimensions.
func WithMinSize(width, height int) Option {
	return func(s *engineSurface) { s.minWidth, s.minHeight = width, height }
}

// WithSize sets the initial window dimensions.
func WithSize(width, height int) Option {
	return func(s *engineSurface) { s.width, s.height = width, height }
}
