package framework

import "context"

// Named is implemented by components with a name used in logs.
type Named interface {
	Name() string
}

// Runnable is a long running component, stopped by canceling the context.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// NameOf returns the name of v if it's Named, otherwise fallback.
func NameOf(v interface{}, fallback string) string {
	if named, ok := v.(Named); ok {
		return named.Name()
	}
	return fallback
}
