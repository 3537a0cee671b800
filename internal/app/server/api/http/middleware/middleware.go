package middleware

import "github.com/danielgtaylor/huma/v2"

// Container accumulates per-handler middleware chains during route wiring.
type Container struct {
	middlewares huma.Middlewares
}

func NewContainer() *Container {
	return &Container{}
}

func (c *Container) Add(mw func(huma.Context, func(huma.Context))) {
	c.middlewares = append(c.middlewares, mw)
}

// GetAllAndClear hands the accumulated chain to a handler and resets the
// container for the next one.
func (c *Container) GetAllAndClear() huma.Middlewares {
	out := c.middlewares
	c.middlewares = nil
	return out
}
