//go:build !cgo

package javamodel

import "context"

func (b *Builder) parse(ctx context.Context, m *Model, paths []string) error {
	return ErrParserUnavailable
}
