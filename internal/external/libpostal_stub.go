//go:build !cgo

package external

// Split is a no-op without cgo; callers check Available.
func Split(raw string) Components {
	return Components{}
}
