//go:build !linux

package trigger

import (
	"context"
	"errors"
)

// Watch is unavailable without the Linux GPIO character device
func Watch(ctx context.Context, chip string, offset int, b *Button) error {
	return errors.New("GPIO buttons require Linux")
}
