//go:build linux

package trigger

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/zap"

	"github.com/muurk/netmgr/internal/logging"
)

// Watch requests the button line as an active-low input with a pull-up and
// feeds falling edges to b until ctx is cancelled.
func Watch(ctx context.Context, chip string, offset int, b *Button) error {
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithConsumer("netmgr"),
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			b.Press(evt.Timestamp)
		}),
	)
	if err != nil {
		return fmt.Errorf("request %s line %d: %w", chip, offset, err)
	}
	defer line.Close()

	logging.Info("Watching provisioning button", zap.String("chip", chip), zap.Int("line", offset))
	<-ctx.Done()
	return nil
}
