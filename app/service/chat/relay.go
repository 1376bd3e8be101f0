package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
)

const relayBufferSize = 4096

// Relay pumps the upstream byte stream to dst verbatim, flushing after every
// chunk so the caller sees tokens as they arrive. It returns nil when the
// upstream completes and an error when either side fails or ctx is
// cancelled. No re-framing happens here, the upstream's SSE framing passes
// through untouched.
func Relay(ctx context.Context, src io.Reader, dst *bufio.Writer) error {
	buffer := make([]byte, relayBufferSize)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.Read(buffer)
		if n > 0 {
			if _, werr := dst.Write(buffer[:n]); werr != nil {
				return fmt.Errorf("failed to write chunk: %w", werr)
			}

			if werr := dst.Flush(); werr != nil {
				return fmt.Errorf("failed to flush chunk: %w", werr)
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read upstream: %w", err)
		}
	}
}
