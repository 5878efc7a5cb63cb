// Package connection retries bridge dials with exponential backoff.
//
// A bridge session carries server-side state (open buffers, enabled
// channels), so a dropped session is reported to the caller instead of
// being silently re-established. Only the initial dial is retried:
//
//	err := connection.Retry(ctx, connection.RetryConfig{Attempts: 3}, func(ctx context.Context) error {
//		conn, err = transport.Dial(ctx, address, cfg)
//		return err
//	})
//
// Delays grow from Initial by Multiplier up to Max, each with up to
// Jitter of random extra delay so that many clients started together do
// not redial in lockstep.
package connection
