package engine

import "errors"

// Errors returned by the engine's public operations. Internal decode-loop
// failures (graph_build_failed, decoder_error, io_error, seek_failed per
// the error table) are never returned from here; they are logged and
// surfaced only as the stream ending, per design.
var (
	// ErrSinkAttachConflict is returned by Sink.Attach when the sink is
	// already attached to a playlist (this one or another).
	ErrSinkAttachConflict = errors.New("groovecore: sink already attached to a playlist")

	// ErrSinkNotAttached is returned by Sink.Detach on a sink that isn't
	// attached to any playlist.
	ErrSinkNotAttached = errors.New("groovecore: sink is not attached")

	// ErrSinkNotFound is returned when removing a sink from a SinkMap that
	// does not contain it.
	ErrSinkNotFound = errors.New("groovecore: sink not found in map")

	// ErrPlaylistClosed is returned by playlist operations called after
	// Destroy.
	ErrPlaylistClosed = errors.New("groovecore: playlist has been destroyed")
)
