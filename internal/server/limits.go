package server

import "time"

const (
	// maxMessageSize caps one inbound websocket message.
	maxMessageSize = 32 * 1024

	// sendBufferSize is the per-client outbound queue; a client that
	// cannot drain it gets disconnected instead of blocking the session.
	sendBufferSize = 256

	// inputBytesPerSec limits key and paste traffic a client may push to
	// the child process; inputBurst is the bucket size.
	inputBytesPerSec = 32 * 1024
	inputBurst       = 64 * 1024

	// frameCoalesce batches damage bursts into one redraw frame.
	frameCoalesce = 16 * time.Millisecond

	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second

	// defaultViewRows/Cols apply when a client connects without geometry.
	defaultViewRows = 24
	defaultViewCols = 80

	// maxDocLines caps one lines-endpoint page.
	maxDocLines = 1000
)
