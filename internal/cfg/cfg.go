package cfg

import "time"

const (
	CASTEDIT_VERSION = "0.1.0"

	// Editor
	EDITOR_LOG_FILE = "castedit.log" // created under os.TempDir()

	// Recording
	CAST_MAX_LINE_SIZE = 64 << 20 // longest single record accepted by the reader

	// Ops file
	OPS_WATCH_DEBOUNCE = 100 * time.Millisecond // coalesce bursts of writes from editors

	// Server
	SERVER_READ_BUFFER_SIZE   = 1024     // server websocket read buffer size
	SERVER_WRITE_BUFFER_SIZE  = 1024     // server websocket write buffer size
	SERVER_MAX_BODY_SIZE      = 32 << 20 // largest recording accepted by /api/edit
	SERVER_CLOSE_GRACE_PERIOD = 2 * time.Second

	// Playback
	PLAYBACK_MAX_SPEED = 64.0 // upper bound for the replay speed factor
)
