package constant

import "time"

const (
	MAX_FILE_SIZE         = 5 * 1024 * 1024 // 5MB per attachment
	MAX_MEDIA_PER_ITEM    = 4
	MAX_COMMENT_LENGTH    = 2000
	TEMP_ID_PREFIX        = "temp-"
	DEFAULT_TEXT_TIMEOUT  = 30 * time.Second
	DEFAULT_MEDIA_TIMEOUT = 30 * time.Second
	DEFAULT_CACHE_TTL     = 5 * time.Minute

	// Must outlive any thread cache entry.
	THREAD_GENERATION_TTL = 24 * time.Hour
)
