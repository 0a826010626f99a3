package store

import (
	"context"
	"time"

	. "github.com/snapfeed-app/snapfeed/utils/log"
)

// StartSweeper runs the expiry sweep once right away and then on every tick
// until the returned stop function is called. Errors are logged and the loop
// keeps going; a missed sweep just leaves expired posts invisible-but-present
// until the next one.
func StartSweeper(posts *PostStore, interval time.Duration) func() {
	if interval <= 0 {
		interval = time.Hour
	}
	stop := make(chan struct{})

	go func() {
		if _, err := posts.SweepExpired(context.Background(), time.Now()); err != nil {
			Log.Error("fail to sweep expired posts: ", err)
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if _, err := posts.SweepExpired(context.Background(), time.Now()); err != nil {
					Log.Error("fail to sweep expired posts: ", err)
				}
			}
		}
	}()

	return func() { close(stop) }
}
