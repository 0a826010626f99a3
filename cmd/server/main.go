package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/snapfeed-app/snapfeed/server"
	"github.com/snapfeed-app/snapfeed/store"
	"github.com/snapfeed-app/snapfeed/utils"
	"github.com/snapfeed-app/snapfeed/utils/dotenv"
	"github.com/snapfeed-app/snapfeed/utils/flag"
	. "github.com/snapfeed-app/snapfeed/utils/log"
)

func sweepInterval() time.Duration {
	if raw := os.Getenv("SWEEP_INTERVAL"); raw != "" {
		if interval, err := time.ParseDuration(raw); err == nil {
			return interval
		}
		Log.Warn("invalid SWEEP_INTERVAL, falling back to 1h")
	}
	return time.Hour
}

func main() {
	flag.Parse()
	InitLogger()

	if err := dotenv.LoadDotEnvs(); err != nil {
		panic(err)
	}

	db, err := utils.GetDBConnection()
	if err != nil {
		Log.Fatal("fail to connect to database: ", err)
	}
	if err := utils.DatabaseSetupAndMigration(db); err != nil {
		Log.Fatal("fail to migrate database: ", err)
	}

	// The view-status cache is optional; without redis the ledger reads from
	// the database directly.
	var cache *store.ViewStatusCache
	if os.Getenv("REDIS_HOST") != "" {
		cache, err = store.GetViewStatusCache(context.Background())
		if err != nil {
			Log.Warn("fail to connect to redis, continuing without view cache: ", err)
			cache = nil
		}
	}

	srv := server.New(db, cache)

	stopSweeper := store.StartSweeper(srv.PostStore(), sweepInterval())
	defer stopSweeper()
	Log.Info("expiry sweeper scheduled every ", sweepInterval())

	// Default With the Logger and Recovery middleware already attached
	router := gin.Default()
	router.Use(cors.Default())
	srv.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	Log.Info("api server starts up")
	if err := router.Run(":" + port); err != nil {
		Log.Fatal("server exited: ", err)
	}
}
