package log

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/snapfeed-app/snapfeed/utils/dotenv"
	"github.com/snapfeed-app/snapfeed/utils/flag"
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()

	// Structured JSON in production, plain text locally for readability.
	if os.Getenv("SNAPFEED_ENV") == dotenv.ProdEnv {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger.SetOutput(os.Stderr)

	Log = logger.WithFields(
		logrus.Fields{"service": *flag.ServiceName, "is_development": *flag.IsDevelopment},
	)
}
