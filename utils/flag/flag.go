/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package

	Parse must be called once from main, before any flag value is trusted.
	Test binaries never call it, the defaults apply there.
*/
package flag

import (
	"flag"
)

const (
	APIServer = "api_server"
)

var (
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName   = flag.String("service", APIServer, "name of the running service, used as a logging field")
	ByPassAuth    = flag.Bool("no_auth", false, "skip jwt validation, for local debugging only")
)

func Parse() {
	if !flag.Parsed() {
		flag.Parse()
	}
}
