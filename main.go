package main

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/foldnet-project/foldnet/cmd/foldnet"
	_ "github.com/foldnet-project/foldnet/pkg/logger"
)

// Values for version are injected by the build.
var (
	VERSION = ""
)

func main() {
	start := time.Now()
	log.Trace().Msgf("Top of execution - %s", start.UTC())
	foldnet.Execute(VERSION)
	log.Trace().Msgf("Execution finished - %s", time.Since(start))
}
