package cmd

import (
	"fmt"
	"log"
	"os"
)

var (
	// globals used to patch over calls to os.Exit() during test

	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger wraps informative messages to os.Stderr without cluttering the output of commands
	infoLogger = log.New(os.Stderr, "", 0)
	logStdOut  = fmt.Printf
)

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
	} else {
		logFatalf("%v", fmt.Errorf(msg+": %w", err))
	}
}
