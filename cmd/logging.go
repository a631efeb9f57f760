package cmd

import (
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sets the global logrus level and formatter.
// Production emits JSON, everything else human-readable text.
func ConfigureLogging(level, environment string) {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetLevel(parsed)

	if environment == "production" {
		log.SetFormatter(&log.JSONFormatter{})
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}
