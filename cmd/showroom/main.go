package main

import (
	"errors"
	"flag"
	"os"
	"runtime"

	"showroom/internal/config"
	"showroom/internal/logger"
	"showroom/internal/showroom"
)

func init() {
	// GLFW requires the program to be running on the main thread.
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "showroom.yaml", "path to the YAML configuration")
	logLevel := flag.String("log-level", "", "override the configured log level (debug, info, warn, error)")
	writeConfig := flag.String("write-config", "", "write the effective configuration to this path and exit")
	flag.Parse()

	boot := logger.New("info")
	cfg, err := config.Load(*configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		boot.Infof("no config at %s, using defaults", *configPath)
	case err != nil:
		boot.Fatalf("load configuration: %v", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	log := boot
	log.SetLevel(cfg.LogLevel)
	if cfg.LogFile != "" {
		log, err = logger.NewMulti(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			boot.Fatalf("open log file: %v", err)
		}
	}
	defer log.Close()

	if *writeConfig != "" {
		if err := config.Save(cfg, *writeConfig); err != nil {
			log.Fatalf("%v", err)
		}
		log.Infof("configuration written to %s", *writeConfig)
		return
	}

	log.Infof("starting showroom (seed %d, audio %s)", cfg.Seed, cfg.Audio.Backend)
	if err := showroom.Run(cfg, log); err != nil {
		log.Fatalf("showroom: %v", err)
	}
}
