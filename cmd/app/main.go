// camfx - live filter composition for webcam frames and still images
package main

import (
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"

	"camfx/internal/config"
	"camfx/internal/gui"
)

const (
	AppName    = "camfx"
	AppID      = "com.camfx.app"
	AppVersion = "1.0.0"
)

func main() {
	// Parse command line flags
	debugMode := flag.Bool("debug", false, "Enable debug mode with verbose logging")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
	if *debugMode {
		cfg.Debug = true
	}

	logger := initLogger(cfg.Debug, cfg.LogFormat)
	logger.WithFields(logrus.Fields{
		"version":       AppVersion,
		"debug_mode":    cfg.Debug,
		"camera_device": cfg.CameraDevice,
		"frame_size":    fmt.Sprintf("%dx%d", cfg.FrameWidth, cfg.FrameHeight),
		"idle_interval": cfg.IdleInterval.String(),
	}).Info("Starting camfx")

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(theme.MediaVideoIcon())
	myApp.Settings().SetTheme(theme.DefaultTheme())

	mainApp := gui.NewApplication(myApp, cfg, logger)
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	os.Exit(0)
}

// initLogger uses text output in debug mode or when asked for, JSON otherwise
func initLogger(debugMode bool, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if debugMode || format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   debugMode,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	logger.Debug("Debug logging enabled")
	return logger
}
