package main

import (
	"fmt"
	"os"

	"tunegrab/internal/config"
)

// cliOptions holds the resolved configuration plus the job file argument.
type cliOptions struct {
	cfg     config.Config
	jobPath string
}

// parseArgs parses command-line arguments and loads configuration.
// Priority: CLI flags > config file > defaults
func parseArgs() (cliOptions, error) {
	args := os.Args[1:]

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			printUsage()
			os.Exit(0)
		}
		if arg == "--init-config" {
			return cliOptions{}, initConfigFile()
		}
	}

	var configPath string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" || args[i] == "-c" {
			if i+1 >= len(args) {
				return cliOptions{}, fmt.Errorf("--config requires a path argument")
			}
			configPath = args[i+1]
			break
		}
	}

	cfg, err := config.LoadConfigFile(configPath)
	if err != nil {
		return cliOptions{}, fmt.Errorf("failed to load config: %w", err)
	}

	opts := cliOptions{cfg: cfg}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "--verbose", "-v":
			opts.cfg.Verbose = true

		case "--format", "-f":
			if i+1 >= len(args) {
				return cliOptions{}, fmt.Errorf("--format requires a format name")
			}
			i++
			opts.cfg.AudioFormat = args[i]

		case "--output", "-o":
			if i+1 >= len(args) {
				return cliOptions{}, fmt.Errorf("--output requires a directory path")
			}
			i++
			opts.cfg.OutputDir = config.ExpandHome(args[i])

		case "--account", "-a":
			if i+1 >= len(args) {
				return cliOptions{}, fmt.Errorf("--account requires an account ID")
			}
			i++
			opts.cfg.AccountID = args[i]

		case "--lyrics":
			opts.cfg.EmbedLyrics = true

		case "--config", "-c":
			i++

		default:
			if len(arg) > 0 && arg[0] == '-' {
				return cliOptions{}, fmt.Errorf("unknown flag: %s", arg)
			}
			opts.jobPath = arg
		}
	}

	if opts.jobPath == "" {
		return cliOptions{}, fmt.Errorf("a job file argument is required")
	}

	return opts, nil
}

// initConfigFile creates a new config file with default values
func initConfigFile() error {
	path := config.GetDefaultConfigPath()

	if _, err := os.Stat(path); err == nil {
		fmt.Printf("Config file already exists at: %s\n", path)
		fmt.Println("Delete it first if you want to recreate it.")
		os.Exit(0)
	}

	cfg := config.DefaultConfig()

	if err := config.SaveConfigFile(cfg, path); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Printf("Created default config file at: %s\n", path)
	fmt.Println("\nYou can now edit this file to customize your settings.")
	fmt.Println("Available options:")
	fmt.Println("  account_id: quota account identifier")
	fmt.Println("  audio_format: mp3, m4a, opus, flac, wav, aac")
	fmt.Println("  downloader_path: helper binary name or path (default: yt-dlp)")
	fmt.Println("  store_backend: sqlite or rest")
	fmt.Println("  metadata_providers: deezer, itunes, musicbrainz")
	fmt.Println("  embed_lyrics: true/false")

	os.Exit(0)
	return nil
}

// printUsage displays the help message
func printUsage() {
	fmt.Println("tunegrab - Download a tracklist as tagged audio files")
	fmt.Println()
	fmt.Println("Usage: tunegrab [options] <job_file>")
	fmt.Println()
	fmt.Println("The job file is a YAML document listing the tracks to fetch:")
	fmt.Println()
	fmt.Println("  folder: Road Trip Mix")
	fmt.Println("  tracks:")
	fmt.Println("    - title: Blinding Lights")
	fmt.Println("      artist: The Weeknd")
	fmt.Println("    - title: Take On Me")
	fmt.Println("      artist: a-ha")
	fmt.Println("      source_url: https://www.youtube.com/watch?v=djV11Xbc914")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v, --verbose              Show detailed output")
	fmt.Println("  -f, --format <format>      Audio format: mp3, m4a, opus, flac, etc. (default: m4a)")
	fmt.Println("  -o, --output <dir>         Output directory (default: ~/Music)")
	fmt.Println("  -a, --account <id>         Quota account ID (default: default)")
	fmt.Println("      --lyrics               Embed lyrics when available")
	fmt.Println("  -c, --config <path>        Path to config file")
	fmt.Println("  -h, --help                 Show this help message")
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println("  --init-config              Create a default config file")
	fmt.Println()
	fmt.Println("Config file locations (checked in order):")
	fmt.Println("  ./tunegrab.yaml")
	fmt.Println("  ~/.config/tunegrab/config.yaml")
	fmt.Println("  ~/.tunegrab.yaml")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  # Download a tracklist with defaults")
	fmt.Println("  tunegrab mix.yaml")
	fmt.Println()
	fmt.Println("  # Download as FLAC with lyrics into a custom folder")
	fmt.Println("  tunegrab -f flac --lyrics -o ~/Downloads/music mix.yaml")
}
