// Package player opens GIF videos in an external media player.
package player

import (
	"errors"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrNoPlayer indicates no candidate player could be started
var ErrNoPlayer = errors.New("no candidate players found")

// launchPath is one way to start a player on a platform
type launchPath struct {
	path      string   // Command name, or "open-a:AppName" for macOS apps
	openFlags []string // Flags for macOS open, e.g. ["-n"]
}

// playerSpec describes how to make a known player loop its input
type playerSpec struct {
	loopArgs  []string
	platforms map[string][]launchPath
}

var players = map[string]playerSpec{
	"mpv": {
		loopArgs: []string{"--loop-file=inf"},
		platforms: map[string][]launchPath{
			"darwin":  {{path: "mpv"}},
			"linux":   {{path: "mpv"}},
			"windows": {{path: "mpv"}},
		},
	},
	"vlc": {
		loopArgs: []string{"--loop"},
		platforms: map[string][]launchPath{
			"darwin":  {{path: "vlc"}, {path: "open-a:VLC"}},
			"linux":   {{path: "vlc"}},
			"windows": {{path: "vlc"}},
		},
	},
	"iina": {
		loopArgs: []string{"--mpv-loop-file=inf"},
		platforms: map[string][]launchPath{
			"darwin": {{path: "open-a:IINA", openFlags: []string{"-n"}}},
		},
	},
	"celluloid": {
		loopArgs: []string{"--mpv-loop-file=inf"},
		platforms: map[string][]launchPath{
			"linux": {{path: "celluloid"}},
		},
	},
}

// candidatePlayers is the preferred order per platform
var candidatePlayers = map[string][]string{
	"darwin":  {"iina", "mpv", "vlc"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"mpv", "vlc"},
}

// runner starts processes; replaced in tests
type runner interface {
	LookPath(file string) (string, error)
	Start(name string, args ...string) error
	Run(name string, args ...string) error
}

type execRunner struct{}

func (execRunner) LookPath(file string) (string, error) { return exec.LookPath(file) }
func (execRunner) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}
func (execRunner) Run(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// Launcher opens media URLs in an external player
type Launcher struct {
	command string   // Configured player, empty to auto-detect
	args    []string // Extra arguments for the configured player
	goos    string
	run     runner
	logger  *slog.Logger
}

// NewLauncher creates a Launcher. Known players get their loop flag
// appended to args automatically.
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		command: command,
		args:    withLoop(command, args, logger),
		goos:    runtime.GOOS,
		run:     execRunner{},
		logger:  logger,
	}
}

func withLoop(command string, args []string, logger *slog.Logger) []string {
	out := append([]string{}, args...)
	if command == "" {
		return out
	}
	spec, ok := players[playerName(command)]
	if !ok {
		return out
	}
	for _, flag := range spec.loopArgs {
		if !contains(out, flag) {
			out = append(out, flag)
		}
	}
	logger.Debug("auto-detected player loop flag", "player", playerName(command), "flags", spec.loopArgs)
	return out
}

// playerName normalizes "/usr/bin/MPV.exe" to "mpv"
func playerName(command string) string {
	base := filepath.Base(command)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Launch opens url: the configured player first, then the candidate
// chain for this platform, then the system default handler.
func (l *Launcher) Launch(url string) error {
	if l.command != "" {
		l.logger.Info("using configured player", "command", l.command)
		return l.launchConfigured(url)
	}

	if name, err := l.detectAndLaunch(url); err == nil {
		l.logger.Info("launched with detected player", "player", name)
		return nil
	}

	l.logger.Info("no candidate players found, using system default")
	return l.launchDefault(url)
}

func (l *Launcher) launchConfigured(url string) error {
	if l.goos == "darwin" {
		if _, err := l.run.LookPath(l.command); err != nil {
			var openFlags []string
			if spec, ok := players[playerName(l.command)]; ok {
				for _, lp := range spec.platforms["darwin"] {
					if strings.HasPrefix(lp.path, "open-a:") {
						openFlags = lp.openFlags
						break
					}
				}
			}
			return l.run.Start("open", openAppArgs(l.command, url, l.args, openFlags)...)
		}
	}

	args := append(append([]string{}, l.args...), url)
	l.logger.Info("launching player", "command", l.command, "args", args)
	return l.run.Start(l.command, args...)
}

// detectAndLaunch tries candidate players in order and returns the one that started
func (l *Launcher) detectAndLaunch(url string) (string, error) {
	candidates, ok := candidatePlayers[l.goos]
	if !ok {
		candidates = candidatePlayers["linux"]
	}

	for _, name := range candidates {
		spec := players[name]
		for _, lp := range spec.platforms[l.goos] {
			var err error
			if app, ok := strings.CutPrefix(lp.path, "open-a:"); ok {
				// open -a blocks until the app is found, so Run reports a missing app
				err = l.run.Run("open", openAppArgs(app, url, spec.loopArgs, lp.openFlags)...)
			} else if _, err = l.run.LookPath(lp.path); err == nil {
				err = l.run.Start(lp.path, append(append([]string{}, spec.loopArgs...), url)...)
			}
			if err == nil {
				return name, nil
			}
			l.logger.Debug("launch path not available", "player", name, "path", lp.path, "error", err)
		}
	}
	return "", ErrNoPlayer
}

func (l *Launcher) launchDefault(url string) error {
	l.logger.Info("launching with system default", "os", l.goos, "url", url)
	switch l.goos {
	case "darwin":
		return l.run.Start("open", url)
	case "windows":
		return l.run.Start("cmd", "/c", "start", "", url)
	default:
		return l.run.Start("xdg-open", url)
	}
}

func openAppArgs(app, url string, playerArgs, openFlags []string) []string {
	args := append([]string{}, openFlags...)
	args = append(args, "-a", app)
	if len(playerArgs) > 0 {
		args = append(args, "--args")
		args = append(args, playerArgs...)
	}
	return append(args, url)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
