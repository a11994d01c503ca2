package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// cargoSubcommand is the name cargo passes as the first argument when the
// binary runs as `cargo quality`.
const cargoSubcommand = "quality"

// cargoArgs drops the subcommand name cargo inserts in front of the user's
// arguments, so `cargo quality check` and `cargo-quality check` parse alike.
func cargoArgs(args []string) []string {
	if len(args) > 0 && args[0] == cargoSubcommand {
		return args[1:]
	}
	return args
}

// checkPathHint prints a one-time hint to w when the binary sits in a cargo
// or go bin directory that is not on PATH; cargo only finds `cargo quality`
// through PATH. Errors are ignored.
func checkPathHint(w io.Writer) {
	exe, err := os.Executable()
	if err != nil {
		return
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return
	}

	dir := filepath.Dir(exe)
	bin := binDirHome(dir)
	if bin == "" || dirInPATH(dir) {
		return
	}

	marker := hintMarkerPath()
	if marker == "" {
		return
	}
	if _, err := os.Stat(marker); err == nil {
		return
	}

	rcFile := shellConfigFile()
	fmt.Fprintf(w, "\nTip: cargo finds `cargo quality` only through PATH. Add %s to it:\n\n", bin)
	fmt.Fprintf(w, "  echo 'export PATH=\"%s:$PATH\"' >> %s\n", bin, rcFile)
	fmt.Fprintf(w, "  source %s\n\n", rcFile)

	_ = os.MkdirAll(filepath.Dir(marker), 0o700)
	_ = os.WriteFile(marker, nil, 0o600)
}

// binDirHome returns the $HOME-relative spelling of dir when it is a
// .cargo/bin or go/bin directory, and "" otherwise.
func binDirHome(dir string) string {
	dir = filepath.ToSlash(dir)
	switch {
	case strings.HasSuffix(dir, "/.cargo/bin"):
		return "$HOME/.cargo/bin"
	case strings.HasSuffix(dir, "/go/bin"):
		return "$HOME/go/bin"
	default:
		return ""
	}
}

func dirInPATH(dir string) bool {
	for _, p := range filepath.SplitList(os.Getenv("PATH")) {
		if filepath.Clean(p) == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

// shellConfigFile picks the rc file from $SHELL, falling back to zsh on
// macOS and bash elsewhere.
func shellConfigFile() string {
	shell := os.Getenv("SHELL")
	switch {
	case strings.Contains(shell, "zsh"):
		return "~/.zshrc"
	case strings.Contains(shell, "bash"):
		return "~/.bashrc"
	case strings.Contains(shell, "fish"):
		return "~/.config/fish/config.fish"
	default:
		if runtime.GOOS == "darwin" {
			return "~/.zshrc"
		}
		return "~/.bashrc"
	}
}

func hintMarkerPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cargo-quality", ".path-hint-shown")
}
