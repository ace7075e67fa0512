package catalog

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// installInfo holds install metadata for a known scanner.
type installInfo struct {
	// GoInstall is the module path for go install.
	GoInstall string
	// Package is the Debian/Kali package name.
	Package string
	// Pip is the PyPI distribution name.
	Pip string
	// URL points at upstream install instructions.
	URL string
}

// knownTools maps binary base names to their install metadata.
var knownTools = map[string]installInfo{
	"nmap":        {Package: "nmap", URL: "https://nmap.org/download"},
	"masscan":     {Package: "masscan", URL: "https://github.com/robertdavidgraham/masscan"},
	"sqlmap":      {Package: "sqlmap", Pip: "sqlmap"},
	"ffuf":        {GoInstall: "github.com/ffuf/ffuf/v2@latest", Package: "ffuf"},
	"nuclei":      {GoInstall: "github.com/projectdiscovery/nuclei/v3/cmd/nuclei@latest"},
	"httpx":       {GoInstall: "github.com/projectdiscovery/httpx/cmd/httpx@latest"},
	"katana":      {GoInstall: "github.com/projectdiscovery/katana/cmd/katana@latest"},
	"subfinder":   {GoInstall: "github.com/projectdiscovery/subfinder/v2/cmd/subfinder@latest"},
	"amass":       {GoInstall: "github.com/owasp-amass/amass/v4/...@master", Package: "amass"},
	"sslscan":     {Package: "sslscan", URL: "https://github.com/rbsec/sslscan"},
	"waybackurls": {GoInstall: "github.com/tomnomnom/waybackurls@latest"},
	"arjun":       {Pip: "arjun"},
	"wpscan":      {URL: "https://github.com/wpscanteam/wpscan#install"},
	"gobuster":    {GoInstall: "github.com/OJ/gobuster/v3@latest", Package: "gobuster"},
}

// Resolve returns the absolute path of binary, or "" when it is not on
// PATH (or not executable).
func Resolve(binary string) string {
	path, err := exec.LookPath(binary)
	if err != nil {
		return ""
	}
	return path
}

// Available reports whether binary can be executed.
func Available(binary string) bool {
	return Resolve(binary) != ""
}

// ErrToolUnavailable reports a scanner binary that is not installed.
// Its message includes install instructions when the binary is known.
type ErrToolUnavailable struct {
	Binary string
	Info   *installInfo
}

// NewErrToolUnavailable looks up install metadata by the binary's base
// name, so configured absolute paths still get hints.
func NewErrToolUnavailable(binary string) ErrToolUnavailable {
	e := ErrToolUnavailable{Binary: binary}
	if info, ok := knownTools[filepath.Base(binary)]; ok {
		e.Info = &info
	}
	return e
}

func (e ErrToolUnavailable) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is required but not installed.", e.Binary)
	if hint := e.Hint(); hint != "" {
		fmt.Fprintf(&b, "\n%s", hint)
	}
	return b.String()
}

// Hint returns the install instructions, or "" for unknown binaries.
func (e ErrToolUnavailable) Hint() string {
	if e.Info == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\nInstall:")
	if e.Info.Package != "" {
		fmt.Fprintf(&b, "\n  apt install %s", e.Info.Package)
	}
	if e.Info.GoInstall != "" {
		fmt.Fprintf(&b, "\n  go install %s", e.Info.GoInstall)
	}
	if e.Info.Pip != "" {
		fmt.Fprintf(&b, "\n  pipx install %s", e.Info.Pip)
	}
	if e.Info.URL != "" {
		fmt.Fprintf(&b, "\n  see %s", e.Info.URL)
	}
	return b.String()
}
