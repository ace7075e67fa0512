package catalog

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultWordlist is the wordlist used by the fuzzers unless overridden.
const DefaultWordlist = "/usr/share/wordlists/dirb/common.txt"

// extraArgs declares the free-form argument string most tools accept.
func extraArgs(tool, example string) Param {
	return Param{
		Name:        tool + "_args",
		Description: fmt.Sprintf("Additional %s arguments (e.g. %q). Split like a shell would, never executed by one.", tool, example),
		Kind:        String,
	}
}

func isEnum(v Values) bool  { return v.String("subcommand") == "enum" }
func isIntel(v Values) bool { return v.String("subcommand") == "intel" }

// dashed prefixes a probe name with "-" unless it already has one.
func dashed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "-" + s
}

// Builtin returns the built-in tool table.
func Builtin() []Spec {
	return []Spec{
		{
			Name:        "do_nmap",
			Title:       "nmap",
			Description: "Run nmap network scanner to detect open ports and services.",
			Binary:      "nmap",
			Params: []Param{
				{Name: "target", Description: "Target IP address or hostname to scan.", Kind: String, Required: true},
				extraArgs("nmap", "-sV -sC -p 1-1000"),
			},
			Args:    []Arg{Extra("nmap_args"), Pos("target")},
			Timeout: 5 * time.Minute,
		},
		{
			Name:        "do_masscan",
			Title:       "masscan",
			Description: "Run masscan for fast port scanning.",
			Binary:      "masscan",
			Params: []Param{
				{Name: "target", Description: "Target IP address or CIDR range (e.g. 192.168.1.0/24).", Kind: String, Required: true},
				{Name: "ports", Description: "Port range to scan.", Kind: String, Default: "1-65535"},
				{Name: "rate", Description: "Packet rate per second.", Kind: Integer, Default: "1000"},
			},
			Args:    []Arg{Pos("target"), Flag("-p", "ports"), Flag("--rate", "rate")},
			Timeout: 5 * time.Minute,
		},
		{
			Name:        "do_sqlmap",
			Title:       "sqlmap",
			Description: "Run sqlmap for SQL injection detection and exploitation.",
			Binary:      "sqlmap",
			Params: []Param{
				{Name: "url", Description: "Target URL with parameter (e.g. http://example.com/page?id=1).", Kind: String, Required: true},
				extraArgs("sqlmap", "--dbs --level=3"),
			},
			Args:    []Arg{Flag("-u", "url"), Lit("--batch"), Extra("sqlmap_args")},
			Timeout: 10 * time.Minute,
		},
		{
			Name:        "do_ffuf",
			Title:       "ffuf",
			Description: "Run ffuf for web fuzzing and directory/file discovery.",
			Binary:      "ffuf",
			Params: []Param{
				{Name: "url", Description: "Target URL with FUZZ keyword (e.g. http://example.com/FUZZ).", Kind: String, Required: true},
				{Name: "wordlist", Description: "Path to wordlist file.", Kind: String, Default: DefaultWordlist},
				extraArgs("ffuf", "-mc 200,301 -t 50"),
			},
			Args:    []Arg{Flag("-u", "url"), Flag("-w", "wordlist"), Extra("ffuf_args")},
			Timeout: 10 * time.Minute,
		},
		{
			Name:        "do_nuclei",
			Title:       "nuclei",
			Description: "Run nuclei vulnerability scanner with templates.",
			Binary:      "nuclei",
			Params: []Param{
				{Name: "url", Description: "Target URL to scan.", Kind: String, Required: true},
				{Name: "tags", Description: "Comma-separated tags to filter templates (e.g. cve,rce,sqli).", Kind: String},
				{Name: "severity", Description: "Filter by severity (e.g. critical,high,medium).", Kind: String},
			},
			Args: []Arg{
				Flag("-u", "url"), Lit("-silent"),
				Flag("-tags", "tags"), Flag("-severity", "severity"),
			},
			Timeout: 10 * time.Minute,
		},
		{
			Name:        "do_httpx",
			Title:       "httpx",
			Description: "Run httpx for HTTP probing and technology detection. Targets are passed on standard input.",
			Binary:      "httpx",
			Params: []Param{
				{Name: "targets", Description: "Target URLs or domains, as a list or comma-separated.", Kind: StringList, Required: true},
				{Name: "ports", Description: "Ports to probe.", Kind: IntegerList},
				{Name: "probes", Description: "Probe flags (e.g. status-code, title, web-server, tech-detect).", Kind: StringList},
				extraArgs("httpx", "-follow-redirects"),
			},
			Args: []Arg{
				Lit("-silent"),
				Flag("-p", "ports"),
				{Param: "probes", Each: true, Format: dashed},
				Extra("httpx_args"),
			},
			Stdin:   "targets",
			Timeout: 5 * time.Minute,
		},
		{
			Name:        "do_katana",
			Title:       "katana",
			Description: "Run katana web crawler for endpoint discovery.",
			Binary:      "katana",
			Params: []Param{
				{Name: "url", Description: "Target URL to crawl.", Kind: String, Required: true},
				{Name: "depth", Description: "Crawling depth.", Kind: Integer, Default: "2"},
				extraArgs("katana", "-jc -ef png,jpg"),
			},
			Args:    []Arg{Flag("-u", "url"), Flag("-d", "depth"), Lit("-silent"), Extra("katana_args")},
			Timeout: 5 * time.Minute,
		},
		{
			Name:        "do_subfinder",
			Title:       "subfinder",
			Description: "Run subfinder for subdomain enumeration.",
			Binary:      "subfinder",
			Params: []Param{
				{Name: "domain", Description: "Target domain (e.g. example.com).", Kind: String, Required: true},
				extraArgs("subfinder", "-recursive -all"),
			},
			Args:    []Arg{Flag("-d", "domain"), Lit("-silent"), Extra("subfinder_args")},
			Timeout: 5 * time.Minute,
		},
		{
			Name:        "do_amass",
			Title:       "amass",
			Description: "Run amass for in-depth subdomain enumeration and attack surface mapping.",
			Binary:      "amass",
			Params: []Param{
				{Name: "subcommand", Description: "Operation mode: enum performs subdomain enumeration, intel gathers intelligence.", Kind: String, Default: "enum", Enum: []string{"enum", "intel"}},
				{Name: "domain", Description: "Target domain (e.g. example.com).", Kind: String},
				{Name: "enum_type", Description: "Enumeration approach; passive avoids direct interaction.", Kind: String, Enum: []string{"active", "passive"}},
				{Name: "enum_brute", Description: "Enable brute force subdomain discovery.", Kind: Boolean},
				{Name: "enum_brute_wordlist", Description: "Path to custom wordlist for brute force.", Kind: String},
				{Name: "intel_whois", Description: "Include WHOIS data when gathering intelligence.", Kind: Boolean},
				{Name: "intel_organization", Description: "Organization name to search during intelligence gathering.", Kind: String},
				extraArgs("amass", "-timeout 10"),
			},
			Args: []Arg{
				Pos("subcommand"),
				Flag("-d", "domain"),
				Lit("-passive").If(func(v Values) bool { return isEnum(v) && v.String("enum_type") == "passive" }),
				Flag("-brute", "enum_brute").If(isEnum),
				Flag("-w", "enum_brute_wordlist").If(func(v Values) bool { return isEnum(v) && v.Bool("enum_brute") }),
				Flag("-whois", "intel_whois").If(isIntel),
				Flag("-org", "intel_organization").If(isIntel),
				Extra("amass_args"),
			},
			Validate: func(v Values) error {
				if isEnum(v) && !v.Has("domain") {
					return errors.New("domain is required for 'enum'")
				}
				if isIntel(v) && !v.Has("domain") && !v.Has("intel_organization") {
					return errors.New("provide domain or intel_organization for 'intel'")
				}
				return nil
			},
			Timeout: 10 * time.Minute,
		},
		{
			Name:        "do_sslscan",
			Title:       "sslscan",
			Description: "Run sslscan for SSL/TLS configuration analysis.",
			Binary:      "sslscan",
			Params: []Param{
				{Name: "target", Description: "Target hostname:port (e.g. example.com:443).", Kind: String, Required: true},
			},
			Args:    []Arg{Pos("target")},
			Timeout: 5 * time.Minute,
		},
		{
			Name:        "do_waybackurls",
			Title:       "waybackurls",
			Description: "Fetch historical URLs from the Wayback Machine.",
			Binary:      "waybackurls",
			Params: []Param{
				{Name: "domain", Description: "Target domain to search (e.g. example.com).", Kind: String, Required: true},
			},
			Args:    []Arg{Pos("domain")},
			Timeout: 2 * time.Minute,
		},
		{
			Name:        "do_arjun",
			Title:       "arjun",
			Description: "Run arjun for HTTP parameter discovery.",
			Binary:      "arjun",
			Params: []Param{
				{Name: "url", Description: "Target URL to scan.", Kind: String, Required: true},
				{Name: "text_file", Description: "File containing multiple target URLs.", Kind: String},
				{Name: "wordlist", Description: "Custom parameter wordlist.", Kind: String},
				{Name: "method", Description: "HTTP method or injection point.", Kind: String, Enum: []string{"GET", "POST", "JSON", "HEADERS"}},
				{Name: "rate_limit", Description: "Maximum requests per second.", Kind: Integer},
				{Name: "chunk_size", Description: "Parameters sent per request.", Kind: Integer},
				extraArgs("arjun", "--stable"),
			},
			Args: []Arg{
				Flag("-u", "url"), Flag("-f", "text_file"), Flag("-w", "wordlist"),
				Flag("-m", "method"), Flag("--rate-limit", "rate_limit"), Flag("--chunk-size", "chunk_size"),
				Extra("arjun_args"),
			},
			Timeout: 5 * time.Minute,
		},
		{
			Name:        "do_wpscan",
			Title:       "wpscan",
			Description: "Run wpscan for WordPress vulnerability scanning.",
			Binary:      "wpscan",
			Params: []Param{
				{Name: "url", Description: "Target WordPress URL.", Kind: String, Required: true},
				extraArgs("wpscan", "--enumerate vp,vt,u"),
			},
			Args:    []Arg{Flag("--url", "url"), Lit("--no-banner"), Extra("wpscan_args")},
			Timeout: 10 * time.Minute,
			// wpscan exits 5 when it found vulnerabilities.
			OKExitCodes: []int{5},
		},
		{
			Name:        "do_gobuster",
			Title:       "gobuster",
			Description: "Run gobuster for directory/DNS/vhost brute-forcing.",
			Binary:      "gobuster",
			Params: []Param{
				{Name: "url", Description: "Target URL, or the domain in dns mode.", Kind: String, Required: true},
				{Name: "mode", Description: "Scan mode.", Kind: String, Default: "dir", Enum: []string{"dir", "dns", "vhost"}},
				{Name: "wordlist", Description: "Path to wordlist.", Kind: String, Default: DefaultWordlist},
				extraArgs("gobuster", "-t 50 -x php,html"),
			},
			Args: []Arg{
				Pos("mode"),
				Flag("-d", "url").If(Equals("mode", "dns")),
				Flag("-u", "url").If(func(v Values) bool { return !Equals("mode", "dns")(v) }),
				Flag("-w", "wordlist"),
				Extra("gobuster_args"),
			},
			Timeout: 10 * time.Minute,
		},
	}
}
