package main

import (
	"bufio"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

const (
	BackendS3    = "s3"
	BackendMinio = "minio"

	defaultPageSize  = 100
	defaultURLExpiry = 15 * time.Minute
)

// S3Config holds the s3cmd-compatible connection settings plus the keys s4
// adds to the same [default] section.
type S3Config struct {
	AccessKey   string
	SecretKey   string
	HostBase    string
	HostBucket  string
	UseHTTPS    bool
	SignatureV2 bool
	Region      string

	Backend     string
	Namespace   string
	PageSize    int
	SortBy      string
	URLExpiry   time.Duration
	DownloadDir string
	LogFile     string
	LogLevel    string
}

// configSearchPaths lists where .s3cfg is looked up when no path is given.
func configSearchPaths() []string {
	return []string{
		".s3cfg",
		filepath.Join(os.Getenv("HOME"), ".s3cfg"),
		"/etc/s3cfg",
	}
}

// LoadS3Config loads path, or the first .s3cfg found in the standard
// locations when path is empty.
func LoadS3Config(path string) (*S3Config, error) {
	if path == "" {
		for _, candidate := range configSearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path == "" {
		return nil, fmt.Errorf(".s3cfg file not found in any of the standard locations")
	}

	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	config := parseS3Config(cfg.Section("default"))
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func parseS3Config(section *ini.Section) *S3Config {
	return &S3Config{
		AccessKey:   section.Key("access_key").String(),
		SecretKey:   section.Key("secret_key").String(),
		HostBase:    section.Key("host_base").MustString("s3.amazonaws.com"),
		HostBucket:  section.Key("host_bucket").MustString("%(bucket)s.s3.amazonaws.com"),
		UseHTTPS:    section.Key("use_https").MustBool(true),
		SignatureV2: section.Key("signature_v2").MustBool(false),
		Region:      section.Key("bucket_location").MustString("us-east-1"),

		Backend:     strings.ToLower(section.Key("s4_backend").MustString(BackendS3)),
		Namespace:   section.Key("s4_namespace").String(),
		PageSize:    section.Key("s4_page_size").MustInt(defaultPageSize),
		SortBy:      strings.ToLower(section.Key("s4_sort_by").MustString(SortByName)),
		URLExpiry:   section.Key("s4_url_expiry").MustDuration(defaultURLExpiry),
		DownloadDir: section.Key("s4_download_dir").MustString("."),
		LogFile:     section.Key("s4_log_file").String(),
		LogLevel:    section.Key("s4_log_level").MustString("info"),
	}
}

// Validate checks the settings that have no usable default.
func (c *S3Config) Validate() error {
	if c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("access_key and secret_key must be specified")
	}
	if c.Backend != BackendS3 && c.Backend != BackendMinio {
		return fmt.Errorf("unknown s4_backend %q (want %s or %s)", c.Backend, BackendS3, BackendMinio)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("s4_page_size must be positive, got %d", c.PageSize)
	}
	if c.SortBy != SortByName && c.SortBy != SortByModified {
		return fmt.Errorf("unknown s4_sort_by %q (want %s or %s)", c.SortBy, SortByName, SortByModified)
	}
	return nil
}

// GetEndpointURL returns the endpoint URL for the S3 service
func (c *S3Config) GetEndpointURL() string {
	protocol := "https"
	if !c.UseHTTPS {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s", protocol, c.HostBase)
}

// Credentials returns the endpoint/key pair shown in the connect form.
func (c *S3Config) Credentials() Credentials {
	return Credentials{
		Endpoint:  c.GetEndpointURL(),
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
	}
}

// WithCredentials returns a copy of c using creds. The endpoint may be a bare
// host or a URL; a URL scheme decides UseHTTPS.
func (c *S3Config) WithCredentials(creds Credentials) (*S3Config, error) {
	next := *c
	next.AccessKey = strings.TrimSpace(creds.AccessKey)
	next.SecretKey = strings.TrimSpace(creds.SecretKey)

	endpoint := strings.TrimSpace(creds.Endpoint)
	if endpoint == "" || next.AccessKey == "" || next.SecretKey == "" {
		return nil, fmt.Errorf("endpoint, access key and secret key are all required")
	}
	if strings.Contains(endpoint, "://") {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
		}
		switch u.Scheme {
		case "https":
			next.UseHTTPS = true
		case "http":
			next.UseHTTPS = false
		default:
			return nil, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
		}
		endpoint = u.Host
	}
	if endpoint == "" {
		return nil, fmt.Errorf("invalid endpoint %q", creds.Endpoint)
	}
	next.HostBase = endpoint
	return &next, nil
}

// InteractiveS3Setup asks for the connection settings on in/out and saves
// them where the user chooses.
func InteractiveS3Setup(in io.Reader, out io.Writer) (*S3Config, error) {
	scanner := bufio.NewScanner(in)
	ask := func(prompt string) (string, error) {
		fmt.Fprint(out, prompt)
		if !scanner.Scan() {
			return "", fmt.Errorf("failed to read input")
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	fmt.Fprintln(out, "S4 Interactive Setup")
	fmt.Fprintln(out, "====================")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "No .s3cfg configuration file found.")
	response, err := ask("Would you like to create one interactively? (y/N) ")
	if err != nil {
		return nil, err
	}
	response = strings.ToLower(response)
	if response != "y" && response != "yes" {
		return nil, fmt.Errorf("setup declined by user")
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Common configurations:")
	fmt.Fprintln(out, "  • AWS S3: your AWS credentials and s3.amazonaws.com")
	fmt.Fprintln(out, "  • MinIO local: minioadmin/minioadmin and localhost:9000")
	fmt.Fprintln(out)

	config := &S3Config{
		Backend:     BackendS3,
		PageSize:    defaultPageSize,
		SortBy:      SortByName,
		URLExpiry:   defaultURLExpiry,
		DownloadDir: ".",
		LogLevel:    "info",
	}

	if config.AccessKey, err = ask("Access Key ID: "); err != nil {
		return nil, err
	}
	if config.SecretKey, err = ask("Secret Access Key: "); err != nil {
		return nil, err
	}
	if config.HostBase, err = ask("S3 Endpoint (default: s3.amazonaws.com): "); err != nil {
		return nil, err
	}
	if config.HostBase == "" {
		config.HostBase = "s3.amazonaws.com"
	}
	if config.HostBase == "s3.amazonaws.com" {
		config.HostBucket = "%(bucket)s.s3.amazonaws.com"
	} else {
		config.HostBucket = config.HostBase + "/%(bucket)s"
	}
	if config.Region, err = ask("Region (default: us-east-1): "); err != nil {
		return nil, err
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}
	backend, err := ask("Client library, s3 or minio (default: s3): ")
	if err != nil {
		return nil, err
	}
	if backend != "" {
		config.Backend = strings.ToLower(backend)
	}
	config.UseHTTPS = !strings.Contains(config.HostBase, "localhost") && !strings.Contains(config.HostBase, "127.0.0.1")

	if err := config.Validate(); err != nil {
		return nil, err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration summary:\n")
	fmt.Fprintf(out, "  Endpoint: %s\n", config.GetEndpointURL())
	fmt.Fprintf(out, "  Region: %s\n", config.Region)
	fmt.Fprintf(out, "  Backend: %s\n", config.Backend)
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Where would you like to save this configuration?")
	fmt.Fprintln(out, "1. Current directory (.s3cfg)")
	fmt.Fprintln(out, "2. Home directory (~/.s3cfg)")
	choice, err := ask("Choice (1-2, default: 2): ")
	if err != nil {
		return nil, err
	}

	var configPath string
	switch choice {
	case "1":
		configPath = ".s3cfg"
	case "", "2":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(homeDir, ".s3cfg")
	default:
		return nil, fmt.Errorf("invalid choice")
	}

	if err := SaveS3Config(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Fprintf(out, "\nConfiguration saved to: %s\n\n", configPath)
	return config, nil
}

// SaveS3Config writes config to path in .s3cfg format.
func SaveS3Config(config *S3Config, path string) error {
	cfg := ini.Empty()
	section := cfg.Section("default")

	section.Key("access_key").SetValue(config.AccessKey)
	section.Key("secret_key").SetValue(config.SecretKey)
	section.Key("host_base").SetValue(config.HostBase)
	section.Key("host_bucket").SetValue(config.HostBucket)
	section.Key("use_https").SetValue(iniBool(config.UseHTTPS))
	section.Key("signature_v2").SetValue(iniBool(config.SignatureV2))
	section.Key("bucket_location").SetValue(config.Region)

	section.Key("s4_backend").SetValue(config.Backend)
	if config.Namespace != "" {
		section.Key("s4_namespace").SetValue(config.Namespace)
	}
	section.Key("s4_page_size").SetValue(fmt.Sprint(config.PageSize))
	if config.SortBy != "" {
		section.Key("s4_sort_by").SetValue(config.SortBy)
	}
	section.Key("s4_url_expiry").SetValue(config.URLExpiry.String())
	if config.DownloadDir != "" {
		section.Key("s4_download_dir").SetValue(config.DownloadDir)
	}
	if config.LogFile != "" {
		section.Key("s4_log_file").SetValue(config.LogFile)
	}
	if config.LogLevel != "" {
		section.Key("s4_log_level").SetValue(config.LogLevel)
	}

	return cfg.SaveTo(path)
}

// s3cmd writes booleans capitalised.
func iniBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
