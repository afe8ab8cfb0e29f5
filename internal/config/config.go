package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultBaseURL      = "https://tululu.org"
	defaultCategory     = "l55"
	defaultPause        = 2 * time.Second
	defaultBooksPerPage = 15
	defaultTemplate     = "template.html"
	defaultPagesDir     = "pages"
	defaultPathPrefix   = "../"
	defaultAddr         = "127.0.0.1:5500"
)

type Config struct {
	BaseURL    string        `yaml:"base_url"`
	Category   string        `yaml:"category"`
	DestFolder string        `yaml:"dest_folder"`
	JSONPath   string        `yaml:"json_path"`
	SkipImgs   bool          `yaml:"skip_imgs"`
	SkipTxt    bool          `yaml:"skip_txt"`
	Pause      time.Duration `yaml:"pause"`
	UserAgent  string        `yaml:"user_agent"`
	Cookie     string        `yaml:"cookie"`
	CookieFile string        `yaml:"cookie_file"`
	CFBypass   bool          `yaml:"cf_bypass"`
	Debug      bool          `yaml:"debug"`

	BooksPerPage int    `yaml:"books_per_page"`
	Template     string `yaml:"template"`
	PagesDir     string `yaml:"pages_dir"`
	PathPrefix   string `yaml:"path_prefix"`
	Addr         string `yaml:"addr"`
}

// Options carries command line values. Zero values leave the loaded config
// alone; Pause and PathPrefix are pointers because zero and empty are real
// choices for them.
type Options struct {
	IgnoreConfig bool
	Debug        bool

	BaseURL    string
	Category   string
	DestFolder string
	JSONPath   string
	SkipImgs   bool
	SkipTxt    bool
	Pause      *time.Duration
	UserAgent  string
	Cookie     string
	CookieFile string
	CFBypass   bool

	BooksPerPage int
	Template     string
	PagesDir     string
	PathPrefix   *string
	Addr         string
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:      defaultBaseURL,
		Category:     defaultCategory,
		DestFolder:   ".",
		Pause:        defaultPause,
		BooksPerPage: defaultBooksPerPage,
		Template:     defaultTemplate,
		PagesDir:     defaultPagesDir,
		PathPrefix:   defaultPathPrefix,
		Addr:         defaultAddr,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// loadYAML decodes over the defaults, so keys missing from an older profile
// keep their default value.
func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		return finish(DefaultConfig(), opts, "(ignored config)")
	}

	activePath, err := ActiveConfigPath()
	if errors.Is(err, ErrNoConfig) || activePath == "" {
		return finish(DefaultConfig(), opts, "(default config in memory)\nRun `tululu config init` to create an actual config\n")
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	return finish(cfg, opts, activePath)
}

func finish(cfg *Config, opts Options, used string) (*Config, string, error) {
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, used, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Debug {
		c.Debug = true
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Category != "" {
		c.Category = o.Category
	}
	if o.DestFolder != "" {
		c.DestFolder = o.DestFolder
	}
	if o.JSONPath != "" {
		c.JSONPath = o.JSONPath
	}
	if o.SkipImgs {
		c.SkipImgs = true
	}
	if o.SkipTxt {
		c.SkipTxt = true
	}
	if o.Pause != nil {
		c.Pause = *o.Pause
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.CFBypass {
		c.CFBypass = true
	}
	if o.BooksPerPage != 0 {
		c.BooksPerPage = o.BooksPerPage
	}
	if o.Template != "" {
		c.Template = o.Template
	}
	if o.PagesDir != "" {
		c.PagesDir = o.PagesDir
	}
	if o.PathPrefix != nil {
		c.PathPrefix = *o.PathPrefix
	}
	if o.Addr != "" {
		c.Addr = o.Addr
	}
}

func normalizeDefaults(c *Config) {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Category == "" {
		c.Category = defaultCategory
	}
	if c.DestFolder == "" {
		c.DestFolder = "."
	}
	if c.BooksPerPage == 0 {
		c.BooksPerPage = defaultBooksPerPage
	}
	if c.Template == "" {
		c.Template = defaultTemplate
	}
	if c.PagesDir == "" {
		c.PagesDir = defaultPagesDir
	}
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
}

func (c *Config) Validate() error {
	if c.BooksPerPage < 1 {
		return fmt.Errorf("books_per_page must be at least 1, got %d", c.BooksPerPage)
	}
	if c.Pause < 0 {
		return fmt.Errorf("pause must not be negative, got %s", c.Pause)
	}
	return nil
}

func (c *Config) Print() {
	c.Fprint(os.Stdout)
}

func (c *Config) Fprint(w io.Writer) {
	_, _ = fmt.Fprintf(w, " -base_url: %s\n", c.BaseURL)
	_, _ = fmt.Fprintf(w, " -category: %s\n", c.Category)
	_, _ = fmt.Fprintf(w, " -dest_folder: %s\n", c.DestFolder)
	if c.JSONPath != "" {
		_, _ = fmt.Fprintf(w, " -json_path: %s\n", c.JSONPath)
	}
	if c.SkipImgs {
		_, _ = fmt.Fprintf(w, " -skip_imgs: %t\n", c.SkipImgs)
	}
	if c.SkipTxt {
		_, _ = fmt.Fprintf(w, " -skip_txt: %t\n", c.SkipTxt)
	}
	_, _ = fmt.Fprintf(w, " -pause: %s\n", c.Pause)
	if c.UserAgent != "" {
		_, _ = fmt.Fprintf(w, " -user_agent: %s\n", c.UserAgent)
	}
	if c.CookieFile != "" {
		_, _ = fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.CFBypass {
		_, _ = fmt.Fprintf(w, " -cf_bypass: %t\n", c.CFBypass)
	}
	if c.Debug {
		_, _ = fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	_, _ = fmt.Fprintf(w, " -books_per_page: %d\n", c.BooksPerPage)
	_, _ = fmt.Fprintf(w, " -template: %s\n", c.Template)
	_, _ = fmt.Fprintf(w, " -pages_dir: %s\n", c.PagesDir)
	_, _ = fmt.Fprintf(w, " -path_prefix: %q\n", c.PathPrefix)
	_, _ = fmt.Fprintf(w, " -addr: %s\n", c.Addr)
}
