package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"lamina/internal/ffi"
	"lamina/internal/ir"
)

// Manifest is a loaded lamina.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors lamina.toml:
//
//	[package]
//	name = "counter"
//
//	[build]
//	main = "src/counter.lam"   # file or directory
//	target = "evm"             # evm | native | llvm
//	out = "build"
//	jobs = 4
//
//	[[extern]]
//	name = "emit-log"
//	params = ["int"]
//	result = "unit"
type Config struct {
	Package PackageConfig  `toml:"package"`
	Build   BuildConfig    `toml:"build"`
	Externs []ExternConfig `toml:"extern"`
}

type PackageConfig struct {
	Name string `toml:"name"`
}

type BuildConfig struct {
	Main   string `toml:"main"`
	Target string `toml:"target"`
	Out    string `toml:"out"`
	Jobs   int    `toml:"jobs"`
}

type ExternConfig struct {
	Name   string   `toml:"name"`
	Params []string `toml:"params"`
	Result string   `toml:"result"`
}

// Load finds and parses the manifest above startDir. ok is false when
// there is none.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg, err := ParseConfig(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes and validates manifest text.
func ParseConfig(text string) (Config, error) {
	var cfg Config
	meta, err := toml.Decode(text, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if !meta.IsDefined("package", "name") || strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, errors.New("missing [package].name")
	}
	if !meta.IsDefined("build", "main") || strings.TrimSpace(cfg.Build.Main) == "" {
		return Config{}, errors.New("missing [build].main")
	}
	if cfg.Build.Target == "" {
		cfg.Build.Target = "evm"
	}
	if cfg.Build.Out == "" {
		cfg.Build.Out = "build"
	}
	if cfg.Build.Jobs < 0 {
		return Config{}, fmt.Errorf("[build].jobs must not be negative, got %d", cfg.Build.Jobs)
	}
	return cfg, nil
}

// MainPath resolves [build].main against the project root.
func (m *Manifest) MainPath() string {
	return filepath.Join(m.Root, filepath.FromSlash(strings.TrimSpace(m.Config.Build.Main)))
}

func (m *Manifest) OutDir() string {
	return filepath.Join(m.Root, filepath.FromSlash(m.Config.Build.Out))
}

// Env builds the extern environment declared by [[extern]] tables.
func (c Config) Env() (*ffi.Env, error) {
	sigs := make([]ffi.Signature, 0, len(c.Externs))
	for _, x := range c.Externs {
		sig := ffi.Signature{Name: x.Name}
		for _, p := range x.Params {
			t, err := ffi.ParseType(p)
			if err != nil {
				return nil, fmt.Errorf("extern %q: %w", x.Name, err)
			}
			if t == ir.TypeUnit {
				return nil, fmt.Errorf("extern %q: parameters cannot be unit", x.Name)
			}
			sig.Params = append(sig.Params, t)
		}
		t, err := ffi.ParseType(x.Result)
		if err != nil {
			return nil, fmt.Errorf("extern %q: %w", x.Name, err)
		}
		sig.Result = t
		sigs = append(sigs, sig)
	}
	return ffi.NewEnv(sigs...)
}
