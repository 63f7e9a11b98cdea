// =============================================================================
// Razão Normalizer - Configuration Module
// =============================================================================
//
// This module loads the application configuration and the optional source
// profiles.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): global settings and ledger defaults
//   2. Source Profiles (profiles/*.yaml): per-exporter overrides selected by
//      file name pattern
//
// PRECEDENCE (lowest to highest):
//   built-in defaults < config.yaml < RAZAO_* environment variables < flags
//
// A missing config.yaml is not an error: the defaults are used.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment override, e.g.
// RAZAO_LEDGER_HEADER_RULE=contains.
const EnvPrefix = "RAZAO"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// Paths holds the input, output and archive directories.
	Paths PathsConfig `yaml:"paths" envconfig:"PATHS"`

	// Ledger holds the normalization defaults.
	Ledger LedgerConfig `yaml:"ledger" envconfig:"LEDGER"`

	// Input holds the text file parsing settings.
	Input InputConfig `yaml:"input" envconfig:"INPUT"`

	// Output holds the writer settings.
	Output OutputConfig `yaml:"output" envconfig:"OUTPUT"`

	// Logging holds the log settings.
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`

	// Processing holds the batch settings.
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
}

// =========================================================================
// DIRECTORY SETTINGS
// =========================================================================

// PathsConfig lists the working directories.
type PathsConfig struct {
	// InputDir is scanned for ledger exports.
	// Default: "./input"
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR"`

	// OutputDir receives the cleaned tables.
	// Default: "./output"
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`

	// InputArchiveDir receives processed inputs when archiving is on.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir" envconfig:"INPUT_ARCHIVE_DIR"`

	// LogsDir receives the error and summary logs of each run.
	// Default: "./logs"
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR"`

	// ProfilesDir contains the source profiles. Optional.
	// Default: "./profiles"
	ProfilesDir string `yaml:"profiles_dir" envconfig:"PROFILES_DIR"`
}

// =========================================================================
// LEDGER SETTINGS
// =========================================================================

// LedgerConfig holds the normalization options.
type LedgerConfig struct {
	// HeaderRule selects the account header rule: "prefix" or "contains".
	// Default: "prefix"
	HeaderRule string `yaml:"header_rule" envconfig:"HEADER_RULE"`

	// MinCodeDigits is the shortest digit run taken as an account code.
	// Default: 5
	MinCodeDigits int `yaml:"min_code_digits" envconfig:"MIN_CODE_DIGITS"`

	// NumberLocale selects the decimal separator of monetary text:
	// "pt-BR" (1.234,56) or "en-US" (1,234.56).
	// Default: "pt-BR"
	NumberLocale string `yaml:"number_locale" envconfig:"NUMBER_LOCALE"`

	// UnidentifiedAccount is written to Conta for transactions found before
	// the first account header.
	// Default: "NÃO IDENTIFICADA"
	UnidentifiedAccount string `yaml:"unidentified_account" envconfig:"UNIDENTIFIED_ACCOUNT"`

	// RejectUnassigned drops transactions found before the first header.
	RejectUnassigned bool `yaml:"reject_unassigned" envconfig:"REJECT_UNASSIGNED"`

	// ProgressEvery is the number of rows between progress updates.
	// Default: 500
	ProgressEvery int `yaml:"progress_every" envconfig:"PROGRESS_EVERY"`
}

// =========================================================================
// INPUT SETTINGS
// =========================================================================

// InputConfig controls how delimited text files are read.
type InputConfig struct {
	// Delimiter is the field separator, or "auto" to sniff among , ; tab |.
	// Default: "auto"
	Delimiter string `yaml:"delimiter" envconfig:"DELIMITER"`

	// Encoding is "auto", "utf-8", "iso-8859-1" or "windows-1252".
	// Default: "auto"
	Encoding string `yaml:"encoding" envconfig:"ENCODING"`

	// HeaderRow is the 1-based row holding the column names.
	// Default: 1
	HeaderRow int `yaml:"header_row" envconfig:"HEADER_ROW"`
}

// =========================================================================
// OUTPUT SETTINGS
// =========================================================================

// OutputConfig controls the writers.
type OutputConfig struct {
	// Format is "xlsx", "csv" or "xml".
	// Default: "xlsx"
	Format string `yaml:"format" envconfig:"FORMAT"`

	// CSVDelimiter is the separator used for CSV output.
	// Default: ";"
	CSVDelimiter string `yaml:"csv_delimiter" envconfig:"CSV_DELIMITER"`

	// SheetName is the worksheet name used for XLSX output.
	// Default: "Razao"
	SheetName string `yaml:"sheet_name" envconfig:"SHEET_NAME"`

	// NameFormat defines the output file name.
	// Placeholders:
	//   {name}      - input file name without extension
	//   {uuid}      - a random UUID
	//   {timestamp} - current timestamp (YYYYMMDD_HHMMSS)
	//   {ext}       - extension of the output format
	// Default: "{name}_limpo.{ext}"
	NameFormat string `yaml:"name_format" envconfig:"NAME_FORMAT"`

	// XMLRootTag and XMLRowTag name the XML document elements.
	// Defaults: "razao", "lancamento"
	XMLRootTag string `yaml:"xml_root_tag" envconfig:"XML_ROOT_TAG"`
	XMLRowTag  string `yaml:"xml_row_tag" envconfig:"XML_ROW_TAG"`
}

// =========================================================================
// LOGGING SETTINGS
// =========================================================================

// LoggingConfig controls the application logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level" envconfig:"LEVEL"`

	// JSON switches the console writer off and emits JSON lines.
	JSON bool `yaml:"json" envconfig:"JSON"`
}

// =========================================================================
// PROCESSING SETTINGS
// =========================================================================

// ProcessingConfig controls batch runs.
type ProcessingConfig struct {
	// MaxConcurrency is the maximum number of files processed at once.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY"`

	// StopOnError aborts the batch on the first failed file.
	StopOnError bool `yaml:"stop_on_error" envconfig:"STOP_ON_ERROR"`

	// ArchiveOnSuccess moves each successfully processed input to
	// InputArchiveDir.
	ArchiveOnSuccess bool `yaml:"archive_on_success" envconfig:"ARCHIVE_ON_SUCCESS"`

	// SkipValidation disables the post-normalization review.
	SkipValidation bool `yaml:"skip_validation" envconfig:"SKIP_VALIDATION"`
}

// =============================================================================
// SOURCE PROFILE STRUCTURE
// =============================================================================

// Profile overrides input and ledger settings for the exports of one source
// system. A profile is chosen when the input file name matches one of its
// patterns. Zero fields inherit the main configuration.
type Profile struct {
	// Name identifies the profile in logs. Defaults to the file name.
	Name string `yaml:"name"`

	// FileMatchingPatterns are glob patterns matched against the base name
	// of the input file, case-insensitively.
	// Examples:
	//   - "razao_*.csv"
	//   - "*_dominio.xlsx"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// Input overrides the text parsing settings.
	Input InputConfig `yaml:"input"`

	// Ledger overrides the normalization settings. RejectUnassigned can only
	// be switched on by a profile.
	Ledger LedgerConfig `yaml:"ledger"`
}

// Matches reports whether the profile applies to the given file.
func (p *Profile) Matches(filePath string) bool {
	base := strings.ToLower(filepath.Base(filePath))
	for _, pattern := range p.FileMatchingPatterns {
		if ok, _ := filepath.Match(strings.ToLower(pattern), base); ok {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration.
//
// PARAMETERS:
//   - configPath: The path to the YAML file. A missing file yields defaults.
//
// RETURNS:
//   - The configuration with environment overrides and defaults applied.
//   - An error if the file cannot be parsed or a value is invalid.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return nil, fmt.Errorf("failed to read environment overrides: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file and no environment
// overrides exist.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset option.
func applyMainConfigDefaults(config *MainConfig) {
	if config.Paths.InputDir == "" {
		config.Paths.InputDir = "./input"
	}
	if config.Paths.OutputDir == "" {
		config.Paths.OutputDir = "./output"
	}
	if config.Paths.InputArchiveDir == "" {
		config.Paths.InputArchiveDir = "./input_archive"
	}
	if config.Paths.LogsDir == "" {
		config.Paths.LogsDir = "./logs"
	}
	if config.Paths.ProfilesDir == "" {
		config.Paths.ProfilesDir = "./profiles"
	}

	if config.Ledger.HeaderRule == "" {
		config.Ledger.HeaderRule = "prefix"
	}
	if config.Ledger.MinCodeDigits == 0 {
		config.Ledger.MinCodeDigits = 5
	}
	if config.Ledger.NumberLocale == "" {
		config.Ledger.NumberLocale = "pt-BR"
	}
	if config.Ledger.UnidentifiedAccount == "" {
		config.Ledger.UnidentifiedAccount = "NÃO IDENTIFICADA"
	}
	if config.Ledger.ProgressEvery == 0 {
		config.Ledger.ProgressEvery = 500
	}

	applyInputDefaults(&config.Input)

	if config.Output.Format == "" {
		config.Output.Format = "xlsx"
	}
	if config.Output.CSVDelimiter == "" {
		config.Output.CSVDelimiter = ";"
	}
	if config.Output.SheetName == "" {
		config.Output.SheetName = "Razao"
	}
	if config.Output.NameFormat == "" {
		config.Output.NameFormat = "{name}_limpo.{ext}"
	}
	if config.Output.XMLRootTag == "" {
		config.Output.XMLRootTag = "razao"
	}
	if config.Output.XMLRowTag == "" {
		config.Output.XMLRowTag = "lancamento"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	if config.Processing.MaxConcurrency == 0 {
		config.Processing.MaxConcurrency = 4
	}
}

func applyInputDefaults(input *InputConfig) {
	if input.Delimiter == "" {
		input.Delimiter = "auto"
	}
	if input.Encoding == "" {
		input.Encoding = "auto"
	}
	if input.HeaderRow == 0 {
		input.HeaderRow = 1
	}
}

var (
	validHeaderRules = []string{"prefix", "contains"}
	validFormats     = []string{"xlsx", "csv", "xml"}
	validEncodings   = []string{"auto", "utf-8", "utf8", "iso-8859-1", "latin1", "windows-1252", "cp1252"}
	validLevels      = []string{"debug", "info", "warn", "error"}
)

// validateMainConfig checks the values that would otherwise fail late.
func validateMainConfig(config *MainConfig) error {
	if err := oneOf("ledger.header_rule", config.Ledger.HeaderRule, validHeaderRules); err != nil {
		return err
	}
	if err := oneOf("output.format", config.Output.Format, validFormats); err != nil {
		return err
	}
	if err := oneOf("logging.level", config.Logging.Level, validLevels); err != nil {
		return err
	}
	if err := validateInput(config.Input); err != nil {
		return err
	}
	if config.Ledger.MinCodeDigits < 1 {
		return fmt.Errorf("ledger.min_code_digits must be positive, got %d", config.Ledger.MinCodeDigits)
	}
	if config.Ledger.ProgressEvery < 1 {
		return fmt.Errorf("ledger.progress_every must be positive, got %d", config.Ledger.ProgressEvery)
	}
	if config.Processing.MaxConcurrency < 1 {
		return fmt.Errorf("processing.max_concurrency must be positive, got %d", config.Processing.MaxConcurrency)
	}
	if len([]rune(config.Output.CSVDelimiter)) != 1 {
		return fmt.Errorf("output.csv_delimiter must be a single character, got %q", config.Output.CSVDelimiter)
	}
	return nil
}

func validateInput(input InputConfig) error {
	if err := oneOf("input.encoding", input.Encoding, validEncodings); err != nil {
		return err
	}
	if input.Delimiter != "auto" && input.Delimiter != `\t` && len([]rune(input.Delimiter)) != 1 {
		return fmt.Errorf("input.delimiter must be \"auto\" or a single character, got %q", input.Delimiter)
	}
	if input.HeaderRow < 1 {
		return fmt.Errorf("input.header_row must be positive, got %d", input.HeaderRow)
	}
	return nil
}

func oneOf(key, value string, valid []string) error {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range valid {
		if v == candidate {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q (valid: %s)", key, value, strings.Join(valid, ", "))
}

// EnsureDirs creates the working directories used by a batch run.
func (c *MainConfig) EnsureDirs() error {
	dirs := []string{
		c.Paths.InputDir,
		c.Paths.OutputDir,
		c.Paths.LogsDir,
	}
	if c.Processing.ArchiveOnSuccess {
		dirs = append(dirs, c.Paths.InputArchiveDir)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// PROFILE LOADING FUNCTIONS
// =============================================================================

// LoadProfiles loads every profile from a directory, sorted by file name.
// A missing directory yields no profiles.
func LoadProfiles(profilesDir string) ([]*Profile, error) {
	files, err := filepath.Glob(filepath.Join(profilesDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(profilesDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list profile files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)

	profiles := make([]*Profile, 0, len(files))
	for _, file := range files {
		profile, err := loadProfile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func loadProfile(filePath string) (*Profile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	if profile.Name == "" {
		profile.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	if len(profile.FileMatchingPatterns) == 0 {
		return nil, fmt.Errorf("profile %s has no file_matching_patterns", profile.Name)
	}
	return &profile, nil
}

// FindProfile returns the first profile matching filePath, or nil.
func FindProfile(profiles []*Profile, filePath string) *Profile {
	for _, p := range profiles {
		if p.Matches(filePath) {
			return p
		}
	}
	return nil
}

// Resolve returns the effective input and ledger settings for a file:
// the main configuration with the profile's non-zero fields laid on top.
func (c *MainConfig) Resolve(profile *Profile) (InputConfig, LedgerConfig, error) {
	input, ledger := c.Input, c.Ledger
	if profile == nil {
		return input, ledger, nil
	}

	if v := profile.Input.Delimiter; v != "" {
		input.Delimiter = v
	}
	if v := profile.Input.Encoding; v != "" {
		input.Encoding = v
	}
	if v := profile.Input.HeaderRow; v != 0 {
		input.HeaderRow = v
	}
	if err := validateInput(input); err != nil {
		return input, ledger, fmt.Errorf("profile %s: %w", profile.Name, err)
	}

	if v := profile.Ledger.HeaderRule; v != "" {
		if err := oneOf("ledger.header_rule", v, validHeaderRules); err != nil {
			return input, ledger, fmt.Errorf("profile %s: %w", profile.Name, err)
		}
		ledger.HeaderRule = v
	}
	if v := profile.Ledger.MinCodeDigits; v > 0 {
		ledger.MinCodeDigits = v
	}
	if v := profile.Ledger.NumberLocale; v != "" {
		ledger.NumberLocale = v
	}
	if v := profile.Ledger.UnidentifiedAccount; v != "" {
		ledger.UnidentifiedAccount = v
	}
	if profile.Ledger.RejectUnassigned {
		ledger.RejectUnassigned = true
	}
	if v := profile.Ledger.ProgressEvery; v > 0 {
		ledger.ProgressEvery = v
	}
	return input, ledger, nil
}
