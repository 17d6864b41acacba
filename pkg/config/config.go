// Package config holds the single configuration value a reporter is built from.
package config

import (
	"errors"
	"fmt"
	"net/mail"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/operator-framework/usage-reporter/pkg/usage"
)

const (
	StorageS3   = "s3"
	StorageFile = "file"

	DefaultRegion         = "us-east-1"
	DefaultUsageTypeGroup = "EC2: Running Hours"
	DefaultRunTimeout     = 5 * time.Minute
	DefaultSchedule       = "0 8 * * 1"
	DefaultListenAddr     = ":8080"
	DefaultDotEnvFile     = ".env"
)

// Config is constructed once at start up and passed to every component.
// The flag tag names the command line flag a field is bound to and is used in
// validation messages.
type Config struct {
	ClusterTagKey   string `flag:"cluster-tag-key" validate:"required"`
	ClusterTagValue string `flag:"cluster-tag-value" validate:"required"`
	UserTagKey      string `flag:"user-tag-key" validate:"required"`
	StartDate       string `flag:"start-date" validate:"required,datetime=2006-01-02"`

	Storage  string `flag:"storage" validate:"oneof=s3 file"`
	Bucket   string `flag:"bucket" validate:"required_if=Storage s3"`
	DataDir  string `flag:"data-dir" validate:"required_if=Storage file"`
	CostKey  string `flag:"cost-key" validate:"required"`
	UsageKey string `flag:"usage-key" validate:"required,nefield=CostKey"`
	Region   string `flag:"region"`

	SenderAddress string   `flag:"sender-address" validate:"required,email"`
	SenderName    string   `flag:"sender-name" validate:"required"`
	Recipients    []string `flag:"recipients" validate:"required,min=1,dive,email"`
	HelpAddress   string   `flag:"help-address" validate:"required,email"`
	EmailTemplate string   `flag:"email-template" validate:"omitempty,file"`
	AttachCSV     bool     `flag:"attach-csv"`
	DryRunDir     string   `flag:"dry-run-dir"`

	KnownUsers     []string `flag:"known-users" validate:"dive,required"`
	UserIDPattern  string   `flag:"user-id-pattern"`
	UsageTypeGroup string   `flag:"usage-type-group"`

	RunTimeout time.Duration `flag:"run-timeout" validate:"min=1s"`
	Schedule   string        `flag:"schedule"`
	ListenAddr string        `flag:"listen-addr"`
}

// New returns a Config with every default applied.
func New() Config {
	return Config{
		Storage:        StorageS3,
		Region:         DefaultRegion,
		AttachCSV:      true,
		UsageTypeGroup: DefaultUsageTypeGroup,
		RunTimeout:     DefaultRunTimeout,
		Schedule:       DefaultSchedule,
		ListenAddr:     DefaultListenAddr,
	}
}

var validate = validator.New()

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("flag"); name != "" {
			return name
		}
		return fld.Name
	})
}

// FieldError describes one invalid setting.
type FieldError struct {
	Flag  string
	Rule  string
	Param string
	Value interface{}
}

func (e FieldError) String() string {
	switch e.Rule {
	case "required", "required_if":
		return fmt.Sprintf("--%s is required", e.Flag)
	case "email":
		return fmt.Sprintf("--%s: %v is not a valid email address", e.Flag, e.Value)
	case "datetime":
		return fmt.Sprintf("--%s: %v is not a date in the form %s", e.Flag, e.Value, e.Param)
	case "oneof":
		return fmt.Sprintf("--%s must be one of [%s], got %v", e.Flag, e.Param, e.Value)
	case "pattern":
		return fmt.Sprintf("--%s: %s", e.Flag, e.Param)
	}
	if e.Param != "" {
		return fmt.Sprintf("--%s failed %s=%s", e.Flag, e.Rule, e.Param)
	}
	return fmt.Sprintf("--%s failed %s", e.Flag, e.Rule)
}

// ValidationError lists every invalid setting found by Validate.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.String())
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Normalize cleans up list settings that may come from environment variables
// written as "[a@x.com, b@x.com]" or with stray whitespace.
func (c *Config) Normalize() {
	c.Recipients = splitList(c.Recipients)
	c.KnownUsers = splitList(c.KnownUsers)
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	c.StartDate = strings.TrimSpace(c.StartDate)
	c.SenderAddress = strings.TrimSpace(c.SenderAddress)
	c.HelpAddress = strings.TrimSpace(c.HelpAddress)
	if c.Region == "" {
		c.Region = DefaultRegion
	}
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			part = strings.Trim(strings.TrimSpace(part), `[]"'`)
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate normalizes c and checks every setting. The returned error is a
// *ValidationError when a setting is invalid.
func (c *Config) Validate() error {
	c.Normalize()

	verr := &ValidationError{}
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			verr.Fields = append(verr.Fields, FieldError{
				Flag:  fe.Field(),
				Rule:  fe.Tag(),
				Param: fe.Param(),
				Value: fe.Value(),
			})
		}
	}
	if c.UserIDPattern != "" {
		if _, err := regexp.Compile(c.UserIDPattern); err != nil {
			verr.Fields = append(verr.Fields, FieldError{Flag: "user-id-pattern", Rule: "pattern", Param: err.Error(), Value: c.UserIDPattern})
		}
	}

	if len(verr.Fields) > 0 {
		sort.SliceStable(verr.Fields, func(i, j int) bool {
			return verr.Fields[i].Flag < verr.Fields[j].Flag
		})
		return verr
	}
	return nil
}

// StartTime is the parsed start date.
func (c *Config) StartTime() (time.Time, error) {
	t, err := usage.ParseDate(c.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start date %q: %w", c.StartDate, err)
	}
	return t, nil
}

// Sender is the From address of the report email.
func (c *Config) Sender() mail.Address {
	return mail.Address{Name: c.SenderName, Address: c.SenderAddress}
}

// RecipientAddresses returns the recipients as mail addresses.
func (c *Config) RecipientAddresses() []mail.Address {
	addrs := make([]mail.Address, 0, len(c.Recipients))
	for _, r := range c.Recipients {
		if parsed, err := mail.ParseAddress(r); err == nil {
			addrs = append(addrs, *parsed)
			continue
		}
		addrs = append(addrs, mail.Address{Address: r})
	}
	return addrs
}

// DryRun is true when the report is written to disk instead of being emailed.
func (c *Config) DryRun() bool {
	return c.DryRunDir != ""
}

// LoadDotEnv loads the first of paths that exists into the environment.
// Variables already set in the environment win over the file. It returns the
// path loaded, if any.
func LoadDotEnv(paths ...string) (string, error) {
	if len(paths) == 0 {
		paths = []string{DefaultDotEnvFile}
	}
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("could not load %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}
