package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/shlex"
	"gopkg.in/yaml.v3"
)

// ValidationError is a configuration problem tied to a file position or a key.
type ValidationError struct {
	// Path is the config file; empty for checks on the merged values.
	Path string
	// Key is the dotted config key, e.g. "git.backend".
	Key     string
	Line    int
	Column  int
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	case e.Key != "" && e.Path != "":
		return fmt.Sprintf("%s: %s %s", e.Path, e.Key, e.Message)
	case e.Key != "":
		return e.Key + " " + e.Message
	default:
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
}

// yamlPosition matches yaml.v3 syntax errors: "yaml: line 3: did not find ...",
// optionally with a column.
var yamlPosition = regexp.MustCompile(`^yaml: line (\d+):(?: column (\d+):)? (.*)$`)

// ValidateYAMLSyntax checks that the file at path is a YAML mapping. A missing
// or blank file is valid. Syntax errors carry the line and column yaml.v3 reports.
func ValidateYAMLSyntax(path string) error {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return &ValidationError{Path: path, Message: err.Error()}
	case strings.TrimSpace(string(data)) == "":
		return nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		verr := &ValidationError{Path: path, Message: strings.TrimPrefix(err.Error(), "yaml: ")}
		if m := yamlPosition.FindStringSubmatch(err.Error()); m != nil {
			verr.Line, _ = strconv.Atoi(m[1])
			verr.Column = 1
			if m[2] != "" {
				verr.Column, _ = strconv.Atoi(m[2])
			}
			verr.Message = m[3]
		}
		return verr
	}

	if len(doc.Content) == 1 && doc.Content[0].Kind != yaml.MappingNode {
		top := doc.Content[0]
		return &ValidationError{Path: path, Line: top.Line, Column: top.Column,
			Message: "top level must be a mapping of config keys"}
	}
	return nil
}

// ruleMessages phrase validator tags for users; %s is the tag parameter.
var ruleMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"oneof":    "must be one of: %s",
	"email":    "must be an email address",
	"alphanum": "must contain only letters and digits",
}

// ValidateConfigValues checks the merged configuration and reports the first
// failing key. path names the source in the error and may be empty.
func ValidateConfigValues(cfg *Configuration, path string) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return fld.Tag.Get("koanf")
	})

	var fieldErrs validator.ValidationErrors
	if err := validate.Struct(cfg); errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Path: path, Key: configKey(fe.Namespace()), Message: ruleMessage(fe)}
	} else if err != nil {
		return &ValidationError{Path: path, Message: err.Error()}
	}

	if argv, err := shlex.Split(cfg.Install.Command); err != nil || len(argv) == 0 {
		return &ValidationError{Path: path, Key: "install.command", Message: "must be a command line"}
	}
	return nil
}

func ruleMessage(fe validator.FieldError) string {
	msg, ok := ruleMessages[fe.Tag()]
	if !ok {
		return "failed rule " + fe.Tag()
	}
	if !strings.Contains(msg, "%s") {
		return msg
	}
	return fmt.Sprintf(msg, strings.ReplaceAll(fe.Param(), " ", ", "))
}

// configKey drops the struct name from a validator namespace:
// "Configuration.git.backend" -> "git.backend".
func configKey(namespace string) string {
	if _, key, ok := strings.Cut(namespace, "."); ok {
		return key
	}
	return namespace
}
