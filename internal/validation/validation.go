// Package validation checks request bodies against embedded JSON schemas.
package validation

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"taskboard/internal/service"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const createTaskSchema = "create_task.schema.json"

// ruleNames replaces the schema message with the business rule code a
// violation stands for, keyed by field and keyword.
var ruleNames = map[string]string{
	"title/required":        service.ErrTitleRequired.Rule,
	"title/minLength":       service.ErrTitleTooShort.Rule,
	"title/maxLength":       service.ErrTitleTooLong.Rule,
	"description/maxLength": service.ErrDescriptionTooLong.Rule,
	"priority/type":         service.ErrInvalidPriority.Rule,
	"priority/enum":         service.ErrInvalidPriority.Rule,
}

func fieldError(field, keyword, message string) FieldError {
	if rule, ok := ruleNames[field+"/"+keyword]; ok {
		message = rule
	}
	return FieldError{Field: field, Keyword: keyword, Message: message}
}

// FieldError is a single schema violation. Field is a dotted path into the
// request body; it is empty for errors about the body as a whole.
type FieldError struct {
	Field   string `json:"field"`
	Keyword string `json:"keyword"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

type Validator struct {
	createTask *jsonschema.Schema
}

func New() (*Validator, error) {
	createTask, err := compile(createTaskSchema)
	if err != nil {
		return nil, err
	}
	return &Validator{createTask: createTask}, nil
}

func compile(name string) (*jsonschema.Schema, error) {
	data, err := schemaFS.ReadFile(path.Join("schemas", name))
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}

	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return schema, nil
}

// ValidateCreateTask validates a decoded JSON document (decode with
// UseNumber to keep integers exact). It returns nil when the document is
// valid.
func (v *Validator) ValidateCreateTask(doc any) []FieldError {
	return validate(v.createTask, doc)
}

func validate(schema *jsonschema.Schema, doc any) []FieldError {
	err := schema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []FieldError{{Message: err.Error()}}
	}

	var out []FieldError
	collect(&out, ve)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Field < out[j].Field
	})
	return out
}

func collect(out *[]FieldError, ve *jsonschema.ValidationError) {
	if ve == nil {
		return
	}
	if len(ve.Causes) == 0 {
		keyword := lastSegment(ve.KeywordLocation)
		field := pointerToField(ve.InstanceLocation)

		// "required" is reported on the parent object; name each missing
		// property instead.
		if keyword == "required" {
			for _, name := range missingProperties(ve.Message) {
				*out = append(*out, fieldError(joinField(field, name), keyword, "required"))
			}
			return
		}

		*out = append(*out, fieldError(field, keyword, ve.Message))
		return
	}
	for _, cause := range ve.Causes {
		collect(out, cause)
	}
}

func pointerToField(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}
	return strings.ReplaceAll(ptr, "/", ".")
}

func lastSegment(loc string) string {
	if i := strings.LastIndex(loc, "/"); i >= 0 {
		return loc[i+1:]
	}
	return loc
}

// missingProperties parses `missing properties: "a", "b"`.
func missingProperties(msg string) []string {
	_, list, ok := strings.Cut(msg, ":")
	if !ok {
		return []string{""}
	}

	var names []string
	for _, part := range strings.Split(list, ",") {
		if name := strings.Trim(strings.TrimSpace(part), `"'`); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return []string{""}
	}
	return names
}

func joinField(parent, name string) string {
	if parent == "" {
		return name
	}
	if name == "" {
		return parent
	}
	return parent + "." + name
}
