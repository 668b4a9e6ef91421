// Package flowfile loads extra scenarios from YAML flow files.
//
// A flow file holds one scenario:
//
//	name: admin-login-keeps-session
//	tags: [auth]
//	steps:
//	  - navigate: ${LOGIN_PATH}
//	  - fill: {locator: "${EMAIL_FIELD}", value: "${VALID_EMAIL}"}
//	  - click: "${SUBMIT_SELECTOR}"
//	  - expect_url: {contains: dashboard, timeout: 5s}
//	  - expect_url: {not_contains: login, hold: 2s}
//	  - log_url: Landing page
//
// ${VAR} references are resolved from the variables passed to the parser.
package flowfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"schoolbus-uitest/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

type Parser struct {
	vars map[string]string
}

func NewParser(vars map[string]string) *Parser {
	return &Parser{vars: vars}
}

// LoadDir parses every *.yaml and *.yml file in dir, sorted by file name.
func (p *Parser) LoadDir(dir string) ([]entity.Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read flows dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	scenarios := make([]entity.Scenario, 0, len(files))
	for _, f := range files {
		sc, err := p.ParseFile(f)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, *sc)
	}
	return scenarios, nil
}

func (p *Parser) ParseFile(path string) (*entity.Scenario, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path comes from the configured flows dir
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(data, path)
}

func (p *Parser) Parse(data []byte, sourcePath string) (*entity.Scenario, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("invalid yaml: %v", err)}
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "empty flow file"}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Path: sourcePath, Line: root.Line, Message: "flow must be a mapping"}
	}
	if err := p.expand(root, sourcePath); err != nil {
		return nil, err
	}

	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Tags        []string    `yaml:"tags"`
		Steps       []yaml.Node `yaml:"steps"`
	}
	if err := root.Decode(&raw); err != nil {
		return nil, &ParseError{Path: sourcePath, Line: root.Line, Message: fmt.Sprintf("invalid flow: %v", err)}
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	}

	sc := &entity.Scenario{
		Name:        name,
		Description: raw.Description,
		Tags:        raw.Tags,
		Source:      sourcePath,
	}
	if len(raw.Steps) == 0 {
		return nil, &ParseError{Path: sourcePath, Line: root.Line, Message: "flow has no steps"}
	}

	for i := range raw.Steps {
		node := &raw.Steps[i]
		step, err := parseStep(node, sourcePath)
		if err != nil {
			return nil, err
		}
		if err := step.Validate(); err != nil {
			return nil, &ParseError{Path: sourcePath, Line: node.Line, Message: err.Error()}
		}
		sc.Steps = append(sc.Steps, step)
	}
	return sc, nil
}

// expand resolves ${VAR} references in every scalar under n.
func (p *Parser) expand(n *yaml.Node, sourcePath string) error {
	if n.Kind == yaml.ScalarNode {
		var missing []string
		n.Value = varPattern.ReplaceAllStringFunc(n.Value, func(ref string) string {
			key := varPattern.FindStringSubmatch(ref)[1]
			if v, ok := p.vars[key]; ok {
				return v
			}
			missing = append(missing, key)
			return ref
		})
		if len(missing) > 0 {
			return &ParseError{
				Path:    sourcePath,
				Line:    n.Line,
				Message: fmt.Sprintf("undefined variable: %s", strings.Join(missing, ", ")),
			}
		}
		return nil
	}
	for _, c := range n.Content {
		if err := p.expand(c, sourcePath); err != nil {
			return err
		}
	}
	return nil
}

type stepParams struct {
	Path        string `yaml:"path"`
	Locator     string `yaml:"locator"`
	Value       string `yaml:"value"`
	Contains    string `yaml:"contains"`
	NotContains string `yaml:"not_contains"`
	Hold        string `yaml:"hold"`
	Timeout     string `yaml:"timeout"`
	Label       string `yaml:"label"`
}

func parseStep(node *yaml.Node, sourcePath string) (entity.Step, error) {
	fail := func(line int, format string, args ...any) (entity.Step, error) {
		return entity.Step{}, &ParseError{Path: sourcePath, Line: line, Message: fmt.Sprintf(format, args...)}
	}

	// "- log_url" with no parameters
	if node.Kind == yaml.ScalarNode {
		if entity.Action(node.Value) != entity.ActionLogURL {
			return fail(node.Line, "step %q needs parameters", node.Value)
		}
		return entity.LogURL(""), nil
	}
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fail(node.Line, "step must be a mapping with a single action")
	}

	action := entity.Action(node.Content[0].Value)
	value := node.Content[1]

	var params stepParams
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			break
		}
		switch action {
		case entity.ActionNavigate:
			params.Path = value.Value
		case entity.ActionClick:
			params.Locator = value.Value
		case entity.ActionExpectURL:
			params.Contains = value.Value
		case entity.ActionLogURL:
			params.Label = value.Value
		default:
			return fail(value.Line, "%s needs a mapping of parameters", action)
		}
	case yaml.MappingNode:
		if err := value.Decode(&params); err != nil {
			return fail(value.Line, "invalid %s parameters: %v", action, err)
		}
	default:
		return fail(value.Line, "invalid %s parameters", action)
	}

	step := entity.Step{Action: action, Label: params.Label}

	switch action {
	case entity.ActionNavigate:
		step.Path = params.Path
	case entity.ActionFill, entity.ActionClick:
		loc, err := entity.ParseLocator(params.Locator)
		if err != nil {
			return fail(value.Line, "%s: %v", action, err)
		}
		step.Locator = loc
		step.Value = params.Value
	case entity.ActionExpectURL:
		step.Expect.Contains = params.Contains
		step.Expect.NotContains = params.NotContains
		if params.Hold != "" {
			d, err := time.ParseDuration(params.Hold)
			if err != nil {
				return fail(value.Line, "invalid hold %q: %v", params.Hold, err)
			}
			step.Expect.Hold = d
		}
	case entity.ActionLogURL:
	default:
		return fail(node.Content[0].Line, "unknown action: %s", action)
	}

	if params.Timeout != "" {
		d, err := time.ParseDuration(params.Timeout)
		if err != nil {
			return fail(value.Line, "invalid timeout %q: %v", params.Timeout, err)
		}
		step.Timeout = d
	}
	return step, nil
}
