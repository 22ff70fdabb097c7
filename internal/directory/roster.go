package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
)

// DefaultRoster returns the built-in agent team: one coordinator, six
// department agents that depend on it, and a dependency-free supervisor.
// Callers receive a fresh copy and may modify it freely.
func DefaultRoster() []core.AgentDefinition {
	return []core.AgentDefinition{
		{
			Name:       "primo",
			Alias:      "Primo",
			Role:       core.RoleCoordinator,
			PromptFile: "prompts/primo.md",
			Config: map[string]interface{}{
				"role":                 "Project Manager",
				"description":          "Coordinates all agents, manages tasks and priorities",
				"can_delegate":         true,
				"max_concurrent_tasks": 5,
			},
			Active:       true,
			Dependencies: []string{},
		},
		{
			Name:       "fronti_frontend",
			Alias:      "Fronti",
			Role:       core.RoleFrontend,
			PromptFile: "prompts/fronti.md",
			Config: map[string]interface{}{
				"role":         "Frontend Developer",
				"description":  "React, Next.js, UI/UX implementation",
				"technologies": []string{"react", "nextjs", "typescript", "tailwind"},
			},
			Active:       true,
			Dependencies: []string{"primo"},
		},
		{
			Name:       "baky_backend",
			Alias:      "Baky",
			Role:       core.RoleBackend,
			PromptFile: "prompts/baky.md",
			Config: map[string]interface{}{
				"role":         "Backend Developer",
				"description":  "Python, FastAPI, databases, APIs",
				"technologies": []string{"python", "fastapi", "postgresql", "redis"},
			},
			Active:       true,
			Dependencies: []string{"primo"},
		},
		{
			Name:       "secu_security",
			Alias:      "Secu",
			Role:       core.RoleSecurity,
			PromptFile: "prompts/secu.md",
			Config: map[string]interface{}{
				"role":        "Security Specialist",
				"description": "Security audits, vulnerability analysis, compliance",
				"focus_areas": []string{"owasp", "authentication", "encryption"},
			},
			Active:       true,
			Dependencies: []string{"primo"},
		},
		{
			Name:       "qai_testing",
			Alias:      "Qai",
			Role:       core.RoleQA,
			PromptFile: "prompts/qai.md",
			Config: map[string]interface{}{
				"role":        "QA Engineer",
				"description": "Testing, quality assurance, test automation",
				"test_types":  []string{"unit", "integration", "e2e", "performance"},
			},
			Active:       true,
			Dependencies: []string{"primo"},
		},
		{
			Name:       "devi_devops",
			Alias:      "Devi",
			Role:       core.RoleDevOps,
			PromptFile: "prompts/devi.md",
			Config: map[string]interface{}{
				"role":        "DevOps Engineer",
				"description": "CI/CD, deployment, infrastructure, monitoring",
				"platforms":   []string{"docker", "hetzner", "github_actions"},
			},
			Active:       true,
			Dependencies: []string{"primo"},
		},
		{
			Name:       "mark_marketing",
			Alias:      "Mark",
			Role:       core.RoleDocumentation,
			PromptFile: "prompts/mark.md",
			Config: map[string]interface{}{
				"role":        "Marketing & Documentation",
				"description": "Documentation, content, user guides, marketing copy",
				"outputs":     []string{"docs", "readme", "tutorials", "blog_posts"},
			},
			Active:       true,
			Dependencies: []string{"primo"},
		},
		{
			Name:       "guru_supervisor",
			Alias:      "Guru",
			Role:       core.RoleSupervisor,
			PromptFile: "prompts/guru.md",
			Config: map[string]interface{}{
				"role":         "Knowledge Supervisor",
				"description":  "Oversees quality, provides guidance, reviews decisions",
				"capabilities": []string{"review", "guidance", "knowledge_base"},
			},
			Active:       true,
			Dependencies: []string{},
		},
	}
}

// rosterFile is the on-disk YAML roster format.
type rosterFile struct {
	Agents []rosterAgent `yaml:"agents"`
}

// rosterAgent mirrors core.AgentDefinition with an optional active flag
// that defaults to true when omitted.
type rosterAgent struct {
	Name         string                 `yaml:"name"`
	Alias        string                 `yaml:"alias"`
	Role         string                 `yaml:"role"`
	PromptFile   string                 `yaml:"prompt_file"`
	Config       map[string]interface{} `yaml:"config"`
	Active       *bool                  `yaml:"active"`
	Dependencies []string               `yaml:"dependencies"`
}

// LoadRosterFile reads agent definitions from a YAML roster file.
func LoadRosterFile(path string) ([]core.AgentDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster file: %w", err)
	}
	return ParseRoster(data)
}

// ParseRoster decodes YAML roster content into agent definitions.
func ParseRoster(data []byte) ([]core.AgentDefinition, error) {
	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing roster: %w", err)
	}
	if len(file.Agents) == 0 {
		return nil, core.ErrValidation(core.CodeInvalidConfig, "roster contains no agents")
	}

	defs := make([]core.AgentDefinition, 0, len(file.Agents))
	for _, a := range file.Agents {
		active := true
		if a.Active != nil {
			active = *a.Active
		}
		defs = append(defs, core.AgentDefinition{
			Name:         a.Name,
			Alias:        a.Alias,
			Role:         core.RoleCategory(a.Role),
			PromptFile:   a.PromptFile,
			Config:       a.Config,
			Active:       active,
			Dependencies: a.Dependencies,
		})
	}
	return defs, nil
}

// LoadInto registers every definition from a roster file into the directory,
// overwriting same-named entries. Used for custom team definitions and for
// hot-reloading the roster in serve mode.
func LoadInto(d *Directory, path string) (int, error) {
	defs, err := LoadRosterFile(path)
	if err != nil {
		return 0, err
	}
	for i, def := range defs {
		if err := d.Register(def, true); err != nil {
			return i, fmt.Errorf("registering agent %q: %w", def.Name, err)
		}
	}
	return len(defs), nil
}
