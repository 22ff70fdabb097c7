package directory

import (
	"errors"
	"strings"
	"testing"

	"github.com/hugo-lorenzo-mato/gripro/internal/core"
	"github.com/hugo-lorenzo-mato/gripro/internal/logging"
)

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	d, err := NewWithDefaults(logging.NewNop(), WithPromptChecker(func(string) bool { return true }))
	if err != nil {
		t.Fatalf("NewWithDefaults() error = %v", err)
	}
	return d
}

func customAgent() core.AgentDefinition {
	return core.AgentDefinition{
		Name:       "custom_agent",
		Alias:      "Custom",
		Role:       core.RoleBackend,
		PromptFile: "prompts/custom.md",
		Config:     map[string]interface{}{"role": "Custom Role"},
		Active:     true,
	}
}

func TestBootstrap_LoadsDefaultRoster(t *testing.T) {
	d := newTestDirectory(t)

	if d.Len() != 8 {
		t.Errorf("Len() = %d, want 8", d.Len())
	}

	wantNames := []string{
		"baky_backend", "devi_devops", "fronti_frontend", "guru_supervisor",
		"mark_marketing", "primo", "qai_testing", "secu_security",
	}
	names := d.Names()
	if len(names) != len(wantNames) {
		t.Fatalf("Names() = %v, want %v", names, wantNames)
	}
	for i, name := range wantNames {
		if names[i] != name {
			t.Errorf("Names()[%d] = %q, want %q", i, names[i], name)
		}
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	d := newTestDirectory(t)

	// Name and alias in any case all return the coordinator.
	for _, ref := range []string{"primo", "PRIMO", "Primo", "pRiMo"} {
		agent, err := d.Resolve(ref)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", ref, err)
		}
		if agent.Name != "primo" {
			t.Errorf("Resolve(%q).Name = %q, want %q", ref, agent.Name, "primo")
		}
		if agent.Role != core.RoleCoordinator {
			t.Errorf("Resolve(%q).Role = %q, want coordinator", ref, agent.Role)
		}
	}
}

func TestResolve_SameIdentityByNameAndAlias(t *testing.T) {
	d := newTestDirectory(t)

	byName, err := d.Resolve("fronti_frontend")
	if err != nil {
		t.Fatalf("Resolve(name) error = %v", err)
	}
	byAlias, err := d.Resolve("Fronti")
	if err != nil {
		t.Fatalf("Resolve(alias) error = %v", err)
	}
	if byName != byAlias {
		t.Error("Resolve by name and alias returned different agents")
	}
}

func TestResolve_NotFound(t *testing.T) {
	d := newTestDirectory(t)

	_, err := d.Resolve("nonexistent")
	if err == nil {
		t.Fatal("Resolve(nonexistent) error = nil, want NotFound")
	}
	if !errors.Is(err, core.ErrNotFound("agent", "")) {
		t.Errorf("error = %v, want not_found category", err)
	}

	var domErr *core.DomainError
	if !errors.As(err, &domErr) {
		t.Fatalf("error type = %T, want *core.DomainError", err)
	}
	if domErr.Details["available"] == nil {
		t.Error("NotFound error should enumerate available agents")
	}
}

func TestResolveAlias_OnlyMatchesAliases(t *testing.T) {
	d := newTestDirectory(t)

	agent, err := d.ResolveAlias("Qai")
	if err != nil {
		t.Fatalf("ResolveAlias(Qai) error = %v", err)
	}
	if agent.Name != "qai_testing" {
		t.Errorf("ResolveAlias(Qai).Name = %q, want qai_testing", agent.Name)
	}

	// Full names are not aliases.
	if _, err := d.ResolveAlias("qai_testing"); err == nil {
		t.Error("ResolveAlias(qai_testing) error = nil, want NotFound")
	}
}

func TestRegister_DuplicateNameFails(t *testing.T) {
	d := newTestDirectory(t)

	dup := customAgent()
	dup.Name = "primo"
	dup.Alias = "Boss"

	err := d.Register(dup, false)
	if err == nil {
		t.Fatal("Register(primo, overwrite=false) error = nil, want AlreadyExists")
	}
	if !core.IsCategory(err, core.ErrCatConflict) {
		t.Errorf("error category = %v, want conflict", core.GetCategory(err))
	}

	// Prior entry and alias are untouched.
	agent, err := d.Resolve("primo")
	if err != nil {
		t.Fatalf("Resolve(primo) error = %v", err)
	}
	if agent.Alias != "Primo" {
		t.Errorf("Alias = %q, want %q (prior entry must survive)", agent.Alias, "Primo")
	}
	if _, err := d.Resolve("Boss"); err == nil {
		t.Error("Resolve(Boss) error = nil, rejected alias must not be installed")
	}
}

func TestRegister_OverwriteReplacesEntryAndAlias(t *testing.T) {
	d := newTestDirectory(t)

	repl := core.AgentDefinition{
		Name:       "mark_marketing",
		Alias:      "Docs",
		Role:       core.RoleDocumentation,
		PromptFile: "prompts/docs.md",
		Active:     true,
	}
	if err := d.Register(repl, true); err != nil {
		t.Fatalf("Register(overwrite=true) error = %v", err)
	}

	agent, err := d.Resolve("mark_marketing")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if agent.Alias != "Docs" {
		t.Errorf("Alias = %q, want %q", agent.Alias, "Docs")
	}

	// The old alias no longer resolves, the new one does.
	if _, err := d.Resolve("Mark"); err == nil {
		t.Error("Resolve(Mark) error = nil, old alias must be released")
	}
	if _, err := d.Resolve("Docs"); err != nil {
		t.Errorf("Resolve(Docs) error = %v, want nil", err)
	}
}

func TestRegister_AliasHeldByOtherAgentFails(t *testing.T) {
	d := newTestDirectory(t)

	imposter := customAgent()
	imposter.Alias = "Primo"

	err := d.Register(imposter, false)
	if err == nil {
		t.Fatal("Register with stolen alias error = nil, want AlreadyExists")
	}
	if !core.IsCategory(err, core.ErrCatConflict) {
		t.Errorf("error category = %v, want conflict", core.GetCategory(err))
	}

	// The alias still belongs to the original holder.
	agent, err := d.Resolve("Primo")
	if err != nil {
		t.Fatalf("Resolve(Primo) error = %v", err)
	}
	if agent.Name != "primo" {
		t.Errorf("Resolve(Primo).Name = %q, want primo", agent.Name)
	}
}

func TestRegister_ValidatesRequiredFields(t *testing.T) {
	d := New(logging.NewNop())

	def := core.AgentDefinition{Name: "incomplete", Role: core.RoleBackend}
	err := d.Register(def, false)
	if err == nil {
		t.Fatal("Register(incomplete) error = nil, want ValidationError")
	}
	if !core.IsCategory(err, core.ErrCatValidation) {
		t.Errorf("error category = %v, want validation", core.GetCategory(err))
	}
	for _, field := range []string{"alias", "prompt_file"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q should name missing field %q", err.Error(), field)
		}
	}
}

func TestRegister_EmptyNameFails(t *testing.T) {
	d := New(logging.NewNop())

	def := customAgent()
	def.Name = "   "
	if err := d.Register(def, false); err == nil {
		t.Error("Register with blank name error = nil, want ValidationError")
	}
}

func TestRegister_NormalizesName(t *testing.T) {
	d := New(logging.NewNop())

	def := customAgent()
	def.Name = "  Custom_Agent  "
	if err := d.Register(def, false); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	agent, err := d.Resolve("custom_agent")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if agent.Name != "custom_agent" {
		t.Errorf("stored name = %q, want lowercased trimmed form", agent.Name)
	}
}

func TestRemove_DeletesBothMappings(t *testing.T) {
	d := newTestDirectory(t)

	if err := d.Remove("devi_devops"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	if _, err := d.Resolve("devi_devops"); err == nil {
		t.Error("Resolve(name) after Remove should fail")
	}
	if _, err := d.Resolve("Devi"); err == nil {
		t.Error("Resolve(alias) after Remove should fail")
	}
	if d.Len() != 7 {
		t.Errorf("Len() = %d, want 7", d.Len())
	}
}

func TestRemove_NotFound(t *testing.T) {
	d := newTestDirectory(t)

	err := d.Remove("ghost")
	if err == nil {
		t.Fatal("Remove(ghost) error = nil, want NotFound")
	}
	if !core.IsCategory(err, core.ErrCatNotFound) {
		t.Errorf("error category = %v, want not_found", core.GetCategory(err))
	}
}

func TestByRole(t *testing.T) {
	d := newTestDirectory(t)

	coords := d.ByRole(core.RoleCoordinator)
	if len(coords) != 1 || coords[0].Name != "primo" {
		t.Errorf("ByRole(coordinator) = %v, want [primo]", coords)
	}

	if got := d.ByRole(core.RoleSecurity); len(got) != 1 {
		t.Errorf("ByRole(security) returned %d agents, want 1", len(got))
	}
}

func TestContains(t *testing.T) {
	d := newTestDirectory(t)

	for _, ref := range []string{"primo", "Primo", "GURU_SUPERVISOR", "Guru"} {
		if !d.Contains(ref) {
			t.Errorf("Contains(%q) = false, want true", ref)
		}
	}
	if d.Contains("ghost") {
		t.Error("Contains(ghost) = true, want false")
	}
}

func TestValidateAll_DefaultRosterValid(t *testing.T) {
	d := newTestDirectory(t)

	results := d.ValidateAll()
	if len(results) != 8 {
		t.Fatalf("ValidateAll() returned %d results, want 8", len(results))
	}
	for name, valid := range results {
		if !valid {
			t.Errorf("agent %q invalid, want valid", name)
		}
	}
}

func TestValidateAll_InactiveAgentInvalid(t *testing.T) {
	d := newTestDirectory(t)

	def := customAgent()
	def.Active = false
	if err := d.Register(def, false); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	results := d.ValidateAll()
	if results["custom_agent"] {
		t.Error("inactive agent validated as true, want false")
	}
}

func TestValidateAll_MissingDependencyInvalid(t *testing.T) {
	d := newTestDirectory(t)

	def := customAgent()
	def.Dependencies = []string{"nonexistent_agent"}
	if err := d.Register(def, false); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	results := d.ValidateAll()
	if results["custom_agent"] {
		t.Error("agent with missing dependency validated as true, want false")
	}
}

func TestValidateAll_MissingPromptIsSoftIssue(t *testing.T) {
	d, err := NewWithDefaults(logging.NewNop(), WithPromptChecker(func(string) bool { return false }))
	if err != nil {
		t.Fatalf("NewWithDefaults() error = %v", err)
	}

	// Missing prompts are logged but never fail validation.
	for name, valid := range d.ValidateAll() {
		if !valid {
			t.Errorf("agent %q invalid due to missing prompt, want valid", name)
		}
	}
}

func TestValidateAll_CyclicDependenciesValidate(t *testing.T) {
	d := New(logging.NewNop(), WithPromptChecker(func(string) bool { return true }))

	a := customAgent()
	a.Name = "agent_a"
	a.Alias = "A"
	a.Dependencies = []string{"agent_b"}
	b := customAgent()
	b.Name = "agent_b"
	b.Alias = "B"
	b.Dependencies = []string{"agent_a"}

	// Register both before validating; existence is all that is checked.
	if err := d.Register(a, false); err != nil {
		t.Fatalf("Register(a) error = %v", err)
	}
	if err := d.Register(b, false); err != nil {
		t.Fatalf("Register(b) error = %v", err)
	}

	results := d.ValidateAll()
	if !results["agent_a"] || !results["agent_b"] {
		t.Error("cyclic dependencies should validate; only existence is checked")
	}
}

func TestList_SortedByName(t *testing.T) {
	d := newTestDirectory(t)

	agents := d.List()
	for i := 1; i < len(agents); i++ {
		if agents[i-1].Name >= agents[i].Name {
			t.Errorf("List() not sorted: %q before %q", agents[i-1].Name, agents[i].Name)
		}
	}
}

func TestDefaultRoster_DependenciesResolvable(t *testing.T) {
	d := newTestDirectory(t)

	for _, agent := range d.List() {
		for _, dep := range agent.Dependencies {
			if _, err := d.Resolve(dep); err != nil {
				t.Errorf("agent %q dependency %q does not resolve: %v", agent.Name, dep, err)
			}
		}
	}
}
