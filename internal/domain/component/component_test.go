package component

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/felixgeelhaar/wslkit/internal/adapters/logging"
)

type stubStep struct {
	name string
}

func (s stubStep) Name() string             { return s.name }
func (s stubStep) Probe(_ RunContext) bool  { return false }
func (s stubStep) Apply(_ RunContext) error { return nil }

type stubRevertible struct{ stubStep }

func (s stubRevertible) Revert(_ RunContext) error { return nil }

func newSpec(key string, deps ...string) *Spec {
	return &Spec{
		Key:       key,
		Group:     GroupCore,
		Steps:     []Step{stubStep{name: key}},
		DependsOn: deps,
	}
}

func keysOf(specs []*Spec) []string {
	keys := make([]string, len(specs))
	for i, s := range specs {
		keys[i] = s.Key
	}
	return keys
}

func catalogRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, spec := range []*Spec{
		newSpec("base"),
		newSpec("zsh", "base"),
		newSpec("zsh-theme", "zsh"),
		newSpec("shell-config", "zsh-theme"),
		newSpec("dev-utils", "base"),
		newSpec("node", "base"),
		newSpec("python", "base"),
		newSpec("ai-sdks", "python"),
		newSpec("mcp-servers", "node"),
	} {
		if err := r.Add(spec); err != nil {
			t.Fatalf("Add(%s) error = %v", spec.Key, err)
		}
	}
	return r
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr error
	}{
		{"base", nil},
		{"zsh-theme", nil},
		{"3d-tools", nil},
		{"", ErrEmptyKey},
		{"   ", ErrEmptyKey},
		{"Zsh", ErrInvalidKey},
		{"-zsh", ErrInvalidKey},
		{"zsh theme", ErrInvalidKey},
		{"zsh_theme", ErrInvalidKey},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Add(t *testing.T) {
	r := NewRegistry()

	if err := r.Add(newSpec("base")); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	if err := r.Add(newSpec("base")); !errors.Is(err, ErrDuplicateComponent) {
		t.Errorf("Add() duplicate error = %v, want %v", err, ErrDuplicateComponent)
	}
	if err := r.Add(newSpec("Bad Key")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Add() invalid key error = %v, want %v", err, ErrInvalidKey)
	}
	if err := r.Add(&Spec{Key: "empty"}); !errors.Is(err, ErrNoSteps) {
		t.Errorf("Add() no steps error = %v, want %v", err, ErrNoSteps)
	}
}

func TestRegistry_MustAdd_Panics(t *testing.T) {
	r := NewRegistry()
	r.MustAdd(newSpec("base"))

	defer func() {
		if recover() == nil {
			t.Error("MustAdd() should panic on duplicate")
		}
	}()
	r.MustAdd(newSpec("base"))
}

func TestRegistry_KeysAndGroup(t *testing.T) {
	r := catalogRegistry(t)
	r.MustAdd(&Spec{Key: "llm", Group: GroupAI, Steps: []Step{stubStep{name: "llm"}}})

	want := []string{"base", "zsh", "zsh-theme", "shell-config", "dev-utils", "node", "python", "ai-sdks", "mcp-servers", "llm"}
	if got := r.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	ai := r.Group(GroupAI)
	if len(ai) != 1 || ai[0].Key != "llm" {
		t.Errorf("Group(ai) = %v, want [llm]", keysOf(ai))
	}

	if _, ok := r.Get("missing"); ok {
		t.Error("Get() should not find missing component")
	}
}

func TestRegistry_All_ReturnsCopy(t *testing.T) {
	r := catalogRegistry(t)
	all := r.All()
	all[0] = nil

	if spec, _ := r.Get("base"); spec == nil || r.All()[0] == nil {
		t.Error("All() should not expose internal slice")
	}
}

func TestRegistry_Resolve_SingleComponent(t *testing.T) {
	r := catalogRegistry(t)

	specs, err := r.Resolve([]string{"base"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := keysOf(specs); !reflect.DeepEqual(got, []string{"base"}) {
		t.Errorf("Resolve() = %v, want [base]", got)
	}
}

func TestRegistry_Resolve_AddsDependencies(t *testing.T) {
	r := catalogRegistry(t)

	specs, err := r.Resolve([]string{"shell-config"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"base", "zsh", "zsh-theme", "shell-config"}
	if got := keysOf(specs); !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestRegistry_Resolve_IndependentOfSelectionOrder(t *testing.T) {
	r := catalogRegistry(t)

	a, err := r.Resolve([]string{"mcp-servers", "ai-sdks", "dev-utils"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	b, err := r.Resolve([]string{"dev-utils", "ai-sdks", "mcp-servers"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"base", "dev-utils", "node", "python", "ai-sdks", "mcp-servers"}
	if got := keysOf(a); !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(keysOf(a), keysOf(b)) {
		t.Errorf("Resolve() order depends on selection order: %v vs %v", keysOf(a), keysOf(b))
	}
}

func TestRegistry_Resolve_DependencyDefinedLater(t *testing.T) {
	r := NewRegistry()
	r.MustAdd(newSpec("app", "runtime"))
	r.MustAdd(newSpec("tools"))
	r.MustAdd(newSpec("runtime"))

	specs, err := r.Resolve([]string{"app", "tools"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	want := []string{"tools", "runtime", "app"}
	if got := keysOf(specs); !reflect.DeepEqual(got, want) {
		t.Errorf("Resolve() = %v, want %v", got, want)
	}
}

func TestRegistry_Resolve_Errors(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		r := catalogRegistry(t)
		_, err := r.Resolve([]string{"nope"})
		if !errors.Is(err, ErrUnknownComponent) {
			t.Errorf("Resolve() error = %v, want %v", err, ErrUnknownComponent)
		}
	})

	t.Run("missing dependency", func(t *testing.T) {
		r := NewRegistry()
		r.MustAdd(newSpec("app", "ghost"))
		_, err := r.Resolve([]string{"app"})
		if !errors.Is(err, ErrMissingDep) {
			t.Errorf("Resolve() error = %v, want %v", err, ErrMissingDep)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		r := NewRegistry()
		r.MustAdd(newSpec("a", "c"))
		r.MustAdd(newSpec("b", "a"))
		r.MustAdd(newSpec("c", "b"))
		_, err := r.Resolve([]string{"a"})
		if !errors.Is(err, ErrCyclicDependency) {
			t.Errorf("Resolve() error = %v, want %v", err, ErrCyclicDependency)
		}
	})
}

func TestRegistry_Validate(t *testing.T) {
	if err := catalogRegistry(t).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	r := NewRegistry()
	r.MustAdd(newSpec("a", "b"))
	r.MustAdd(newSpec("b", "a"))
	if err := r.Validate(); !errors.Is(err, ErrCyclicDependency) {
		t.Errorf("Validate() error = %v, want %v", err, ErrCyclicDependency)
	}

	r = NewRegistry()
	r.MustAdd(newSpec("a", "ghost"))
	if err := r.Validate(); !errors.Is(err, ErrMissingDep) {
		t.Errorf("Validate() error = %v, want %v", err, ErrMissingDep)
	}
}

func TestRegistry_Canonical(t *testing.T) {
	r := catalogRegistry(t)

	specs, err := r.Canonical([]string{"python", "base", "zsh", "python"})
	if err != nil {
		t.Fatalf("Canonical() error = %v", err)
	}
	want := []string{"base", "zsh", "python"}
	if got := keysOf(specs); !reflect.DeepEqual(got, want) {
		t.Errorf("Canonical() = %v, want %v", got, want)
	}

	if _, err := r.Canonical([]string{"ghost"}); !errors.Is(err, ErrUnknownComponent) {
		t.Errorf("Canonical() error = %v, want %v", err, ErrUnknownComponent)
	}
}

func TestRegistry_Dependents(t *testing.T) {
	r := catalogRegistry(t)

	want := []string{"zsh", "dev-utils", "node", "python"}
	if got := r.Dependents("base"); !reflect.DeepEqual(got, want) {
		t.Errorf("Dependents(base) = %v, want %v", got, want)
	}
	if got := r.Dependents("shell-config"); len(got) != 0 {
		t.Errorf("Dependents(shell-config) = %v, want none", got)
	}
}

func TestSpec_Revertible(t *testing.T) {
	plain := &Spec{Key: "a", Steps: []Step{stubStep{name: "a"}}}
	if plain.Revertible() {
		t.Error("Revertible() = true for spec without revertible steps")
	}

	mixed := &Spec{Key: "b", Steps: []Step{stubStep{name: "b1"}, stubRevertible{stubStep{name: "b2"}}}}
	if !mixed.Revertible() {
		t.Error("Revertible() = false for spec with a revertible step")
	}
}

func TestRunContext_WithMethodsCopy(t *testing.T) {
	base := NewRunContext(context.Background(), logging.NewNopLogger())

	dry := base.WithDryRun(true).WithRunID("run-1")
	if base.DryRun() || base.RunID() != "" {
		t.Error("With methods should not mutate the original")
	}
	if !dry.DryRun() || dry.RunID() != "run-1" {
		t.Errorf("DryRun() = %v, RunID() = %q", dry.DryRun(), dry.RunID())
	}

	keys := []string{"base", "zsh"}
	sel := base.WithSelection(keys)
	keys[0] = "mutated"
	if got := sel.Selection(); got[0] != "base" {
		t.Errorf("Selection() = %v, should be isolated from caller slice", got)
	}

	got := sel.Selection()
	got[1] = "mutated"
	if sel.Selection()[1] != "zsh" {
		t.Error("Selection() should return a copy")
	}

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	if base.WithContext(ctx).Context().Value(key{}) != "v" {
		t.Error("WithContext() should replace the context")
	}
	if base.Logger() == nil {
		t.Error("Logger() should not be nil")
	}
}
