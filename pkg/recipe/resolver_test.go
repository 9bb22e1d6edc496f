package recipe

import (
	"context"
	"testing"

	"github.com/joist-el/joist/pkg/errors"
)

type mockCatalog struct {
	recipes map[string]Props
	err     error
}

func (m *mockCatalog) Lookup(ctx context.Context, name string) (Props, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	props, ok := m.recipes[name]
	return props, ok, nil
}

// staticOrderHook returns fixed props for every order.
type staticOrderHook struct {
	name  string
	props Props
}

func (h staticOrderHook) Name() string { return h.name }
func (h staticOrderHook) ModifyOrder(pkg string, overrides Props) (Props, bool) {
	return h.props, h.props != nil
}

type staticRecipeHook struct {
	name  string
	props Props
}

func (h staticRecipeHook) Name() string { return h.name }
func (h staticRecipeHook) ModifyRecipe(merged Props) (Props, bool) {
	return h.props, h.props != nil
}

func newTestResolver(catalog Catalog) *Resolver {
	return NewResolver(catalog, nil)
}

func TestResolveNameOrder(t *testing.T) {
	catalog := &mockCatalog{recipes: map[string]Props{
		"magit": {
			{Key: KeyRepo, Value: "magit/magit"},
			{Key: KeyHost, Value: "github"},
		},
	}}
	r := newTestResolver(catalog)

	rec, err := r.Resolve(context.Background(), NameOrder("magit"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if rec.Package != "magit" {
		t.Errorf("Package = %q, want magit (synthesized from order)", rec.Package)
	}
	if rec.Repo != "magit/magit" || rec.Host != "github" {
		t.Errorf("recipe = %+v, provider fields missing", rec)
	}
}

func TestResolveUnknownPackage(t *testing.T) {
	r := newTestResolver(&mockCatalog{recipes: map[string]Props{}})

	_, err := r.Resolve(context.Background(), NameOrder("nonexistent"))
	if !errors.Is(err, errors.ErrCodeUnknownPackage) {
		t.Errorf("code = %v, want UNKNOWN_PACKAGE", errors.GetCode(err))
	}
}

func TestResolveNilOrderWithoutPrompter(t *testing.T) {
	r := newTestResolver(&mockCatalog{})

	_, err := r.Resolve(context.Background(), nil)
	if !errors.Is(err, errors.ErrCodeMalformedOrder) {
		t.Errorf("code = %v, want MALFORMED_ORDER", errors.GetCode(err))
	}
}

func TestResolveNilOrderWithPrompter(t *testing.T) {
	catalog := &mockCatalog{recipes: map[string]Props{
		"magit": {{Key: KeyRepo, Value: "magit/magit"}, {Key: KeyHost, Value: "github"}},
	}}
	r := newTestResolver(catalog)
	r.Prompt = func(ctx context.Context) (Order, error) {
		return NameOrder("magit"), nil
	}

	rec, err := r.Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if rec.Package != "magit" {
		t.Errorf("Package = %q, want magit", rec.Package)
	}
}

func TestResolveSpecOrderStandalone(t *testing.T) {
	// No inherit key: provider is not consulted, overrides stand alone.
	r := newTestResolver(&mockCatalog{err: errors.New(errors.ErrCodeInternal, "catalog must not be consulted")})

	rec, err := r.Resolve(context.Background(), SpecOrder{
		Name: "mylib",
		Overrides: Props{
			{Key: KeyRepo, Value: "me/mylib"},
			{Key: KeyHost, Value: "gitlab"},
		},
	})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if rec.Repo != "me/mylib" || rec.Host != "gitlab" {
		t.Errorf("recipe = %+v", rec)
	}
}

func TestResolveSpecOrderInherits(t *testing.T) {
	catalog := &mockCatalog{recipes: map[string]Props{
		"magit": {
			{Key: KeyRepo, Value: "magit/magit"},
			{Key: KeyHost, Value: "github"},
			{Key: KeyBranch, Value: "main"},
		},
	}}
	r := newTestResolver(catalog)

	rec, err := r.Resolve(context.Background(), SpecOrder{
		Name: "magit",
		Overrides: Props{
			{Key: KeyInherit, Value: true},
			{Key: KeyBranch, Value: "develop"},
		},
	})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	// Provider defaults merged in, explicit overrides win.
	if rec.Repo != "magit/magit" {
		t.Errorf("Repo = %q, want inherited magit/magit", rec.Repo)
	}
	if rec.Branch != "develop" {
		t.Errorf("Branch = %q, want develop (override wins over provider)", rec.Branch)
	}
}

func TestResolveSpecOrderInheritFalseSkipsHooks(t *testing.T) {
	r := newTestResolver(&mockCatalog{err: errors.New(errors.ErrCodeInternal, "catalog must not be consulted")})
	r.OrderHooks = []OrderHook{staticOrderHook{
		name:  "must-not-run",
		props: Props{{Key: KeyProtocol, Value: "ssh"}},
	}}

	rec, err := r.Resolve(context.Background(), SpecOrder{
		Name: "mylib",
		Overrides: Props{
			{Key: KeyInherit, Value: false},
			{Key: KeyRepo, Value: "me/mylib"},
			{Key: KeyHost, Value: "github"},
		},
	})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if rec.Protocol != "" {
		t.Errorf("Protocol = %q, want empty (hooks skipped for inherit:false)", rec.Protocol)
	}
}

func TestResolveHookRequestsInherit(t *testing.T) {
	catalog := &mockCatalog{recipes: map[string]Props{
		"magit": {{Key: KeyRepo, Value: "magit/magit"}, {Key: KeyHost, Value: "github"}},
	}}
	r := newTestResolver(catalog)
	r.OrderHooks = []OrderHook{staticOrderHook{
		name:  "force-inherit",
		props: Props{{Key: KeyInherit, Value: true}},
	}}

	rec, err := r.Resolve(context.Background(), SpecOrder{
		Name:      "magit",
		Overrides: Props{{Key: KeyBranch, Value: "develop"}},
	})
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if rec.Repo != "magit/magit" {
		t.Errorf("Repo = %q, want provider recipe pulled in by hook", rec.Repo)
	}
}

func TestResolveOrderHookFirstSuccess(t *testing.T) {
	catalog := &mockCatalog{recipes: map[string]Props{
		"magit": {{Key: KeyRepo, Value: "magit/magit"}, {Key: KeyHost, Value: "github"}},
	}}
	r := newTestResolver(catalog)
	r.OrderHooks = []OrderHook{
		staticOrderHook{name: "passes"}, // nil props: not a result
		staticOrderHook{name: "wins", props: Props{{Key: KeyProtocol, Value: "ssh"}}},
		staticOrderHook{name: "never-runs", props: Props{{Key: KeyProtocol, Value: "https"}}},
	}

	rec, err := r.Resolve(context.Background(), NameOrder("magit"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if rec.Protocol != "ssh" {
		t.Errorf("Protocol = %q, want ssh (first defined hook result wins)", rec.Protocol)
	}
}

func TestResolveRecipeHookRunsLast(t *testing.T) {
	catalog := &mockCatalog{recipes: map[string]Props{
		"magit": {{Key: KeyRepo, Value: "magit/magit"}, {Key: KeyHost, Value: "github"}},
	}}
	r := newTestResolver(catalog)
	r.RecipeHooks = []RecipeHook{PinHook{Pins: map[string]string{"magit": "deadbeef"}}}

	rec, err := r.Resolve(context.Background(), NameOrder("magit"))
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if rec.Ref != "deadbeef" {
		t.Errorf("Ref = %q, want pinned deadbeef", rec.Ref)
	}
}

func TestDefaultProtocolHook(t *testing.T) {
	hook := DefaultProtocolHook{Protocol: "ssh"}

	props, ok := hook.ModifyOrder("magit", nil)
	if !ok {
		t.Fatal("hook should apply when protocol is absent")
	}
	if v, _ := props.Get(KeyProtocol); v != "ssh" {
		t.Errorf("protocol = %v, want ssh", v)
	}

	_, ok = hook.ModifyOrder("magit", Props{{Key: KeyProtocol, Value: "https"}})
	if ok {
		t.Error("hook should pass when the order already names a protocol")
	}
}

func TestResolveNoRecipe(t *testing.T) {
	r := newTestResolver(&mockCatalog{})

	_, err := r.Resolve(context.Background(), SpecOrder{Name: "empty"})
	if !errors.Is(err, errors.ErrCodeNoRecipe) {
		t.Errorf("code = %v, want NO_RECIPE", errors.GetCode(err))
	}
}
