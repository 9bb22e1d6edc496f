package gitrepo

import (
	"context"
	"strings"
	"testing"

	"github.com/joist-el/joist/pkg/errors"
	"github.com/joist-el/joist/pkg/execx"
	"github.com/joist-el/joist/pkg/recipe"
)

// fakeRunner records git invocations and answers them through a script
// function.
type fakeRunner struct {
	calls   []string // "dir|name arg arg..."
	respond func(dir, name string, args []string) (*execx.Result, error)
}

func (f *fakeRunner) Run(ctx context.Context, dir string, name string, args ...string) (*execx.Result, error) {
	f.calls = append(f.calls, dir+"|"+name+" "+strings.Join(args, " "))
	if f.respond != nil {
		return f.respond(dir, name, args)
	}
	return &execx.Result{Cmd: name, Args: args}, nil
}

func (f *fakeRunner) Start(ctx context.Context, dir string, name string, args []string, done func(*execx.Result, error)) {
	go done(f.Run(ctx, dir, name, args...))
}

// call reports whether any recorded invocation contains want.
func (f *fakeRunner) called(want string) bool {
	for _, c := range f.calls {
		if strings.Contains(c, want) {
			return true
		}
	}
	return false
}

// remoteAware answers `git remote` with the given names and everything
// else with success.
func remoteAware(names ...string) func(dir, name string, args []string) (*execx.Result, error) {
	return func(dir, name string, args []string) (*execx.Result, error) {
		res := &execx.Result{Cmd: name, Args: args}
		if len(args) == 1 && args[0] == "remote" {
			res.Stdout = strings.Join(names, "\n")
		}
		return res, nil
	}
}

func testRecipe() *recipe.Recipe {
	return &recipe.Recipe{Package: "pkg", Repo: "user/pkg", Host: "github"}
}

func TestCloneArgs(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager("/store", runner, nil)

	if err := m.Clone(context.Background(), testRecipe()); err != nil {
		t.Fatalf("Clone error: %v", err)
	}
	want := "git clone --recurse-submodules https://github.com/user/pkg.git /store/pkg.user.github"
	if !runner.called(want) {
		t.Errorf("calls = %v, want %q", runner.calls, want)
	}
}

func TestCloneDepthAndNonrecursive(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Depth = 1
	rec.Nonrecursive = true
	if err := m.Clone(context.Background(), rec); err != nil {
		t.Fatalf("Clone error: %v", err)
	}
	if !runner.called("git clone --depth 1 https://") {
		t.Errorf("calls = %v, want shallow non-recursive clone", runner.calls)
	}
	if runner.called("--recurse-submodules") {
		t.Error("nonrecursive clone must not recurse submodules")
	}
}

func TestCloneMissingHost(t *testing.T) {
	m := NewManager("/store", &fakeRunner{}, nil)
	rec := &recipe.Recipe{Package: "pkg", Repo: "user/pkg"}

	err := m.Clone(context.Background(), rec)
	if !errors.Is(err, errors.ErrCodeMissingHost) {
		t.Errorf("code = %v, want MISSING_HOST", errors.GetCode(err))
	}
}

func TestCloneFailureCarriesStderr(t *testing.T) {
	runner := &fakeRunner{respond: func(dir, name string, args []string) (*execx.Result, error) {
		return &execx.Result{ExitCode: 128, Stderr: "fatal: repository not found"}, nil
	}}
	m := NewManager("/store", runner, nil)

	err := m.Clone(context.Background(), testRecipe())
	if !errors.Is(err, errors.ErrCodeCloneFailed) {
		t.Fatalf("code = %v, want CLONE_FAILED", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "repository not found") {
		t.Errorf("error %q should carry git's diagnostic output", err)
	}
}

func TestConfigureRemotesDefaultNoop(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager("/store", runner, nil)

	if err := m.ConfigureRemotes(context.Background(), testRecipe()); err != nil {
		t.Fatalf("ConfigureRemotes error: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("calls = %v, want none for default origin", runner.calls)
	}
}

func TestConfigureRemotesRename(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Remotes = []recipe.Remote{{Name: "upstream"}}
	if err := m.ConfigureRemotes(context.Background(), rec); err != nil {
		t.Fatalf("ConfigureRemotes error: %v", err)
	}
	if !runner.called("git remote rename origin upstream") {
		t.Errorf("calls = %v, want origin rename", runner.calls)
	}
}

func TestConfigureRemotesAddWithOverrides(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Remotes = []recipe.Remote{
		{Name: "upstream"},
		{Name: "mirror", Repo: "mirror/pkg", Host: "gitlab"},
	}
	if err := m.ConfigureRemotes(context.Background(), rec); err != nil {
		t.Fatalf("ConfigureRemotes error: %v", err)
	}
	if !runner.called("git remote rename origin upstream") {
		t.Errorf("calls = %v, want rename entry applied", runner.calls)
	}
	if !runner.called("git remote add mirror https://gitlab.com/mirror/pkg.git") {
		t.Errorf("calls = %v, want override-derived add", runner.calls)
	}
}

func TestConfigureRemotesFork(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Fork = &recipe.Remote{Name: "fork", Repo: "me/pkg"}
	if err := m.ConfigureRemotes(context.Background(), rec); err != nil {
		t.Fatalf("ConfigureRemotes error: %v", err)
	}
	if !runner.called("git remote add fork https://github.com/me/pkg.git") {
		t.Errorf("calls = %v, want fork remote added", runner.calls)
	}

	rec.Fork = &recipe.Remote{Name: "fork"}
	err := m.ConfigureRemotes(context.Background(), rec)
	if !errors.Is(err, errors.ErrCodeInvalidRemoteSpec) {
		t.Errorf("code = %v, want INVALID_REMOTE_SPEC for override-free fork", errors.GetCode(err))
	}
}

func TestConfigureRemotesInvalid(t *testing.T) {
	m := NewManager("/store", &fakeRunner{}, nil)

	rec := testRecipe()
	rec.Remotes = []recipe.Remote{{}}
	err := m.ConfigureRemotes(context.Background(), rec)
	if !errors.Is(err, errors.ErrCodeInvalidRemoteSpec) {
		t.Errorf("code = %v, want INVALID_REMOTE_SPEC", errors.GetCode(err))
	}
}

func TestCheckoutRefNoop(t *testing.T) {
	runner := &fakeRunner{}
	m := NewManager("/store", runner, nil)

	if err := m.CheckoutRef(context.Background(), testRecipe()); err != nil {
		t.Fatalf("CheckoutRef error: %v", err)
	}
	if len(runner.calls) != 0 {
		t.Errorf("calls = %v, want none when no revision selected", runner.calls)
	}
}

func TestCheckoutRefAmbiguous(t *testing.T) {
	m := NewManager("/store", &fakeRunner{}, nil)

	rec := testRecipe()
	rec.Tag = "v1"
	rec.Branch = "main"
	err := m.CheckoutRef(context.Background(), rec)
	if !errors.Is(err, errors.ErrCodeAmbiguousRefSpec) {
		t.Errorf("code = %v, want AMBIGUOUS_REF_SPEC", errors.GetCode(err))
	}
}

func TestCheckoutRefWinsOverBranch(t *testing.T) {
	runner := &fakeRunner{respond: remoteAware("origin")}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Ref = "deadbeef"
	rec.Branch = "main"
	if err := m.CheckoutRef(context.Background(), rec); err != nil {
		t.Fatalf("CheckoutRef error: %v", err)
	}
	if !runner.called("git checkout deadbeef") {
		t.Errorf("calls = %v, want ref checkout", runner.calls)
	}
	if runner.called("switch") {
		t.Error("branch must not be checked out when ref is present")
	}
}

func TestCheckoutTag(t *testing.T) {
	runner := &fakeRunner{respond: remoteAware("origin")}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Tag = "v1.2.3"
	if err := m.CheckoutRef(context.Background(), rec); err != nil {
		t.Fatalf("CheckoutRef error: %v", err)
	}
	if !runner.called("git checkout refs/tags/v1.2.3") {
		t.Errorf("calls = %v, want tag reference checkout", runner.calls)
	}
}

func TestCheckoutBranchTracksFirstRemote(t *testing.T) {
	runner := &fakeRunner{respond: remoteAware("upstream")}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Remotes = []recipe.Remote{{Name: "upstream"}}
	rec.Branch = "develop"
	if err := m.CheckoutRef(context.Background(), rec); err != nil {
		t.Fatalf("CheckoutRef error: %v", err)
	}
	if !runner.called("git fetch --all") {
		t.Errorf("calls = %v, want fetch before checkout", runner.calls)
	}
	if !runner.called("git switch -C develop --track upstream/develop") {
		t.Errorf("calls = %v, want tracking branch switch", runner.calls)
	}
}

func TestCheckoutMissingRemote(t *testing.T) {
	runner := &fakeRunner{respond: remoteAware()}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Branch = "main"
	err := m.CheckoutRef(context.Background(), rec)
	if !errors.Is(err, errors.ErrCodeMissingRemote) {
		t.Errorf("code = %v, want MISSING_REMOTE", errors.GetCode(err))
	}
}

func TestCheckoutFailureCarriesStderr(t *testing.T) {
	runner := &fakeRunner{respond: func(dir, name string, args []string) (*execx.Result, error) {
		res := &execx.Result{Cmd: name, Args: args}
		if len(args) == 1 && args[0] == "remote" {
			res.Stdout = "origin"
			return res, nil
		}
		if args[0] == "checkout" {
			res.ExitCode = 1
			res.Stderr = "error: pathspec 'nope' did not match"
		}
		return res, nil
	}}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Ref = "nope"
	err := m.CheckoutRef(context.Background(), rec)
	if !errors.Is(err, errors.ErrCodeCheckoutFailed) {
		t.Fatalf("code = %v, want CHECKOUT_FAILED", errors.GetCode(err))
	}
	if !strings.Contains(err.Error(), "did not match") {
		t.Errorf("error %q should carry git's diagnostic output", err)
	}
}

func TestInitializeOrder(t *testing.T) {
	runner := &fakeRunner{respond: remoteAware("origin")}
	m := NewManager("/store", runner, nil)

	rec := testRecipe()
	rec.Branch = "main"
	if err := m.Initialize(context.Background(), rec); err != nil {
		t.Fatalf("Initialize error: %v", err)
	}

	var cloneIdx, checkoutIdx int = -1, -1
	for i, c := range runner.calls {
		if strings.Contains(c, "clone") {
			cloneIdx = i
		}
		if strings.Contains(c, "switch") {
			checkoutIdx = i
		}
	}
	if cloneIdx == -1 || checkoutIdx == -1 || cloneIdx > checkoutIdx {
		t.Errorf("calls = %v, want clone before checkout", runner.calls)
	}
}
