package recipe

import (
	"reflect"
	"testing"
)

func TestMergeDisjoint(t *testing.T) {
	a := Props{{Key: "repo", Value: "user/pkg"}}
	b := Props{{Key: "host", Value: "github"}}

	got := Merge(a, b)
	want := Props{{Key: "repo", Value: "user/pkg"}, {Key: "host", Value: "github"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge = %v, want %v", got, want)
	}
}

func TestMergeRightBiased(t *testing.T) {
	a := Props{{Key: "branch", Value: "main"}, {Key: "host", Value: "github"}}
	b := Props{{Key: "branch", Value: "develop"}}

	got := Merge(a, b)
	if v, _ := got.Get("branch"); v != "develop" {
		t.Errorf("branch = %v, want develop (right-most wins)", v)
	}
	if v, _ := got.Get("host"); v != "github" {
		t.Errorf("host = %v, want github", v)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2 (key set is the union)", len(got))
	}
}

func TestMergeIgnoresNil(t *testing.T) {
	b := Props{{Key: "host", Value: "gitlab"}}
	got := Merge(nil, b, nil)
	if !reflect.DeepEqual(got, b) {
		t.Errorf("Merge = %v, want %v", got, b)
	}

	if got := Merge(); got != nil {
		t.Errorf("Merge() = %v, want nil", got)
	}
}

func TestMergePreservesFirstAppearanceOrder(t *testing.T) {
	a := Props{{Key: "repo", Value: "a"}, {Key: "host", Value: "github"}}
	b := Props{{Key: "tag", Value: "v1"}, {Key: "repo", Value: "b"}}

	got := Merge(a, b)
	keys := make([]string, len(got))
	for i, kv := range got {
		keys[i] = kv.Key
	}
	want := []string{"repo", "host", "tag"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("key order = %v, want %v", keys, want)
	}
}

func TestPropsWith(t *testing.T) {
	p := Props{{Key: "repo", Value: "a"}}

	q := p.With("repo", "b")
	if v, _ := q.Get("repo"); v != "b" {
		t.Errorf("With overwrite: repo = %v, want b", v)
	}
	if v, _ := p.Get("repo"); v != "a" {
		t.Errorf("With must not mutate the receiver: repo = %v, want a", v)
	}

	q = p.With("host", "github")
	if v, ok := q.Get("host"); !ok || v != "github" {
		t.Errorf("With append: host = %v, want github", v)
	}
}
