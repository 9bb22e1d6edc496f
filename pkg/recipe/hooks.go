package recipe

// OrderHook adjusts an order's override set before merging. Hooks run in
// registration order with first-success semantics: the first hook that
// returns ok wins and later hooks are not consulted.
type OrderHook interface {
	// Name identifies the hook in logs.
	Name() string

	// ModifyOrder inspects the package name and override set (nil for a
	// bare-name order) and returns properties to merge, or ok=false to
	// pass.
	ModifyOrder(pkg string, overrides Props) (Props, bool)
}

// RecipeHook adjusts a fully merged recipe property set as a last-mile
// step, with the same first-success semantics as OrderHook.
type RecipeHook interface {
	Name() string

	// ModifyRecipe inspects the merged property set and returns
	// properties to merge on top, or ok=false to pass.
	ModifyRecipe(merged Props) (Props, bool)
}

// firstOrderHook runs hooks in order and returns the first defined result.
func firstOrderHook(hooks []OrderHook, pkg string, overrides Props) (Props, string) {
	for _, h := range hooks {
		if props, ok := h.ModifyOrder(pkg, overrides); ok {
			return props, h.Name()
		}
	}
	return nil, ""
}

// firstRecipeHook runs hooks in order and returns the first defined result.
func firstRecipeHook(hooks []RecipeHook, merged Props) (Props, string) {
	for _, h := range hooks {
		if props, ok := h.ModifyRecipe(merged); ok {
			return props, h.Name()
		}
	}
	return nil, ""
}

// DefaultProtocolHook supplies a configured default protocol to orders
// that do not name one.
type DefaultProtocolHook struct {
	Protocol string
}

func (h DefaultProtocolHook) Name() string { return "default-protocol" }

func (h DefaultProtocolHook) ModifyOrder(pkg string, overrides Props) (Props, bool) {
	if h.Protocol == "" || overrides.Has(KeyProtocol) {
		return nil, false
	}
	return Props{{Key: KeyProtocol, Value: h.Protocol}}, true
}

// PinHook pins configured packages to fixed refs as a final recipe
// adjustment.
type PinHook struct {
	Pins map[string]string // package name -> ref
}

func (h PinHook) Name() string { return "pins" }

func (h PinHook) ModifyRecipe(merged Props) (Props, bool) {
	name, ok := merged.Get(KeyPackage)
	if !ok {
		return nil, false
	}
	pkg, ok := asString(name)
	if !ok {
		return nil, false
	}
	ref, ok := h.Pins[pkg]
	if !ok {
		return nil, false
	}
	return Props{{Key: KeyRef, Value: ref}}, true
}
