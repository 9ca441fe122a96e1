package scripts

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Role identifies which part of the pipeline a script plays.
type Role string

// Pipeline roles.
const (
	RoleTranslator Role = "translator"
	RoleMinifier   Role = "minifier"
	RoleConverter  Role = "converter"
	RolePortfolio  Role = "portfolio"
)

// PipelineRoles lists the roles resolved at startup, in pipeline order.
var PipelineRoles = []Role{RoleTranslator, RoleMinifier, RoleConverter}

// Spec tells the locator where to look for a role's script.
type Spec struct {
	// Dir is relative to the repository root unless absolute.
	Dir string `json:"dir"`

	// Hint is the preferred file name when no numbered script exists.
	Hint string `json:"hint,omitempty"`
}

// Layout maps each role to its lookup spec.
type Layout map[Role]Spec

// DefaultLayout returns the conventional dev/scripts layout.
func DefaultLayout() Layout {
	return Layout{
		RoleTranslator: {Dir: filepath.Join("dev", "scripts", "translator"), Hint: "translator.py"},
		RoleMinifier:   {Dir: filepath.Join("dev", "scripts", "asset-optimizer"), Hint: "minify_assets.py"},
		RoleConverter:  {Dir: filepath.Join("dev", "scripts", "html-2-pdf")},
		RolePortfolio:  {Dir: filepath.Join("dev", "scripts", "portfolio-updater")},
	}
}

// Merge returns a copy of l with non-empty fields of overrides applied.
func (l Layout) Merge(overrides Layout) Layout {
	out := make(Layout, len(l))
	for r, s := range l {
		out[r] = s
	}

	for r, o := range overrides {
		s := out[r]
		if o.Dir != "" {
			s.Dir = o.Dir
		}

		if o.Hint != "" {
			s.Hint = o.Hint
		}

		out[r] = s
	}

	return out
}

// Dirs returns the absolute lookup directories for roles under root.
func (l Layout) Dirs(root string, roles ...Role) []string {
	dirs := make([]string, 0, len(roles))
	for _, r := range roles {
		if s, ok := l[r]; ok {
			dirs = append(dirs, resolveDir(root, s.Dir))
		}
	}

	return dirs
}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleTranslator, RoleMinifier, RoleConverter, RolePortfolio:
		return true
	default:
		return false
	}
}

// Locator resolves roles to script paths for a fixed repository root.
type Locator struct {
	Root   string
	Ext    string
	Layout Layout
}

// Locate resolves a single role.
func (l Locator) Locate(role Role) (string, error) {
	spec, ok := l.Layout[role]
	if !ok {
		return "", fmt.Errorf("unknown script role %q", role)
	}

	return Locate(resolveDir(l.Root, spec.Dir), spec.Hint, l.Ext)
}

// Resolve resolves all pipeline roles into an immutable Set. Lookup errors
// leave the role unresolved and are reported together.
func (l Locator) Resolve() (*Set, error) {
	paths := make(map[Role]string, len(PipelineRoles))

	var errs []string

	for _, r := range PipelineRoles {
		p, err := l.Locate(r)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		paths[r] = p
	}

	set := &Set{paths: paths}

	if len(errs) > 0 {
		return set, fmt.Errorf("resolving scripts: %s", strings.Join(errs, "; "))
	}

	return set, nil
}

// Set is a resolved snapshot of pipeline scripts. It is never mutated after
// construction; re-detection produces a new Set.
type Set struct {
	paths map[Role]string
}

// NewSet builds a Set from explicit paths.
func NewSet(paths map[Role]string) *Set {
	cp := make(map[Role]string, len(paths))
	for r, p := range paths {
		cp[r] = p
	}

	return &Set{paths: cp}
}

// Path returns the script for role, or "" when none was found.
func (s *Set) Path(role Role) string {
	if s == nil {
		return ""
	}

	return s.paths[role]
}

// Found reports whether role has a script.
func (s *Set) Found(role Role) bool { return s.Path(role) != "" }

// Map returns a copy of the resolved paths keyed by role name.
func (s *Set) Map() map[string]string {
	out := make(map[string]string, len(PipelineRoles))
	for _, r := range PipelineRoles {
		out[string(r)] = s.Path(r)
	}

	return out
}

func resolveDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(root, dir)
}
