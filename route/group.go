package route

import "strings"

// Group shares a path prefix and metadata between nested routes. Tags are
// prepended to each child's tags; Auth and Deprecated propagate downwards.
type Group struct {
	Prefix     string
	Tags       []string
	Auth       bool
	Deprecated bool
	Routes     []Declaration
	Groups     []*Group
}

func NewGroup(prefix string) *Group { return &Group{Prefix: prefix} }

func (g *Group) Tag(tags ...string) *Group  { g.Tags = append(g.Tags, tags...); return g }
func (g *Group) Secure() *Group             { g.Auth = true; return g }
func (g *Group) Deprecate(d bool) *Group    { g.Deprecated = d; return g }
func (g *Group) Add(b ...*Builder) *Group {
	for _, r := range b {
		g.Routes = append(g.Routes, r.Build())
	}
	return g
}
func (g *Group) Sub(child *Group) *Group { g.Groups = append(g.Groups, child); return g }

// Flatten walks the group tree depth first and returns every declaration with
// the full path and inherited metadata applied. Declarations inside the tree
// are not modified.
func (g *Group) Flatten() []Declaration {
	var out []Declaration
	g.flatten(nil, &out)
	return out
}

func (g *Group) flatten(parent *Group, out *[]Declaration) {
	eff := &Group{
		Prefix:     joinPath(prefixOf(parent), g.Prefix),
		Tags:       append(append([]string(nil), tagsOf(parent)...), g.Tags...),
		Auth:       g.Auth || (parent != nil && parent.Auth),
		Deprecated: g.Deprecated || (parent != nil && parent.Deprecated),
	}

	for _, d := range g.Routes {
		d.Path = NormalizePath(joinPath(eff.Prefix, d.Path))
		d.Tags = append(append([]string(nil), eff.Tags...), d.Tags...)
		d.Auth = d.Auth || eff.Auth
		d.Deprecated = d.Deprecated || eff.Deprecated
		*out = append(*out, d)
	}
	for _, child := range g.Groups {
		child.flatten(eff, out)
	}
}

func prefixOf(g *Group) string {
	if g == nil {
		return ""
	}
	return g.Prefix
}

func tagsOf(g *Group) []string {
	if g == nil {
		return nil
	}
	return g.Tags
}

// joinPath concatenates path pieces without doubling slashes.
func joinPath(prefix, suffix string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(prefix, "/"))
	if suffix != "" && !strings.HasPrefix(suffix, "/") {
		b.WriteString("/")
	}
	b.WriteString(suffix)
	return b.String()
}
