package ops

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

var (
	C1    = Constant(1)
	C10   = Constant(10)
	C100  = Constant(100)
	C1000 = Constant(1000)
	CNeg1 = Constant(-1)

	Square  = Modifier("sqr", func(x float64) float64 { return x * x })
	Sqrt    = Modifier("sqrt", math.Sqrt)
	Sin     = Modifier("sin", math.Sin)
	Cos     = Modifier("cos", math.Cos)
	Tanh    = Modifier("tanh", math.Tanh)
	Sigmoid = Modifier("sigmoid", func(x float64) float64 { return 1 / (1 + math.Exp(-x)) })

	Plus     = Operator("+", func(a, b float64) float64 { return a + b })
	Minus    = Operator("-", func(a, b float64) float64 { return a - b })
	Multiply = Operator("*", func(a, b float64) float64 { return a * b })
	Divide   = Operator("/", func(a, b float64) float64 { return a / b })
	Pow      = Operator("pow", math.Pow)
)

// Catalog maps display tags to modifiers and operators. Funcs cannot be
// persisted, so restoring a vocabulary goes through a catalog.
type Catalog struct {
	byTag map[string]Primitive
}

// NewCatalog builds a catalog from modifiers and operators. Constants and
// arguments need no registration and are rejected, as are duplicate tags.
func NewCatalog(prims ...Primitive) (*Catalog, error) {
	c := &Catalog{byTag: make(map[string]Primitive, len(prims))}
	for _, p := range prims {
		if err := c.add(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultCatalog holds every named modifier and operator of this package.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(Square, Sqrt, Sin, Cos, Tanh, Sigmoid, Plus, Minus, Multiply, Divide, Pow)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) add(p Primitive) error {
	if p.kind != KindModifier && p.kind != KindOperator {
		return Errorf(ErrConfiguration, "catalog accepts modifiers and operators only, got %s %q", p.kind, p.String())
	}
	if strings.TrimSpace(p.tag) == "" {
		return Errorf(ErrConfiguration, "%s without a tag", p.kind)
	}
	if _, err := strconv.ParseFloat(p.tag, 64); err == nil {
		return Errorf(ErrConfiguration, "tag %q would be read as a constant", p.tag)
	}
	if _, dup := c.byTag[p.tag]; dup {
		return Errorf(ErrConfiguration, "duplicate tag %q", p.tag)
	}
	c.byTag[p.tag] = p
	return nil
}

// With returns a copy of c extended with more primitives.
func (c *Catalog) With(prims ...Primitive) (*Catalog, error) {
	out := &Catalog{byTag: make(map[string]Primitive, len(c.byTag)+len(prims))}
	for k, v := range c.byTag {
		out.byTag[k] = v
	}
	for _, p := range prims {
		if err := out.add(p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Lookup returns the modifier or operator registered under tag.
func (c *Catalog) Lookup(tag string) (Primitive, bool) {
	if c == nil {
		return Primitive{}, false
	}
	p, ok := c.byTag[tag]
	return p, ok
}

// Parse resolves a primitive name: numeric literals become constants,
// anything else must be a registered tag.
func (c *Catalog) Parse(name string) (Primitive, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Primitive{}, Errorf(ErrConfiguration, "empty primitive name")
	}
	if v, err := strconv.ParseFloat(name, 64); err == nil {
		return Constant(v), nil
	}
	if p, ok := c.Lookup(name); ok {
		return p, nil
	}
	if strings.HasPrefix(name, "ARG") {
		return Primitive{}, Errorf(ErrConfiguration, "argument %q can not be declared directly; set the argument count instead", name)
	}
	return Primitive{}, Errorf(ErrConfiguration, "unknown primitive %q (known: %s)", name, strings.Join(c.Tags(), ", "))
}

// Tags lists the registered tags in sorted order.
func (c *Catalog) Tags() []string {
	if c == nil {
		return nil
	}
	tags := make([]string, 0, len(c.byTag))
	for t := range c.byTag {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
