package rules

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"autocollect/internal/logging"
	"autocollect/internal/matcher"
	"autocollect/internal/services"
)

const component = "rules"

// Recognized mapping keys.
const (
	keyTitle   = "Title"
	keyPath    = "Path"
	keyAction  = "Action"
	keyThumb   = "Thumb"
	keyLocked  = "Locked"
	keyExclude = "Exclude"
)

// Announcer receives operator-facing notices about rule files.
type Announcer interface {
	Reading(path string)
	Skipping(path string)
}

// Layout names the default rule locations.
type Layout struct {
	CollectionsFile string
	CollectionsDir  string
	ActorsDir       string
}

// Loader reads rule files into sets.
type Loader struct {
	logger    *slog.Logger
	announcer Announcer
}

// NewLoader builds a loader. Either argument may be nil.
func NewLoader(logger *slog.Logger, announcer Announcer) *Loader {
	return &Loader{
		logger:    logging.NewComponentLogger(logger, component),
		announcer: announcer,
	}
}

// Discover loads the default layout: the collections file, then every *.yml
// in the collections directory, then every *.yml in the actors directory,
// each directory in lexical order.
func (l *Loader) Discover(layout Layout) (Bundle, error) {
	bundle := NewBundle()
	collectionFiles := []string{layout.CollectionsFile}
	extra, err := globRuleFiles(layout.CollectionsDir)
	if err != nil {
		return bundle, err
	}
	collectionFiles = append(collectionFiles, extra...)
	for _, path := range collectionFiles {
		if _, err := l.LoadFile(path, KindCollection, bundle.Collections); err != nil {
			return bundle, err
		}
	}

	actorFiles, err := globRuleFiles(layout.ActorsDir)
	if err != nil {
		return bundle, err
	}
	for _, path := range actorFiles {
		if _, err := l.LoadFile(path, KindActor, bundle.Actors); err != nil {
			return bundle, err
		}
	}
	return bundle, nil
}

// LoadExplicit loads files named on the command line. They are all
// collection rules, merged in argument order; no actor rules are read.
func (l *Loader) LoadExplicit(paths []string) (Bundle, error) {
	bundle := NewBundle()
	for _, path := range paths {
		if _, err := l.LoadFile(path, KindCollection, bundle.Collections); err != nil {
			return bundle, err
		}
	}
	return bundle, nil
}

func globRuleFiles(dir string) ([]string, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, component, "discover", dir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// LoadFile merges the rules of path into target. It reports false without
// error when the file is missing, empty or holds no document.
func (l *Loader) LoadFile(path string, kind Kind, target *Set) (bool, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
		l.skip(path, "rule file missing or empty")
		return false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false, services.Wrap(services.ErrConfiguration, component, "read", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return false, services.Wrap(services.ErrConfiguration, component, "parse", path, err)
	}
	root := documentRoot(&doc)
	if root == nil || isNull(root) {
		l.skip(path, "rule file holds no rules")
		return false, nil
	}
	if root.Kind != yaml.MappingNode {
		return false, services.Wrap(
			services.ErrConfiguration,
			component,
			"parse",
			fmt.Sprintf("%s:%d: top level must be a mapping of names to rules", path, root.Line),
			nil,
		)
	}

	d := decoder{path: path, kind: kind, logger: l.logger}
	loaded := NewSet()
	patterns := 0
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := resolve(root.Content[i]), resolve(root.Content[i+1])
		if keyNode.Kind != yaml.ScalarNode || strings.TrimSpace(keyNode.Value) == "" {
			return false, d.fail(keyNode, "", "rule name must be a non-empty string", nil)
		}
		name := keyNode.Value
		spec, err := d.spec(name, valueNode)
		if err != nil {
			return false, err
		}
		if spec.Title.Empty() && spec.Path.Empty() {
			l.logger.Warn("rule has no patterns",
				logging.String("file", path),
				logging.String(logging.FieldRule, name),
				logging.String(logging.FieldRuleKind, kind.String()),
			)
		}
		patterns += spec.Title.Len() + spec.Path.Len() + spec.Exclude.Len()
		loaded.Put(Rule{Name: name, Kind: kind, Spec: spec, Source: path})
	}
	target.Merge(loaded)

	if l.announcer != nil {
		l.announcer.Reading(path)
	}
	l.logger.Debug("rule file loaded",
		logging.String("file", path),
		logging.String(logging.FieldRuleKind, kind.String()),
		logging.Int("rules", loaded.Len()),
		logging.Int("patterns", patterns),
	)
	return true, nil
}

func (l *Loader) skip(path, reason string) {
	l.logger.Warn(reason, logging.String("file", path))
	if l.announcer != nil {
		l.announcer.Skipping(path)
	}
}

type decoder struct {
	path   string
	kind   Kind
	logger *slog.Logger
}

func (d decoder) spec(name string, node *yaml.Node) (Spec, error) {
	switch node.Kind {
	case yaml.SequenceNode, yaml.ScalarNode:
		spec := NewSpec(ShapeList)
		group, err := d.group(name, node, matcher.Title)
		if err != nil {
			return Spec{}, err
		}
		spec.Title = group
		return spec, nil
	case yaml.MappingNode:
		return d.mapping(name, node)
	default:
		return Spec{}, d.fail(node, name, "unsupported rule value", nil)
	}
}

func (d decoder) mapping(name string, node *yaml.Node) (Spec, error) {
	spec := NewSpec(ShapeMapping)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := resolve(node.Content[i]), resolve(node.Content[i+1])
		key := keyNode.Value
		var err error
		switch {
		case key == keyTitle:
			spec.Title, err = d.group(name, valueNode, matcher.Title)
		case key == keyPath:
			spec.Path, err = d.group(name, valueNode, matcher.Path)
		case d.kind == KindActor && key == keyExclude:
			spec.Exclude, err = d.group(name, valueNode, matcher.Title)
		case d.kind == KindActor && key == keyAction:
			spec.Action, err = d.action(name, valueNode)
		case d.kind == KindActor && key == keyThumb:
			spec.Thumb, err = d.thumb(name, valueNode)
		case d.kind == KindActor && key == keyLocked:
			spec.Locked, err = d.locked(name, valueNode)
		default:
			d.logger.Warn("ignoring unknown rule key",
				logging.String("file", d.path),
				logging.Int("line", keyNode.Line),
				logging.String(logging.FieldRule, name),
				logging.String(logging.FieldRuleKind, d.kind.String()),
				logging.String("key", key),
			)
		}
		if err != nil {
			return Spec{}, err
		}
	}
	return spec, nil
}

func (d decoder) group(name string, node *yaml.Node, kind matcher.Kind) (matcher.Group, error) {
	var group matcher.Group
	switch node.Kind {
	case yaml.ScalarNode:
		if isNull(node) {
			return group, nil
		}
		pattern, err := d.compile(name, node, kind)
		if err != nil {
			return group, err
		}
		group.Patterns = append(group.Patterns, pattern)
	case yaml.SequenceNode:
		for _, child := range node.Content {
			child = resolve(child)
			switch {
			case child.Kind == yaml.SequenceNode:
				nested, err := d.group(name, child, kind)
				if err != nil {
					return group, err
				}
				group.Groups = append(group.Groups, nested)
			case child.Kind == yaml.ScalarNode && isNull(child):
				// skip
			case child.Kind == yaml.ScalarNode:
				pattern, err := d.compile(name, child, kind)
				if err != nil {
					return group, err
				}
				group.Patterns = append(group.Patterns, pattern)
			default:
				return group, d.fail(child, name, fmt.Sprintf("%s entries must be strings or lists", kind), nil)
			}
		}
	default:
		return group, d.fail(node, name, fmt.Sprintf("%s must be a string or a list", kind), nil)
	}
	return group, nil
}

func (d decoder) compile(name string, node *yaml.Node, kind matcher.Kind) (matcher.Pattern, error) {
	pattern, err := matcher.Compile(node.Value, kind)
	if err != nil {
		return matcher.Pattern{}, d.fail(node, name, "invalid pattern", err)
	}
	return pattern, nil
}

func (d decoder) action(name string, node *yaml.Node) (Action, error) {
	if node.Kind != yaml.ScalarNode {
		return ActionAdd, d.fail(node, name, "Action must be Add or Remove", nil)
	}
	if isNull(node) {
		return ActionAdd, nil
	}
	action, err := ParseAction(node.Value)
	if err != nil {
		return ActionAdd, d.fail(node, name, "invalid Action", err)
	}
	return action, nil
}

func (d decoder) thumb(name string, node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", d.fail(node, name, "Thumb must be a string", nil)
	}
	if isNull(node) {
		return "", nil
	}
	return strings.TrimSpace(node.Value), nil
}

// locked treats anything other than an explicit false as true.
func (d decoder) locked(name string, node *yaml.Node) (bool, error) {
	if node.Kind != yaml.ScalarNode {
		return true, d.fail(node, name, "Locked must be a boolean", nil)
	}
	if isNull(node) {
		return true, nil
	}
	var locked bool
	if err := node.Decode(&locked); err != nil {
		return true, d.fail(node, name, "Locked must be a boolean", err)
	}
	return locked, nil
}

func (d decoder) fail(node *yaml.Node, name, message string, err error) error {
	detail := fmt.Sprintf("%s:%d", d.path, node.Line)
	if name != "" {
		detail = fmt.Sprintf("%s: %s rule %q", detail, d.kind, name)
	}
	return services.Wrap(services.ErrConfiguration, component, "load", detail+": "+message, err)
}

func documentRoot(doc *yaml.Node) *yaml.Node {
	if doc.Kind == 0 {
		return nil
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return nil
		}
		return resolve(doc.Content[0])
	}
	return resolve(doc)
}

func resolve(node *yaml.Node) *yaml.Node {
	for node != nil && node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	return node
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
