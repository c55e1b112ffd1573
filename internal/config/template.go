package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteDefault writes a commented YAML file holding every default setting.
func WriteDefault(w io.Writer) error {
	root := &yaml.Node{Kind: yaml.MappingNode}
	sections := map[string]*yaml.Node{}

	for _, s := range settings {
		parts := strings.Split(s.key, ".")
		parent := root
		for i, part := range parts[:len(parts)-1] {
			path := strings.Join(parts[:i+1], ".")
			child, ok := sections[path]
			if !ok {
				child = &yaml.Node{Kind: yaml.MappingNode}
				parent.Content = append(parent.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: part}, child)
				sections[path] = child
			}
			parent = child
		}

		value := &yaml.Node{}
		if err := value.Encode(s.value); err != nil {
			return fmt.Errorf("encoding %s: %w", s.key, err)
		}
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: parts[len(parts)-1]}
		value.LineComment = s.comment
		parent.Content = append(parent.Content, key, value)
	}

	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "storyloom configuration. Environment variables STORYLOOM_<SECTION>_<KEY> override these values.",
		Content:     []*yaml.Node{root},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

// WriteDefaultFile creates path with the default settings. It refuses to overwrite unless force is set.
func WriteDefaultFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := WriteDefault(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
