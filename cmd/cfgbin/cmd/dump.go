// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bpowers/cfgbin"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <file.bytes>",
	Short: "Print a binary config file written by pack as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return dump(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
}

func dump(w io.Writer, path string) error {
	f, err := cfgbin.OpenFile(path)
	if err != nil {
		return err
	}
	_, shape, err := cfgbin.PeekShape(f)
	if err != nil {
		_ = f.Close()
		return err
	}

	out, err := dumpShape(f, shape)
	if err != nil {
		_ = f.Close()
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

// dumpShape fully loads f, which closes it, and returns its contents as
// a YAML mapping node.
func dumpShape(f *cfgbin.File, shape cfgbin.Shape) (*yaml.Node, error) {
	opts := []cfgbin.Option{cfgbin.WithLogger(logger)}
	values := cfgbin.MsgpackValues[any]()
	out := &yaml.Node{Kind: yaml.MappingNode}

	switch shape {
	case cfgbin.ShapeSingleType:
		m, err := cfgbin.ReadAll(cfgbin.OpenFlat[string, string](f, opts...))
		if err != nil {
			return nil, err
		}
		keys, err := m.Keys()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			v, err := m.Get(k)
			if err != nil {
				return nil, err
			}
			if err := appendPair(out, k, v); err != nil {
				return nil, err
			}
		}
	case cfgbin.ShapeObject:
		m, err := cfgbin.ReadAll(cfgbin.OpenObject[string, any](f, values, opts...))
		if err != nil {
			return nil, err
		}
		for _, k := range m.Keys() {
			v, err := m.Get(k)
			if err != nil {
				return nil, err
			}
			if err := appendPair(out, k, v); err != nil {
				return nil, err
			}
		}
	case cfgbin.ShapeList:
		m, err := cfgbin.ReadAll(cfgbin.OpenList[string, any](f, values, opts...))
		if err != nil {
			return nil, err
		}
		for _, k := range m.Keys() {
			v, err := m.Get(k)
			if err != nil {
				return nil, err
			}
			if err := appendPair(out, k, v); err != nil {
				return nil, err
			}
		}
	case cfgbin.ShapeMap:
		m, err := cfgbin.ReadAll(cfgbin.OpenNested[string, string, any](f, values, opts...))
		if err != nil {
			return nil, err
		}
		for _, k := range m.Keys() {
			inner, err := m.Get(k)
			if err != nil {
				return nil, err
			}
			innerNode := &yaml.Node{Kind: yaml.MappingNode}
			var ierr error
			inner.Range(func(k2 string, v any) bool {
				ierr = appendPair(innerNode, k2, v)
				return ierr == nil
			})
			if ierr != nil {
				return nil, ierr
			}
			out.Content = append(out.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, innerNode)
		}
	default:
		return nil, fmt.Errorf("can't dump shape %s", shape)
	}
	return out, nil
}

func appendPair(n *yaml.Node, k string, v any) error {
	var vn yaml.Node
	if err := vn.Encode(v); err != nil {
		return fmt.Errorf("key %q: %w", k, err)
	}
	n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &vn)
	return nil
}
