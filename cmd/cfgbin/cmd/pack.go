// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bpowers/cfgbin"
)

var errNotMapping = errors.New("top-level YAML document must be a mapping")

// packCmd represents the pack command
var packCmd = &cobra.Command{
	Use:   "pack <input.yaml> <output.bytes>",
	Short: "Write a YAML mapping as a binary config file",
	Long: `Write a YAML mapping as a binary config file.

The shape is picked from the values: all strings make a single-type file,
all sequences a list file, all mappings a nested file, and anything else
an object file.  Non-string values are stored as msgpack.

Example:
  cfgbin pack items.yaml items.bytes --split 1000 --compress`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		split, _ := cmd.Flags().GetInt("split")
		compress, _ := cmd.Flags().GetBool("compress")

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() {
			_ = in.Close()
		}()

		shape, err := pack(in, args[1], split, compress)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", args[1], shape)
		return nil
	},
}

func init() {
	packCmd.Flags().Int("split", 0, "Move data into chunk files of this many keys each")
	packCmd.Flags().Bool("compress", false, "s2-compress chunk files (with --split)")
	rootCmd.AddCommand(packCmd)
}

// document is a top-level YAML mapping in document order.
type document struct {
	keys   []string
	nodes  []*yaml.Node
	values []any
}

func decodeDocument(in io.Reader) (*document, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(in).Decode(&root); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) != 1 || root.Content[0].Kind != yaml.MappingNode {
		return nil, errNotMapping
	}
	content := root.Content[0].Content
	doc := &document{}
	for i := 0; i+1 < len(content); i += 2 {
		var v any
		if err := content[i+1].Decode(&v); err != nil {
			return nil, fmt.Errorf("key %q: %w", content[i].Value, err)
		}
		doc.keys = append(doc.keys, content[i].Value)
		doc.nodes = append(doc.nodes, content[i+1])
		doc.values = append(doc.values, v)
	}
	return doc, nil
}

func pack(in io.Reader, outPath string, split int, compress bool) (cfgbin.Shape, error) {
	doc, err := decodeDocument(in)
	if err != nil {
		return cfgbin.ShapeNone, err
	}

	opts := []cfgbin.Option{cfgbin.WithLogger(logger)}
	if split > 0 {
		opts = append(opts, cfgbin.WithSplit(outPath, split))
		if compress {
			opts = append(opts, cfgbin.WithChunkCompression())
		}
	}

	f, err := os.Create(outPath)
	if err != nil {
		return cfgbin.ShapeNone, err
	}
	shape := cfgbin.Classify(doc.values)
	if err := writeDocument(f, doc, shape, opts); err != nil {
		_ = f.Close()
		_ = os.Remove(outPath)
		return shape, err
	}
	return shape, f.Close()
}

func writeDocument(f *os.File, doc *document, shape cfgbin.Shape, opts []cfgbin.Option) error {
	values := cfgbin.MsgpackValues[any]()
	switch shape {
	case cfgbin.ShapeSingleType:
		m := cfgbin.NewMap[string, string](len(doc.keys))
		for i, k := range doc.keys {
			m.Set(k, doc.values[i].(string))
		}
		return cfgbin.WriteFlat(f, m, opts...)
	case cfgbin.ShapeList:
		m := cfgbin.NewMap[string, []any](len(doc.keys))
		for i, k := range doc.keys {
			m.Set(k, doc.values[i].([]any))
		}
		return cfgbin.WriteList(f, m, values, opts...)
	case cfgbin.ShapeMap:
		m := cfgbin.NewMap[string, *cfgbin.Map[string, any]](len(doc.keys))
		for i, k := range doc.keys {
			inner, err := decodeInner(doc.nodes[i])
			if err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			m.Set(k, inner)
		}
		return cfgbin.WriteNested(f, m, values, opts...)
	case cfgbin.ShapeObject:
		m := cfgbin.NewMap[string, any](len(doc.keys))
		for i, k := range doc.keys {
			m.Set(k, doc.values[i])
		}
		return cfgbin.WriteObject(f, m, values, opts...)
	default:
		return cfgbin.ErrEmptyMapping
	}
}

// decodeInner keeps the document order of a nested mapping, which
// decoding into map[string]any loses.
func decodeInner(n *yaml.Node) (*cfgbin.Map[string, any], error) {
	inner := cfgbin.NewMap[string, any](len(n.Content) / 2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		var v any
		if err := n.Content[i+1].Decode(&v); err != nil {
			return nil, err
		}
		inner.Set(n.Content[i].Value, v)
	}
	return inner, nil
}
