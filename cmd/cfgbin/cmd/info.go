// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bpowers/cfgbin"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <file.bytes>",
	Short: "Print the header of a binary config file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return info(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func info(w io.Writer, path string) error {
	f, err := cfgbin.OpenFile(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	h, shape, err := cfgbin.PeekShape(f)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "shape:        %s\n", shape)
	fmt.Fprintf(w, "keys:         %d\n", h.Count)
	fmt.Fprintf(w, "index offset: %d\n", h.IndexOffset)
	fmt.Fprintf(w, "size:         %d\n", f.Size())
	if !h.IsSplit() {
		return nil
	}
	entries, err := os.ReadDir(cfgbin.ChunkDir(path))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "chunk dir:    %s\n", cfgbin.ChunkDir(path))
	fmt.Fprintf(w, "chunks:       %d\n", len(entries))
	fmt.Fprintf(w, "compressed:   %t\n", h.ChunksCompressed())
	return nil
}
