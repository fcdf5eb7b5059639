// Copyright 2024 The bit Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import "github.com/bpowers/cfgbin/cmd/cfgbin/cmd"

func main() {
	cmd.Execute()
}
