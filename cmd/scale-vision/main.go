// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import "github.com/scale-vision/runtime/cmd/scale-vision/cmd"

func main() {
	cmd.Execute()
}
