// SPDX-License-Identifier: MPL-2.0

package main

import "github.com/ytdl-org/ytdl/cmd/ytdl"

func main() {
	cmd.Execute()
}
