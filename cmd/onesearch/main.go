package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "onesearch"}

	root.AddCommand(serveCMD(), indexCMD(), migrateCMD())
	_ = root.Execute()
}
