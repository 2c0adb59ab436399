// Package main is the entry point for the VM inventory report tool.
package main

import "vm-inventory/cmd/vmreport/cmd"

func main() {
	cmd.Execute()
}
