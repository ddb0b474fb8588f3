package main

import "github.com/netkit-tools/oui-updater/cmd/oui-updater/cmd"

func main() {
	cmd.Execute()
}
