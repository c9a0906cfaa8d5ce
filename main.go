package main

import "github.com/aazoaer/health-manager/cmd/healthmgr"

func main() {
	healthmgr.Execute()
}
