package main

import "github.com/nsxzhou1114/cms-api/cmd"

func main() {
	cmd.Execute()
}
