package main

import "github.com/hwtoolkit/rtlsyn/cmd/rtlsyn/cmd"

func main() {
	cmd.Execute()
}
