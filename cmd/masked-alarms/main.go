package main

import "github.com/pablo-flores/wa-3fecta/cmd/masked-alarms/cmd"

func main() {
	cmd.Execute()
}
