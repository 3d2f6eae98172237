package main

import "github.com/pablo-flores/wa-3fecta/cmd/masked-alarm-clearer/cmd"

func main() {
	cmd.Execute()
}
