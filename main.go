package main

import "github.com/rrbz/excel-insight-creator/cmd"

func main() {
	cmd.Execute()
}
