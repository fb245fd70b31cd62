package main

import "github.com/ValentinKolb/vmIPC/cmd"

func main() {
	cmd.Execute()
}
