package main

import "ec2sched/cmd"

func main() {
	cmd.Execute()
}
