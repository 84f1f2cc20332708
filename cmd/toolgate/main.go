// toolgate is the policy gate for AI assistant tool calls.
package main

import "github.com/avolkov/toolgate/internal/cli"

func main() {
	cli.Execute()
}
