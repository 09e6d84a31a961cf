// Command tocgen generates and maintains tables of contents in Markdown
// documents.
package main

import "os"

func main() {
	os.Exit(execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
