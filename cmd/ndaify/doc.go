// Command ndaify is the NDAify command-line client.
//
// Without a command it starts the interactive shell, which walks a new
// user through storing an API key and then lists their agreements:
//
//	ndaify
//	ndaify nda list --status pending
//	ndaify config set-key
//	ndaify --output json apikey list
package main
